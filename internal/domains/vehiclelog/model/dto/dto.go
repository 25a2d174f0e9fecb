package dto

import (
	"time"

	"fleet/internal/domains/vehiclelog/model"
	"fleet/shared"
)

type VehicleLogResponse struct {
	SurveyID      string  `json:"survey_id"`
	BookingID     string  `json:"booking_id"`
	Date          string  `json:"date"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   *string `json:"arrival_time,omitempty"`
	Destination   string  `json:"destination"`
	StartReading  *int64  `json:"start_reading,omitempty"`
	EndReading    *int64  `json:"end_reading,omitempty"`
	KmDriven      int64   `json:"km_driven"`
	DriverName    string  `json:"driver_name"`
}

func (r *VehicleLogResponse) FromRow(row model.VehicleLogRow) {
	r.SurveyID = row.SurveyID
	r.BookingID = row.BookingID
	r.Date = row.Date.Format(time.DateOnly)
	r.DepartureTime = row.DepartureTime.Format(time.RFC3339)
	r.Destination = row.Destination
	r.StartReading = row.StartReading
	r.EndReading = row.EndReading
	r.KmDriven = row.KmDriven
	r.DriverName = row.DriverName

	if row.ArrivalTime != nil {
		arrival := row.ArrivalTime.Format(time.RFC3339)
		r.ArrivalTime = &arrival
	}
}

type GetVehicleLogsResponse struct {
	VehicleLogs []VehicleLogResponse `json:"vehicle_logs"`
	TotalPage   int                  `json:"total_page"`
	TotalData   int                  `json:"total_data"`
}

func (r *GetVehicleLogsResponse) FromRows(rows []model.VehicleLogRow, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.VehicleLogs = make([]VehicleLogResponse, len(rows))
	for i, row := range rows {
		r.VehicleLogs[i].FromRow(row)
	}
}
