package dto

import (
	"mime/multipart"
	"time"

	"fleet/internal/domains/survey/model"
	"fleet/shared"
	gDto "fleet/shared/dto"
)

type SubmitSurveyRequest struct {
	BookingID               string                `json:"booking_id"                validate:"required,uuid"`
	TripCompletionStatus    string                `json:"trip_completion_status"    validate:"required"`
	StartReading            *int64                `json:"start_reading"             validate:"omitempty,gt=0"`
	EndReading              *int64                `json:"end_reading"               validate:"omitempty,gt=0"`
	TimeOfDeparture         *string               `json:"time_of_departure"         validate:"omitempty"`
	TimeOfArrival           *string               `json:"time_of_arrival"           validate:"omitempty"`
	DestinationAddress      *string               `json:"destination_address"       validate:"omitempty,max=300"`
	OriginalLocationChanged bool                  `json:"original_location_changed"`
	PassengerFitRating      *int                  `json:"passenger_fit_rating"      validate:"omitempty,gte=1,lte=5"`
	Comments                *string               `json:"comments"                  validate:"omitempty,max=1000"`
	OdometerPhoto           *multipart.FileHeader `json:"odometer_photo"            validate:"omitempty,mimetypes=image/png image/jpg image/jpeg,maxfilesize=1"`
	OdometerPhotoFile       multipart.File        `json:"-"`
}

type AmendSurveyRequest struct {
	StartReading       *int64  `db:"start_reading"        json:"start_reading"        validate:"omitempty,gt=0"`
	EndReading         *int64  `db:"end_reading"          json:"end_reading"          validate:"omitempty,gt=0"`
	TimeOfDeparture    *string `json:"time_of_departure"    validate:"omitempty"`
	TimeOfArrival      *string `json:"time_of_arrival"      validate:"omitempty"`
	DestinationAddress *string `db:"destination_address"  json:"destination_address"  validate:"omitempty,max=300"`
	PassengerFitRating *int    `db:"passenger_fit_rating" json:"passenger_fit_rating" validate:"omitempty,gte=1,lte=5"`
	Comments           *string `db:"comments"             json:"comments"             validate:"omitempty,max=1000"`
}

type SurveyResponse struct {
	ID                      string  `json:"id"`
	BookingID               string  `json:"booking_id"`
	DriverID                string  `json:"driver_id"`
	TripCompletionStatus    string  `json:"trip_completion_status"`
	StartReading            *int64  `json:"start_reading,omitempty"`
	EndReading              *int64  `json:"end_reading,omitempty"`
	TimeOfDeparture         *string `json:"time_of_departure,omitempty"`
	TimeOfArrival           *string `json:"time_of_arrival,omitempty"`
	DestinationAddress      *string `json:"destination_address,omitempty"`
	OriginalLocationChanged bool    `json:"original_location_changed"`
	PassengerFitRating      *int    `json:"passenger_fit_rating,omitempty"`
	Comments                *string `json:"comments,omitempty"`
	OdometerPhotoURL        *string `json:"odometer_photo_url,omitempty"`
	KmDriven                int64   `json:"km_driven"`
	gDto.Metadata
}

func (r *SurveyResponse) FromModel(mod model.PostTripSurvey) {
	r.ID = mod.ID
	r.BookingID = mod.BookingID
	r.DriverID = mod.DriverID
	r.TripCompletionStatus = mod.TripCompletionStatus
	r.StartReading = mod.StartReading
	r.EndReading = mod.EndReading
	r.TimeOfDeparture = formatInstant(mod.TimeOfDeparture)
	r.TimeOfArrival = formatInstant(mod.TimeOfArrival)
	r.DestinationAddress = mod.DestinationAddress
	r.OriginalLocationChanged = mod.OriginalLocationChanged
	r.PassengerFitRating = mod.PassengerFitRating
	r.Comments = mod.Comments
	r.OdometerPhotoURL = mod.OdometerPhotoURL
	r.KmDriven = mod.KmDriven()
	r.Metadata.FromModel(mod.Metadata)
}

func formatInstant(t *time.Time) *string {
	if t == nil {
		return nil
	}

	formatted := t.Format(time.RFC3339)

	return &formatted
}

type GetSurveysResponse struct {
	Surveys   []SurveyResponse `json:"surveys"`
	TotalPage int              `json:"total_page"`
	TotalData int              `json:"total_data"`
}

func (r *GetSurveysResponse) FromModels(models []model.PostTripSurvey, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Surveys = make([]SurveyResponse, len(models))
	for i, mod := range models {
		r.Surveys[i].FromModel(mod)
	}
}
