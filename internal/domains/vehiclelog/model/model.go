package model

import (
	"time"

	bookingModel "fleet/internal/domains/booking/model"
	surveyModel "fleet/internal/domains/survey/model"
)

const (
	EntityName = "vehicle_log"

	FieldBookingID = "booking_id"
	FieldDriverID  = "driver_id"
)

// VehicleLogRow is the audit view of a reconciled trip. It has no identity of
// its own: it is recomputed from the survey and booking rows on every read and
// is never stored as an editable copy.
type VehicleLogRow struct {
	SurveyID      string
	BookingID     string
	Date          time.Time
	DepartureTime time.Time
	ArrivalTime   *time.Time
	Destination   string
	StartReading  *int64
	EndReading    *int64
	KmDriven      int64
	DriverName    string
}

// Project derives the vehicle-log row from its sources. Survey values win;
// the booking fills the gaps the driver left blank.
func Project(survey surveyModel.PostTripSurvey, booking bookingModel.Booking, driverName string) VehicleLogRow {
	departure := booking.StartTime
	if survey.TimeOfDeparture != nil {
		departure = *survey.TimeOfDeparture
	}

	destination := booking.DestinationAddress
	if survey.DestinationAddress != nil && *survey.DestinationAddress != "" {
		destination = *survey.DestinationAddress
	}

	return VehicleLogRow{
		SurveyID:      survey.ID,
		BookingID:     booking.ID,
		Date:          departure,
		DepartureTime: departure,
		ArrivalTime:   survey.TimeOfArrival,
		Destination:   destination,
		StartReading:  survey.StartReading,
		EndReading:    survey.EndReading,
		KmDriven:      survey.KmDriven(),
		DriverName:    driverName,
	}
}

// Record is the joined persistence view the projection is computed from: one
// row per survey, joined with its booking and the driver's user row.
type Record struct {
	SurveyID            string     `db:"id"`
	BookingID           string     `db:"booking_id"`
	DriverID            string     `db:"driver_id"`
	TripStatus          string     `db:"trip_completion_status"`
	StartReading        *int64     `db:"start_reading"`
	EndReading          *int64     `db:"end_reading"`
	TimeOfDeparture     *time.Time `db:"time_of_departure"`
	TimeOfArrival       *time.Time `db:"time_of_arrival"`
	SurveyDestination   *string    `db:"destination_address"`
	BookingTitle        string     `db:"booking_title"        table:"bookings" column:"title"`
	BookingStartTime    time.Time  `db:"booking_start_time"   table:"bookings" column:"start_time"`
	BookingEndTime      time.Time  `db:"booking_end_time"     table:"bookings" column:"end_time"`
	BookingDestination  string     `db:"booking_destination"  table:"bookings" column:"destination_address"`
	DriverFullName      *string    `db:"driver_full_name"     table:"users"    column:"full_name"`
}

func (Record) GetJoinQuery() string {
	return "JOIN bookings ON bookings.id = " + surveyModel.TableName + ".booking_id " +
		"JOIN users ON users.id = " + surveyModel.TableName + ".driver_id"
}

// Sources splits the joined record back into the projection inputs.
func (r *Record) Sources() (surveyModel.PostTripSurvey, bookingModel.Booking, string) {
	survey := surveyModel.PostTripSurvey{
		ID:                   r.SurveyID,
		BookingID:            r.BookingID,
		DriverID:             r.DriverID,
		TripCompletionStatus: r.TripStatus,
		StartReading:         r.StartReading,
		EndReading:           r.EndReading,
		TimeOfDeparture:      r.TimeOfDeparture,
		TimeOfArrival:        r.TimeOfArrival,
		DestinationAddress:   r.SurveyDestination,
	}

	booking := bookingModel.Booking{
		ID:                 r.BookingID,
		Title:              r.BookingTitle,
		DestinationAddress: r.BookingDestination,
		StartTime:          r.BookingStartTime,
		EndTime:            r.BookingEndTime,
		DriverID:           &r.DriverID,
	}

	driverName := ""
	if r.DriverFullName != nil {
		driverName = *r.DriverFullName
	}

	return survey, booking, driverName
}
