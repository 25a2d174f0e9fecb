package model

import (
	"time"

	"fleet/shared/model"
)

const (
	TableName  = "post_trip_surveys"
	EntityName = "survey"

	FieldID                      = "id"
	FieldBookingID               = "booking_id"
	FieldDriverID                = "driver_id"
	FieldTripCompletionStatus    = "trip_completion_status"
	FieldStartReading            = "start_reading"
	FieldEndReading              = "end_reading"
	FieldTimeOfDeparture         = "time_of_departure"
	FieldTimeOfArrival           = "time_of_arrival"
	FieldDestinationAddress      = "destination_address"
	FieldOriginalLocationChanged = "original_location_changed"
	FieldPassengerFitRating      = "passenger_fit_rating"
	FieldComments                = "comments"
	FieldOdometerPhotoURL        = "odometer_photo_url"
)

// PostTripSurvey reconciles what actually happened on a trip against its
// booking. At most one row exists per booking; the unique index on
// booking_id is the last line of defense against concurrent submissions.
type PostTripSurvey struct {
	ID                      string     `db:"id"`
	BookingID               string     `db:"booking_id"`
	DriverID                string     `db:"driver_id"`
	TripCompletionStatus    string     `db:"trip_completion_status"`
	StartReading            *int64     `db:"start_reading"`
	EndReading              *int64     `db:"end_reading"`
	TimeOfDeparture         *time.Time `db:"time_of_departure"`
	TimeOfArrival           *time.Time `db:"time_of_arrival"`
	DestinationAddress      *string    `db:"destination_address"`
	OriginalLocationChanged bool       `db:"original_location_changed"`
	PassengerFitRating      *int       `db:"passenger_fit_rating"`
	Comments                *string    `db:"comments"`
	OdometerPhotoURL        *string    `db:"odometer_photo_url"`
	model.Metadata
}

// KmDriven is the distance reconciled from the odometer, zero when either
// reading is missing.
func (s *PostTripSurvey) KmDriven() int64 {
	if s.StartReading == nil || s.EndReading == nil {
		return 0
	}

	return *s.EndReading - *s.StartReading
}
