package model

import (
	"time"

	"fleet/shared/interval"
	"fleet/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID                 = "id"
	FieldTitle              = "title"
	FieldPickupAddress      = "pickup_address"
	FieldDestinationAddress = "destination_address"
	FieldPurpose            = "purpose"
	FieldPassengerName      = "passenger_name"
	FieldPassengerCount     = "passenger_count"
	FieldPhone              = "phone"
	FieldStatus             = "status"
	FieldSurveyCompleted    = "survey_completed"
	FieldStartTime          = "start_time"
	FieldEndTime            = "end_time"
	FieldAgencyID           = "agency_id"
	FieldDriverID           = "driver_id"
)

// Status is the booking lifecycle state. Cancelled is terminal; bookings are
// never physically removed so the audit trail stays intact.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusIncomplete, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(value), true
	}

	return "", false
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo encodes the lifecycle state machine:
// incomplete -> in_progress (driver starts the trip),
// incomplete|in_progress -> completed (via a completed survey),
// any non-terminal -> cancelled.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}

	switch next {
	case StatusInProgress:
		return s == StatusIncomplete
	case StatusCompleted:
		return s == StatusIncomplete || s == StatusInProgress
	case StatusCancelled:
		return true
	case StatusIncomplete:
		return false
	}

	return false
}

type Booking struct {
	ID                 string    `db:"id"`
	Title              string    `db:"title"`
	PickupAddress      string    `db:"pickup_address"`
	DestinationAddress string    `db:"destination_address"`
	Purpose            *string   `db:"purpose"`
	PassengerName      string    `db:"passenger_name"`
	PassengerCount     int       `db:"passenger_count"`
	Phone              *string   `db:"phone"`
	Status             Status    `db:"status"`
	SurveyCompleted    bool      `db:"survey_completed"`
	StartTime          time.Time `db:"start_time"`
	EndTime            time.Time `db:"end_time"`
	AgencyID           string    `db:"agency_id"`
	DriverID           *string   `db:"driver_id"`
	model.Metadata
}

// Span returns the booking's half-open occupancy interval.
func (b *Booking) Span() interval.Span {
	return interval.NewSpan(b.StartTime, b.EndTime)
}

// Active reports whether the booking still occupies its driver's schedule.
func (b *Booking) Active() bool {
	return b.Status != StatusCancelled
}

// AssignedTo reports whether the booking belongs to the given driver.
func (b *Booking) AssignedTo(driverID string) bool {
	return b.DriverID != nil && *b.DriverID == driverID
}
