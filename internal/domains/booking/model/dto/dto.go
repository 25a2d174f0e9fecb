package dto

import (
	"time"

	"github.com/google/uuid"

	"fleet/internal/domains/booking/model"
	"fleet/shared"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
	gModel "fleet/shared/model"
	"fleet/shared/timezone"
)

type CreateBookingRequest struct {
	Title              string  `json:"title"               validate:"required,max=150"`
	PickupAddress      string  `json:"pickup_address"      validate:"required,max=300"`
	DestinationAddress string  `json:"destination_address" validate:"required,max=300"`
	Purpose            *string `json:"purpose"             validate:"omitempty,max=300"`
	PassengerName      string  `json:"passenger_name"      validate:"required,max=100"`
	PassengerCount     int     `json:"passenger_count"     validate:"required,gte=1,lte=50"`
	Phone              *string `json:"phone"               validate:"omitempty,max=20"`
	StartTime          string  `json:"start_time"          validate:"required"`
	EndTime            string  `json:"end_time"            validate:"required"`
	DriverID           *string `json:"driver_id"           validate:"omitempty,uuid"`
}

func (c *CreateBookingRequest) ToModel(agencyID, user string) (model.Booking, error) {
	startTime, err := time.Parse(time.RFC3339, c.StartTime)
	if err != nil {
		return model.Booking{}, failure.BadRequestFromString("start_time must be a valid RFC3339 timestamp") //nolint:wrapcheck
	}

	endTime, err := time.Parse(time.RFC3339, c.EndTime)
	if err != nil {
		return model.Booking{}, failure.BadRequestFromString("end_time must be a valid RFC3339 timestamp") //nolint:wrapcheck
	}

	if !startTime.Before(endTime) {
		return model.Booking{}, failure.BadRequestFromString("start_time must be before end_time") //nolint:wrapcheck
	}

	return model.Booking{
		ID:                 uuid.NewString(),
		Title:              c.Title,
		PickupAddress:      c.PickupAddress,
		DestinationAddress: c.DestinationAddress,
		Purpose:            c.Purpose,
		PassengerName:      c.PassengerName,
		PassengerCount:     c.PassengerCount,
		Phone:              c.Phone,
		Status:             model.StatusIncomplete,
		SurveyCompleted:    false,
		StartTime:          startTime,
		EndTime:            endTime,
		AgencyID:           agencyID,
		DriverID:           c.DriverID,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

type UpdateBookingRequest struct {
	Title          string  `db:"title"           json:"title"           validate:"omitempty,max=150"`
	Purpose        string  `db:"purpose"         json:"purpose"         validate:"omitempty,max=300"`
	PassengerName  string  `db:"passenger_name"  json:"passenger_name"  validate:"omitempty,max=100"`
	PassengerCount int     `db:"passenger_count" json:"passenger_count" validate:"omitempty,gte=1,lte=50"`
	Phone          string  `db:"phone"           json:"phone"           validate:"omitempty,max=20"`
}

type CheckAvailabilityRequest struct {
	DriverID      string `json:"driver_id"      validate:"required,uuid"`
	StartTime     string `json:"start_time"     validate:"required"`
	EndTime       string `json:"end_time"       validate:"required"`
	PickupAddress string `json:"pickup_address" validate:"required,max=300"`
}

type EarliestStartRequest struct {
	DriverID        string `json:"driver_id"        validate:"required,uuid"`
	ProposedTime    string `json:"proposed_time"    validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,gte=1,lte=1440"`
	PickupAddress   string `json:"pickup_address"   validate:"required,max=300"`
}

const (
	OutcomeFeasible               = "feasible"
	OutcomeConflict               = "conflict"
	OutcomeInsufficientTravelTime = "insufficient_travel_time"
)

type AvailabilityResponse struct {
	Outcome            string `json:"outcome"`
	ConflictBookingID  string `json:"conflict_booking_id,omitempty"`
	ShortfallMinutes   int    `json:"shortfall_minutes,omitempty"`
	TravelCheckSkipped bool   `json:"travel_check_skipped,omitempty"`
}

type EarliestStartResponse struct {
	EarliestStart      string `json:"earliest_start"`
	TravelCheckSkipped bool   `json:"travel_check_skipped,omitempty"`
}

type BookingResponse struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	PickupAddress      string  `json:"pickup_address"`
	DestinationAddress string  `json:"destination_address"`
	Purpose            *string `json:"purpose,omitempty"`
	PassengerName      string  `json:"passenger_name"`
	PassengerCount     int     `json:"passenger_count"`
	Phone              *string `json:"phone,omitempty"`
	Status             string  `json:"status"`
	SurveyCompleted    bool    `json:"survey_completed"`
	StartTime          string  `json:"start_time"`
	EndTime            string  `json:"end_time"`
	AgencyID           string  `json:"agency_id"`
	DriverID           *string `json:"driver_id,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(mod model.Booking) {
	r.ID = mod.ID
	r.Title = mod.Title
	r.PickupAddress = mod.PickupAddress
	r.DestinationAddress = mod.DestinationAddress
	r.Purpose = mod.Purpose
	r.PassengerName = mod.PassengerName
	r.PassengerCount = mod.PassengerCount
	r.Phone = mod.Phone
	r.Status = string(mod.Status)
	r.SurveyCompleted = mod.SurveyCompleted
	r.StartTime = mod.StartTime.Format(time.RFC3339)
	r.EndTime = mod.EndTime.Format(time.RFC3339)
	r.AgencyID = mod.AgencyID
	r.DriverID = mod.DriverID
	r.Metadata.FromModel(mod.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
