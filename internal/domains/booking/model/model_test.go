package model_test

import (
	"testing"

	"fleet/internal/domains/booking/model"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     model.Status
		to       model.Status
		expected bool
	}{
		{"incomplete starts trip", model.StatusIncomplete, model.StatusInProgress, true},
		{"incomplete completes via survey", model.StatusIncomplete, model.StatusCompleted, true},
		{"incomplete cancels", model.StatusIncomplete, model.StatusCancelled, true},
		{"in_progress completes", model.StatusInProgress, model.StatusCompleted, true},
		{"in_progress cancels", model.StatusInProgress, model.StatusCancelled, true},
		{"in_progress cannot restart", model.StatusInProgress, model.StatusInProgress, false},
		{"in_progress cannot revert", model.StatusInProgress, model.StatusIncomplete, false},
		{"completed is terminal", model.StatusCompleted, model.StatusCancelled, false},
		{"cancelled is terminal", model.StatusCancelled, model.StatusInProgress, false},
		{"cancelled stays cancelled", model.StatusCancelled, model.StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expected {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, expected %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if _, ok := model.ParseStatus("in_progress"); !ok {
		t.Error("expected in_progress to parse")
	}

	if _, ok := model.ParseStatus("paused"); ok {
		t.Error("expected unknown status to be rejected")
	}
}

func TestBooking_Active(t *testing.T) {
	booking := model.Booking{Status: model.StatusIncomplete}
	if !booking.Active() {
		t.Error("expected incomplete booking to be active")
	}

	booking.Status = model.StatusCompleted
	if !booking.Active() {
		t.Error("expected completed booking to remain active for overlap checks")
	}

	booking.Status = model.StatusCancelled
	if booking.Active() {
		t.Error("expected cancelled booking to free its slot")
	}
}
