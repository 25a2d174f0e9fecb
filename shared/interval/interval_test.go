package interval_test

import (
	"testing"
	"time"

	"fleet/shared/interval"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 3, 11, hour, min, 0, 0, time.UTC)
}

func TestSpan_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		a        interval.Span
		b        interval.Span
		expected bool
	}{
		{
			name:     "disjoint intervals",
			a:        interval.NewSpan(at(9, 0), at(10, 0)),
			b:        interval.NewSpan(at(11, 0), at(12, 0)),
			expected: false,
		},
		{
			name:     "touching endpoints do not overlap",
			a:        interval.NewSpan(at(9, 0), at(10, 0)),
			b:        interval.NewSpan(at(10, 0), at(11, 0)),
			expected: false,
		},
		{
			name:     "partial overlap",
			a:        interval.NewSpan(at(9, 0), at(10, 0)),
			b:        interval.NewSpan(at(9, 30), at(10, 30)),
			expected: true,
		},
		{
			name:     "contained interval",
			a:        interval.NewSpan(at(9, 0), at(12, 0)),
			b:        interval.NewSpan(at(10, 0), at(11, 0)),
			expected: true,
		},
		{
			name:     "identical intervals",
			a:        interval.NewSpan(at(9, 0), at(10, 0)),
			b:        interval.NewSpan(at(9, 0), at(10, 0)),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.expected {
				t.Errorf("Overlaps() = %v, expected %v", got, tt.expected)
			}

			// overlap is symmetric
			if got := tt.b.Overlaps(tt.a); got != tt.expected {
				t.Errorf("Overlaps() reversed = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestWithinGap(t *testing.T) {
	tests := []struct {
		name           string
		candidateStart time.Time
		previousEnd    time.Time
		maxGapMinutes  int
		expected       bool
	}{
		{
			name:           "zero gap",
			candidateStart: at(10, 0),
			previousEnd:    at(10, 0),
			maxGapMinutes:  60,
			expected:       true,
		},
		{
			name:           "gap exactly at limit",
			candidateStart: at(11, 0),
			previousEnd:    at(10, 0),
			maxGapMinutes:  60,
			expected:       true,
		},
		{
			name:           "gap above limit",
			candidateStart: at(11, 1),
			previousEnd:    at(10, 0),
			maxGapMinutes:  60,
			expected:       false,
		},
		{
			name:           "candidate before previous end",
			candidateStart: at(9, 30),
			previousEnd:    at(10, 0),
			maxGapMinutes:  60,
			expected:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interval.WithinGap(tt.candidateStart, tt.previousEnd, tt.maxGapMinutes)
			if got != tt.expected {
				t.Errorf("WithinGap() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestRoundUpToSlot(t *testing.T) {
	tests := []struct {
		name        string
		input       time.Time
		slotMinutes int
		expected    time.Time
	}{
		{
			name:        "rounds up inside slot",
			input:       at(14, 7),
			slotMinutes: 15,
			expected:    at(14, 15),
		},
		{
			name:        "already aligned stays put",
			input:       at(14, 15),
			slotMinutes: 15,
			expected:    at(14, 15),
		},
		{
			name:        "rounds up to next hour",
			input:       at(14, 46),
			slotMinutes: 15,
			expected:    at(15, 0),
		},
		{
			name:        "sub-minute precision rounds up",
			input:       time.Date(2024, 3, 11, 14, 15, 30, 0, time.UTC),
			slotMinutes: 15,
			expected:    at(14, 30),
		},
		{
			name:        "zero slot is a no-op",
			input:       at(14, 7),
			slotMinutes: 0,
			expected:    at(14, 7),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interval.RoundUpToSlot(tt.input, tt.slotMinutes)
			if !got.Equal(tt.expected) {
				t.Errorf("RoundUpToSlot() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestSpan_Valid(t *testing.T) {
	if !interval.NewSpan(at(9, 0), at(10, 0)).Valid() {
		t.Error("expected forward span to be valid")
	}

	if interval.NewSpan(at(10, 0), at(10, 0)).Valid() {
		t.Error("expected zero-length span to be invalid")
	}

	if interval.NewSpan(at(11, 0), at(10, 0)).Valid() {
		t.Error("expected reversed span to be invalid")
	}
}
