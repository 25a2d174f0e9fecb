// Package interval holds the pure time-interval arithmetic the scheduling
// engine is built on. Intervals are half-open [start, end): trips that touch
// at an endpoint do not overlap.
package interval

import "time"

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// NewSpan builds a Span without validating order; callers that accept user
// input must check Valid.
func NewSpan(start, end time.Time) Span {
	return Span{Start: start, End: end}
}

// Valid reports whether the span has positive length.
func (s Span) Valid() bool {
	return s.Start.Before(s.End)
}

// Duration returns End - Start.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether two half-open intervals intersect.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// Contains reports whether t falls inside the half-open interval.
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// WithinGap reports whether candidateStart follows previousEnd by at most
// maxGapMinutes. A candidate that starts before previousEnd is not "within
// the gap"; that situation is an overlap and is handled elsewhere.
func WithinGap(candidateStart, previousEnd time.Time, maxGapMinutes int) bool {
	gap := candidateStart.Sub(previousEnd)

	return gap >= 0 && gap <= time.Duration(maxGapMinutes)*time.Minute
}

// RoundUpToSlot rounds t up to the next slotMinutes boundary of the hour.
// Times already on a boundary are returned unchanged (with sub-minute
// precision dropped): 14:07 -> 14:15, 14:15 -> 14:15, 14:46 -> 15:00.
func RoundUpToSlot(t time.Time, slotMinutes int) time.Time {
	if slotMinutes <= 0 {
		return t
	}

	slot := time.Duration(slotMinutes) * time.Minute
	truncated := t.Truncate(slot)

	if truncated.Equal(t) {
		return t
	}

	return truncated.Add(slot)
}
