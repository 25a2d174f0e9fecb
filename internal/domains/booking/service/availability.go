package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"fleet/internal/domains/booking/model"
	"fleet/internal/domains/booking/model/dto"
	"fleet/shared/constant"
	"fleet/shared/failure"
	"fleet/shared/interval"
)

// earliestStartScanBound caps the forward scan so a pathological schedule can
// never loop the resolver.
const earliestStartScanBound = 2

// CheckAvailability reports whether the driver can serve a trip over the given
// span. The schedule is read under the driver's advisory lock so the answer is
// consistent with concurrent assignments.
func (s *serviceImpl) CheckAvailability(ctx context.Context, req dto.CheckAvailabilityRequest) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return res, failure.BadRequestFromString("start_time must be a valid RFC3339 timestamp") //nolint:wrapcheck
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return res, failure.BadRequestFromString("end_time must be a valid RFC3339 timestamp") //nolint:wrapcheck
	}

	candidate := interval.NewSpan(startTime, endTime)
	if !candidate.Valid() {
		return res, failure.BadRequestFromString("start_time must be before end_time") //nolint:wrapcheck
	}

	err = s.txr.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.LockDriverScheduleTx(ctx, tx, req.DriverID); err != nil {
			return err
		}

		outcome, err := s.evaluateCandidateTx(ctx, tx, req.DriverID, candidate, req.PickupAddress, constant.Empty)
		if err != nil {
			return err
		}

		res = outcome

		return nil
	})
	if err != nil {
		return res, err
	}

	return res, nil
}

// EarliestStart scans forward from the proposed time for the first slot-aligned
// start at which the trip is feasible.
func (s *serviceImpl) EarliestStart(ctx context.Context, req dto.EarliestStartRequest) (res dto.EarliestStartResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".EarliestStart")
	defer scope.End()
	defer scope.TraceIfError(err)

	proposed, err := time.Parse(time.RFC3339, req.ProposedTime)
	if err != nil {
		return res, failure.BadRequestFromString("proposed_time must be a valid RFC3339 timestamp") //nolint:wrapcheck
	}

	slotMinutes := s.cfg.Engine.TimeSlotRoundingMinutes

	durationMinutes := req.DurationMinutes
	if durationMinutes == 0 {
		durationMinutes = slotMinutes
	}

	duration := time.Duration(durationMinutes) * time.Minute

	err = s.txr.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.LockDriverScheduleTx(ctx, tx, req.DriverID); err != nil {
			return err
		}

		schedule, err := s.repo.ListActiveForDriverTx(ctx, tx, req.DriverID)
		if err != nil {
			return err
		}

		candidateStart := interval.RoundUpToSlot(proposed, slotMinutes)

		for range len(schedule)*earliestStartScanBound + 1 {
			candidate := interval.NewSpan(candidateStart, candidateStart.Add(duration))

			outcome := s.evaluateCandidate(ctx, schedule, candidate, req.PickupAddress, constant.Empty, true)

			switch outcome.Outcome {
			case dto.OutcomeFeasible:
				res.EarliestStart = candidateStart.Format(time.RFC3339)
				res.TravelCheckSkipped = outcome.TravelCheckSkipped

				return nil
			case dto.OutcomeConflict:
				next, ok := scheduleEnd(schedule, outcome.ConflictBookingID)
				if !ok {
					return failure.InternalError(fmt.Errorf("conflicting booking %s missing from schedule", outcome.ConflictBookingID)) //nolint:wrapcheck
				}

				candidateStart = interval.RoundUpToSlot(next, slotMinutes)
			case dto.OutcomeInsufficientTravelTime:
				shortfall := time.Duration(outcome.ShortfallMinutes) * time.Minute
				candidateStart = interval.RoundUpToSlot(candidateStart.Add(shortfall), slotMinutes)
			}
		}

		return failure.Conflict("no feasible start found near the proposed time") //nolint:wrapcheck
	})
	if err != nil {
		return res, err
	}

	return res, nil
}

// evaluateCandidateTx loads the driver's schedule through the locked
// transaction and evaluates the candidate span against it.
func (s *serviceImpl) evaluateCandidateTx(ctx context.Context, tx *sqlx.Tx, driverID string, candidate interval.Span, pickupAddress, excludeID string) (dto.AvailabilityResponse, error) {
	schedule, err := s.repo.ListActiveForDriverTx(ctx, tx, driverID)
	if err != nil {
		return dto.AvailabilityResponse{}, err
	}

	return s.evaluateCandidate(ctx, schedule, candidate, pickupAddress, excludeID, false), nil
}

// evaluateCandidate applies the two feasibility gates in order: interval
// overlap first, then the travel-time gate against the nearest preceding
// trip. Oracle failures degrade to a skipped travel check, never an error.
// The conflict check proper never blocks on an unknown oracle; the
// earliest-start scan (enforcePickupWait) still insists on the pickup wait
// so the computed slot leaves the driver time to reposition.
func (s *serviceImpl) evaluateCandidate(ctx context.Context, schedule []model.Booking, candidate interval.Span, pickupAddress, excludeID string, enforcePickupWait bool) dto.AvailabilityResponse {
	var predecessor *model.Booking

	for i := range schedule {
		existing := &schedule[i]

		if existing.ID == excludeID || !existing.Active() {
			continue
		}

		if candidate.Overlaps(existing.Span()) {
			return dto.AvailabilityResponse{
				Outcome:           dto.OutcomeConflict,
				ConflictBookingID: existing.ID,
			}
		}

		if !existing.EndTime.After(candidate.Start) {
			if predecessor == nil || existing.EndTime.After(predecessor.EndTime) {
				predecessor = existing
			}
		}
	}

	if predecessor == nil {
		return dto.AvailabilityResponse{Outcome: dto.OutcomeFeasible}
	}

	if !interval.WithinGap(candidate.Start, predecessor.EndTime, s.cfg.Engine.MaxGapMinutesForTravelCheck) {
		return dto.AvailabilityResponse{Outcome: dto.OutcomeFeasible}
	}

	gap := candidate.Start.Sub(predecessor.EndTime)

	travelMinutes, known := s.oracle.EstimateMinutes(ctx, predecessor.DestinationAddress, pickupAddress)
	if !known && !enforcePickupWait {
		return dto.AvailabilityResponse{
			Outcome:            dto.OutcomeFeasible,
			TravelCheckSkipped: true,
		}
	}

	var required time.Duration

	skipped := false

	if known {
		required = time.Duration(travelMinutes+s.cfg.Engine.TravelBufferMinutes) * time.Minute
	} else {
		skipped = true
	}

	if enforcePickupWait {
		wait := time.Duration(s.cfg.Engine.PickupWaitTimeMinutes) * time.Minute
		if wait > required {
			required = wait
		}
	}

	if gap < required {
		return dto.AvailabilityResponse{
			Outcome:            dto.OutcomeInsufficientTravelTime,
			ShortfallMinutes:   int((required - gap) / time.Minute),
			TravelCheckSkipped: skipped,
		}
	}

	return dto.AvailabilityResponse{
		Outcome:            dto.OutcomeFeasible,
		TravelCheckSkipped: skipped,
	}
}

func scheduleEnd(schedule []model.Booking, bookingID string) (time.Time, bool) {
	for i := range schedule {
		if schedule[i].ID == bookingID {
			return schedule[i].EndTime, true
		}
	}

	return time.Time{}, false
}

// outcomeToFailure translates a non-feasible availability outcome into the
// error surfaced by assignment operations.
func outcomeToFailure(outcome dto.AvailabilityResponse) error {
	switch outcome.Outcome {
	case dto.OutcomeConflict:
		return failure.Conflict(fmt.Sprintf("schedule conflict with booking %s", outcome.ConflictBookingID)) //nolint:wrapcheck
	case dto.OutcomeInsufficientTravelTime:
		return failure.UnprocessableEntity(fmt.Sprintf("insufficient travel time before pickup, short by %d minutes", outcome.ShortfallMinutes)) //nolint:wrapcheck
	}

	return nil
}
