package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"fleet/config"
	"fleet/infras/kafka"
	"fleet/infras/otel"
	"fleet/infras/postgres"
	"fleet/infras/s3"
	bookingModel "fleet/internal/domains/booking/model"
	bookingRepo "fleet/internal/domains/booking/repository"
	"fleet/internal/domains/survey/model"
	"fleet/internal/domains/survey/model/dto"
	"fleet/internal/domains/survey/repository"
	vehicleLogModel "fleet/internal/domains/vehiclelog/model"
	"fleet/shared"
	"fleet/shared/cache"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
	gModel "fleet/shared/model"
	"fleet/shared/timezone"
)

const (
	cacheGetSurvey    = "survey:get"
	cacheGetAllSurvey = "survey:gets"
	cacheCountSurvey  = "survey:count"

	cacheBookingPrefix = "booking"
)

type Survey interface {
	Submit(ctx context.Context, req dto.SubmitSurveyRequest) (dto.SurveyResponse, error)
	Amend(ctx context.Context, req dto.AmendSurveyRequest, id string) error
	Get(ctx context.Context, id string) (dto.SurveyResponse, error)
	GetByBookingID(ctx context.Context, bookingID string) (dto.SurveyResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetSurveysResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
}

type serviceImpl struct {
	repo     repository.Survey
	bookings bookingRepo.Booking
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
	txr      postgres.TxRunner
	s3       s3.S3
	kafka    kafka.Client
}

func New(
	repo repository.Survey,
	bookings bookingRepo.Booking,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
	txr postgres.TxRunner,
	s3 s3.S3,
	kafkaClient kafka.Client,
) Survey {
	return &serviceImpl{
		repo:     repo,
		bookings: bookings,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
		txr:      txr,
		s3:       s3,
		kafka:    kafkaClient,
	}
}

// Submit reconciles a driver's post-trip survey against its booking. The
// survey insert and the booking's surveyed flag flip commit together or not
// at all.
func (s *serviceImpl) Submit(ctx context.Context, req dto.SubmitSurveyRequest) (res dto.SurveyResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Submit")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	tripStatus, ok := bookingModel.ParseStatus(req.TripCompletionStatus)
	if !ok {
		return res, failure.BadRequestFromString("trip_completion_status must be one of incomplete, in_progress, completed, cancelled") //nolint:wrapcheck
	}

	departure, err := parseInstant(req.TimeOfDeparture, "time_of_departure")
	if err != nil {
		return res, err
	}

	arrival, err := parseInstant(req.TimeOfArrival, "time_of_arrival")
	if err != nil {
		return res, err
	}

	photoURL, photoObject, err := s.uploadOdometerPhoto(ctx, req)
	if err != nil {
		return res, err
	}

	survey := model.PostTripSurvey{
		ID:                      uuid.NewString(),
		BookingID:               req.BookingID,
		DriverID:                user,
		TripCompletionStatus:    string(tripStatus),
		StartReading:            req.StartReading,
		EndReading:              req.EndReading,
		TimeOfDeparture:         departure,
		TimeOfArrival:           arrival,
		DestinationAddress:      req.DestinationAddress,
		OriginalLocationChanged: req.OriginalLocationChanged,
		PassengerFitRating:      req.PassengerFitRating,
		Comments:                req.Comments,
		OdometerPhotoURL:        photoURL,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}

	err = s.txr.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		booking, err := s.bookings.GetTx(ctx, tx, shared.FilterByID(req.BookingID, bookingModel.FieldID, bookingModel.TableName))
		if err != nil {
			return err
		}

		if booking.ID == constant.Empty {
			return failure.NotFound("booking not found") //nolint:wrapcheck
		}

		if booking.SurveyCompleted {
			return failure.Conflict("booking already has a survey") //nolint:wrapcheck
		}

		if !booking.AssignedTo(user) {
			return failure.Forbidden("survey must be submitted by the booking's driver") //nolint:wrapcheck
		}

		if timezone.Now().Before(booking.EndTime) {
			return failure.UnprocessableEntity("survey cannot be submitted before the trip ends") //nolint:wrapcheck
		}

		if err := validateReconciliation(&survey, tripStatus); err != nil {
			return err
		}

		if err := s.repo.InsertTx(ctx, tx, survey); err != nil {
			return translateUniqueViolation(err)
		}

		updates := map[string]any{
			bookingModel.FieldSurveyCompleted: true,
			constant.FieldModifiedAt:          timezone.Now(),
			constant.FieldModifiedBy:          user,
		}

		if next := nextBookingStatus(booking.Status, tripStatus); next != constant.Empty {
			updates[bookingModel.FieldStatus] = next
		}

		return s.bookings.UpdateTx(ctx, tx, updates, shared.FilterByID(req.BookingID, bookingModel.FieldID, bookingModel.TableName))
	})
	if err != nil {
		s.cleanupPhoto(ctx, photoObject)

		return res, err
	}

	s.invalidateCaches(ctx, survey.ID)
	s.publish(ctx, survey)

	res.FromModel(survey)

	return res, nil
}

// Amend lets the submitting driver (or an administrator) correct a survey.
// The odometer rule is re-validated against the merged record.
func (s *serviceImpl) Amend(ctx context.Context, req dto.AmendSurveyRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Amend")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	survey, err := s.repo.Get(ctx, filter)
	if err != nil {
		return err
	}

	if survey.ID == constant.Empty {
		return failure.NotFound("survey not found") //nolint:wrapcheck
	}

	if survey.DriverID != user && role != string(constant.RoleAdmin) {
		return failure.Forbidden("survey may only be amended by its submitting driver") //nolint:wrapcheck
	}

	updates, err := buildAmendment(&survey, req)
	if err != nil {
		return err
	}

	updates[constant.FieldModifiedAt] = timezone.Now()
	updates[constant.FieldModifiedBy] = user

	if err = s.repo.Update(ctx, updates, filter); err != nil {
		return err
	}

	s.invalidateCaches(ctx, id)

	return nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.SurveyResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetSurvey, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for survey")

		return res, nil
	}

	survey, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get survey")

		return res, fmt.Errorf("failed to get survey: %w", err)
	}

	if survey.ID == constant.Empty {
		return res, failure.NotFound("survey not found") //nolint:wrapcheck
	}

	res.FromModel(survey)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save survey to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetByBookingID(ctx context.Context, bookingID string) (res dto.SurveyResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetByBookingID")
	defer scope.End()
	defer scope.TraceIfError(err)

	survey, err := s.repo.Get(ctx, shared.FilterByID(bookingID, model.FieldBookingID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get survey by booking")

		return res, fmt.Errorf("failed to get survey by booking: %w", err)
	}

	if survey.ID == constant.Empty {
		return res, failure.NotFound("survey not found") //nolint:wrapcheck
	}

	res.FromModel(survey)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetSurveysResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllSurvey, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for surveys")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count surveys")

		return res, fmt.Errorf("failed to count surveys: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get surveys")

		return res, fmt.Errorf("failed to get surveys: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save surveys to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountSurvey, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for survey count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count surveys")

		return res, fmt.Errorf("failed to count surveys: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save survey count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) uploadOdometerPhoto(ctx context.Context, req dto.SubmitSurveyRequest) (*string, string, error) {
	if req.OdometerPhoto == nil {
		return nil, constant.Empty, nil
	}

	data, err := io.ReadAll(req.OdometerPhotoFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to read odometer photo")

		return nil, constant.Empty, fmt.Errorf("failed to read odometer photo: %w", err)
	}

	filename := uuid.NewString()

	parts := strings.Split(req.OdometerPhoto.Filename, ".")
	if len(parts) > 1 {
		filename = fmt.Sprintf("%s.%s", filename, parts[len(parts)-1])
	}

	contentType := req.OdometerPhoto.Header.Get("Content-Type")

	url, err := s.s3.UploadFileBytes(ctx, s.cfg.External.S3.BucketName, model.EntityName, filename, contentType, data)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload odometer photo to S3")

		return nil, constant.Empty, fmt.Errorf("failed to upload odometer photo: %w", err)
	}

	return &url, filename, nil
}

func (s *serviceImpl) cleanupPhoto(ctx context.Context, objectName string) {
	if objectName == constant.Empty {
		return
	}

	_ = s.s3.DeleteFile(ctx, s.cfg.External.S3.BucketName, model.EntityName, objectName)
}

func (s *serviceImpl) invalidateCaches(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetSurvey, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete survey cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllSurvey)
		shared.InvalidateCaches(c, s.cache, cacheCountSurvey)
		shared.InvalidateCaches(c, s.cache, cacheBookingPrefix)
		// The vehicle log is a projection over surveys; its cached pages go
		// stale the moment a survey row changes.
		shared.InvalidateCaches(c, s.cache, vehicleLogModel.EntityName)
	}()
}

func (s *serviceImpl) publish(ctx context.Context, survey model.PostTripSurvey) {
	if !s.cfg.Kafka.Enable {
		return
	}

	go func() {
		c := context.WithoutCancel(ctx)

		err := s.kafka.SendMessages(c, constant.TopicSurveySubmitted, kafka.Message{Key: survey.BookingID, Value: survey})
		if err != nil {
			log.Error().Err(err).Msg("failed to publish survey event")
		}
	}()
}

// validateReconciliation applies the completion-conditional field rules. A
// cancelled trip short-circuits: nothing below the status line is required.
func validateReconciliation(survey *model.PostTripSurvey, tripStatus bookingModel.Status) error {
	if tripStatus == bookingModel.StatusCancelled {
		return nil
	}

	if survey.StartReading == nil || survey.EndReading == nil {
		return failure.BadRequestFromString("start_reading and end_reading are required unless the trip was cancelled") //nolint:wrapcheck
	}

	if *survey.StartReading <= 0 || *survey.EndReading <= 0 {
		return failure.BadRequestFromString("odometer readings must be positive") //nolint:wrapcheck
	}

	if *survey.EndReading <= *survey.StartReading {
		return failure.BadRequestFromString("end_reading must be greater than start_reading") //nolint:wrapcheck
	}

	if survey.TimeOfDeparture == nil || survey.TimeOfArrival == nil {
		return failure.BadRequestFromString("time_of_departure and time_of_arrival are required unless the trip was cancelled") //nolint:wrapcheck
	}

	if !survey.TimeOfArrival.After(*survey.TimeOfDeparture) {
		return failure.BadRequestFromString("time_of_arrival must be after time_of_departure") //nolint:wrapcheck
	}

	if survey.DestinationAddress == nil || strings.TrimSpace(*survey.DestinationAddress) == constant.Empty {
		return failure.BadRequestFromString("destination_address is required unless the trip was cancelled") //nolint:wrapcheck
	}

	if survey.PassengerFitRating == nil {
		return failure.BadRequestFromString("passenger_fit_rating is required unless the trip was cancelled") //nolint:wrapcheck
	}

	return nil
}

// nextBookingStatus maps the survey's completion status onto the booking's
// lifecycle. Statuses that map to no legal transition leave the booking as is;
// the surveyed flag is flipped regardless.
func nextBookingStatus(current bookingModel.Status, tripStatus bookingModel.Status) bookingModel.Status {
	switch tripStatus {
	case bookingModel.StatusCompleted, bookingModel.StatusCancelled:
		if current.CanTransitionTo(tripStatus) {
			return tripStatus
		}
	case bookingModel.StatusIncomplete, bookingModel.StatusInProgress:
	}

	return constant.Empty
}

// buildAmendment merges the requested changes over the stored survey and
// re-validates the odometer and temporal ordering rules on the merged view.
func buildAmendment(survey *model.PostTripSurvey, req dto.AmendSurveyRequest) (map[string]any, error) {
	updates := map[string]any{}

	startReading := survey.StartReading
	if req.StartReading != nil {
		startReading = req.StartReading
		updates[model.FieldStartReading] = *req.StartReading
	}

	endReading := survey.EndReading
	if req.EndReading != nil {
		endReading = req.EndReading
		updates[model.FieldEndReading] = *req.EndReading
	}

	if startReading != nil && endReading != nil && *endReading <= *startReading {
		return nil, failure.BadRequestFromString("end_reading must be greater than start_reading") //nolint:wrapcheck
	}

	departure := survey.TimeOfDeparture

	if req.TimeOfDeparture != nil {
		parsed, err := parseInstant(req.TimeOfDeparture, "time_of_departure")
		if err != nil {
			return nil, err
		}

		departure = parsed
		updates[model.FieldTimeOfDeparture] = *parsed
	}

	arrival := survey.TimeOfArrival

	if req.TimeOfArrival != nil {
		parsed, err := parseInstant(req.TimeOfArrival, "time_of_arrival")
		if err != nil {
			return nil, err
		}

		arrival = parsed
		updates[model.FieldTimeOfArrival] = *parsed
	}

	if departure != nil && arrival != nil && !arrival.After(*departure) {
		return nil, failure.BadRequestFromString("time_of_arrival must be after time_of_departure") //nolint:wrapcheck
	}

	if req.DestinationAddress != nil {
		if strings.TrimSpace(*req.DestinationAddress) == constant.Empty {
			return nil, failure.BadRequestFromString("destination_address must not be blank") //nolint:wrapcheck
		}

		updates[model.FieldDestinationAddress] = *req.DestinationAddress
	}

	if req.PassengerFitRating != nil {
		updates[model.FieldPassengerFitRating] = *req.PassengerFitRating
	}

	if req.Comments != nil {
		updates[model.FieldComments] = *req.Comments
	}

	return updates, nil
}

func translateUniqueViolation(err error) error {
	var pqErr *pq.Error

	if errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation {
		return failure.Conflict("booking already has a survey") //nolint:wrapcheck
	}

	return err
}

func parseInstant(value *string, field string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, failure.BadRequestFromString(fmt.Sprintf("%s must be a valid RFC3339 timestamp", field)) //nolint:wrapcheck
	}

	return &parsed, nil
}
