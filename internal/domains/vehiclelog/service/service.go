package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"fleet/config"
	"fleet/infras/otel"
	surveyModel "fleet/internal/domains/survey/model"
	"fleet/internal/domains/vehiclelog/model"
	"fleet/internal/domains/vehiclelog/model/dto"
	"fleet/internal/domains/vehiclelog/repository"
	"fleet/shared"
	"fleet/shared/cache"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
)

// Cache keys share the model.EntityName prefix so survey writes can clear the
// whole projection in one sweep.
const (
	cacheGetAllVehicleLog = model.EntityName + ":gets"
	cacheCountVehicleLog  = model.EntityName + ":count"
)

type VehicleLog interface {
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetVehicleLogsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	GetByBookingID(ctx context.Context, bookingID string) (dto.VehicleLogResponse, error)
}

type serviceImpl struct {
	repo  repository.VehicleLog
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.VehicleLog, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) VehicleLog {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetVehicleLogsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllVehicleLog, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for vehicle logs")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count vehicle logs")

		return res, fmt.Errorf("failed to count vehicle logs: %w", err)
	}

	records, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get vehicle logs")

		return res, fmt.Errorf("failed to get vehicle logs: %w", err)
	}

	rows := make([]model.VehicleLogRow, len(records))
	for i := range records {
		rows[i] = model.Project(records[i].Sources())
	}

	res.FromRows(rows, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save vehicle logs to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountVehicleLog, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for vehicle log count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count vehicle logs")

		return res, fmt.Errorf("failed to count vehicle logs: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save vehicle log count to cache")
		}
	}()

	return res, nil
}

// GetByBookingID recomputes the projection for a single booking's trip. No
// cache: the log must always reflect the current survey and booking rows.
func (s *serviceImpl) GetByBookingID(ctx context.Context, bookingID string) (res dto.VehicleLogResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetByBookingID")
	defer scope.End()
	defer scope.TraceIfError(err)

	record, err := s.repo.Get(ctx, shared.FilterByID(bookingID, model.FieldBookingID, surveyModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get vehicle log")

		return res, fmt.Errorf("failed to get vehicle log: %w", err)
	}

	if record.SurveyID == constant.Empty {
		return res, failure.NotFound("vehicle log not found") //nolint:wrapcheck
	}

	res.FromRow(model.Project(record.Sources()))

	return res, nil
}
