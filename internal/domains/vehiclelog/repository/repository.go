package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"fleet/infras/otel"
	"fleet/infras/postgres"
	surveyModel "fleet/internal/domains/survey/model"
	"fleet/internal/domains/vehiclelog/model"
	gDto "fleet/shared/dto"
	gRepo "fleet/shared/repository"
)

// VehicleLog is read-only: the log is a projection over surveys, bookings and
// users, never written directly.
type VehicleLog interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Record, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Record, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Record]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) VehicleLog {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Record](model.EntityName, surveyModel.TableName, "id", db, otel),
		db:         db,
		otel:       otel,
	}
}
