package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"github.com/jmoiron/sqlx"

	"fleet/infras/otel"
	"fleet/infras/postgres"
	"fleet/internal/domains/survey/model"
	gDto "fleet/shared/dto"
	gRepo "fleet/shared/repository"
)

type Survey interface {
	Insert(ctx context.Context, model model.PostTripSurvey) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.PostTripSurvey) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.PostTripSurvey, error)
	GetTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup, columns ...string) (model.PostTripSurvey, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.PostTripSurvey, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.PostTripSurvey]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Survey {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.PostTripSurvey](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
