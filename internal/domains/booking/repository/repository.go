package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"fleet/infras/otel"
	"fleet/infras/postgres"
	"fleet/internal/domains/booking/model"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/logger"
	gRepo "fleet/shared/repository"
)

// scheduleColumns mirrors the db-tagged fields of model.Booking; the schedule
// scan never reads the audit timestamps.
var scheduleColumns = strings.Join([]string{
	model.FieldID,
	model.FieldTitle,
	model.FieldPickupAddress,
	model.FieldDestinationAddress,
	model.FieldPurpose,
	model.FieldPassengerName,
	model.FieldPassengerCount,
	model.FieldPhone,
	model.FieldStatus,
	model.FieldSurveyCompleted,
	model.FieldStartTime,
	model.FieldEndTime,
	model.FieldAgencyID,
	model.FieldDriverID,
	constant.FieldCreatedBy,
	constant.FieldModifiedBy,
}, ", ")

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	LockDriverScheduleTx(ctx context.Context, sqltx *sqlx.Tx, driverID string) error
	ListActiveForDriverTx(ctx context.Context, sqltx *sqlx.Tx, driverID string) ([]model.Booking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// LockDriverScheduleTx serializes schedule mutations per driver. The lock is
// released automatically when the surrounding transaction ends.
func (r *repositoryImpl) LockDriverScheduleTx(ctx context.Context, sqltx *sqlx.Tx, driverID string) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".LockDriverScheduleTx")
	defer scope.End()

	query := "SELECT pg_advisory_xact_lock(hashtext($1))"
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	_, err := sqltx.ExecContext(ctx, query, driverID)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to lock driver schedule (%s): %w", model.EntityName, err)
	}

	return nil
}

// ListActiveForDriverTx returns the driver's non-cancelled bookings ordered by
// start time, read through the transaction that holds the schedule lock.
func (r *repositoryImpl) ListActiveForDriverTx(ctx context.Context, sqltx *sqlx.Tx, driverID string) ([]model.Booking, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ListActiveForDriverTx")
	defer scope.End()

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 AND %s <> $2 ORDER BY %s ASC",
		scheduleColumns, model.TableName, model.FieldDriverID, model.FieldStatus, model.FieldStartTime,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var bookings []model.Booking

	err := sqltx.SelectContext(ctx, &bookings, query, driverID, model.StatusCancelled)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to list driver schedule (%s): %w", model.EntityName, err)
	}

	return bookings, nil
}
