package vehiclelog

import (
	"net/http"

	"fleet/infras/otel"
	"fleet/internal/domains/vehiclelog/model"
	"fleet/internal/domains/vehiclelog/service"
	surveyModel "fleet/internal/domains/survey/model"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.VehicleLog
	otel    otel.Otel
}

func New(service service.VehicleLog, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/vehicle-logs", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetVehicleLogs)
		routerGroup.Get("/booking/{bookingId}", handler.GetVehicleLogByBookingID)
	})
}

// GetVehicleLogs retrieves vehicle log rows based on query parameters.
// @Summary Get vehicle log rows
// @Description Retrieve the vehicle log derived from reconciled surveys, with
// @Description optional filtering and pagination. Survey values take precedence
// @Description over booking values in every row.
// @Tags VehicleLog
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param driver_id query string false "Filter by driver ID"
// @Success 200 {object} response.Data[dto.VehicleLogResponse] "Vehicle log rows"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/vehicle-logs [get]
// @Security BearerAuth
func (handler *Handler) GetVehicleLogs(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetVehicleLogs")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	driverID := r.URL.Query().Get(model.FieldDriverID)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if driverID != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldDriverID,
			Operator: gDto.FilterOperatorEq,
			Value:    driverID,
			Table:    surveyModel.TableName,
		})
	}

	logs, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get vehicle logs")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Vehicle logs retrieved successfully")

	response.WithJSON(w, http.StatusOK, logs)
}

// GetVehicleLogByBookingID retrieves the vehicle log row for a booking.
// @Summary Get the vehicle log row for a booking
// @Description Retrieve the single vehicle log row derived from the booking's
// @Description reconciled survey. Always reads the current rows, never a cache.
// @Tags VehicleLog
// @Accept json
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Success 200 {object} response.Data[dto.VehicleLogResponse] "Vehicle log row"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/vehicle-logs/booking/{bookingId} [get]
// @Security BearerAuth
func (handler *Handler) GetVehicleLogByBookingID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetVehicleLogByBookingID")
	defer scope.End()

	bookingID := chi.URLParam(r, constant.RequestParamBookingID)

	row, err := handler.service.GetByBookingID(ctx, bookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get vehicle log by booking ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Vehicle log retrieved successfully for booking " + bookingID)

	response.WithJSON(w, http.StatusOK, row)
}
