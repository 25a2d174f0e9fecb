package survey

import (
	"errors"
	"net/http"
	"strings"

	"fleet/infras/otel"
	"fleet/internal/domains/survey/model"
	"fleet/internal/domains/survey/model/dto"
	"fleet/internal/domains/survey/service"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/validator"
	"fleet/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Survey
	otel    otel.Otel
}

func New(service service.Survey, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/surveys", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.SubmitSurvey)
		routerGroup.Get("/", handler.GetSurveys)
		routerGroup.Get("/booking/{bookingId}", handler.GetSurveyByBookingID)
		routerGroup.Get("/{id}", handler.GetSurveyByID)
		routerGroup.Patch("/{id}", handler.AmendSurvey)
	})
}

// SubmitSurvey handles post-trip survey submission for a booking.
// @Summary Submit a post-trip survey
// @Description Submit the post-trip survey that reconciles a booking. Accepts
// @Description plain JSON, or multipart/form-data with a "payload" JSON field
// @Description and an optional odometer photo under "file".
// @Tags Survey
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param request body dto.SubmitSurveyRequest true "Submit Survey Request"
// @Success 201 {object} response.Data[dto.SurveyResponse] "Survey submitted successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/surveys [post]
// @Security BearerAuth
func (handler *Handler) SubmitSurvey(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SubmitSurvey")
	defer scope.End()

	req := dto.SubmitSurveyRequest{}

	contentType := request.Header.Get(constant.RequestHeaderContentType)
	if strings.HasPrefix(contentType, constant.ContentTypeMultipartForm) {
		if err := handler.parseMultipartSubmit(request, &req); err != nil {
			scope.TraceError(err)
			log.Error().Err(err).Msg("failed to parse multipart survey submission")

			response.WithError(writer, err)

			return
		}
		defer func() {
			if req.OdometerPhotoFile != nil {
				req.OdometerPhotoFile.Close()
			}
		}()
	} else {
		if err := validator.Validate(request.Body, &req); err != nil {
			scope.TraceError(err)
			log.Error().Err(err).Msg("failed to validate request body")

			response.WithError(writer, err)

			return
		}
	}

	survey, err := handler.service.Submit(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to submit survey")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Survey submitted successfully by driver " + user)

	response.WithJSON(writer, http.StatusCreated, survey)
}

// parseMultipartSubmit fills req from a multipart form: the "payload" field
// carries the survey JSON and "file" the optional odometer photo.
func (handler *Handler) parseMultipartSubmit(request *http.Request, req *dto.SubmitSurveyRequest) error {
	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		return err
	}

	payload := request.FormValue(constant.FormPayload)
	if err := validator.Validate(strings.NewReader(payload), req); err != nil {
		return err
	}

	file, fileHeader, err := request.FormFile(constant.FormFile)
	if err == nil {
		req.OdometerPhoto = fileHeader
		req.OdometerPhotoFile = file

		if err := validator.ValidateStruct(req); err != nil {
			file.Close()
			req.OdometerPhoto = nil
			req.OdometerPhotoFile = nil

			return err
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		return err
	}

	return nil
}

// GetSurveys retrieves all surveys based on query parameters.
// @Summary Get all surveys
// @Description Retrieve all post-trip surveys with optional filtering and pagination.
// @Tags Survey
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param driver_id query string false "Filter by submitting driver ID"
// @Param trip_completion_status query string false "Filter by trip completion status"
// @Success 200 {object} response.Data[dto.SurveyResponse] "List of surveys"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/surveys [get]
// @Security BearerAuth
func (handler *Handler) GetSurveys(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSurveys")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	driverID := r.URL.Query().Get(model.FieldDriverID)
	completionStatus := r.URL.Query().Get(model.FieldTripCompletionStatus)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if driverID != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldDriverID,
			Operator: gDto.FilterOperatorEq,
			Value:    driverID,
			Table:    model.TableName,
		})
	}

	if completionStatus != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldTripCompletionStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    completionStatus,
			Table:    model.TableName,
		})
	}

	surveys, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get surveys")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Surveys retrieved successfully")

	response.WithJSON(w, http.StatusOK, surveys)
}

// GetSurveyByBookingID retrieves the survey filed for a booking.
// @Summary Get the survey for a booking
// @Description Retrieve the post-trip survey filed for the given booking, if any.
// @Tags Survey
// @Accept json
// @Produce json
// @Param bookingId path string true "Booking ID"
// @Success 200 {object} response.Data[dto.SurveyResponse] "Survey details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/surveys/booking/{bookingId} [get]
// @Security BearerAuth
func (handler *Handler) GetSurveyByBookingID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSurveyByBookingID")
	defer scope.End()

	bookingID := chi.URLParam(r, constant.RequestParamBookingID)

	survey, err := handler.service.GetByBookingID(ctx, bookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get survey by booking ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Survey retrieved successfully for booking " + bookingID)

	response.WithJSON(w, http.StatusOK, survey)
}

// GetSurveyByID retrieves a survey by its ID.
// @Summary Get a survey by ID
// @Description Retrieve a post-trip survey by its unique identifier.
// @Tags Survey
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Data[dto.SurveyResponse] "Survey details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/surveys/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetSurveyByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSurveyByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	survey, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get survey by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Survey retrieved successfully")

	response.WithJSON(w, http.StatusOK, survey)
}

// AmendSurvey corrects fields on an already-filed survey.
// @Summary Amend a survey
// @Description Correct fields on an existing survey. Only the submitting driver
// @Description or an admin may amend, and the merged result is re-validated.
// @Tags Survey
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Param request body dto.AmendSurveyRequest true "Amend Survey Request"
// @Success 200 {object} response.Message "Survey amended successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/surveys/{id} [patch]
// @Security BearerAuth
func (handler *Handler) AmendSurvey(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".AmendSurvey")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.AmendSurveyRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Amend(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to amend survey")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Survey amended successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Survey amended successfully")
}
