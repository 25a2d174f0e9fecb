package routing

//go:generate go run go.uber.org/mock/mockgen -source=./routing.go -destination=./mocks/routing_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"fleet/config"
	"fleet/infras/otel"
	"fleet/shared/constant"
)

const (
	otelAttrOrigin      = "routing.origin"
	otelAttrDestination = "routing.destination"
)

// Oracle estimates driving duration between two addresses. The estimate is
// advisory: when the upstream service is unreachable or answers garbage the
// adapter reports known=false and the caller must degrade gracefully rather
// than block the operation.
type Oracle interface {
	EstimateMinutes(ctx context.Context, originAddress, destinationAddress string) (minutes int, known bool)
}

type durationResponse struct {
	Status          string `json:"status"`
	DurationSeconds *int64 `json:"duration_seconds"`
}

type oracleImpl struct {
	client *http.Client
	config *config.Config
	otel   otel.Otel
}

func New(cfg *config.Config, ot otel.Otel) Oracle {
	timeout := time.Duration(cfg.External.Routing.TimeoutSeconds) * time.Second

	return &oracleImpl{
		client: &http.Client{Timeout: timeout},
		config: cfg,
		otel:   ot,
	}
}

// EstimateMinutes queries the routing service for a driving duration and
// converts seconds to whole minutes, rounding up so travel buffers are never
// optimistic. Every failure path logs and returns known=false.
func (o *oracleImpl) EstimateMinutes(ctx context.Context, originAddress, destinationAddress string) (int, bool) {
	ctx, scope := o.otel.NewScope(ctx, constant.OtelRoutingScopeName, constant.OtelRoutingScopeName+".EstimateMinutes")
	defer scope.End()

	scope.SetAttributes(map[string]any{
		otelAttrOrigin:      originAddress,
		otelAttrDestination: destinationAddress,
	})

	requestURL, err := o.buildURL(originAddress, destinationAddress)
	if err != nil {
		log.Error().Err(err).Msg("failed to build routing request URL")
		scope.TraceError(err)

		return 0, false
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to build routing request")
		scope.TraceError(err)

		return 0, false
	}

	response, err := o.client.Do(request)
	if err != nil {
		// Timeouts land here too and are treated identically to any
		// other unknown-duration outcome.
		log.Error().Err(err).
			Str("origin", originAddress).
			Str("destination", destinationAddress).
			Msg("routing service request failed")
		scope.TraceError(err)

		return 0, false
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		log.Error().Int("status", response.StatusCode).Msg("routing service returned non-OK status")

		return 0, false
	}

	var payload durationResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("failed to decode routing response")
		scope.TraceError(err)

		return 0, false
	}

	if payload.DurationSeconds == nil {
		log.Error().Str("status", payload.Status).Msg("routing response is missing duration")

		return 0, false
	}

	seconds := *payload.DurationSeconds
	if seconds < 0 {
		log.Error().Int64("seconds", seconds).Msg("routing response has negative duration")

		return 0, false
	}

	minutes := int((seconds + constant.SecondsPerMinute - 1) / constant.SecondsPerMinute)

	return minutes, true
}

func (o *oracleImpl) buildURL(originAddress, destinationAddress string) (string, error) {
	base, err := url.Parse(o.config.External.Routing.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid routing base URL: %w", err)
	}

	query := base.Query()
	query.Set("origin", originAddress)
	query.Set("destination", destinationAddress)
	query.Set("mode", o.config.External.Routing.Mode)
	query.Set("units", o.config.External.Routing.Units)

	if o.config.External.Routing.APIKey != "" {
		query.Set("key", o.config.External.Routing.APIKey)
	}

	base.RawQuery = query.Encode()

	return base.String(), nil
}
