package routing_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"fleet/config"
	"fleet/infras/otel/mocks"
	"fleet/infras/routing"
)

func newOracle(t *testing.T, handler http.HandlerFunc) (routing.Oracle, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.External.Routing.BaseURL = server.URL
	cfg.External.Routing.Mode = "driving"
	cfg.External.Routing.Units = "metric"
	cfg.External.Routing.TimeoutSeconds = 2

	return routing.New(cfg, mocks.NewOtel()), server
}

func TestOracle_EstimateMinutes(t *testing.T) {
	tests := []struct {
		name            string
		handler         http.HandlerFunc
		expectedMinutes int
		expectedKnown   bool
	}{
		{
			name: "whole minutes",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"OK","duration_seconds":1200}`))
			},
			expectedMinutes: 20,
			expectedKnown:   true,
		},
		{
			name: "partial minute rounds up",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"OK","duration_seconds":61}`))
			},
			expectedMinutes: 2,
			expectedKnown:   true,
		},
		{
			name: "zero duration",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"OK","duration_seconds":0}`))
			},
			expectedMinutes: 0,
			expectedKnown:   true,
		},
		{
			name: "non-OK status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			expectedKnown: false,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":`))
			},
			expectedKnown: false,
		},
		{
			name: "missing duration field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"ZERO_RESULTS"}`))
			},
			expectedKnown: false,
		},
		{
			name: "negative duration",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"OK","duration_seconds":-5}`))
			},
			expectedKnown: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle, _ := newOracle(t, tt.handler)

			minutes, known := oracle.EstimateMinutes(t.Context(), "123 Main St", "456 Oak Ave")

			assert.Equal(t, tt.expectedKnown, known)
			if tt.expectedKnown {
				assert.Equal(t, tt.expectedMinutes, minutes)
			}
		})
	}
}

func TestOracle_EstimateMinutes_SendsQueryParams(t *testing.T) {
	var gotOrigin, gotDestination, gotMode string

	oracle, _ := newOracle(t, func(w http.ResponseWriter, r *http.Request) {
		gotOrigin = r.URL.Query().Get("origin")
		gotDestination = r.URL.Query().Get("destination")
		gotMode = r.URL.Query().Get("mode")

		w.Write([]byte(`{"status":"OK","duration_seconds":60}`))
	})

	minutes, known := oracle.EstimateMinutes(t.Context(), "A", "B")

	assert.True(t, known)
	assert.Equal(t, 1, minutes)
	assert.Equal(t, "A", gotOrigin)
	assert.Equal(t, "B", gotDestination)
	assert.Equal(t, "driving", gotMode)
}

func TestOracle_EstimateMinutes_UnreachableService(t *testing.T) {
	oracle, server := newOracle(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, known := oracle.EstimateMinutes(t.Context(), "A", "B")

	assert.False(t, known)
}
