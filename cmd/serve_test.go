package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justice-rest/Intel-sub010/internal/capacity"
	"github.com/justice-rest/Intel-sub010/internal/config"
	"github.com/justice-rest/Intel-sub010/internal/provider"
	"github.com/justice-rest/Intel-sub010/internal/report"
	"github.com/justice-rest/Intel-sub010/internal/resilience"
)

func testEnv(t *testing.T) *env {
	t.Helper()
	cfg = &config.Config{Capacity: capacity.DefaultConfig()}

	breakers := resilience.NewRegistry(resilience.BreakerConfig{
		FailureThreshold: 3,
		CoolDown:         time.Minute,
	})
	reg := provider.NewRegistry()
	reg.Register(report.NewPerplexityProvider(nil))
	reg.Register(report.NewEdgarProvider(nil))
	return &env{
		breakers: breakers,
		client:   provider.NewClient(reg, breakers),
	}
}

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := buildMux(context.Background(), testEnv(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_CapacityEndpoint(t *testing.T) {
	mux := buildMux(context.Background(), testEnv(t))

	re := 1_000_000.0
	props := 1
	body, _ := json.Marshal(capacity.Inputs{
		RealEstateValue: &re,
		PropertyCount:   &props,
	})

	req := httptest.NewRequest(http.MethodPost, "/capacity", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var res capacity.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 50_000.0, res.Recommended)
	assert.Equal(t, capacity.RatingC, res.Rating)
}

func TestBuildMux_CapacityEndpoint_BadBody(t *testing.T) {
	mux := buildMux(context.Background(), testEnv(t))

	req := httptest.NewRequest(http.MethodPost, "/capacity", bytes.NewReader([]byte("{")))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuildMux_ReportEndpoint_Accepted(t *testing.T) {
	// Unconfigured providers: the async build degrades per topic but the
	// request is still accepted.
	mux := buildMux(context.Background(), testEnv(t))

	body, _ := json.Marshal(map[string]any{
		"subject": map[string]string{"name": "Pat Doe"},
	})
	req := httptest.NewRequest(http.MethodPost, "/report", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "Pat Doe", resp["subject"])

	// Give the goroutine time to run its degraded path.
	time.Sleep(20 * time.Millisecond)
}

func TestBuildMux_ReportEndpoint_MissingName(t *testing.T) {
	mux := buildMux(context.Background(), testEnv(t))

	req := httptest.NewRequest(http.MethodPost, "/report", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuildMux_BreakersEndpoint(t *testing.T) {
	e := testEnv(t)
	e.breakers.Get("perplexity")
	mux := buildMux(context.Background(), e)

	req := httptest.NewRequest(http.MethodGet, "/breakers", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var states map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &states))
	assert.Equal(t, "CLOSED", states["perplexity"])
}
