// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/preroll/internal/domain/preroll/clock"
	"github.com/ManuGH/preroll/internal/domain/preroll/controller"
	"github.com/ManuGH/preroll/internal/domain/preroll/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSelector struct{ creative model.AdCreative }

func (f fixedSelector) SelectCreative(context.Context, string) model.AdCreative { return f.creative }

type countingTracker struct {
	mu     sync.Mutex
	counts map[model.EventKind]int
}

func (c *countingTracker) inc(k model.EventKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[model.EventKind]int{}
	}
	c.counts[k]++
}

func (c *countingTracker) RecordView(model.Target)                       { c.inc(model.EventView) }
func (c *countingTracker) RecordClick(model.Target, string)              { c.inc(model.EventClick) }
func (c *countingTracker) RecordCompletion(model.Target, float64, bool) { c.inc(model.EventComplete) }

func (c *countingTracker) count(k model.EventKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[k]
}

type stillTicker struct{ c chan time.Time }

func (t stillTicker) C() <-chan time.Time { return t.c }
func (t stillTicker) Stop()               {}

func newStillTicker(time.Duration) clock.Ticker { return stillTicker{c: make(chan time.Time)} }

func testCreative() model.AdCreative {
	return model.AdCreative{
		ID:                "ad-7",
		Title:             "Coffee",
		MediaURL:          "https://cdn.example/ad-7.mp4",
		Duration:          30 * time.Second,
		SkipEligibleAfter: 5 * time.Second,
		CTAVisibleAfter:   2 * time.Second,
		CTALabel:          "Shop Now",
		CTAURL:            "https://shop.example/coffee",
		Advertiser:        "Beans Inc",
	}
}

type apiHarness struct {
	t        *testing.T
	srv      *httptest.Server
	registry *Registry
	tracker  *countingTracker
}

func newAPIHarness(t *testing.T, maxSurfaces int) *apiHarness {
	t.Helper()
	tracker := &countingTracker{}
	reg := NewRegistry(controller.Config{
		Selector:  fixedSelector{creative: testCreative()},
		Tracker:   tracker,
		NewTicker: newStillTicker,
	}, maxSurfaces)
	srv := httptest.NewServer(New(Config{RateLimitRPM: 0}, reg).Handler())
	t.Cleanup(func() {
		reg.TeardownAll()
		srv.Close()
	})
	return &apiHarness{t: t, srv: srv, registry: reg, tracker: tracker}
}

func (h *apiHarness) do(method, path string, body any) (*http.Response, map[string]any) {
	h.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rdr)
	require.NoError(h.t, err)
	resp, err := h.srv.Client().Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func view(body map[string]any) map[string]any {
	v, _ := body["view"].(map[string]any)
	return v
}

func TestStartSession_CreatesSurfaceAndRejectsDuplicate(t *testing.T) {
	h := newAPIHarness(t, 8)

	resp, body := h.do(http.MethodPost, "/api/v1/surfaces/living-room/session", map[string]string{"category": "food"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["sessionId"])
	assert.Equal(t, "AD_LOCKED", view(body)["state"])
	assert.Equal(t, "food", view(body)["category"])
	creative := view(body)["creative"].(map[string]any)
	assert.Equal(t, "ad-7", creative["id"])
	assert.Equal(t, 30.0, creative["duration"])

	resp, body = h.do(http.MethodPost, "/api/v1/surfaces/living-room/session", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "SESSION_ACTIVE", body["code"])
	assert.Equal(t, 1, h.tracker.count(model.EventView))
}

func TestSkipFlow(t *testing.T) {
	h := newAPIHarness(t, 8)
	h.do(http.MethodPost, "/api/v1/surfaces/tv/session", nil)

	_, body := h.do(http.MethodPost, "/api/v1/surfaces/tv/skip", nil)
	assert.Equal(t, false, body["applied"], "skip is inert while locked")

	_, body = h.do(http.MethodPost, "/api/v1/surfaces/tv/position", map[string]float64{"seconds": 5})
	assert.Equal(t, true, body["applied"])
	assert.Equal(t, true, view(body)["skipEnabled"])
	assert.Equal(t, "AD_SKIPPABLE", view(body)["state"])

	resp, body := h.do(http.MethodPost, "/api/v1/surfaces/tv/skip", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["applied"])
	v := view(body)
	assert.Equal(t, "IDLE", v["state"])
	last := v["lastResolution"].(map[string]any)
	assert.Equal(t, "skipped", last["outcome"])
	assert.Equal(t, 5.0, last["watchTime"])
	assert.Equal(t, true, last["handedOff"])
	assert.Equal(t, 1, h.tracker.count(model.EventComplete))
}

func TestPosition_HugeValueClampsToAdEnd(t *testing.T) {
	h := newAPIHarness(t, 8)
	h.do(http.MethodPost, "/api/v1/surfaces/tv/session", nil)

	resp, body := h.do(http.MethodPost, "/api/v1/surfaces/tv/position", map[string]float64{"seconds": 1e13})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["applied"])
	v := view(body)
	assert.Equal(t, "IDLE", v["state"])
	last := v["lastResolution"].(map[string]any)
	assert.Equal(t, "completed", last["outcome"])
	assert.Equal(t, 30.0, last["watchTime"])
}

func TestPositionDuration_Saturates(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, positionDuration(1.5))
	assert.Equal(t, time.Duration(maxPositionMillis)*time.Millisecond, positionDuration(1e13))
	assert.Equal(t, time.Duration(maxPositionMillis)*time.Millisecond, positionDuration(math.MaxFloat64))
	assert.Positive(t, positionDuration(9.2e15))
}

func TestCTA_ReturnsOpenURL(t *testing.T) {
	h := newAPIHarness(t, 8)
	h.do(http.MethodPost, "/api/v1/surfaces/tv/session", nil)

	_, body := h.do(http.MethodPost, "/api/v1/surfaces/tv/cta", nil)
	assert.Equal(t, false, body["applied"])
	assert.Nil(t, body["openUrl"])

	h.do(http.MethodPost, "/api/v1/surfaces/tv/position", map[string]float64{"seconds": 2})
	_, body = h.do(http.MethodPost, "/api/v1/surfaces/tv/cta", nil)
	assert.Equal(t, true, body["applied"])
	assert.Equal(t, "https://shop.example/coffee", body["openUrl"])
	assert.Equal(t, "AD_LOCKED", view(body)["state"])
	assert.Equal(t, 1, h.tracker.count(model.EventClick))
}

func TestPauseResumeAndTeardown(t *testing.T) {
	h := newAPIHarness(t, 8)
	h.do(http.MethodPost, "/api/v1/surfaces/tv/session", nil)

	_, body := h.do(http.MethodPost, "/api/v1/surfaces/tv/pause", nil)
	assert.Equal(t, true, body["applied"])
	assert.Equal(t, true, view(body)["paused"])
	_, body = h.do(http.MethodPost, "/api/v1/surfaces/tv/pause", nil)
	assert.Equal(t, false, body["applied"])
	_, body = h.do(http.MethodPost, "/api/v1/surfaces/tv/resume", nil)
	assert.Equal(t, true, body["applied"])

	h.do(http.MethodPost, "/api/v1/surfaces/tv/position", map[string]float64{"seconds": 3})
	_, body = h.do(http.MethodDelete, "/api/v1/surfaces/tv/session", nil)
	assert.Equal(t, true, body["applied"])
	last := view(body)["lastResolution"].(map[string]any)
	assert.Equal(t, "teardown", last["reason"])
	assert.Equal(t, 3.0, last["watchTime"])
	assert.Equal(t, false, last["handedOff"])
}

func TestMediaFailed(t *testing.T) {
	h := newAPIHarness(t, 8)
	h.do(http.MethodPost, "/api/v1/surfaces/tv/session", nil)

	_, body := h.do(http.MethodPost, "/api/v1/surfaces/tv/media-failed", nil)
	assert.Equal(t, true, body["applied"])
	last := view(body)["lastResolution"].(map[string]any)
	assert.Equal(t, "completed", last["outcome"])
	assert.Equal(t, "media_error", last["reason"])
}

func TestGetSurface(t *testing.T) {
	h := newAPIHarness(t, 8)

	resp, body := h.do(http.MethodGet, "/api/v1/surfaces/tv", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SURFACE_NOT_FOUND", body["code"])

	h.do(http.MethodPost, "/api/v1/surfaces/tv/session", nil)
	resp, body = h.do(http.MethodGet, "/api/v1/surfaces/tv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "AD_LOCKED", body["state"])
	assert.Equal(t, 30.0, body["remaining"])
}

func TestErrors(t *testing.T) {
	h := newAPIHarness(t, 1)

	resp, body := h.do(http.MethodPost, "/api/v1/surfaces/tv/skip", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SURFACE_NOT_FOUND", body["code"])
	assert.NotEmpty(t, body["requestId"])

	resp, body = h.do(http.MethodPost, "/api/v1/surfaces/bad%20id/session", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_SURFACE", body["code"])

	resp, body = h.do(http.MethodPost, "/api/v1/surfaces/tv/session", map[string]any{"category": "x", "extra": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", body["code"])

	resp, _ = h.do(http.MethodPost, "/api/v1/surfaces/tv/session", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = h.do(http.MethodPost, "/api/v1/surfaces/tv/position", map[string]float64{"seconds": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_POSITION", body["code"])

	resp, body = h.do(http.MethodPost, "/api/v1/surfaces/tv/position", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_POSITION", body["code"])

	resp, body = h.do(http.MethodPost, "/api/v1/surfaces/kitchen/session", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "TOO_MANY_SURFACES", body["code"])

	resp, body = h.do(http.MethodGet, "/api/v2/nothing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestHealthAndMetrics(t *testing.T) {
	h := newAPIHarness(t, 8)
	h.do(http.MethodPost, "/api/v1/surfaces/tv/session", nil)

	resp, body := h.do(http.MethodGet, "/healthz?verbose=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "1/8", checks["surfaces"].(map[string]any)["message"])

	resp, body = h.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ready"])

	resp, err := h.srv.Client().Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyz_NotReadyAtSurfaceCapacity(t *testing.T) {
	h := newAPIHarness(t, 1)
	h.do(http.MethodPost, "/api/v1/surfaces/tv/session", nil)

	resp, body := h.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, false, body["ready"])
	assert.Equal(t, "unhealthy", body["status"])

	// Liveness is unaffected.
	resp, _ = h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
