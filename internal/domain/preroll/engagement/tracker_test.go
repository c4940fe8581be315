// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engagement

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/preroll/internal/domain/preroll/model"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedCall struct {
	Path      string
	SessionID string
	Body      map[string]any
}

type analyticsServer struct {
	mu     sync.Mutex
	calls  []capturedCall
	status int
	srv    *httptest.Server
}

func newAnalyticsServer(t *testing.T, status int) *analyticsServer {
	t.Helper()
	a := &analyticsServer{status: status}
	a.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		a.mu.Lock()
		a.calls = append(a.calls, capturedCall{Path: r.Method + " " + r.URL.Path, SessionID: r.Header.Get("X-Session-ID"), Body: body})
		a.mu.Unlock()
		w.WriteHeader(a.status)
	}))
	t.Cleanup(a.srv.Close)
	return a
}

func (a *analyticsServer) snapshot() []capturedCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]capturedCall(nil), a.calls...)
}

func newTestTracker(t *testing.T, a *analyticsServer) *Tracker {
	t.Helper()
	logger := zerolog.New(io.Discard)
	tr := NewTracker(Config{
		BaseURL: a.srv.URL,
		Client:  a.srv.Client(),
		Logger:  &logger,
		Now:     func() time.Time { return time.Unix(0, 0) },
	})
	return tr
}

func TestTracker_PostsEventsInOrder(t *testing.T) {
	a := newAnalyticsServer(t, http.StatusNoContent)
	tr := newTestTracker(t, a)
	target := model.Target{SessionID: "sess-1", AdID: "ad-42"}

	tr.RecordView(target)
	tr.RecordClick(target, model.ClickShopNow)
	tr.RecordCompletion(target, 6.0, true)
	require.NoError(t, tr.Close(context.Background()))

	want := []capturedCall{
		{Path: "POST /ads/ad-42/view", SessionID: "sess-1", Body: map[string]any{"sessionId": "sess-1"}},
		{Path: "POST /ads/ad-42/click", SessionID: "sess-1", Body: map[string]any{"sessionId": "sess-1", "type": "shop_now"}},
		{Path: "POST /ads/ad-42/complete", SessionID: "sess-1", Body: map[string]any{"sessionId": "sess-1", "watchTime": 6.0, "wasSkipped": true}},
	}
	if diff := cmp.Diff(want, a.snapshot()); diff != "" {
		t.Fatalf("analytics calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker_FallbackIsSuppressed(t *testing.T) {
	a := newAnalyticsServer(t, http.StatusOK)
	tr := newTestTracker(t, a)
	target := model.Target{SessionID: "s", AdID: model.FallbackCreative().ID, Fallback: true}

	tr.RecordView(target)
	tr.RecordClick(target, model.ClickShopNow)
	tr.RecordCompletion(target, 30, false)
	require.NoError(t, tr.Close(context.Background()))

	assert.Empty(t, a.snapshot())
}

func TestTracker_FailuresAreNotRetried(t *testing.T) {
	a := newAnalyticsServer(t, http.StatusServiceUnavailable)
	tr := newTestTracker(t, a)
	target := model.Target{SessionID: "s", AdID: "ad"}

	tr.RecordView(target)
	tr.RecordCompletion(target, 30, false)
	require.NoError(t, tr.Close(context.Background()))

	calls := a.snapshot()
	require.Len(t, calls, 2, "one attempt per event")
	assert.Equal(t, "POST /ads/ad/view", calls[0].Path)
	assert.Equal(t, "POST /ads/ad/complete", calls[1].Path)
}

func TestTracker_UnreachableEndpointNeverBlocksCaller(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	logger := zerolog.New(io.Discard)
	tr := NewTracker(Config{BaseURL: base, Client: &http.Client{Timeout: 200 * time.Millisecond}, Logger: &logger})

	start := time.Now()
	for i := 0; i < 50; i++ {
		tr.RecordView(model.Target{SessionID: "s", AdID: "a"})
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "record calls must return immediately")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = tr.Close(ctx)
}

func TestTracker_RateLimitedStillDelivers(t *testing.T) {
	a := newAnalyticsServer(t, http.StatusOK)
	logger := zerolog.New(io.Discard)
	tr := NewTracker(Config{BaseURL: a.srv.URL, Client: a.srv.Client(), Logger: &logger, RatePerSecond: 1000, Burst: 1})

	for i := 0; i < 5; i++ {
		tr.RecordClick(model.Target{SessionID: "s", AdID: "a"}, model.ClickShopNow)
	}
	require.NoError(t, tr.Close(context.Background()))
	assert.Len(t, a.snapshot(), 5)
}
