package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/ringtrack/internal/ring"
	"github.com/banshee-data/ringtrack/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTickedRing(t *testing.T) (*ring.Ring, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(t0)
	r, err := ring.NewRing(testGeometry(), ring.Options{Clock: clock})
	require.NoError(t, err)
	track := ring.MustTrack(ring.MustSpeedProfile(map[float64]float64{0: 15}), "blue", "express")
	require.True(t, r.AttachTracks([]*ring.Track{track}))
	r.Start()
	clock.Set(t0.Add(10 * time.Second))
	_, ok := r.Tick()
	require.True(t, ok)
	return r, clock
}

func TestHandleFrame(t *testing.T) {
	r, _ := newTickedRing(t)
	ws := NewWebServer(WebServerConfig{Source: r, Geometry: testGeometry(), Units: "kmph"})

	req := httptest.NewRequest(http.MethodGet, "/api/frame", nil)
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got frameView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, r.RunID(), got.RunID)
	assert.Equal(t, uint64(1), got.Seq)
	require.Len(t, got.Colors, 100)
	assert.Equal(t, ring.Color("blue"), got.Colors[20])
	require.Len(t, got.Tracks, 1)

	tr := got.Tracks[0]
	assert.Equal(t, "express", tr.Label)
	assert.True(t, tr.Applied)
	assert.Equal(t, 150.0, tr.Distance)
	assert.Equal(t, 0, tr.Laps)
	assert.InDelta(t, 54.0, tr.Speed, 1e-9)
	assert.Equal(t, "kmph", tr.Units)
	assert.Equal(t, []ring.IndexRange{{Lo: 18, Hi: 37}}, tr.Covered)
	assert.Equal(t, 19, tr.CoveredN)
}

func TestHandleFrame_UnitsQuery(t *testing.T) {
	r, _ := newTickedRing(t)
	ws := NewWebServer(WebServerConfig{Source: r, Geometry: testGeometry()})

	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/frame?units=mps", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got frameView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 15.0, got.Tracks[0].Speed)

	w = httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/frame?units=knots", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleFrame_NoFrameYet(t *testing.T) {
	r, err := ring.NewRing(testGeometry(), ring.Options{Clock: timeutil.NewMockClock(t0)})
	require.NoError(t, err)
	ws := NewWebServer(WebServerConfig{Source: r, Geometry: testGeometry()})

	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/frame", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/frame", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleHealth(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Source: NewBoard(testGeometry(), ring.DefaultIdleColor, nil)})

	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHandleRingChart(t *testing.T) {
	r, _ := newTickedRing(t)
	ws := NewWebServer(WebServerConfig{Source: r, Geometry: testGeometry()})

	w := httptest.NewRecorder()
	ws.handleRingChart(w, httptest.NewRequest(http.MethodGet, "/debug/ring", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "Ring positions")
	assert.Contains(t, body, "blue")
	assert.Contains(t, body, "black")
}

func TestHandleTail(t *testing.T) {
	r, _ := newTickedRing(t)
	hub := NewHub()
	ws := NewWebServer(WebServerConfig{Source: r, Hub: hub, Geometry: testGeometry()})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/debug/tail", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ws.handleTail(w, req)
	}()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)
	f, ok := r.LastFrame()
	require.True(t, ok)
	hub.Publish(f)
	hub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		cancel()
		t.Fatal("tail handler did not return after hub closed")
	}
	cancel()

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, ": ping\n\n"))
	assert.Contains(t, body, "id: 1\ndata: ")
	assert.Contains(t, body, `"run_id":"`+r.RunID()+`"`)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}

func TestRingPoint(t *testing.T) {
	x, y := ringPoint(0, 4)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 1, y, 1e-9)

	x, y = ringPoint(1, 4)
	assert.InDelta(t, 1, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
}
