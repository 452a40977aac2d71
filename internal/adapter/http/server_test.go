package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/hazard-navigator/internal/adapter/http"
	"github.com/couchcryptid/hazard-navigator/internal/adapter/mapview"
	"github.com/couchcryptid/hazard-navigator/internal/domain"
	"github.com/couchcryptid/hazard-navigator/internal/navigation"
)

type mockNavigator struct {
	readyErr error
	focusErr error
	snap     navigation.Snapshot
	focused  []int
	located  int
	stopped  int
}

func (m *mockNavigator) CheckReadiness(_ context.Context) error { return m.readyErr }
func (m *mockNavigator) Snapshot() navigation.Snapshot          { return m.snap }
func (m *mockNavigator) SetVoiceEnabled(enabled bool)           { m.snap.VoiceEnabled = enabled }
func (m *mockNavigator) SetDragging(active bool)                { m.snap.Dragging = active }
func (m *mockNavigator) SetSheetOpen(open bool)                 { m.snap.SheetOpen = open }
func (m *mockNavigator) Locate()                                { m.located++ }
func (m *mockNavigator) Stop()                                  { m.stopped++ }

func (m *mockNavigator) FocusGuide(index int) error {
	if m.focusErr != nil {
		return m.focusErr
	}
	m.focused = append(m.focused, index)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(nav *mockNavigator) (*httpadapter.Server, *mapview.Surface) {
	view := mapview.New()
	return httpadapter.NewServer(":0", nav, view, discardLogger()), view
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(&mockNavigator{})
	rec := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns200WhenNavigating(t *testing.T) {
	srv, _ := newTestServer(&mockNavigator{})
	rec := do(t, srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns503WhenIdle(t *testing.T) {
	srv, _ := newTestServer(&mockNavigator{readyErr: fmt.Errorf("session is idle")})
	rec := do(t, srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "session is idle", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(&mockNavigator{})
	rec := do(t, srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSessionSnapshot(t *testing.T) {
	nav := &mockNavigator{snap: navigation.Snapshot{
		SessionID:   "sess-1",
		Status:      navigation.StatusEnRoute,
		Instruction: domain.MessageStart,
	}}
	srv, _ := newTestServer(nav)
	rec := do(t, srv, http.MethodGet, "/api/session", "")

	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[navigation.Snapshot](t, rec)
	assert.Equal(t, "sess-1", snap.SessionID)
	assert.Equal(t, navigation.StatusEnRoute, snap.Status)
	assert.Equal(t, "경로 안내를 시작합니다.", snap.Instruction)
}

func TestSessionToggles(t *testing.T) {
	tests := []struct {
		path  string
		body  string
		check func(navigation.Snapshot) bool
	}{
		{"/api/session/voice", `{"enabled": true}`, func(s navigation.Snapshot) bool { return s.VoiceEnabled }},
		{"/api/session/drag", `{"active": true}`, func(s navigation.Snapshot) bool { return s.Dragging }},
		{"/api/session/sheet", `{"open": true}`, func(s navigation.Snapshot) bool { return s.SheetOpen }},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			srv, _ := newTestServer(&mockNavigator{})
			rec := do(t, srv, http.MethodPost, tt.path, tt.body)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, tt.check(decode[navigation.Snapshot](t, rec)))
		})
	}
}

func TestSessionToggle_BadRequest(t *testing.T) {
	srv, _ := newTestServer(&mockNavigator{})

	for _, body := range []string{``, `not-json`, `{}`, `{"enabled": null}`, `{"active": true}`} {
		rec := do(t, srv, http.MethodPost, "/api/session/voice", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestSessionToggle_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(&mockNavigator{})
	rec := do(t, srv, http.MethodGet, "/api/session/voice", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFocusGuide(t *testing.T) {
	nav := &mockNavigator{}
	srv, _ := newTestServer(nav)

	rec := do(t, srv, http.MethodPost, "/api/session/guides/2/focus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{2}, nav.focused)

	rec = do(t, srv, http.MethodPost, "/api/session/guides/two/focus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFocusGuide_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no route", navigation.ErrNoRoute, http.StatusConflict},
		{"out of range", fmt.Errorf("%w: 9", navigation.ErrGuideIndex), http.StatusNotFound},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(&mockNavigator{focusErr: tt.err})
			rec := do(t, srv, http.MethodPost, "/api/session/guides/9/focus", "")
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestLocateAndStop(t *testing.T) {
	nav := &mockNavigator{}
	srv, _ := newTestServer(nav)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/session/locate", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/session/stop", "").Code)
	assert.Equal(t, 1, nav.located)
	assert.Equal(t, 1, nav.stopped)
}

func TestMapEndpoints(t *testing.T) {
	srv, view := newTestServer(&mockNavigator{})
	pos := domain.Coordinate{Lat: 37.5663, Lng: 126.9779}
	view.Place(navigation.Marker{Category: navigation.CategoryLive, Icon: navigation.IconLive, Position: pos})
	view.Recenter(pos)

	rec := do(t, srv, http.MethodGet, "/api/map", "")
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[mapview.View](t, rec)
	require.Len(t, v.Markers, 1)
	assert.Equal(t, navigation.IconLive, v.Markers[0].Icon)
	require.NotNil(t, v.Center)
	assert.Equal(t, pos, *v.Center)

	rec = do(t, srv, http.MethodGet, "/api/map.geojson", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"coordinates":[126.9779,37.5663]`)
}
