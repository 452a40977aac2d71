package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/hazard-navigator/internal/adapter/mapview"
	"github.com/couchcryptid/hazard-navigator/internal/navigation"
)

// Navigator is the session control surface exposed over HTTP.
type Navigator interface {
	sharedobs.ReadinessChecker
	Snapshot() navigation.Snapshot
	SetVoiceEnabled(enabled bool)
	SetDragging(active bool)
	SetSheetOpen(open bool)
	FocusGuide(index int) error
	Locate()
	Stop()
}

// MapView renders the current map.
type MapView interface {
	View() mapview.View
	FeatureCollection() *geojson.FeatureCollection
}

// Server exposes health, readiness, metrics and the session control API.
type Server struct {
	httpServer *http.Server
	nav        Navigator
	view       MapView
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/session and /api/map routes.
func NewServer(addr string, nav Navigator, view MapView, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		nav:    nav,
		view:   view,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(nav))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/session", s.handleSnapshot)
	mux.HandleFunc("POST /api/session/voice", s.handleToggle("enabled", nav.SetVoiceEnabled))
	mux.HandleFunc("POST /api/session/drag", s.handleToggle("active", nav.SetDragging))
	mux.HandleFunc("POST /api/session/sheet", s.handleToggle("open", nav.SetSheetOpen))
	mux.HandleFunc("POST /api/session/guides/{index}/focus", s.handleFocus)
	mux.HandleFunc("POST /api/session/locate", s.handleAction(nav.Locate))
	mux.HandleFunc("POST /api/session/stop", s.handleAction(nav.Stop))
	mux.HandleFunc("GET /api/map", s.handleMap)
	mux.HandleFunc("GET /api/map.geojson", s.handleGeoJSON)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.nav.Snapshot())
}

// handleToggle decodes {"<field>": bool} and applies it with set.
func (s *Server) handleToggle(field string, set func(bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]*bool
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		v, ok := body[field]
		if !ok || v == nil {
			writeError(w, http.StatusBadRequest, "missing boolean field "+strconv.Quote(field))
			return
		}
		set(*v)
		sharedobs.WriteJSON(w, http.StatusOK, s.nav.Snapshot())
	}
}

func (s *Server) handleAction(do func()) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		do()
		sharedobs.WriteJSON(w, http.StatusOK, s.nav.Snapshot())
	}
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "guide index must be an integer")
		return
	}
	if err := s.nav.FocusGuide(index); err != nil {
		switch {
		case errors.Is(err, navigation.ErrNoRoute):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, navigation.ErrGuideIndex):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			s.logger.Error("focus guide", "index", index, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.nav.Snapshot())
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.view.View())
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	data, err := s.view.FeatureCollection().MarshalJSON()
	if err != nil {
		s.logger.Error("encode map geojson", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
