package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
	"github.com/couchcryptid/hazard-navigator/internal/observability"
)

var (
	ErrNoRoute    = errors.New("no route loaded")
	ErrGuideIndex = errors.New("guide index out of range")
)

// Options configure a Session.
type Options struct {
	// HazardRadius is the warning radius in metres.
	HazardRadius float64
	VoiceEnabled bool
	Watch        domain.WatchOptions
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// TickResult describes what one fix did. It is handed to the OnTick hook.
type TickResult struct {
	Fix           domain.Fix
	Tick          domain.Tick
	Hits          []domain.HazardHit
	Announcements []Announcement
}

// Session is one navigation attempt. All events are serialized through a
// single mutex: fixes, position errors and user toggles never interleave.
type Session struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	radius  float64

	stream    *PositionStream
	surface   MapSurface
	voice     *Voice
	announcer *Announcer

	mu          sync.Mutex
	id          string
	status      Status
	route       *domain.Route
	tracker     *domain.GuideTracker
	hazards     *domain.HazardIndex
	departed    time.Time
	instruction string
	posErr      domain.PositionErrorCode
	lastFix     *domain.Fix
	dragging    bool
	sheetOpen   bool
	onTick      func(TickResult)
}

// New builds an idle session. source is required; a nil speaker makes speech
// a silent no-op and a nil surface discards map updates.
func New(source Source, speaker Speaker, surface MapSurface, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Session, error) {
	if source == nil {
		return nil, errors.New("navigation: position source is required")
	}
	if opts.HazardRadius <= 0 {
		return nil, fmt.Errorf("navigation: hazard radius must be positive, got %v", opts.HazardRadius)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if surface == nil {
		surface = noopSurface{}
	}

	voice := NewVoice(speaker, opts.VoiceEnabled, opts.Clock)
	return &Session{
		logger:    logger,
		metrics:   metrics,
		clock:     opts.Clock,
		radius:    opts.HazardRadius,
		stream:    NewPositionStream(source, opts.Watch, opts.Clock, logger),
		surface:   surface,
		voice:     voice,
		announcer: NewAnnouncer(voice, logger, metrics),
		status:    StatusIdle,
	}, nil
}

// OnTick registers a hook called after every processed fix, under the
// session lock. It must not call back into the session.
func (s *Session) OnTick(fn func(TickResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = fn
}

// Start begins navigating route. A nil or empty route leaves the session in
// the no-route state and returns nil. A running session is stopped first.
func (s *Session) Start(route *domain.Route, datasets []domain.RawDataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnRoute || s.status == StatusArrived {
		s.stopLocked()
	}

	s.id = uuid.NewString()
	s.voice.setSession(s.id)
	s.posErr = ""
	s.lastFix = nil
	s.dragging = false

	if route.Empty() {
		s.route = nil
		s.tracker = nil
		s.hazards = nil
		s.status = StatusNoRoute
		s.instruction = domain.MessageNoRoute
		s.logger.Info("no route, session idle", "session_id", s.id)
		return nil
	}

	s.route = route
	s.tracker = domain.NewGuideTracker(route)
	s.hazards = domain.NewHazardIndex(domain.Normalize(datasets, s.logger))
	s.announcer.Reset()
	s.departed = route.DepartedAt
	if s.departed.IsZero() {
		s.departed = s.clock.Now()
	}
	s.recordHazardCounts()

	s.drawRoute()
	s.surface.Recenter(route.Start())

	s.status = StatusEnRoute
	s.instruction = domain.MessageStart
	s.metrics.SessionActive.Set(1)
	s.metrics.GuideIndex.Set(0)

	s.stream.Start(s.handleFix, s.handleError)
	s.announcer.AnnounceStart()

	s.logger.Info("navigation started",
		"session_id", s.id,
		"path_points", len(route.Path),
		"guide_steps", len(route.Guide),
		"hazards", s.hazards.Len(),
		"radius_m", s.radius,
	)
	return nil
}

// Stop ends the session: the position watch is cancelled, pending speech is
// cancelled and every marker is cleared. Calling it again is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Close stops the session and waits for the position source to return.
func (s *Session) Close() {
	s.Stop()
	s.stream.Wait()
}

func (s *Session) stopLocked() {
	if s.status == StatusIdle || s.status == StatusStopped {
		return
	}
	s.stream.Stop()
	s.voice.Cancel()
	for _, c := range Categories {
		s.surface.Clear(c)
	}
	s.status = StatusStopped
	s.instruction = domain.MessageStopped
	s.metrics.SessionActive.Set(0)
	s.logger.Info("navigation stopped", "session_id", s.id)
}

func (s *Session) handleFix(fix domain.Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusEnRoute && s.status != StatusArrived {
		return
	}
	start := s.clock.Now()
	s.metrics.FixesReceived.Inc()

	if !fix.Position.Valid() {
		s.metrics.FixesRejected.Inc()
		s.logger.Debug("fix rejected", "lat", fix.Position.Lat, "lng", fix.Position.Lng)
		return
	}
	if fix.Timestamp.IsZero() {
		fix.Timestamp = s.clock.Now()
	}
	s.lastFix = &fix
	s.posErr = ""

	s.surface.Clear(CategoryLive)
	s.surface.Place(Marker{Category: CategoryLive, Icon: IconLive, Position: fix.Position})
	if !s.dragging {
		s.surface.Recenter(fix.Position)
	}

	tick := s.tracker.Observe(fix.Position)
	hits := s.hazards.FindNewlyInRange(fix.Position, s.radius, s.announcer.AnnouncedHazards())

	anns := s.announcer.AnnounceHazards(hits)
	for _, hit := range hits {
		s.surface.Place(Marker{
			Category: CategoryHazard,
			Icon:     hazardIcon(hit.Kind),
			Label:    hit.Label,
			Position: hit.Position,
		})
	}

	if tick.PreAnnounce {
		if ann, ok := s.announcer.AnnounceGuide(tick.Index, tick.Instruction); ok {
			s.instruction = tick.Instruction
			anns = append(anns, ann)
		}
	}
	if tick.Advanced {
		s.metrics.GuideIndex.Set(float64(s.tracker.NextIndex()))
	}
	if tick.Arrived {
		if ann, ok := s.announcer.AnnounceArrival(); ok {
			s.instruction = domain.MessageArrival
			s.status = StatusArrived
			s.stream.Stop()
			s.metrics.SessionActive.Set(0)
			anns = append(anns, ann)
			s.logger.Info("destination reached", "session_id", s.id)
		}
	}

	s.metrics.FixDuration.Observe(s.clock.Since(start).Seconds())
	if s.onTick != nil {
		s.onTick(TickResult{Fix: fix, Tick: tick, Hits: hits, Announcements: anns})
	}
}

func (s *Session) handleError(code domain.PositionErrorCode, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusEnRoute {
		return
	}
	s.posErr = code
	s.metrics.PositionErrors.WithLabelValues(string(code)).Inc()
	s.logger.Warn("position error", "session_id", s.id, "code", code, "error", err)
}

// SetVoiceEnabled toggles speech for future announcements only.
func (s *Session) SetVoiceEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice.SetEnabled(enabled)
}

// SetDragging records a map drag gesture. Auto-recentring is suppressed while
// a drag is active and resumes on the next fix after it ends.
func (s *Session) SetDragging(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragging = active
}

// SetSheetOpen records whether the guide sheet is expanded.
func (s *Session) SetSheetOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheetOpen = open
}

// FocusGuide pans the map to guide step index and suspends auto-recentring
// as a drag would.
func (s *Session) FocusGuide(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.route.Empty() {
		return ErrNoRoute
	}
	if index < 0 || index >= len(s.route.Guide) {
		return fmt.Errorf("%w: %d", ErrGuideIndex, index)
	}
	pos, ok := s.route.Anchor(s.route.Guide[index])
	if !ok {
		return fmt.Errorf("%w: %d", ErrGuideIndex, index)
	}
	s.dragging = true
	s.surface.Recenter(pos)
	return nil
}

// Locate resumes auto-recentring and recentres on the last fix, if any.
func (s *Session) Locate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dragging = false
	if s.lastFix != nil {
		s.surface.Recenter(s.lastFix.Position)
	}
}

// CheckReadiness reports ready once a route is being navigated.
func (s *Session) CheckReadiness(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusEnRoute, StatusArrived:
		return nil
	default:
		return fmt.Errorf("session is %s", s.status)
	}
}

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:      s.id,
		Status:         s.status,
		Instruction:    s.instruction,
		VoiceEnabled:   s.voice.Enabled(),
		VoiceAvailable: s.voice.Available(),
		SheetOpen:      s.sheetOpen,
		Dragging:       s.dragging,
		PositionError:  s.posErr,
		DistanceLabel:  domain.Unknown,
		DurationLabel:  domain.Unknown,
		ArrivalLabel:   domain.Unknown,
	}
	if s.posErr != "" {
		snap.Instruction = s.posErr.Message()
	}
	if s.lastFix != nil {
		fix := *s.lastFix
		snap.LastFix = &fix
	}
	if s.route.Empty() || s.tracker == nil {
		return snap
	}

	next := s.tracker.NextIndex()
	snap.NextGuideIndex = next
	snap.RemainingDistance, snap.RemainingDuration = remaining(s.route, next)
	snap.DistanceLabel = domain.FormatKilometers(s.route.Summary.Distance)
	snap.DurationLabel = domain.FormatMinutes(s.route.Summary.Duration)
	snap.ArrivalLabel = domain.FormatArrival(s.departed, s.route.Summary.Duration)
	snap.Guides = guideRows(s.route, next)
	snap.HazardCount = s.hazards.Len()
	snap.AnnouncedHazards = len(s.announcer.AnnouncedHazards())
	return snap
}

// drawRoute clears every marker category, then places the route polyline,
// start, goal and guide markers.
func (s *Session) drawRoute() {
	for _, c := range Categories {
		s.surface.Clear(c)
	}
	s.surface.Place(Marker{Category: CategoryRoute, Icon: IconRoute, Position: s.route.Start(), Path: s.route.Path})
	s.surface.Place(Marker{Category: CategoryStart, Icon: IconStart, Position: s.route.Start()})
	s.surface.Place(Marker{Category: CategoryGoal, Icon: IconGoal, Position: s.route.Goal()})
	for _, step := range s.route.Guide {
		pos, ok := s.route.Anchor(step)
		if !ok {
			continue
		}
		s.surface.Place(Marker{Category: CategoryGuide, Icon: IconGuide, Label: step.Instruction, Position: pos})
	}
}

func (s *Session) recordHazardCounts() {
	s.metrics.HazardsLoaded.Reset()
	counts := make(map[string]int)
	for _, rec := range s.hazards.Records() {
		counts[rec.Source]++
	}
	for source, n := range counts {
		s.metrics.HazardsLoaded.WithLabelValues(source).Set(float64(n))
	}
}
