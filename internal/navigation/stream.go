package navigation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

// Source is a continuous position-fix provider.
type Source interface {
	// Watch delivers fixes and errors until ctx is cancelled. Callbacks may
	// run on any goroutine but must not run concurrently with each other. A
	// returned error means the watch ended abnormally; it is reported to the
	// error callback unless ctx was cancelled.
	Watch(ctx context.Context, opts domain.WatchOptions, onFix func(domain.Fix), onError func(error)) error
}

// PositionStream wraps a Source with a start/stop lifecycle, error
// classification and a no-fix watchdog.
type PositionStream struct {
	source Source
	opts   domain.WatchOptions
	clock  clockwork.Clock
	logger *slog.Logger

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	watchdog clockwork.Timer
	done     chan struct{}
}

// NewPositionStream returns a stopped stream over source.
func NewPositionStream(source Source, opts domain.WatchOptions, clock clockwork.Clock, logger *slog.Logger) *PositionStream {
	return &PositionStream{source: source, opts: opts, clock: clock, logger: logger}
}

// Start begins watching. A running watch is stopped first. Callbacks from a
// watch that has since been stopped are dropped.
func (s *PositionStream) Start(onFix func(domain.Fix), onError func(domain.PositionErrorCode, error)) {
	s.mu.Lock()
	s.stopLocked()
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done

	deliverErr := func(err error) {
		if !s.current(gen) {
			return
		}
		onError(domain.ClassifyPositionError(err), err)
	}
	deliverFix := func(fix domain.Fix) {
		s.mu.Lock()
		if s.gen != gen || s.cancel == nil {
			s.mu.Unlock()
			return
		}
		if s.watchdog != nil {
			s.watchdog.Reset(s.opts.Timeout)
		}
		s.mu.Unlock()
		onFix(fix)
	}

	if s.opts.Timeout > 0 {
		s.watchdog = s.clock.AfterFunc(s.opts.Timeout, func() {
			s.mu.Lock()
			if s.gen != gen || s.cancel == nil {
				s.mu.Unlock()
				return
			}
			s.watchdog.Reset(s.opts.Timeout)
			s.mu.Unlock()
			onError(domain.CodeTimeout, domain.ErrPositionTimeout)
		})
	}
	s.mu.Unlock()

	s.logger.Debug("position watch starting",
		"high_accuracy", s.opts.EnableHighAccuracy,
		"timeout", s.opts.Timeout,
		"maximum_age", s.opts.MaximumAge,
	)

	go func() {
		defer close(done)
		err := s.source.Watch(ctx, s.opts, deliverFix, deliverErr)
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("position watch ended", "error", err)
			deliverErr(err)
		}
	}()
}

// Stop cancels the watch. It is safe to call when never started or already
// stopped, and does not wait for the source to return; see Wait.
func (s *PositionStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Running reports whether a watch is active.
func (s *PositionStream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Wait blocks until the most recent watch's Source.Watch has returned.
func (s *PositionStream) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *PositionStream) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen && s.cancel != nil
}

func (s *PositionStream) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	if s.watchdog != nil {
		s.watchdog.Stop()
		s.watchdog = nil
	}
	s.gen++
	s.logger.Debug("position watch stopped")
}
