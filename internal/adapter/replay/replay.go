// Package replay simulates a position source by walking a route path.
package replay

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

const metresPerDegreeLat = 111320.0

// Option configures a Walker.
type Option func(*Walker)

// WithStep densifies the path so consecutive fixes are at most step metres
// apart.
func WithStep(step float64) Option {
	return func(w *Walker) { w.step = step }
}

// WithOffset shifts every fix north by offset metres.
func WithOffset(offset float64) Option {
	return func(w *Walker) { w.offset = offset }
}

// WithAccuracy reports accuracy metres on every fix.
func WithAccuracy(accuracy float64) Option {
	return func(w *Walker) { w.accuracy = &accuracy }
}

// Walker replays a route path one fix per tick. After the last point it
// stays silent until the watch is cancelled.
// It implements navigation.Source.
type Walker struct {
	path     []domain.Coordinate
	interval time.Duration
	step     float64
	offset   float64
	accuracy *float64
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewWalker returns a Walker over path emitting one fix every interval.
func NewWalker(path []domain.Coordinate, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, opts ...Option) *Walker {
	w := &Walker{
		path:     path,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Points returns the positions the walker will emit, in order.
func (w *Walker) Points() []domain.Coordinate {
	pts := densify(w.path, w.step)
	if w.offset != 0 {
		for i := range pts {
			pts[i].Lat += w.offset / metresPerDegreeLat
		}
	}
	return pts
}

func (w *Walker) Watch(ctx context.Context, _ domain.WatchOptions, onFix func(domain.Fix), _ func(error)) error {
	pts := w.Points()
	w.logger.Info("replay started", "points", len(pts), "interval", w.interval)

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for i, p := range pts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.Chan():
			}
		}
		onFix(domain.Fix{Position: p, Accuracy: w.accuracy, Timestamp: w.clock.Now()})
	}

	w.logger.Info("replay finished", "points", len(pts))
	<-ctx.Done()
	return ctx.Err()
}

// densify inserts evenly spaced points between path vertices so no hop
// exceeds step metres. Vertices are always kept.
func densify(path []domain.Coordinate, step float64) []domain.Coordinate {
	if step <= 0 || len(path) < 2 {
		return append([]domain.Coordinate(nil), path...)
	}
	out := []domain.Coordinate{path[0]}
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		n := int(math.Ceil(a.Distance(b) / step))
		for k := 1; k < n; k++ {
			f := float64(k) / float64(n)
			out = append(out, domain.Coordinate{
				Lat: a.Lat + (b.Lat-a.Lat)*f,
				Lng: a.Lng + (b.Lng-a.Lng)*f,
			})
		}
		out = append(out, b)
	}
	return out
}
