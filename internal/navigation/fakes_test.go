package navigation

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource hands its callbacks to the test and blocks until cancelled.
type fakeSource struct {
	mu       sync.Mutex
	onFix    func(domain.Fix)
	onError  func(error)
	opts     domain.WatchOptions
	watchErr error
	started  chan struct{}
	ended    chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{started: make(chan struct{}, 8), ended: make(chan struct{}, 8)}
}

func (f *fakeSource) Watch(ctx context.Context, opts domain.WatchOptions, onFix func(domain.Fix), onError func(error)) error {
	f.mu.Lock()
	f.onFix, f.onError, f.opts = onFix, onError, opts
	watchErr := f.watchErr
	f.mu.Unlock()

	f.started <- struct{}{}
	defer func() { f.ended <- struct{}{} }()
	if watchErr != nil {
		return watchErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeSource) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "position watch never started")
	}
}

func (f *fakeSource) waitEnded(t *testing.T) {
	t.Helper()
	select {
	case <-f.ended:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "position watch never ended")
	}
}

func (f *fakeSource) fix(lat, lng float64) {
	f.mu.Lock()
	fn := f.onFix
	f.mu.Unlock()
	fn(domain.Fix{Position: domain.Coordinate{Lat: lat, Lng: lng}})
}

func (f *fakeSource) fail(err error) {
	f.mu.Lock()
	fn := f.onError
	f.mu.Unlock()
	fn(err)
}

type recordingSpeaker struct {
	mu        sync.Mutex
	spoken    []Utterance
	cancelled []Utterance
}

func (r *recordingSpeaker) Speak(u Utterance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, u)
}

func (r *recordingSpeaker) Cancel(u Utterance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, u)
}

func (r *recordingSpeaker) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.spoken))
	for i, u := range r.spoken {
		out[i] = u.Text
	}
	return out
}

type recordingSurface struct {
	mu      sync.Mutex
	markers map[MarkerCategory][]Marker
	centers []domain.Coordinate
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{markers: make(map[MarkerCategory][]Marker)}
}

func (r *recordingSurface) Clear(c MarkerCategory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.markers, c)
}

func (r *recordingSurface) Place(m Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[m.Category] = append(r.markers[m.Category], m)
}

func (r *recordingSurface) Recenter(c domain.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.centers = append(r.centers, c)
}

func (r *recordingSurface) count(c MarkerCategory) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.markers[c])
}

func (r *recordingSurface) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ms := range r.markers {
		n += len(ms)
	}
	return n
}

func (r *recordingSurface) lastCenter() domain.Coordinate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.centers[len(r.centers)-1]
}

func (r *recordingSurface) centerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.centers)
}
