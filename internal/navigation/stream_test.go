package navigation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

type streamRecorder struct {
	mu    sync.Mutex
	fixes []domain.Fix
	codes []domain.PositionErrorCode
}

func (r *streamRecorder) onFix(f domain.Fix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixes = append(r.fixes, f)
}

func (r *streamRecorder) onError(c domain.PositionErrorCode, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, c)
}

func (r *streamRecorder) errorCodes() []domain.PositionErrorCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PositionErrorCode(nil), r.codes...)
}

func (r *streamRecorder) fixCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fixes)
}

func TestPositionStream_StopWithoutStart(t *testing.T) {
	s := NewPositionStream(newFakeSource(), domain.WatchOptions{}, clockwork.NewFakeClock(), discardLogger())

	assert.NotPanics(t, s.Stop)
	assert.NotPanics(t, s.Stop)
	assert.False(t, s.Running())
	s.Wait()
}

func TestPositionStream_DeliversAndClassifies(t *testing.T) {
	src := newFakeSource()
	s := NewPositionStream(src, domain.DefaultWatchOptions(), clockwork.NewFakeClock(), discardLogger())
	rec := &streamRecorder{}

	s.Start(rec.onFix, rec.onError)
	src.waitStarted(t)
	assert.True(t, s.Running())
	assert.True(t, src.opts.EnableHighAccuracy)
	assert.Equal(t, 5*time.Second, src.opts.Timeout)

	src.fix(37.0, 127.0)
	src.fail(domain.ErrPermissionDenied)
	src.fail(errors.New("gps cable unplugged"))

	assert.Equal(t, 1, rec.fixCount())
	assert.Equal(t, []domain.PositionErrorCode{domain.CodePermissionDenied, domain.CodeUnavailable}, rec.errorCodes())

	s.Stop()
	src.waitEnded(t)
	s.Wait()
}

func TestPositionStream_StopDropsLateCallbacks(t *testing.T) {
	src := newFakeSource()
	s := NewPositionStream(src, domain.WatchOptions{}, clockwork.NewFakeClock(), discardLogger())
	rec := &streamRecorder{}

	s.Start(rec.onFix, rec.onError)
	src.waitStarted(t)
	s.Stop()
	s.Stop()

	src.fix(37.0, 127.0)
	src.fail(domain.ErrPositionUnavailable)

	assert.Zero(t, rec.fixCount())
	assert.Empty(t, rec.errorCodes())
	assert.False(t, s.Running())
}

func TestPositionStream_RestartDropsOldWatch(t *testing.T) {
	src := newFakeSource()
	s := NewPositionStream(src, domain.WatchOptions{}, clockwork.NewFakeClock(), discardLogger())
	old := &streamRecorder{}
	fresh := &streamRecorder{}

	s.Start(old.onFix, old.onError)
	src.waitStarted(t)
	src.mu.Lock()
	staleFix := src.onFix
	src.mu.Unlock()

	s.Start(fresh.onFix, fresh.onError)
	src.waitEnded(t)
	src.waitStarted(t)

	staleFix(domain.Fix{Position: domain.Coordinate{Lat: 1, Lng: 1}})
	src.fix(37.0, 127.0)

	assert.Zero(t, old.fixCount())
	assert.Equal(t, 1, fresh.fixCount())
	s.Stop()
}

func TestPositionStream_WatchdogTimeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := newFakeSource()
	s := NewPositionStream(src, domain.WatchOptions{Timeout: 5 * time.Second}, clock, discardLogger())
	rec := &streamRecorder{}

	s.Start(rec.onFix, rec.onError)
	src.waitStarted(t)

	clock.Advance(4 * time.Second)
	src.fix(37.0, 127.0) // resets the watchdog
	clock.Advance(4 * time.Second)
	assert.Never(t, func() bool { return len(rec.errorCodes()) > 0 }, 50*time.Millisecond, 10*time.Millisecond)

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool {
		codes := rec.errorCodes()
		return len(codes) == 1 && codes[0] == domain.CodeTimeout
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	clock.Advance(time.Minute)
	assert.Never(t, func() bool { return len(rec.errorCodes()) > 1 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestPositionStream_WatchFailureReported(t *testing.T) {
	src := newFakeSource()
	src.watchErr = domain.ErrPermissionDenied
	s := NewPositionStream(src, domain.WatchOptions{}, clockwork.NewFakeClock(), discardLogger())
	rec := &streamRecorder{}

	s.Start(rec.onFix, rec.onError)
	s.Wait()

	require.Equal(t, []domain.PositionErrorCode{domain.CodePermissionDenied}, rec.errorCodes())
}
