package navigation

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
	"github.com/couchcryptid/hazard-navigator/internal/observability"
)

func newTestAnnouncer(enabled bool) (*Announcer, *Voice, *recordingSpeaker, *observability.Metrics) {
	sp := &recordingSpeaker{}
	v := NewVoice(sp, enabled, clockwork.NewFakeClock())
	m := observability.NewMetricsForTesting()
	return NewAnnouncer(v, discardLogger(), m), v, sp, m
}

func hit(id string, d float64) domain.HazardHit {
	return domain.HazardHit{
		HazardRecord: domain.HazardRecord{ID: id, Label: "포트홀", Kind: domain.KindRoadDamage},
		Distance:     d,
	}
}

func TestAnnouncer_GuideOnce(t *testing.T) {
	a, _, sp, _ := newTestAnnouncer(true)

	ann, ok := a.AnnounceGuide(0, "좌회전")
	require.True(t, ok)
	assert.Equal(t, "잠시 후 좌회전", ann.Text)
	assert.True(t, ann.Spoken)
	assert.True(t, a.GuideAnnounced(0))

	_, ok = a.AnnounceGuide(0, "좌회전")
	assert.False(t, ok)
	assert.Equal(t, []string{"잠시 후 좌회전"}, sp.texts())
}

func TestAnnouncer_ArrivalOnce(t *testing.T) {
	a, _, sp, _ := newTestAnnouncer(true)

	_, ok := a.AnnounceArrival()
	require.True(t, ok)
	_, ok = a.AnnounceArrival()
	assert.False(t, ok)

	assert.True(t, a.Finished())
	assert.Equal(t, []string{domain.MessageArrival}, sp.texts())
}

func TestAnnouncer_HazardsInOrderAndOnce(t *testing.T) {
	a, _, sp, m := newTestAnnouncer(true)

	anns := a.AnnounceHazards([]domain.HazardHit{hit("near", 12.4), hit("far", 80)})
	require.Len(t, anns, 2)
	assert.Equal(t, "near", anns[0].HazardID)
	assert.Equal(t, []string{
		"주의! 12미터 전방에 포트홀이 있습니다.",
		"주의! 80미터 전방에 포트홀이 있습니다.",
	}, sp.texts())

	assert.Empty(t, a.AnnounceHazards([]domain.HazardHit{hit("near", 5)}))
	assert.InDelta(t, 2, testutil.ToFloat64(m.Announcements.WithLabelValues("hazard")), 0)
}

func TestAnnouncer_DisabledVoiceStillMarks(t *testing.T) {
	a, v, sp, m := newTestAnnouncer(false)

	anns := a.AnnounceHazards([]domain.HazardHit{hit("h1", 30)})
	require.Len(t, anns, 1)
	assert.False(t, anns[0].Spoken)
	assert.True(t, a.AnnouncedHazards().Has("h1"))

	_, ok := a.AnnounceGuide(3, "우회전")
	assert.True(t, ok)

	v.SetEnabled(true)
	assert.Empty(t, a.AnnounceHazards([]domain.HazardHit{hit("h1", 30)}), "no replay after re-enabling")
	_, ok = a.AnnounceGuide(3, "우회전")
	assert.False(t, ok)

	assert.Empty(t, sp.spoken)
	assert.InDelta(t, 2, testutil.ToFloat64(m.SpeechSuppressed), 0)
}

func TestAnnouncer_Reset(t *testing.T) {
	a, _, _, _ := newTestAnnouncer(true)
	a.AnnounceGuide(0, "x")
	a.AnnounceArrival()
	a.AnnounceHazards([]domain.HazardHit{hit("h", 1)})

	a.Reset()

	assert.False(t, a.GuideAnnounced(0))
	assert.False(t, a.Finished())
	assert.Empty(t, a.AnnouncedHazards())
}

func TestAnnouncer_StartAlwaysSpoken(t *testing.T) {
	a, _, sp, _ := newTestAnnouncer(true)
	a.AnnounceStart()
	a.AnnounceStart()
	assert.Equal(t, []string{domain.MessageStart, domain.MessageStart}, sp.texts())
}
