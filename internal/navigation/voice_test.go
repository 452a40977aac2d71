package navigation

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoice_CancelsBeforeSpeaking(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	sp := &recordingSpeaker{}
	v := NewVoice(sp, true, clock)
	v.setSession("session-1")

	require.True(t, v.Say("first"))
	require.True(t, v.Say("second"))

	require.Len(t, sp.spoken, 2)
	require.Len(t, sp.cancelled, 1)
	assert.Equal(t, sp.spoken[0].ID, sp.cancelled[0].ID)

	u := sp.spoken[1]
	assert.Equal(t, "second", u.Text)
	assert.Equal(t, "ko-KR", u.Locale)
	assert.Equal(t, 1.2, u.Rate)
	assert.Equal(t, "session-1", u.SessionID)
	assert.Equal(t, clock.Now(), u.At)
	assert.NotEqual(t, sp.spoken[0].ID, u.ID)
	assert.Equal(t, u.ID, v.Pending().ID)
}

func TestVoice_Disabled(t *testing.T) {
	sp := &recordingSpeaker{}
	v := NewVoice(sp, false, clockwork.NewFakeClock())

	assert.False(t, v.Say("hello"))
	assert.Empty(t, sp.spoken)

	v.SetEnabled(true)
	assert.True(t, v.Say("hello"))
	assert.Len(t, sp.spoken, 1)
}

func TestVoice_DisableKeepsPendingUtterance(t *testing.T) {
	sp := &recordingSpeaker{}
	v := NewVoice(sp, true, clockwork.NewFakeClock())
	v.Say("hello")

	v.SetEnabled(false)
	assert.Empty(t, sp.cancelled)
	assert.NotNil(t, v.Pending())
}

func TestVoice_NoSpeakerIsSilent(t *testing.T) {
	v := NewVoice(nil, true, clockwork.NewFakeClock())

	assert.False(t, v.Available())
	assert.False(t, v.Say("hello"))
	assert.NotPanics(t, v.Cancel)
	assert.Nil(t, v.Pending())
}

func TestVoice_Cancel(t *testing.T) {
	sp := &recordingSpeaker{}
	v := NewVoice(sp, true, clockwork.NewFakeClock())

	v.Cancel()
	assert.Empty(t, sp.cancelled, "nothing pending")

	v.Say("hello")
	v.Cancel()
	v.Cancel()
	assert.Len(t, sp.cancelled, 1)
	assert.Nil(t, v.Pending())
}
