package navigation

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Speech parameters for every utterance.
const (
	SpeechLocale = "ko-KR"
	SpeechRate   = 1.2
)

// Utterance is one speech request.
type Utterance struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Locale    string    `json:"locale"`
	Rate      float64   `json:"rate"`
	At        time.Time `json:"at"`
}

// Speaker is the speech-synthesis port. Calls are fire-and-forget; an
// implementation must not block on playback.
type Speaker interface {
	Speak(u Utterance)
	// Cancel stops u if it is still playing.
	Cancel(u Utterance)
}

// Voice owns the single utterance slot. A new utterance always cancels the
// previous one first; nothing is ever queued. A nil Speaker makes every call
// a silent no-op.
type Voice struct {
	speaker   Speaker
	clock     clockwork.Clock
	enabled   bool
	sessionID string
	pending   *Utterance
}

// NewVoice returns a Voice writing to speaker.
func NewVoice(speaker Speaker, enabled bool, clock clockwork.Clock) *Voice {
	return &Voice{speaker: speaker, clock: clock, enabled: enabled}
}

// Say speaks text unless voice is disabled or no speaker is attached. It
// reports whether the text was handed to the speaker.
func (v *Voice) Say(text string) bool {
	if !v.enabled || v.speaker == nil {
		return false
	}
	v.Cancel()

	u := Utterance{
		ID:        uuid.NewString(),
		SessionID: v.sessionID,
		Text:      text,
		Locale:    SpeechLocale,
		Rate:      SpeechRate,
		At:        v.clock.Now(),
	}
	v.pending = &u
	v.speaker.Speak(u)
	return true
}

// Cancel stops the pending utterance, if any.
func (v *Voice) Cancel() {
	if v.pending == nil {
		return
	}
	if v.speaker != nil {
		v.speaker.Cancel(*v.pending)
	}
	v.pending = nil
}

// SetEnabled toggles speech output without touching the pending utterance.
func (v *Voice) SetEnabled(enabled bool) { v.enabled = enabled }

// Enabled reports the voice toggle.
func (v *Voice) Enabled() bool { return v.enabled }

// Available reports whether a speaker is attached.
func (v *Voice) Available() bool { return v.speaker != nil }

// Pending returns the last utterance handed to the speaker, or nil.
func (v *Voice) Pending() *Utterance { return v.pending }

func (v *Voice) setSession(id string) { v.sessionID = id }

// LogSpeaker "speaks" by writing each utterance to the log. It stands in for
// a synthesizer on headless hosts.
type LogSpeaker struct {
	logger *slog.Logger
}

// NewLogSpeaker returns a Speaker that logs utterances at info level.
func NewLogSpeaker(logger *slog.Logger) *LogSpeaker {
	return &LogSpeaker{logger: logger}
}

func (s *LogSpeaker) Speak(u Utterance) {
	s.logger.Info("speak", "utterance_id", u.ID, "session_id", u.SessionID, "text", u.Text, "locale", u.Locale, "rate", u.Rate)
}

func (s *LogSpeaker) Cancel(u Utterance) {
	s.logger.Debug("speech cancelled", "utterance_id", u.ID)
}
