package navigation

import (
	"log/slog"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
	"github.com/couchcryptid/hazard-navigator/internal/observability"
)

// AnnouncementKind labels what an announcement is about.
type AnnouncementKind string

const (
	KindStart   AnnouncementKind = "start"
	KindGuide   AnnouncementKind = "guide"
	KindHazard  AnnouncementKind = "hazard"
	KindArrival AnnouncementKind = "arrival"
)

// Announcement records one scheduled message.
type Announcement struct {
	Kind       AnnouncementKind `json:"kind"`
	Text       string           `json:"text"`
	GuideIndex int              `json:"guide_index,omitempty"`
	HazardID   string           `json:"hazard_id,omitempty"`
	// Spoken is false when voice was disabled or no speaker was attached.
	Spoken bool `json:"spoken"`
}

// Announcer is the only component that talks to the Voice. It owns the
// per-session dedup sets: a guide step, a hazard or the arrival is announced
// at most once, and is marked announced whether or not it was audible.
type Announcer struct {
	voice   *Voice
	logger  *slog.Logger
	metrics *observability.Metrics

	guides   map[int]struct{}
	finished bool
	hazards  domain.IDSet
}

// NewAnnouncer returns an Announcer with empty dedup sets.
func NewAnnouncer(voice *Voice, logger *slog.Logger, metrics *observability.Metrics) *Announcer {
	return &Announcer{
		voice:   voice,
		logger:  logger,
		metrics: metrics,
		guides:  make(map[int]struct{}),
		hazards: make(domain.IDSet),
	}
}

// Reset clears both dedup sets for a new session.
func (a *Announcer) Reset() {
	a.guides = make(map[int]struct{})
	a.finished = false
	a.hazards = make(domain.IDSet)
}

// AnnounceStart speaks the session-start message. It is not deduplicated.
func (a *Announcer) AnnounceStart() Announcement {
	return a.say(Announcement{Kind: KindStart, Text: domain.MessageStart})
}

// AnnounceGuide pre-announces guide step index unless it was announced before.
func (a *Announcer) AnnounceGuide(index int, instruction string) (Announcement, bool) {
	if _, ok := a.guides[index]; ok {
		return Announcement{}, false
	}
	a.guides[index] = struct{}{}
	return a.say(Announcement{Kind: KindGuide, Text: domain.PreAnnouncement(instruction), GuideIndex: index}), true
}

// AnnounceArrival speaks the arrival message once per session.
func (a *Announcer) AnnounceArrival() (Announcement, bool) {
	if a.finished {
		return Announcement{}, false
	}
	a.finished = true
	return a.say(Announcement{Kind: KindArrival, Text: domain.MessageArrival}), true
}

// AnnounceHazards warns about each hit in order, skipping any already
// announced. Each ID is recorded as soon as its message is scheduled.
func (a *Announcer) AnnounceHazards(hits []domain.HazardHit) []Announcement {
	var out []Announcement
	for _, hit := range hits {
		if a.hazards.Has(hit.ID) {
			continue
		}
		ann := a.say(Announcement{
			Kind:     KindHazard,
			Text:     domain.HazardWarning(hit.Label, hit.Distance),
			HazardID: hit.ID,
		})
		a.hazards.Add(hit.ID)
		out = append(out, ann)
	}
	return out
}

// AnnouncedHazards returns the hazard dedup set. Callers must not modify it.
func (a *Announcer) AnnouncedHazards() domain.IDSet { return a.hazards }

// GuideAnnounced reports whether guide step index has been pre-announced.
func (a *Announcer) GuideAnnounced(index int) bool {
	_, ok := a.guides[index]
	return ok
}

// Finished reports whether the arrival message has been scheduled.
func (a *Announcer) Finished() bool { return a.finished }

func (a *Announcer) say(ann Announcement) Announcement {
	ann.Spoken = a.voice.Say(ann.Text)

	a.metrics.Announcements.WithLabelValues(string(ann.Kind)).Inc()
	if !ann.Spoken {
		a.metrics.SpeechSuppressed.Inc()
	}
	a.logger.Info("announcement",
		"kind", ann.Kind,
		"text", ann.Text,
		"spoken", ann.Spoken,
	)
	return ann
}
