package navigation

import "github.com/couchcryptid/hazard-navigator/internal/domain"

// Status is the session lifecycle state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusNoRoute Status = "no-route"
	StatusEnRoute Status = "enroute"
	StatusArrived Status = "arrived"
	StatusStopped Status = "stopped"
)

// GuideRow is one entry of the guide list shown in the bottom sheet.
type GuideRow struct {
	Index    int               `json:"index"`
	Label    string            `json:"label"`
	Duration string            `json:"duration,omitempty"`
	Position domain.Coordinate `json:"position"`
	Active   bool              `json:"active"`
}

// Snapshot is the observable session state for the presentation layer.
type Snapshot struct {
	SessionID      string `json:"session_id,omitempty"`
	Status         Status `json:"status"`
	Instruction    string `json:"instruction"`
	NextGuideIndex int    `json:"next_guide_index"`

	RemainingDistance float64 `json:"remaining_distance_m"`
	RemainingDuration float64 `json:"remaining_duration_ms"`
	DistanceLabel     string  `json:"distance_label"`
	DurationLabel     string  `json:"duration_label"`
	ArrivalLabel      string  `json:"arrival_label"`

	VoiceEnabled   bool `json:"voice_enabled"`
	VoiceAvailable bool `json:"voice_available"`
	SheetOpen      bool `json:"sheet_open"`
	Dragging       bool `json:"dragging"`

	Guides           []GuideRow               `json:"guides"`
	LastFix          *domain.Fix              `json:"last_fix,omitempty"`
	PositionError    domain.PositionErrorCode `json:"position_error,omitempty"`
	HazardCount      int                      `json:"hazard_count"`
	AnnouncedHazards int                      `json:"announced_hazards"`
}

func guideRows(route *domain.Route, active int) []GuideRow {
	if route.Empty() {
		return nil
	}
	rows := make([]GuideRow, 0, len(route.Guide))
	for i, step := range route.Guide {
		pos, _ := route.Anchor(step)
		rows = append(rows, GuideRow{
			Index:    i,
			Label:    domain.StepLabel(step),
			Duration: domain.StepDurationLabel(step),
			Position: pos,
			Active:   i == active,
		})
	}
	return rows
}

// remaining sums the known step distances and durations from index next on.
// When no step carries a value the route summary total is reported until
// every step has been passed.
func remaining(route *domain.Route, next int) (distance, duration float64) {
	if route.Empty() {
		return 0, 0
	}
	var haveDistance, haveDuration bool
	for _, step := range route.Guide {
		haveDistance = haveDistance || step.Distance != nil
		haveDuration = haveDuration || step.Duration != nil
	}
	for i := next; i < len(route.Guide); i++ {
		if d := route.Guide[i].Distance; d != nil {
			distance += *d
		}
		if d := route.Guide[i].Duration; d != nil {
			duration += *d
		}
	}
	pending := next < len(route.Guide)
	if !haveDistance && pending {
		distance = route.Summary.Distance
	}
	if !haveDuration && pending {
		duration = route.Summary.Duration
	}
	return distance, duration
}
