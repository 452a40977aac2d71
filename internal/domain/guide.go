package domain

import "math"

const (
	// PreAnnounceRadius is the distance in metres at which an upcoming guide
	// step is announced.
	PreAnnounceRadius = 50.0
	// AdvanceRadius is the distance in metres at which a guide step counts as passed.
	AdvanceRadius = 15.0
)

// TrackerState is the GuideTracker's coarse state.
type TrackerState int

const (
	StateEnRoute TrackerState = iota
	StateArrived
)

func (s TrackerState) String() string {
	if s == StateArrived {
		return "arrived"
	}
	return "enroute"
}

// Tick is the outcome of feeding one fix into a GuideTracker.
type Tick struct {
	// Index is the guide step the fix was measured against.
	Index int
	// Instruction is the text of that step, set when PreAnnounce is true.
	Instruction string
	// Distance to the step's anchor in metres; NaN when no step was evaluated.
	Distance    float64
	PreAnnounce bool
	Advanced    bool
	// Arrived is true on every tick once the last step has been passed,
	// including the tick that passed it.
	Arrived bool
}

// GuideTracker advances through a route's guide steps as the position nears
// each step's anchor point. It is not safe for concurrent use.
type GuideTracker struct {
	route *Route
	next  int
}

// NewGuideTracker returns a tracker at ENROUTE(0). A route with no guide
// steps starts out arrived.
func NewGuideTracker(route *Route) *GuideTracker {
	return &GuideTracker{route: route}
}

// NextIndex returns the index of the next expected guide step.
func (t *GuideTracker) NextIndex() int { return t.next }

// State reports whether the tracker is still en route.
func (t *GuideTracker) State() TrackerState {
	if t.next >= len(t.route.Guide) {
		return StateArrived
	}
	return StateEnRoute
}

// Observe feeds one position into the tracker. Once arrived, the tracker is
// inert and every further call reports Arrived without changing state.
// Invalid positions are ignored.
func (t *GuideTracker) Observe(pos Coordinate) Tick {
	tick := Tick{Index: t.next, Distance: math.NaN()}
	if t.State() == StateArrived {
		tick.Arrived = true
		return tick
	}
	if !pos.Valid() {
		return tick
	}

	step := t.route.Guide[t.next]
	anchor, ok := t.route.Anchor(step)
	if !ok {
		t.next++
		tick.Advanced = true
		tick.Arrived = t.State() == StateArrived
		return tick
	}

	tick.Distance = Distance(pos, anchor)
	if tick.Distance < PreAnnounceRadius {
		tick.PreAnnounce = true
		tick.Instruction = step.Instruction
	}
	if tick.Distance < AdvanceRadius {
		t.next++
		tick.Advanced = true
	}
	tick.Arrived = t.State() == StateArrived
	return tick
}
