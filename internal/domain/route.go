package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// GuideStep is one maneuver anchored to a point on the route path.
type GuideStep struct {
	PointIndex  int      `json:"point_index"`
	Instruction string   `json:"instruction"`
	Distance    *float64 `json:"distance,omitempty"` // metres from the previous step
	Duration    *float64 `json:"duration,omitempty"` // milliseconds from the previous step
}

// RouteSummary holds the totals reported by the routing service. Zero means unknown.
type RouteSummary struct {
	Distance float64 `json:"distance"` // metres
	Duration float64 `json:"duration"` // milliseconds
}

// Route is the immutable result of a route search: the path polyline plus the
// ordered guide steps anchored to it.
type Route struct {
	Path       []Coordinate `json:"path"`
	Guide      []GuideStep  `json:"guide"`
	Summary    RouteSummary `json:"summary"`
	DepartedAt time.Time    `json:"departed_at,omitempty"`
}

// Empty reports whether the route has no path to navigate.
func (r *Route) Empty() bool {
	return r == nil || len(r.Path) == 0
}

// Anchor returns the path coordinate a guide step is anchored to.
func (r *Route) Anchor(step GuideStep) (Coordinate, bool) {
	if step.PointIndex < 0 || step.PointIndex >= len(r.Path) {
		return Coordinate{}, false
	}
	return r.Path[step.PointIndex], true
}

// Start returns the first path point.
func (r *Route) Start() Coordinate { return r.Path[0] }

// Goal returns the last path point.
func (r *Route) Goal() Coordinate { return r.Path[len(r.Path)-1] }

// RoutePayload is the JSON envelope returned by the route proxy.
type RoutePayload struct {
	Route struct {
		Trafast []RouteOption `json:"trafast"`
	} `json:"route"`
	CurrentDateTime string `json:"currentDateTime"`
}

// RouteOption is one candidate route. Path points are [longitude, latitude].
type RouteOption struct {
	Path     [][]float64    `json:"path"`
	Guide    []RawGuideStep `json:"guide"`
	Summary  *RawSummary    `json:"summary"`
	Distance *float64       `json:"distance"`
	Duration *float64       `json:"duration"`
}

// RawGuideStep is a guide entry as the routing service sends it.
type RawGuideStep struct {
	PointIndex   int      `json:"pointIndex"`
	Type         int      `json:"type"`
	Instructions string   `json:"instructions"`
	Distance     *float64 `json:"distance"`
	Duration     *float64 `json:"duration"`
}

// RawSummary carries the route totals.
type RawSummary struct {
	Distance *float64 `json:"distance"`
	Duration *float64 `json:"duration"`
}

// departureLayouts are the timestamp formats seen in currentDateTime.
var departureLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseRoutePayload decodes a route proxy response into a Route. A payload
// without any route option yields an empty Route and no error so the caller
// can enter its "no route" state.
func ParseRoutePayload(data []byte) (Route, error) {
	var payload RoutePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Route{}, fmt.Errorf("parse route payload: %w", err)
	}
	if len(payload.Route.Trafast) == 0 {
		return Route{}, nil
	}

	route, err := payload.Route.Trafast[0].ToRoute()
	if err != nil {
		return Route{}, err
	}
	route.DepartedAt = parseDeparture(payload.CurrentDateTime)
	return route, nil
}

// ToRoute converts the wire option into a Route, swapping the [lon, lat] path
// ordering into Coordinates. Guide steps anchored outside the path are dropped.
func (o RouteOption) ToRoute() (Route, error) {
	path := make([]Coordinate, 0, len(o.Path))
	for i, pt := range o.Path {
		if len(pt) < 2 {
			return Route{}, fmt.Errorf("route path point %d: expected [lon, lat], got %d values", i, len(pt))
		}
		path = append(path, Coordinate{Lat: pt[1], Lng: pt[0]})
	}

	guide := make([]GuideStep, 0, len(o.Guide))
	for _, g := range o.Guide {
		if g.PointIndex < 0 || g.PointIndex >= len(path) {
			continue
		}
		guide = append(guide, GuideStep{
			PointIndex:  g.PointIndex,
			Instruction: strings.TrimSpace(g.Instructions),
			Distance:    g.Distance,
			Duration:    g.Duration,
		})
	}

	var summary RouteSummary
	switch {
	case o.Summary != nil:
		summary.Distance = valueOr(o.Summary.Distance, valueOr(o.Distance, 0))
		summary.Duration = valueOr(o.Summary.Duration, valueOr(o.Duration, 0))
	default:
		summary.Distance = valueOr(o.Distance, 0)
		summary.Duration = valueOr(o.Duration, 0)
	}

	return Route{Path: path, Guide: guide, Summary: summary}, nil
}

func parseDeparture(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range departureLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
