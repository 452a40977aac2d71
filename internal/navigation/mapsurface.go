package navigation

import "github.com/couchcryptid/hazard-navigator/internal/domain"

// MarkerCategory groups markers that are cleared and redrawn together.
type MarkerCategory string

const (
	CategoryRoute  MarkerCategory = "route"
	CategoryStart  MarkerCategory = "start"
	CategoryGoal   MarkerCategory = "goal"
	CategoryGuide  MarkerCategory = "guide"
	CategoryLive   MarkerCategory = "live"
	CategoryHazard MarkerCategory = "hazard"
)

// Categories lists every marker category in draw order.
var Categories = []MarkerCategory{
	CategoryRoute,
	CategoryStart,
	CategoryGoal,
	CategoryGuide,
	CategoryHazard,
	CategoryLive,
}

// Marker icons.
const (
	IconRoute      = "polyline"
	IconStart      = "icon_location"
	IconGoal       = "icon_location_goal"
	IconGuide      = "guide_point"
	IconLive       = "icon_navigation"
	IconRoadDamage = "icon_damage"
	IconSubsidence = "icon_subsidence"
)

// Marker is one placement request. Path is set only for polylines.
type Marker struct {
	Category MarkerCategory      `json:"category"`
	Icon     string              `json:"icon"`
	Label    string              `json:"label,omitempty"`
	Position domain.Coordinate   `json:"position"`
	Path     []domain.Coordinate `json:"path,omitempty"`
}

// MapSurface is the externally owned map view. The session writes markers
// and the view centre but never reads them back.
type MapSurface interface {
	// Clear removes every marker of the category.
	Clear(category MarkerCategory)
	Place(m Marker)
	Recenter(c domain.Coordinate)
}

type noopSurface struct{}

func (noopSurface) Clear(MarkerCategory)       {}
func (noopSurface) Place(Marker)               {}
func (noopSurface) Recenter(domain.Coordinate) {}

func hazardIcon(kind domain.HazardKind) string {
	if kind == domain.KindSubsidence {
		return IconSubsidence
	}
	return IconRoadDamage
}
