// Package mapview keeps the navigation map in memory and renders it as
// GeoJSON for web clients.
package mapview

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
	"github.com/couchcryptid/hazard-navigator/internal/navigation"
)

// View is a point-in-time copy of the map.
type View struct {
	Center  *domain.Coordinate  `json:"center,omitempty"`
	Markers []navigation.Marker `json:"markers"`
}

// Surface is an in-memory navigation.MapSurface safe for concurrent use.
type Surface struct {
	mu      sync.RWMutex
	center  *domain.Coordinate
	markers map[navigation.MarkerCategory][]navigation.Marker
}

// New returns an empty map.
func New() *Surface {
	return &Surface{markers: make(map[navigation.MarkerCategory][]navigation.Marker)}
}

func (s *Surface) Clear(category navigation.MarkerCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, category)
}

func (s *Surface) Place(m navigation.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[m.Category] = append(s.markers[m.Category], m)
}

func (s *Surface) Recenter(c domain.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = &c
}

// View copies the current map, markers in draw order.
func (s *Surface) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{Markers: []navigation.Marker{}}
	if s.center != nil {
		c := *s.center
		v.Center = &c
	}
	for _, cat := range navigation.Categories {
		v.Markers = append(v.Markers, s.markers[cat]...)
	}
	return v
}

// FeatureCollection renders the map as GeoJSON. Polylines become LineStrings
// and every other marker a Point; category, icon and label are properties.
// The view centre is stored as the "center" foreign member.
func (s *Surface) FeatureCollection() *geojson.FeatureCollection {
	v := s.View()

	fc := geojson.NewFeatureCollection()
	for _, m := range v.Markers {
		var f *geojson.Feature
		if len(m.Path) > 0 {
			ls := make(orb.LineString, 0, len(m.Path))
			for _, c := range m.Path {
				ls = append(ls, toPoint(c))
			}
			f = geojson.NewFeature(ls)
		} else {
			f = geojson.NewFeature(toPoint(m.Position))
		}
		f.Properties["category"] = string(m.Category)
		f.Properties["icon"] = m.Icon
		if m.Label != "" {
			f.Properties["label"] = m.Label
		}
		fc.Append(f)
	}
	if v.Center != nil {
		fc.ExtraMembers = geojson.Properties{"center": []float64{v.Center.Lng, v.Center.Lat}}
	}
	return fc
}

// toPoint converts to GeoJSON [lng, lat] order.
func toPoint(c domain.Coordinate) orb.Point {
	return orb.Point{c.Lng, c.Lat}
}
