package domain

import (
	"encoding/json"
	"log/slog"
	"sort"
)

// HazardKind classifies a hazard record by its source family.
type HazardKind string

const (
	KindRoadDamage HazardKind = "road-damage"
	KindSubsidence HazardKind = "subsidence"
)

// DefaultLabel is the spoken name used when a record carries no label of its own.
func (k HazardKind) DefaultLabel() string {
	switch k {
	case KindRoadDamage:
		return "도로 파손"
	case KindSubsidence:
		return "지반침하"
	default:
		return "위험 요소"
	}
}

// HazardRecord is a normalized, coordinate-bearing hazard.
type HazardRecord struct {
	ID       string     `json:"id"`
	Position Coordinate `json:"position"`
	Kind     HazardKind `json:"kind"`
	Label    string     `json:"label"`
	Source   string     `json:"source"`
}

// RawDataset is one hazard collection as fetched from the data service.
type RawDataset struct {
	Tag          string          // stable source tag, prefixes generated IDs
	Kind         HazardKind      // kind assigned to every record in the set
	DefaultLabel string          // label for records without one; falls back to Kind.DefaultLabel
	Payload      json.RawMessage // array, envelope object or GeoJSON FeatureCollection
}

// IDSet is a set of opaque identifiers.
type IDSet map[string]struct{}

// Has reports whether id is in the set. A nil set is empty.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Normalize flattens heterogeneous hazard datasets into one record set. Rows
// without a usable coordinate are dropped and logged at debug level.
func Normalize(datasets []RawDataset, logger *slog.Logger) []HazardRecord {
	var out []HazardRecord
	for _, ds := range datasets {
		rows, err := decodeRows(ds.Payload)
		if err != nil {
			logger.Warn("hazard dataset undecodable, skipping", "source", ds.Tag, "error", err)
			continue
		}

		kept := 0
		for i, row := range rows {
			rec, ok := normalizeRow(ds, i, row)
			if !ok {
				logger.Debug("hazard record dropped", "source", ds.Tag, "index", i, "reason", "no usable coordinate")
				continue
			}
			out = append(out, rec)
			kept++
		}
		logger.Debug("hazard dataset normalized", "source", ds.Tag, "rows", len(rows), "kept", kept)
	}
	return out
}

func normalizeRow(ds RawDataset, index int, row map[string]any) (HazardRecord, bool) {
	pos, ok := extractCoordinate(row)
	if !ok {
		return HazardRecord{}, false
	}

	label := firstString(row, labelKeys...)
	if label == "" {
		label = ds.DefaultLabel
	}
	if label == "" {
		label = ds.Kind.DefaultLabel()
	}

	return HazardRecord{
		ID:       hazardID(ds.Tag, index, row),
		Position: pos,
		Kind:     ds.Kind,
		Label:    label,
		Source:   ds.Tag,
	}, true
}

// HazardHit is a hazard found within range of a position.
type HazardHit struct {
	HazardRecord
	Distance float64 `json:"distance"`
}

// HazardIndex answers proximity queries over an immutable hazard set.
type HazardIndex struct {
	records []HazardRecord
}

// NewHazardIndex copies records into a new index.
func NewHazardIndex(records []HazardRecord) *HazardIndex {
	cp := make([]HazardRecord, len(records))
	copy(cp, records)
	return &HazardIndex{records: cp}
}

// Len returns the number of indexed hazards.
func (x *HazardIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.records)
}

// Records returns a copy of the indexed hazards.
func (x *HazardIndex) Records() []HazardRecord {
	if x == nil {
		return nil
	}
	cp := make([]HazardRecord, len(x.records))
	copy(cp, x.records)
	return cp
}

// FindNewlyInRange returns hazards within radius metres of pos whose ID is not
// in announced, closest first. Hazards at equal distance keep dataset order.
func (x *HazardIndex) FindNewlyInRange(pos Coordinate, radius float64, announced IDSet) []HazardHit {
	if x == nil || !pos.Valid() || radius <= 0 {
		return nil
	}

	var hits []HazardHit
	for _, rec := range x.records {
		if announced.Has(rec.ID) {
			continue
		}
		d := Distance(pos, rec.Position)
		if d <= radius {
			hits = append(hits, HazardHit{HazardRecord: rec, Distance: d})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}
