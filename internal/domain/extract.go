package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var errNoRows = errors.New("payload holds no record array")

// envelopeKeys are tried in order when a dataset arrives wrapped in an object.
var envelopeKeys = []string{"results", "data", "items", "list", "records"}

// naturalIDKeys name fields that carry an upstream identifier.
var naturalIDKeys = []string{"roadreport_num", "id", "ID"}

// labelKeys name fields that carry a human-readable description.
var labelKeys = []string{"roadreport_damagetype", "label", "name", "title"}

// latitudeKeys and longitudeKeys are resolved independently, so a row may mix
// alias families such as "latitude" with "lng".
var (
	latitudeKeys  = []string{"latitude", "lat", "y", "Y"}
	longitudeKeys = []string{"longitude", "lng", "lon", "x", "X"}
)

// combinedKey holds a single "lng,lat" string and takes precedence over separate fields.
const combinedKey = "roadreport_latlng"

func extractCoordinate(row map[string]any) (Coordinate, bool) {
	if row == nil {
		return Coordinate{}, false
	}
	if c, ok := combinedField(row[combinedKey]); ok {
		return c, true
	}
	lat, ok1 := firstUsable(row, latitudeKeys)
	lng, ok2 := firstUsable(row, longitudeKeys)
	if !ok1 || !ok2 {
		return Coordinate{}, false
	}
	return Coordinate{Lat: lat, Lng: lng}, true
}

// combinedField reads a "lng,lat" string. A pair whose first value cannot be a
// longitude but whose second cannot be a latitude is read as "lat,lng".
func combinedField(v any) (Coordinate, bool) {
	s, ok := v.(string)
	if !ok {
		return Coordinate{}, false
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, false
	}
	first, ok1 := parseNumber(parts[0])
	second, ok2 := parseNumber(parts[1])
	if !ok1 || !ok2 || !usable(first) || !usable(second) {
		return Coordinate{}, false
	}
	if math.Abs(first) <= 90 && math.Abs(second) > 90 {
		return Coordinate{Lat: first, Lng: second}, true
	}
	return Coordinate{Lat: second, Lng: first}, true
}

// firstUsable returns the first key in keys whose value parses to a usable number.
func firstUsable(row map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		if v, ok := parseNumber(row[key]); ok && usable(v) {
			return v, true
		}
	}
	return 0, false
}

// usable rejects non-finite values and the zero placeholder upstream uses for "unknown".
func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v != 0
}

func parseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func hazardID(tag string, index int, row map[string]any) string {
	for _, key := range naturalIDKeys {
		switch v := row[key].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return tag + ":" + v
			}
		case json.Number:
			return tag + ":" + v.String()
		case float64:
			return tag + ":" + strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return tag + "#" + strconv.Itoa(index)
}

func firstString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := row[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// RowCount reports how many raw rows a dataset payload holds, usable or not.
func RowCount(payload json.RawMessage) (int, error) {
	rows, err := decodeRows(payload)
	return len(rows), err
}

// decodeRows unpacks a dataset payload into raw rows. Non-object array
// elements become nil rows so positional IDs stay stable.
func decodeRows(payload json.RawMessage) ([]map[string]any, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, nil
	}

	switch payload[0] {
	case '[':
		return decodeArray(payload)
	case '{':
		return decodeObject(payload)
	default:
		return nil, fmt.Errorf("decode hazard rows: unexpected payload starting with %q", payload[0])
	}
}

func decodeArray(payload json.RawMessage) ([]map[string]any, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		return nil, fmt.Errorf("decode hazard rows: %w", err)
	}

	rows := make([]map[string]any, len(elems))
	for i, elem := range elems {
		dec := json.NewDecoder(bytes.NewReader(elem))
		dec.UseNumber()
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			continue
		}
		rows[i] = row
	}
	return rows, nil
}

func decodeObject(payload json.RawMessage) ([]map[string]any, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, fmt.Errorf("decode hazard rows: %w", err)
	}

	if _, ok := obj["features"]; ok {
		return decodeFeatures(payload)
	}

	for _, key := range envelopeKeys {
		inner := bytes.TrimSpace(obj[key])
		if len(inner) > 0 && inner[0] == '[' {
			return decodeArray(inner)
		}
	}
	return nil, errNoRows
}

func decodeFeatures(payload json.RawMessage) ([]map[string]any, error) {
	fc, err := geojson.UnmarshalFeatureCollection(payload)
	if err != nil {
		return nil, fmt.Errorf("decode hazard features: %w", err)
	}

	rows := make([]map[string]any, len(fc.Features))
	for i, f := range fc.Features {
		row := make(map[string]any, len(f.Properties)+3)
		for k, v := range f.Properties {
			row[k] = v
		}
		if _, ok := row["id"]; !ok && f.ID != nil {
			row["id"] = f.ID
		}
		if p, ok := f.Geometry.(orb.Point); ok {
			row["lng"] = p.Lon()
			row["lat"] = p.Lat()
		}
		rows[i] = row
	}
	return rows, nil
}
