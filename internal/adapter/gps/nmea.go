package gps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

// uere is the assumed user-equivalent range error in metres. Horizontal
// accuracy is estimated as HDOP times uere.
const uere = 5.0

var (
	errNotNMEA     = errors.New("not an NMEA sentence")
	errChecksum    = errors.New("nmea checksum mismatch")
	errUnsupported = errors.New("unsupported sentence")
)

// Sentence is one decoded GGA or RMC sentence.
type Sentence struct {
	Type string // "GGA" or "RMC"
	// NoFix reports that the receiver has no usable position (RMC status V
	// or GGA quality 0). Fix is zero when NoFix is set.
	NoFix bool
	Fix   domain.Fix
}

// ParseSentence decodes one NMEA 0183 line. The talker ID is ignored so
// GP, GN and GL sentences all decode. A checksum, when present, must match.
// GGA carries no date, so today's UTC date from now is used.
func ParseSentence(line string, now time.Time) (Sentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Sentence{}, errNotNMEA
	}
	body := line[1:]
	if i := strings.IndexByte(body, '*'); i >= 0 {
		want, err := strconv.ParseUint(body[i+1:], 16, 8)
		if err != nil {
			return Sentence{}, fmt.Errorf("nmea checksum %q: %w", body[i+1:], err)
		}
		body = body[:i]
		if checksum(body) != byte(want) {
			return Sentence{}, errChecksum
		}
	}

	fields := strings.Split(body, ",")
	if len(fields[0]) != 5 {
		return Sentence{}, errNotNMEA
	}
	switch typ := fields[0][2:]; typ {
	case "GGA":
		return parseGGA(fields, now)
	case "RMC":
		return parseRMC(fields)
	default:
		return Sentence{}, fmt.Errorf("%w: %s", errUnsupported, typ)
	}
}

func checksum(body string) byte {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return sum
}

func parseGGA(f []string, now time.Time) (Sentence, error) {
	if len(f) < 9 {
		return Sentence{}, fmt.Errorf("gga: expected at least 9 fields, got %d", len(f))
	}
	s := Sentence{Type: "GGA"}
	if f[6] == "" || f[6] == "0" {
		s.NoFix = true
		return s, nil
	}
	pos, err := parsePosition(f[2], f[3], f[4], f[5])
	if err != nil {
		return Sentence{}, fmt.Errorf("gga: %w", err)
	}
	clock, err := parseClock(f[1])
	if err != nil {
		return Sentence{}, fmt.Errorf("gga: %w", err)
	}
	y, m, d := now.UTC().Date()
	s.Fix = domain.Fix{
		Position:  pos,
		Timestamp: time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(clock),
	}
	if hdop, err := strconv.ParseFloat(f[8], 64); err == nil && hdop > 0 {
		acc := hdop * uere
		s.Fix.Accuracy = &acc
	}
	return s, nil
}

func parseRMC(f []string) (Sentence, error) {
	if len(f) < 10 {
		return Sentence{}, fmt.Errorf("rmc: expected at least 10 fields, got %d", len(f))
	}
	s := Sentence{Type: "RMC"}
	if f[2] != "A" {
		s.NoFix = true
		return s, nil
	}
	pos, err := parsePosition(f[3], f[4], f[5], f[6])
	if err != nil {
		return Sentence{}, fmt.Errorf("rmc: %w", err)
	}
	clock, err := parseClock(f[1])
	if err != nil {
		return Sentence{}, fmt.Errorf("rmc: %w", err)
	}
	date, err := time.Parse("020106", f[9])
	if err != nil {
		return Sentence{}, fmt.Errorf("rmc date %q: %w", f[9], err)
	}
	s.Fix = domain.Fix{Position: pos, Timestamp: date.Add(clock)}
	return s, nil
}

func parsePosition(lat, ns, lng, ew string) (domain.Coordinate, error) {
	la, err := parseDegrees(lat, 2)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lo, err := parseDegrees(lng, 3)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	if ns == "S" {
		la = -la
	}
	if ew == "W" {
		lo = -lo
	}
	c := domain.Coordinate{Lat: la, Lng: lo}
	if !c.Valid() {
		return domain.Coordinate{}, fmt.Errorf("position out of range: %v", c)
	}
	return c, nil
}

// parseDegrees converts NMEA "dddmm.mmmm" into decimal degrees, where
// degDigits is the width of the degree part.
func parseDegrees(s string, degDigits int) (float64, error) {
	if len(s) < degDigits+2 {
		return 0, fmt.Errorf("malformed %q", s)
	}
	deg, err := strconv.Atoi(s[:degDigits])
	if err != nil {
		return 0, fmt.Errorf("malformed %q: %w", s, err)
	}
	minutes, err := strconv.ParseFloat(s[degDigits:], 64)
	if err != nil || minutes >= 60 {
		return 0, fmt.Errorf("malformed %q", s)
	}
	return float64(deg) + minutes/60, nil
}

// parseClock parses "hhmmss" with optional fractional seconds into an offset
// from midnight.
func parseClock(s string) (time.Duration, error) {
	if len(s) < 6 {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	h, err1 := strconv.Atoi(s[0:2])
	m, err2 := strconv.Atoi(s[2:4])
	sec, err3 := strconv.ParseFloat(s[4:], 64)
	if err := errors.Join(err1, err2, err3); err != nil {
		return 0, fmt.Errorf("malformed time %q: %w", s, err)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second)), nil
}
