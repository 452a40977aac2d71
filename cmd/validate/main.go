// Command validate checks the integrity of saved route and hazard fixtures
// before they are used for replay or tests: the route parses and its guide
// points are anchored, the path length agrees with the summary, and every
// hazard collection decodes with unique IDs.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -route data/mock/route.json \
//	  -hazards data/mock \
//	  -radius 100
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/hazard-navigator/internal/adapter/dataservice"
	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

// lengthTolerance is the allowed relative gap between the summed path length
// and the summary distance.
const lengthTolerance = 0.25

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	routeFile := flag.String("route", "", "saved route proxy response")
	hazardDir := flag.String("hazards", "", "directory of saved hazard collections")
	radius := flag.Float64("radius", 100, "hazard warning radius in metres")
	flag.Parse()

	if *routeFile == "" || *hazardDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*routeFile, *hazardDir, *radius); code != 0 {
		os.Exit(code)
	}
}

func run(routeFile, hazardDir string, radius float64) int {
	fmt.Println("=== Navigation Fixture Validation ===")
	fmt.Println()

	raw, err := os.ReadFile(routeFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read route: %v\n", err)
		return 1
	}
	var payload domain.RoutePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode route: %v\n", err)
		return 1
	}
	route, err := domain.ParseRoutePayload(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse route: %v\n", err)
		return 1
	}

	datasets, err := dataservice.LoadHazardDir(hazardDir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load hazards: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateRoute(payload, route),
		validateHazards(datasets),
	}
	records := domain.Normalize(datasets, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Route: %d points, %d guide steps, %s, %s\n",
		len(route.Path), len(route.Guide),
		domain.FormatKilometers(route.Summary.Distance), domain.FormatMinutes(route.Summary.Duration))
	fmt.Printf("Hazards: %d usable across %d collections, %d within %.0fm of the route\n",
		len(records), len(datasets), countNearRoute(route, records, radius), radius)

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Route ──

func validateRoute(payload domain.RoutePayload, route domain.Route) *phase {
	p := &phase{name: "Route integrity"}
	if route.Empty() {
		p.errorf("route has no path")
		return p
	}

	for i, c := range route.Path {
		if !c.Valid() {
			p.errorf("path point %d out of range: %v", i, c)
		}
	}

	rawSteps := len(payload.Route.Trafast[0].Guide)
	if dropped := rawSteps - len(route.Guide); dropped > 0 {
		p.errorf("%d of %d guide steps point outside the path", dropped, rawSteps)
	}
	for i, step := range route.Guide {
		if step.Instruction == "" {
			p.errorf("guide step %d has no instruction", i)
		}
		if i > 0 && step.PointIndex < route.Guide[i-1].PointIndex {
			p.errorf("guide step %d anchored before step %d", i, i-1)
		}
	}
	if n := len(route.Guide); n > 0 && route.Guide[n-1].PointIndex != len(route.Path)-1 {
		p.errorf("last guide step is not anchored at the goal (point %d of %d)", route.Guide[n-1].PointIndex, len(route.Path)-1)
	}

	if route.Summary.Distance <= 0 {
		p.errorf("summary distance missing")
	} else {
		length := pathLength(route.Path)
		if gap := math.Abs(length-route.Summary.Distance) / route.Summary.Distance; gap > lengthTolerance {
			p.errorf("path length %.0fm differs from summary %.0fm by %.0f%%", length, route.Summary.Distance, gap*100)
		}
	}
	if route.Summary.Duration <= 0 {
		p.errorf("summary duration missing")
	}
	return p
}

func pathLength(path []domain.Coordinate) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += path[i-1].Distance(path[i])
	}
	return total
}

// ── Hazards ──

func validateHazards(datasets []domain.RawDataset) *phase {
	p := &phase{name: "Hazard collections"}
	if len(datasets) == 0 {
		p.errorf("no hazard collections found")
		return p
	}

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	seen := make(map[string]string)
	for _, ds := range datasets {
		rows, err := domain.RowCount(ds.Payload)
		if err != nil {
			p.errorf("%s: %v", ds.Tag, err)
			continue
		}
		recs := domain.Normalize([]domain.RawDataset{ds}, discard)
		fmt.Printf("  %-16s %3d rows, %3d usable, %3d dropped\n", ds.Tag, rows, len(recs), rows-len(recs))
		if rows > 0 && len(recs) == 0 {
			p.errorf("%s: none of %d rows has a usable coordinate", ds.Tag, rows)
		}
		for _, rec := range recs {
			if prev, dup := seen[rec.ID]; dup {
				p.errorf("duplicate hazard id %q in %s (first seen in %s)", rec.ID, ds.Tag, prev)
			}
			seen[rec.ID] = ds.Tag
		}
	}
	fmt.Println()
	return p
}

// countNearRoute counts hazards within radius of any path point.
func countNearRoute(route domain.Route, records []domain.HazardRecord, radius float64) int {
	n := 0
	for _, rec := range records {
		for _, c := range route.Path {
			if c.Distance(rec.Position) <= radius {
				n++
				break
			}
		}
	}
	return n
}
