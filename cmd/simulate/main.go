// Command simulate drives a navigation session along a recorded route with
// saved hazard collections and prints every spoken announcement. It runs on
// a fake clock, so a ten-minute drive finishes instantly.
//
// Usage:
//
//	go run ./cmd/simulate \
//	  -route data/mock/route.json \
//	  -hazards data/mock \
//	  -radius 100 -step 10
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hazard-navigator/internal/adapter/dataservice"
	"github.com/couchcryptid/hazard-navigator/internal/adapter/replay"
	"github.com/couchcryptid/hazard-navigator/internal/domain"
	"github.com/couchcryptid/hazard-navigator/internal/navigation"
	"github.com/couchcryptid/hazard-navigator/internal/observability"
)

const stallTimeout = 2 * time.Second

// transcript prints utterances with the elapsed simulated time.
type transcript struct {
	out   io.Writer
	start time.Time
}

func (t *transcript) Speak(u navigation.Utterance) {
	elapsed := u.At.Sub(t.start).Round(time.Second)
	fmt.Fprintf(t.out, "%6s  %s\n", elapsed, u.Text)
}

func (t *transcript) Cancel(navigation.Utterance) {}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	routeFile := flag.String("route", "data/mock/route.json", "saved route proxy response")
	hazardDir := flag.String("hazards", "data/mock", "directory of saved hazard collections")
	radius := flag.Float64("radius", 100, "hazard warning radius in metres")
	step := flag.Float64("step", 10, "largest gap between simulated fixes in metres")
	offset := flag.Float64("offset", 0, "shift every fix north by this many metres")
	interval := flag.Duration("interval", time.Second, "simulated time between fixes")
	verbose := flag.Bool("v", false, "log session events to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	route, err := dataservice.LoadRouteFile(*routeFile)
	if err != nil {
		return err
	}
	if route.Empty() {
		fmt.Println(domain.MessageNoRoute)
		return nil
	}
	datasets, err := dataservice.LoadHazardDir(*hazardDir, logger)
	if err != nil {
		return err
	}

	start := route.DepartedAt
	if start.IsZero() {
		start = time.Now()
	}
	clock := clockwork.NewFakeClockAt(start)

	walker := replay.NewWalker(route.Path, *interval, clock, logger,
		replay.WithStep(*step), replay.WithOffset(*offset))
	points := len(walker.Points())

	sess, err := navigation.New(walker, &transcript{out: os.Stdout, start: start}, nil, navigation.Options{
		HazardRadius: *radius,
		VoiceEnabled: true,
		Watch:        domain.WatchOptions{EnableHighAccuracy: true},
		Clock:        clock,
	}, logger, observability.NewMetricsForTesting())
	if err != nil {
		return err
	}
	defer sess.Close()

	ticks := make(chan navigation.TickResult, points+1)
	sess.OnTick(func(tr navigation.TickResult) { ticks <- tr })

	fmt.Printf("route: %d points, %d guide steps, %s, %s, arrival %s\n",
		len(route.Path), len(route.Guide),
		domain.FormatKilometers(route.Summary.Distance),
		domain.FormatMinutes(route.Summary.Duration),
		domain.FormatArrival(start, route.Summary.Duration))

	if err := sess.Start(&route, datasets); err != nil {
		return err
	}
	fmt.Printf("hazards loaded: %d\n\n", sess.Snapshot().HazardCount)

	for fixes := 0; ; fixes++ {
		select {
		case tr := <-ticks:
			if tr.Tick.Arrived {
				snap := sess.Snapshot()
				fmt.Printf("\n%d fixes, %d hazards announced\n", fixes+1, snap.AnnouncedHazards)
				return nil
			}
		case <-time.After(stallTimeout):
			return errors.New("simulation stalled before arrival: the walk ended outside the arrival radius")
		}
		if err := clock.BlockUntilContext(context.Background(), 1); err != nil {
			return err
		}
		clock.Advance(*interval)
	}
}
