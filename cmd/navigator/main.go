package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hazard-navigator/internal/adapter/dataservice"
	"github.com/couchcryptid/hazard-navigator/internal/adapter/gps"
	httpadapter "github.com/couchcryptid/hazard-navigator/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hazard-navigator/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-navigator/internal/adapter/mapview"
	"github.com/couchcryptid/hazard-navigator/internal/adapter/replay"
	"github.com/couchcryptid/hazard-navigator/internal/config"
	"github.com/couchcryptid/hazard-navigator/internal/domain"
	"github.com/couchcryptid/hazard-navigator/internal/navigation"
	"github.com/couchcryptid/hazard-navigator/internal/observability"
)

// replayStep is the largest gap between simulated fixes, in metres. It keeps
// every guide point inside the advance radius on the way past.
const replayStep = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := dataservice.NewClient(cfg.DataServiceURL, cfg.DataServiceTimeout, logger, metrics)

	route, err := loadRoute(ctx, cfg, client, metrics)
	if err != nil {
		logger.Error("failed to load route", "error", err)
		os.Exit(1)
	}
	datasets, err := loadHazards(ctx, cfg, client, logger)
	if err != nil {
		logger.Error("failed to load hazards", "error", err)
		os.Exit(1)
	}

	var closers []io.Closer

	var source navigation.Source
	switch cfg.PositionSource {
	case config.SourceKafka:
		reader := kafkaadapter.NewFixReader(cfg, logger)
		closers = append(closers, reader)
		source = reader
	case config.SourceSerial:
		source = gps.NewReceiver(cfg.SerialPort, cfg.SerialBaud, gps.OpenSerial, clock, logger)
	default:
		source = replay.NewWalker(route.Path, cfg.ReplayInterval, clock, logger, replay.WithStep(replayStep))
	}
	logger.Info("position source configured", "source", cfg.PositionSource)

	var speaker navigation.Speaker
	switch cfg.VoiceSink {
	case config.SinkKafka:
		writer := kafkaadapter.NewSpeechWriter(cfg, logger)
		closers = append(closers, writer)
		speaker = writer
	default:
		speaker = navigation.NewLogSpeaker(logger)
	}

	surface := mapview.New()
	watch := domain.DefaultWatchOptions()
	watch.Timeout = cfg.PositionTimeout

	sess, err := navigation.New(source, speaker, surface, navigation.Options{
		HazardRadius: cfg.HazardWarningRadius,
		VoiceEnabled: cfg.VoiceEnabled,
		Watch:        watch,
		Clock:        clock,
	}, logger, metrics)
	if err != nil {
		logger.Error("failed to create session", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, sess, surface, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := sess.Start(&route, datasets); err != nil {
		logger.Error("failed to start session", "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	sess.Close()
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func loadRoute(ctx context.Context, cfg *config.Config, client *dataservice.Client, metrics *observability.Metrics) (domain.Route, error) {
	if cfg.UseRouteProxy() {
		router := dataservice.NewCachedRouter(client, cfg.RouteCacheSize, metrics)
		return router.FetchRoute(ctx, cfg.RouteStart, cfg.RouteGoal)
	}
	return dataservice.LoadRouteFile(cfg.RouteFile)
}

func loadHazards(ctx context.Context, cfg *config.Config, client *dataservice.Client, logger *slog.Logger) ([]domain.RawDataset, error) {
	if cfg.HazardDir != "" {
		return dataservice.LoadHazardDir(cfg.HazardDir, logger)
	}
	return client.FetchHazards(ctx), nil
}
