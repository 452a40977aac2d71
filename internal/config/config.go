package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Position sources.
const (
	SourceReplay = "replay"
	SourceKafka  = "kafka"
	SourceSerial = "serial"
)

// Voice sinks.
const (
	SinkLog   = "log"
	SinkKafka = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	HazardWarningRadius float64
	PositionSource      string
	PositionTimeout     time.Duration
	VoiceEnabled        bool
	VoiceSink           string

	KafkaBrokers       []string
	KafkaFixTopic      string
	KafkaAnnounceTopic string
	KafkaGroupID       string

	SerialPort string
	SerialBaud int

	// Data service configuration.
	DataServiceURL     string
	DataServiceTimeout time.Duration
	RouteCacheSize     int
	RouteStart         string
	RouteGoal          string
	RouteFile          string
	HazardDir          string

	ReplayInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	radius, err := parsePositiveFloat("HAZARD_WARNING_RADIUS", "100")
	if err != nil {
		return nil, err
	}
	positionTimeout, err := parseNonNegativeDuration("POSITION_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	dataTimeout, err := parsePositiveDuration("DATA_SERVICE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	replayInterval, err := parsePositiveDuration("REPLAY_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}
	baud, err := parsePositiveInt("SERIAL_BAUD", "9600")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("ROUTE_CACHE_SIZE", "100")
	if err != nil {
		return nil, err
	}
	voiceEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("VOICE_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid VOICE_ENABLED")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		HazardWarningRadius: radius,
		PositionSource:      sharedcfg.EnvOrDefault("POSITION_SOURCE", SourceReplay),
		PositionTimeout:     positionTimeout,
		VoiceEnabled:        voiceEnabled,
		VoiceSink:           sharedcfg.EnvOrDefault("VOICE_SINK", SinkLog),

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaFixTopic:      sharedcfg.EnvOrDefault("KAFKA_FIX_TOPIC", "vehicle-positions"),
		KafkaAnnounceTopic: sharedcfg.EnvOrDefault("KAFKA_ANNOUNCE_TOPIC", "navigation-announcements"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "hazard-navigator"),

		SerialPort: sharedcfg.EnvOrDefault("SERIAL_PORT", "/dev/ttyUSB0"),
		SerialBaud: baud,

		DataServiceURL:     sharedcfg.EnvOrDefault("DATA_SERVICE_URL", "http://localhost:8000"),
		DataServiceTimeout: dataTimeout,
		RouteCacheSize:     cacheSize,
		RouteStart:         sharedcfg.EnvOrDefault("ROUTE_START", ""),
		RouteGoal:          sharedcfg.EnvOrDefault("ROUTE_GOAL", ""),
		RouteFile:          sharedcfg.EnvOrDefault("ROUTE_FILE", "data/mock/route.json"),
		HazardDir:          sharedcfg.EnvOrDefault("HAZARD_DIR", ""),

		ReplayInterval: replayInterval,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UseRouteProxy reports whether the route comes from the data service rather
// than a file.
func (c *Config) UseRouteProxy() bool {
	return c.RouteStart != "" && c.RouteGoal != ""
}

func (c *Config) validate() error {
	switch c.PositionSource {
	case SourceReplay, SourceKafka, SourceSerial:
	default:
		return fmt.Errorf("invalid POSITION_SOURCE %q", c.PositionSource)
	}
	switch c.VoiceSink {
	case SinkLog, SinkKafka:
	default:
		return fmt.Errorf("invalid VOICE_SINK %q", c.VoiceSink)
	}

	usesKafka := c.PositionSource == SourceKafka || c.VoiceSink == SinkKafka
	if usesKafka && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.PositionSource == SourceKafka && c.KafkaFixTopic == "" {
		return errors.New("KAFKA_FIX_TOPIC is required")
	}
	if c.VoiceSink == SinkKafka && c.KafkaAnnounceTopic == "" {
		return errors.New("KAFKA_ANNOUNCE_TOPIC is required")
	}
	if c.PositionSource == SourceSerial && c.SerialPort == "" {
		return errors.New("SERIAL_PORT is required")
	}

	if (c.RouteStart == "") != (c.RouteGoal == "") {
		return errors.New("ROUTE_START and ROUTE_GOAL must be set together")
	}
	if !c.UseRouteProxy() && c.RouteFile == "" {
		return errors.New("either ROUTE_FILE or ROUTE_START and ROUTE_GOAL is required")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseNonNegativeDuration accepts zero, which callers treat as "disabled".
func parseNonNegativeDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveFloat(key, def string) (float64, error) {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}
