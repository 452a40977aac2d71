package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/hazard-navigator/internal/config"
	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// messageReader is the subset of *kafkago.Reader used by FixReader.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// fixMessage is the wire format of a position report. A non-empty Code
// reports a device-side failure instead of a position.
type fixMessage struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Code      string    `json:"code,omitempty"`
}

// FixReader consumes position reports from a Kafka topic.
// It implements navigation.Source.
type FixReader struct {
	reader messageReader
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewFixReader creates a Kafka consumer for the configured fix topic.
func NewFixReader(cfg *config.Config, logger *slog.Logger) *FixReader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaFixTopic,
		GroupID:     cfg.KafkaGroupID,
		StartOffset: kafkago.LastOffset,
	})
	return &FixReader{reader: r, clock: clockwork.NewRealClock(), logger: logger}
}

// Watch delivers every decoded report until ctx is cancelled. Undecodable
// messages are logged and skipped. When opts.MaximumAge is set, reports
// older than that are dropped.
func (r *FixReader) Watch(ctx context.Context, opts domain.WatchOptions, onFix func(domain.Fix), onError func(error)) error {
	backoff := initialBackoff
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("fix fetch failed, retrying", "error", err, "backoff", backoff)
			if !retry.SleepWithContext(ctx, backoff) {
				return ctx.Err()
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		r.handle(msg, opts, onFix, onError)

		if err := r.reader.CommitMessages(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("fix commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

func (r *FixReader) handle(msg kafkago.Message, opts domain.WatchOptions, onFix func(domain.Fix), onError func(error)) {
	fix, code, err := decodeFix(msg)
	if err != nil {
		r.logger.Warn("skipping undecodable fix", "offset", msg.Offset, "error", err)
		return
	}
	if code != "" {
		onError(code.Err())
		return
	}
	if opts.MaximumAge > 0 && !fix.Timestamp.IsZero() && r.clock.Since(fix.Timestamp) > opts.MaximumAge {
		r.logger.Debug("dropping stale fix", "offset", msg.Offset, "timestamp", fix.Timestamp)
		return
	}
	onFix(fix)
}

// Close releases the underlying consumer.
func (r *FixReader) Close() error {
	return r.reader.Close()
}

// decodeFix parses one position report. Reports without their own timestamp
// use the Kafka message time.
func decodeFix(msg kafkago.Message) (domain.Fix, domain.PositionErrorCode, error) {
	var m fixMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		return domain.Fix{}, "", fmt.Errorf("decode fix: %w", err)
	}
	if m.Code != "" {
		code, ok := domain.ParsePositionErrorCode(m.Code)
		if !ok {
			return domain.Fix{}, "", fmt.Errorf("unknown position error code %q", m.Code)
		}
		return domain.Fix{}, code, nil
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = msg.Time
	}
	return domain.Fix{
		Position:  domain.Coordinate{Lat: m.Lat, Lng: m.Lng},
		Accuracy:  m.Accuracy,
		Timestamp: ts,
	}, "", nil
}
