package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/hazard-navigator/internal/config"
	"github.com/couchcryptid/hazard-navigator/internal/navigation"
)

// Speech actions carried in the "action" header.
const (
	actionSpeak  = "speak"
	actionCancel = "cancel"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// speechCommand is the wire format of one speech request.
type speechCommand struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Action    string    `json:"action"`
	Text      string    `json:"text"`
	Locale    string    `json:"locale"`
	Rate      float64   `json:"rate"`
	At        time.Time `json:"at"`
}

// SpeechWriter publishes utterances to the announcement topic for a
// downstream synthesizer. It implements navigation.Speaker.
type SpeechWriter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewSpeechWriter creates an asynchronous Kafka producer for the configured
// announcement topic. Delivery failures are logged, never returned.
func NewSpeechWriter(cfg *config.Config, logger *slog.Logger) *SpeechWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAnnounceTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Error("speech delivery failed", "messages", len(msgs), "error", err)
			}
		},
	}
	return &SpeechWriter{writer: w, logger: logger}
}

func (w *SpeechWriter) Speak(u navigation.Utterance) {
	w.publish(u, actionSpeak)
}

func (w *SpeechWriter) Cancel(u navigation.Utterance) {
	w.publish(u, actionCancel)
}

func (w *SpeechWriter) publish(u navigation.Utterance, action string) {
	msg, err := serializeToMessage(u, action)
	if err != nil {
		w.logger.Error("serialize utterance", "utterance_id", u.ID, "error", err)
		return
	}
	if err := w.writer.WriteMessages(context.Background(), msg); err != nil {
		w.logger.Error("publish utterance", "utterance_id", u.ID, "action", action, "error", err)
	}
}

func (w *SpeechWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an utterance into a Kafka message keyed by
// session, so one session's commands stay ordered on a single partition.
func serializeToMessage(u navigation.Utterance, action string) (kafkago.Message, error) {
	data, err := json.Marshal(speechCommand{
		ID:        u.ID,
		SessionID: u.SessionID,
		Action:    action,
		Text:      u.Text,
		Locale:    u.Locale,
		Rate:      u.Rate,
		At:        u.At,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize utterance: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(u.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "action", Value: []byte(action)},
			{Key: "locale", Value: []byte(u.Locale)},
		},
	}, nil
}
