package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/form-assist-service/internal/config"
	"github.com/couchcryptid/form-assist-service/internal/domain"
)

// formName identifies the form in message headers.
const formName = "cadastro"

// Submission is the message published for each saved form.
type Submission struct {
	SessionID   string            `json:"session_id"`
	Form        domain.FormRecord `json:"form"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// publishBatchTimeout bounds how long a lone submission waits for a batch.
// Each submit publishes one message synchronously on the request path.
const publishBatchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces submission messages to a Kafka topic.
// It implements assistant.SubmissionPublisher.
type Writer struct {
	writer messageWriter
	topic  string
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured submission topic.
// A nil clock uses the real clock.
func NewWriter(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Writer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSubmissionTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    1,
		BatchTimeout: publishBatchTimeout,
	}
	return &Writer{writer: w, topic: cfg.KafkaSubmissionTopic, clock: clock, logger: logger}
}

// PublishSubmission publishes r keyed by session ID, so one session's
// submissions stay ordered on a partition.
func (w *Writer) PublishSubmission(ctx context.Context, sessionID string, r domain.FormRecord) error {
	msg, err := serializeToMessage(Submission{
		SessionID:   sessionID,
		Form:        r,
		SubmittedAt: w.clock.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write submission: %w", err)
	}
	w.logger.Debug("submission published", "session_id", sessionID, "topic", w.topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Submission into a Kafka message.
func serializeToMessage(s Submission) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize submission: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "form", Value: []byte(formName)},
			{Key: "submitted_at", Value: []byte(s.SubmittedAt.Format(time.RFC3339))},
		},
	}, nil
}
