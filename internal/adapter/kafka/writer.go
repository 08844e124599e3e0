package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

// AuditWriter mirrors audit records to a Kafka topic.
// It implements pipeline.AuditLog.
type AuditWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAuditWriter creates a Kafka producer for the audit topic.
func NewAuditWriter(brokers []string, topic string, logger *slog.Logger) *AuditWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &AuditWriter{writer: w, logger: logger}
}

// AppendAudit publishes one record keyed by its run ID.
func (w *AuditWriter) AppendAudit(ctx context.Context, rec domain.AuditRecord) error {
	msg, err := serializeAudit(rec)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish audit record: %w", err)
	}
	w.logger.Debug("audit record published", "run_id", rec.RunID, "topic", w.writer.Topic)
	return nil
}

func (w *AuditWriter) Close() error {
	return w.writer.Close()
}

// serializeAudit marshals an AuditRecord into a Kafka message.
func serializeAudit(rec domain.AuditRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize audit record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "outcome", Value: []byte(rec.DeliveryOutcome)},
			{Key: "recorded_at", Value: []byte(rec.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}

// DecodeAudit parses a message produced by AuditWriter.
func DecodeAudit(msg kafkago.Message) (domain.AuditRecord, error) {
	var rec domain.AuditRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("decode audit record at offset %d: %w", msg.Offset, err)
	}
	return rec, nil
}
