package events

import (
	"context"
	"reserva/pkg/config"
	"reserva/pkg/kafka"
	kafka_config "reserva/pkg/kafka/config"
	"reserva/pkg/logger"
	"reserva/pkg/model"
	"time"
)

// Slot lifecycle event types.
const (
	TypeSlotLocked    = "slot.locked"
	TypeSlotBooked    = "slot.booked"
	TypeSlotReleased  = "slot.released"
	TypeSlotReclaimed = "slot.reclaimed"
	TypeSlotCancelled = "slot.cancelled"
	TypeSlotBlocked   = "slot.blocked"
	TypeSlotUnblocked = "slot.unblocked"
)

const schemaVersion = "1"

// SlotEvent is the JSON payload published for every slot state transition.
// LockToken is deliberately omitted: it proves ownership and must not leak
// onto the event stream.
type SlotEvent struct {
	ResourceID string    `json:"resource_id"`
	Date       string    `json:"date"`
	Status     string    `json:"status"`
	BookingRef string    `json:"booking_ref,omitempty"`
	Version    int64     `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits slot lifecycle events. Publishing is best-effort: the
// reservation outcome is already durable by the time an event is emitted, so
// failures are logged and swallowed.
type Publisher interface {
	Publish(ctx context.Context, eventType string, record *model.SlotRecord)
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

// NewPublisher builds a Kafka-backed publisher, or a no-op one when no
// events topic is configured.
func NewPublisher(cfg *config.Config, serviceName string) (Publisher, error) {
	if cfg.SlotEventsTopic == "" {
		cfg.Log.Info("Slot events disabled, no topic configured")
		return NopPublisher{}, nil
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.SlotEventsTopic, cfg.SlotEventsDLQTopic)
	if err != nil {
		return nil, err
	}

	cfg.Log.Info("Slot event publisher initialized", "topic", cfg.SlotEventsTopic)
	return &kafkaPublisher{
		producer: producer,
		source:   serviceName,
		log:      cfg.Log,
	}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, record *model.SlotRecord) {
	event := SlotEvent{
		ResourceID: record.ResourceID,
		Date:       record.Date,
		Status:     record.Status,
		BookingRef: record.BookingRef,
		Version:    record.Version,
		OccurredAt: time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(model.SlotID(record.ResourceID, record.Date)).
		WithValue(event).
		WithEventType(eventType).
		WithSource(p.source).
		WithSchemaVersion(schemaVersion).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish slot event",
			"event_type", eventType,
			"resource_id", record.ResourceID,
			"date", record.Date,
			"error", err,
		)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops all events. Used when no topic is configured and in
// tests that do not assert on the event stream.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *model.SlotRecord) {}

func (NopPublisher) Close() error { return nil }
