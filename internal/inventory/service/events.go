package service

import (
	"context"
	"roomstay/pkg/kafka"
	"roomstay/pkg/logger"
	"roomstay/pkg/model"
	"time"
)

// Hold lifecycle event types published to the hold events topic.
const (
	EventHoldCreated   = "hold.created"
	EventHoldConfirmed = "hold.confirmed"
	EventHoldReleased  = "hold.released"
	EventHoldExpired   = "hold.expired"
)

const eventSource = "roomstay-inventory"

// HoldEvent is the payload published for every hold state change.
type HoldEvent struct {
	HoldID     string    `json:"hold_id"`
	PropertyID string    `json:"property_id"`
	RoomTypeID string    `json:"room_type_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Quantity   int       `json:"quantity"`
	Status     string    `json:"status"`
	BookingID  string    `json:"booking_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type eventProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// EventPublisher publishes hold lifecycle events best-effort. A publish
// failure is logged and swallowed; hold state in Mongo is the source of
// truth and must never roll back because Kafka is down.
type EventPublisher struct {
	producer eventProducer
	log      *logger.Logger
}

func NewEventPublisher(producer eventProducer, log *logger.Logger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *EventPublisher) PublishHoldEvent(ctx context.Context, eventType string, hold *model.Hold) {
	if p == nil || p.producer == nil {
		return
	}

	event := HoldEvent{
		HoldID:     hold.ID,
		PropertyID: hold.PropertyID,
		RoomTypeID: hold.RoomTypeID,
		CheckIn:    hold.CheckIn,
		CheckOut:   hold.CheckOut,
		Quantity:   hold.Quantity,
		Status:     hold.Status,
		BookingID:  hold.BookingID,
		ExpiresAt:  hold.ExpiresAt,
	}

	msg := kafka.NewMessage().
		WithKey(hold.ID).
		WithValue(event).
		WithEventType(eventType).
		WithSource(eventSource).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish hold event",
			"event_type", eventType,
			"hold_id", hold.ID,
			"error", err,
		)
	}
}
