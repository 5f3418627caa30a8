package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// EventPaymentConfirmed is published once per newly applied payment.
const EventPaymentConfirmed = "payment.confirmed"

// ConfirmedEvent is the payload of EventPaymentConfirmed.
type ConfirmedEvent struct {
	EventID   string                `json:"event_id"`
	Type      string                `json:"type"`
	Provider  enums.PaymentProvider `json:"provider"`
	Target    string                `json:"target"`
	OrderCode int64                 `json:"order_code"`
	OwnerID   uuid.UUID             `json:"owner_id"`
	Status    string                `json:"status"`
	PaidAt    time.Time             `json:"paid_at"`
}

// EventPublisher announces confirmed payments to downstream consumers.
type EventPublisher interface {
	PublishConfirmed(ctx context.Context, event ConfirmedEvent) error
}

type topicPublisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// PubSubPublisher writes confirmed events as JSON to a Pub/Sub topic.
type PubSubPublisher struct {
	client topicPublisher
	topic  string
}

func NewPubSubPublisher(client topicPublisher, topic string) (*PubSubPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	return &PubSubPublisher{client: client, topic: topic}, nil
}

func (p *PubSubPublisher) PublishConfirmed(ctx context.Context, event ConfirmedEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.Type = EventPaymentConfirmed
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}
	attrs := map[string]string{
		"event_type": EventPaymentConfirmed,
		"provider":   event.Provider.String(),
		"target":     event.Target,
		"order_code": strconv.FormatInt(event.OrderCode, 10),
	}
	if _, err := p.client.Publish(ctx, p.topic, data, attrs); err != nil {
		return fmt.Errorf("publish payment event: %w", err)
	}
	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishConfirmed(context.Context, ConfirmedEvent) error { return nil }
