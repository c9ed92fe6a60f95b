package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Publisher turns domain notifications into watermill messages.
type Publisher struct {
	pub message.Publisher
	now func() time.Time
}

func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub, now: time.Now}
}

// OrderShipped publishes to TopicOrderShipped.
func (p *Publisher) OrderShipped(ctx context.Context, o domain.Order) error {
	return p.publish(ctx, TopicOrderShipped, o.ID, OrderShipped{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Items:      o.Items,
		ShippedAt:  p.now().UTC(),
	})
}

// RequestFulfillment enqueues a FulfillOrder command.
func (p *Publisher) RequestFulfillment(ctx context.Context, orderID int64) error {
	return p.publish(ctx, TopicFulfillOrder, orderID, FulfillOrder{OrderID: orderID})
}

func (p *Publisher) publish(ctx context.Context, topic string, orderID int64, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("order_id", strconv.FormatInt(orderID, 10))
	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w: %w", topic, domain.ErrTransport, err)
	}
	return nil
}
