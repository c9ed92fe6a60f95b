// Package events carries fulfillment messages over watermill, backed by Kafka
// or an in-process channel.
package events

import (
	"time"

	"storefront/internal/domain"
)

const (
	// TopicOrderShipped receives an OrderShipped after each committed fulfillment.
	TopicOrderShipped = "orders.shipped"
	// TopicFulfillOrder carries FulfillOrder commands.
	TopicFulfillOrder = "orders.fulfill"
)

// OrderShipped is published once the order and its stock decrements are committed.
type OrderShipped struct {
	OrderID    int64             `json:"order_id"`
	CustomerID int64             `json:"customer_id"`
	Items      []domain.LineItem `json:"order_details"`
	ShippedAt  time.Time         `json:"shipped_at"`
}

// FulfillOrder asks the consumer to ship an order.
type FulfillOrder struct {
	OrderID int64 `json:"order_id"`
}
