package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

// Fulfiller ships an order.
type Fulfiller interface {
	Fulfill(ctx context.Context, orderID int64) (*domain.Order, error)
}

// FulfillHandler consumes FulfillOrder commands. Domain outcomes are acked,
// anything else is returned so the message is redelivered.
type FulfillHandler struct {
	fulfiller Fulfiller
	timeout   time.Duration
	logger    *zap.Logger
}

func NewFulfillHandler(f Fulfiller, timeout time.Duration, logger *zap.Logger) *FulfillHandler {
	return &FulfillHandler{fulfiller: f, timeout: timeout, logger: logger}
}

func (h *FulfillHandler) Handle(msg *message.Message) error {
	var cmd FulfillOrder
	if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
		// redelivery cannot fix a malformed payload
		h.logger.Error("dropping malformed fulfill command", zap.String("message_uuid", msg.UUID), zap.Error(err))
		return nil
	}

	ctx := msg.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	_, err := h.fulfiller.Fulfill(ctx, cmd.OrderID)
	switch {
	case err == nil:
		return nil
	case isDomainOutcome(err):
		h.logger.Info("fulfill command settled without shipping",
			zap.Int64("order_id", cmd.OrderID), zap.String("message_uuid", msg.UUID), zap.Error(err))
		return nil
	default:
		return err
	}
}

func isDomainOutcome(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrAlreadyShipped) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrValidation)
}

// NewRouter routes TopicFulfillOrder to h with retries and panic recovery.
func NewRouter(sub message.Subscriber, h *FulfillHandler, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Multiplier:      2,
			Logger:          logger,
		}.Middleware,
	)
	router.AddNoPublisherHandler("fulfill_order", TopicFulfillOrder, sub, h.Handle)
	return router, nil
}
