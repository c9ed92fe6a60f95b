package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

const tracerName = "storefront/fulfillment"

// ShipmentNotifier is told about an order once its fulfillment has committed.
type ShipmentNotifier interface {
	OrderShipped(ctx context.Context, o domain.Order) error
}

// FulfillmentCoordinator ships orders: every line item is taken out of stock
// and the order is flagged shipped, or nothing changes at all.
type FulfillmentCoordinator struct {
	orders   repository.OrderRepository
	ledger   *InventoryLedger
	tx       repository.TxManager
	notifier ShipmentNotifier
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewFulfillmentCoordinator wires the coordinator. notifier may be nil.
func NewFulfillmentCoordinator(
	orders repository.OrderRepository,
	ledger *InventoryLedger,
	tx repository.TxManager,
	notifier ShipmentNotifier,
	logger *zap.Logger,
) *FulfillmentCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentCoordinator{
		orders:   orders,
		ledger:   ledger,
		tx:       tx,
		notifier: notifier,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// Fulfill decrements stock for each line item in ascending product id order
// and marks the order shipped in one transaction. It returns an error
// matching domain.ErrNotFound, domain.ErrAlreadyShipped or
// domain.ErrInsufficientStock for the domain outcomes. No retries.
func (c *FulfillmentCoordinator) Fulfill(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := c.tracer.Start(ctx, "fulfill_order")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	if orderID <= 0 {
		err := domain.Invalid("order_id", "must be positive")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var shipped *domain.Order
	err := c.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := c.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.IsShipped() {
			return fmt.Errorf("order %d: %w", o.ID, domain.ErrAlreadyShipped)
		}

		items := o.ItemsByProduct()
		span.SetAttributes(attribute.Int("order.line_items", len(items)))
		applied := make([]domain.LineItem, 0, len(items))
		for _, it := range items {
			if _, err := c.ledger.Decrement(ctx, it.ProductID, it.Quantity); err != nil {
				return c.undo(ctx, applied, err)
			}
			applied = append(applied, it)
		}

		if err := o.MarkShipped(); err != nil {
			return c.undo(ctx, applied, err)
		}
		// a racing fulfillment that shipped first makes this fail, and the
		// decrements above are put back
		if err := c.orders.MarkShipped(ctx, o.ID); err != nil {
			return c.undo(ctx, applied, err)
		}
		shipped = o
		return nil
	})
	if err != nil {
		c.recordFailure(span, orderID, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "order shipped")
	c.logger.Info("order shipped", zap.Int64("order_id", orderID), zap.Int("line_items", len(shipped.Items)))

	if c.notifier != nil {
		// the fulfillment is committed; a lost notification is only logged
		if err := c.notifier.OrderShipped(ctx, *shipped); err != nil {
			c.logger.Error("failed to publish order shipped", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
	return shipped, nil
}

// undo puts back already applied decrements, newest first, and returns cause
// joined with any error met while doing so.
func (c *FulfillmentCoordinator) undo(ctx context.Context, applied []domain.LineItem, cause error) error {
	errs := cause
	for i := len(applied) - 1; i >= 0; i-- {
		it := applied[i]
		if _, err := c.ledger.Increment(ctx, it.ProductID, it.Quantity); err != nil {
			errs = errors.Join(errs, fmt.Errorf("restore product %d: %w", it.ProductID, err))
		}
	}
	return errs
}

func (c *FulfillmentCoordinator) recordFailure(span trace.Span, orderID int64, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	fields := []zap.Field{zap.Int64("order_id", orderID), zap.Error(err)}
	if productID, ok := domain.InsufficientStockProduct(err); ok {
		span.SetAttributes(attribute.Int64("product.id", productID))
		fields = append(fields, zap.Int64("product_id", productID))
	}
	switch {
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrAlreadyShipped),
		errors.Is(err, domain.ErrNotFound):
		c.logger.Info("order not fulfilled", fields...)
	default:
		c.logger.Error("fulfillment failed", fields...)
	}
}
