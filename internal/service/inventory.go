package service

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// InventoryLedger applies checked stock movements. Stock never drops below zero.
type InventoryLedger struct {
	stock repository.StockStore
}

func NewInventoryLedger(stock repository.StockStore) *InventoryLedger {
	return &InventoryLedger{stock: stock}
}

// Decrement removes qty units. A decrement that would go negative fails with
// *domain.InsufficientStockError and leaves the count unchanged.
func (l *InventoryLedger) Decrement(ctx context.Context, productID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, domain.Invalid("quantity", "must be positive")
	}
	return l.stock.AdjustStock(ctx, productID, -qty)
}

// Increment adds qty units back, for restocking and compensation.
func (l *InventoryLedger) Increment(ctx context.Context, productID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, domain.Invalid("quantity", "must be positive")
	}
	return l.stock.AdjustStock(ctx, productID, qty)
}
