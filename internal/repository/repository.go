package repository

import (
	"context"

	"storefront/internal/domain"
)

// Sort directions accepted by ProductQuery.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ProductSortColumns lists the columns a product listing may be ordered by.
var ProductSortColumns = map[string]bool{
	"product_id":     true,
	"product_name":   true,
	"unit_price":     true,
	"units_in_stock": true,
	"type":           true,
}

// ProductQuery is a validated page request. Page starts at 1.
type ProductQuery struct {
	Page      int
	PageSize  int
	OrderBy   string
	Direction string
}

// Offset is the number of rows skipped before the page.
func (q ProductQuery) Offset() int { return (q.Page - 1) * q.PageSize }

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// Update writes name, price and category. Stock is owned by StockStore, so
	// the stored count is kept and copied back into p.
	Update(ctx context.Context, p *domain.Product) error
	// Delete fails with domain.ErrConflict while any line item references the product.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q ProductQuery) ([]domain.Product, error)
}

// StockStore applies guarded stock changes.
type StockStore interface {
	// AdjustStock adds delta to the product's stock and returns the new count.
	// A result below zero is refused with *domain.InsufficientStockError and nothing is written.
	AdjustStock(ctx context.Context, productID, delta int64) (int64, error)
}

// CustomerRepository persists customers. Emails are unique.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

// EmployeeRepository persists employees.
type EmployeeRepository interface {
	Create(ctx context.Context, e *domain.Employee) error
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
}

// OrderRepository persists orders together with their line items.
type OrderRepository interface {
	// Create stores the order and its items and sets ID and OrderedAt.
	Create(ctx context.Context, o *domain.Order) error
	// GetByID loads the order with all of its line items.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetForUpdate is GetByID that also locks the order row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	// MarkShipped flips the shipped flag from false to true. An order that is
	// already shipped fails with domain.ErrAlreadyShipped and is left untouched.
	MarkShipped(ctx context.Context, id int64) error
	AddItem(ctx context.Context, it domain.LineItem) error
	// Delete removes the order and its line items.
	Delete(ctx context.Context, id int64) error
	// ListByCustomer returns the customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
}

// TxManager runs fn inside one unit of work. Any error from fn, or a
// cancelled ctx, discards every write made through ctx.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
