package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type orderRow struct {
	ID         int64         `db:"order_id"`
	CustomerID int64         `db:"customer_id"`
	EmployeeID sql.NullInt64 `db:"employee_id"`
	OrderedAt  time.Time     `db:"order_datetime"`
	Shipped    bool          `db:"is_shipped"`
}

type lineItemRow struct {
	OrderID   int64 `db:"order_id"`
	ProductID int64 `db:"product_id"`
	Quantity  int64 `db:"quantity"`
}

func (r orderRow) toDomain() domain.Order {
	o := domain.Order{ID: r.ID, CustomerID: r.CustomerID, OrderedAt: r.OrderedAt.UTC(), Shipped: r.Shipped}
	if r.EmployeeID.Valid {
		id := r.EmployeeID.Int64
		o.EmployeeID = &id
	}
	return o
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

const orderColumns = `order_id, customer_id, employee_id, order_datetime, is_shipped`

// Orders implements OrderRepository. Line items are always loaded with their order.
type Orders struct{ db *DB }

func NewOrders(db *DB) *Orders { return &Orders{db: db} }

var _ repository.OrderRepository = (*Orders)(nil)

func (s *Orders) Create(ctx context.Context, o *domain.Order) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		// microsecond precision survives both backends unchanged
		at := time.Now().UTC().Truncate(time.Microsecond)
		id, err := s.db.insert(ctx,
			`INSERT INTO "order" (customer_id, employee_id, order_datetime, is_shipped) VALUES (?, ?, ?, ?)`,
			"order_id", o.CustomerID, nullID(o.EmployeeID), at, o.Shipped)
		if err != nil {
			return err
		}
		o.ID = id
		o.OrderedAt = at
		for i := range o.Items {
			o.Items[i].OrderID = id
			if err := s.AddItem(ctx, o.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Orders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return s.load(ctx, id, "")
}

// GetForUpdate takes a row lock on the order so concurrent fulfillments and
// line item additions on the same order queue behind each other.
func (s *Orders) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return s.load(ctx, id, " FOR UPDATE")
}

func (s *Orders) load(ctx context.Context, id int64, lock string) (*domain.Order, error) {
	var row orderRow
	err := s.db.get(ctx, &row, `SELECT `+orderColumns+` FROM "order" WHERE order_id = ?`+lock, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("order", id)
	}
	if err != nil {
		return nil, err
	}
	o := row.toDomain()
	items, err := s.itemsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	o.Items = append([]domain.LineItem{}, items[id]...)
	return &o, nil
}

// itemsFor loads the line items of several orders in one query, in insertion order.
func (s *Orders) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]domain.LineItem, error) {
	out := make(map[int64][]domain.LineItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(
		`SELECT order_id, product_id, quantity FROM order_detail WHERE order_id IN (?) ORDER BY order_id, position`,
		orderIDs)
	if err != nil {
		return nil, err
	}
	var rows []lineItemRow
	if err := s.db.selectRows(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.OrderID] = append(out[r.OrderID], domain.LineItem{OrderID: r.OrderID, ProductID: r.ProductID, Quantity: r.Quantity})
	}
	return out, nil
}

// MarkShipped only matches unshipped rows, so of two racing writers exactly one succeeds.
func (s *Orders) MarkShipped(ctx context.Context, id int64) error {
	n, err := s.db.exec(ctx,
		`UPDATE "order" SET is_shipped = TRUE WHERE order_id = ? AND is_shipped = FALSE`, id)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var shipped bool
	err = s.db.get(ctx, &shipped, `SELECT is_shipped FROM "order" WHERE order_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("order", id)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("order %d: %w", id, domain.ErrAlreadyShipped)
}

func (s *Orders) AddItem(ctx context.Context, it domain.LineItem) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		var pos int64
		err := s.db.get(ctx, &pos,
			`SELECT COALESCE(MAX(position), 0) + 1 FROM order_detail WHERE order_id = ?`, it.OrderID)
		if err != nil {
			return err
		}
		_, err = s.db.exec(ctx,
			`INSERT INTO order_detail (order_id, product_id, quantity, position) VALUES (?, ?, ?, ?)`,
			it.OrderID, it.ProductID, it.Quantity, pos)
		return err
	})
}

// Delete removes the order's line items and then the order in one transaction.
func (s *Orders) Delete(ctx context.Context, id int64) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.db.exec(ctx, `DELETE FROM order_detail WHERE order_id = ?`, id); err != nil {
			return err
		}
		n, err := s.db.exec(ctx, `DELETE FROM "order" WHERE order_id = ?`, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFound("order", id)
		}
		return nil
	})
}

func (s *Orders) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	var rows []orderRow
	err := s.db.selectRows(ctx, &rows,
		`SELECT `+orderColumns+` FROM "order" WHERE customer_id = ? ORDER BY order_id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	items, err := s.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		o := r.toDomain()
		o.Items = append([]domain.LineItem{}, items[r.ID]...)
		out = append(out, o)
	}
	return out, nil
}
