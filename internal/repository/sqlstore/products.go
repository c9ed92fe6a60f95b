package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type productRow struct {
	ID        int64           `db:"product_id"`
	Name      string          `db:"product_name"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Stock     int64           `db:"units_in_stock"`
	Category  string          `db:"type"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:        r.ID,
		Name:      r.Name,
		UnitPrice: r.UnitPrice,
		Stock:     r.Stock,
		Category:  domain.ProductCategory(r.Category),
	}
}

const productColumns = `product_id, product_name, unit_price, units_in_stock, type`

// Products implements ProductRepository and StockStore.
type Products struct{ db *DB }

func NewProducts(db *DB) *Products { return &Products{db: db} }

var (
	_ repository.ProductRepository = (*Products)(nil)
	_ repository.StockStore        = (*Products)(nil)
)

func (s *Products) Create(ctx context.Context, p *domain.Product) error {
	id, err := s.db.insert(ctx,
		`INSERT INTO product (product_name, unit_price, units_in_stock, type) VALUES (?, ?, ?, ?)`,
		"product_id", p.Name, p.UnitPrice, p.Stock, string(p.Category))
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *Products) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var row productRow
	err := s.db.get(ctx, &row, `SELECT `+productColumns+` FROM product WHERE product_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("product", id)
	}
	if err != nil {
		return nil, err
	}
	p := row.toDomain()
	return &p, nil
}

func (s *Products) Update(ctx context.Context, p *domain.Product) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.db.exec(ctx,
			`UPDATE product SET product_name = ?, unit_price = ?, type = ? WHERE product_id = ?`,
			p.Name, p.UnitPrice, string(p.Category), p.ID); err != nil {
			return err
		}
		// also the existence check: MySQL reports zero affected rows for an unchanged row
		err := s.db.get(ctx, &p.Stock, `SELECT units_in_stock FROM product WHERE product_id = ?`, p.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("product", p.ID)
		}
		return err
	})
}

func (s *Products) Delete(ctx context.Context, id int64) error {
	n, err := s.db.exec(ctx, `DELETE FROM product WHERE product_id = ?`, id)
	if err != nil {
		// order_detail references surface as FK violations
		if errors.Is(err, domain.ErrConflict) {
			return domain.Conflict(fmt.Sprintf("product %d is referenced by an order", id))
		}
		return err
	}
	if n == 0 {
		return domain.NotFound("product", id)
	}
	return nil
}

func (s *Products) List(ctx context.Context, q repository.ProductQuery) ([]domain.Product, error) {
	if !repository.ProductSortColumns[q.OrderBy] {
		return nil, domain.Invalid("order_by", "unknown column")
	}
	dir := "ASC"
	if q.Direction == repository.SortDesc {
		dir = "DESC"
	}
	// column and direction come from fixed whitelists
	query := fmt.Sprintf(`SELECT %s FROM product ORDER BY %s %s, product_id ASC LIMIT ? OFFSET ?`,
		productColumns, s.db.sortKey(q.OrderBy), dir)
	var rows []productRow
	if err := s.db.selectRows(ctx, &rows, query, q.PageSize, q.Offset()); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// AdjustStock applies delta with a guarded UPDATE so the stock never drops below zero.
func (s *Products) AdjustStock(ctx context.Context, productID, delta int64) (int64, error) {
	var stock int64
	err := s.db.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.db.exec(ctx,
			`UPDATE product SET units_in_stock = units_in_stock + ? WHERE product_id = ? AND units_in_stock + ? >= 0`,
			delta, productID, delta)
		if err != nil {
			return err
		}
		err = s.db.get(ctx, &stock, `SELECT units_in_stock FROM product WHERE product_id = ?`, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("product", productID)
		}
		if err != nil {
			return err
		}
		if n == 0 && stock+delta < 0 {
			return &domain.InsufficientStockError{ProductID: productID, Requested: -delta, Available: stock}
		}
		return nil
	})
	return stock, err
}
