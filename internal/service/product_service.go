package service

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// Listing defaults and bounds.
const (
	DefaultPage      = 1
	DefaultPageSize  = 3
	DefaultOrderBy   = "product_id"
	DefaultDirection = repository.SortAsc
	MaxPageSize      = 100
)

// ProductService wraps catalog rules around the product repository.
type ProductService struct {
	repo   repository.ProductRepository
	ledger *InventoryLedger
}

func NewProductService(repo repository.ProductRepository, ledger *InventoryLedger) *ProductService {
	return &ProductService{repo: repo, ledger: ledger}
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	cp := p
	cp.ID = 0
	if err := domain.ValidateProduct(&cp); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.Invalid("product_id", "must be positive")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID <= 0 {
		return nil, domain.Invalid("product_id", "must be positive")
	}
	cp := p
	// stock only moves through the ledger; the stored count is returned
	cp.Stock = 0
	if err := domain.ValidateProduct(&cp); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Delete refuses products still referenced by an order.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.Invalid("product_id", "must be positive")
	}
	return s.repo.Delete(ctx, id)
}

// List validates the page request and returns one page. Nothing is read when
// the request is invalid.
func (s *ProductService) List(ctx context.Context, q repository.ProductQuery) ([]domain.Product, error) {
	if err := ValidateProductQuery(q); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, q)
}

// ValidateProductQuery checks paging bounds and the sort whitelist.
func ValidateProductQuery(q repository.ProductQuery) error {
	if q.Page < 1 {
		return domain.Invalid("page", "must be at least 1")
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return domain.Invalid("page_size", "must be between 1 and 100")
	}
	if !repository.ProductSortColumns[q.OrderBy] {
		return domain.Invalid("order_by", "unknown column "+q.OrderBy)
	}
	if q.Direction != repository.SortAsc && q.Direction != repository.SortDesc {
		return domain.Invalid("direction", "must be asc or desc")
	}
	return nil
}

// Restock adds qty units and returns the updated product.
func (s *ProductService) Restock(ctx context.Context, id, qty int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.Invalid("product_id", "must be positive")
	}
	if _, err := s.ledger.Increment(ctx, id, qty); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
