package service

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CustomerService registers customers.
type CustomerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

// Create validates c and stores it. A registered email fails with domain.ErrConflict.
func (s *CustomerService) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	cp := c
	cp.ID = 0
	if err := domain.ValidateCustomer(&cp); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	if id <= 0 {
		return nil, domain.Invalid("customer_id", "must be positive")
	}
	return s.repo.GetByID(ctx, id)
}
