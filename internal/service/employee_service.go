package service

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// EmployeeService registers employees.
type EmployeeService struct {
	repo repository.EmployeeRepository
	now  func() time.Time
}

func NewEmployeeService(repo repository.EmployeeRepository) *EmployeeService {
	return &EmployeeService{repo: repo, now: time.Now}
}

// Create stores e. The manager, when set, must already exist; hire date defaults to today.
func (s *EmployeeService) Create(ctx context.Context, e domain.Employee) (*domain.Employee, error) {
	cp := e
	cp.ID = 0
	if err := domain.ValidateEmployee(&cp, s.now().UTC()); err != nil {
		return nil, err
	}
	if cp.ManagerID != nil {
		if _, err := s.repo.GetByID(ctx, *cp.ManagerID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *EmployeeService) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	if id <= 0 {
		return nil, domain.Invalid("employee_id", "must be positive")
	}
	return s.repo.GetByID(ctx, id)
}
