package service

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// OrderService creates and edits orders. Shipping goes through FulfillmentCoordinator.
type OrderService struct {
	products  repository.ProductRepository
	customers repository.CustomerRepository
	employees repository.EmployeeRepository
	orders    repository.OrderRepository
	tx        repository.TxManager
}

func NewOrderService(
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	employees repository.EmployeeRepository,
	orders repository.OrderRepository,
	tx repository.TxManager,
) *OrderService {
	return &OrderService{products: products, customers: customers, employees: employees, orders: orders, tx: tx}
}

// CreateOrder stores an unshipped order after checking every reference exists.
// Stock is untouched until the order is fulfilled.
func (s *OrderService) CreateOrder(ctx context.Context, customerID int64, employeeID *int64, items []domain.LineItem) (*domain.Order, error) {
	o, err := domain.NewOrder(customerID, employeeID, items)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.customers.GetByID(ctx, customerID); err != nil {
			return err
		}
		if employeeID != nil {
			if _, err := s.employees.GetByID(ctx, *employeeID); err != nil {
				return err
			}
		}
		for _, it := range o.Items {
			if _, err := s.products.GetByID(ctx, it.ProductID); err != nil {
				return err
			}
		}
		return s.orders.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder returns the order with all of its line items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, domain.Invalid("order_id", "must be positive")
	}
	return s.orders.GetByID(ctx, id)
}

// AddItem appends a line item to an unshipped order.
func (s *OrderService) AddItem(ctx context.Context, orderID, productID, qty int64) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, domain.Invalid("order_id", "must be positive")
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.AddLineItem(productID, qty); err != nil {
			return err
		}
		if _, err := s.products.GetByID(ctx, productID); err != nil {
			return err
		}
		if err := s.orders.AddItem(ctx, domain.LineItem{OrderID: orderID, ProductID: productID, Quantity: qty}); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOrder removes the order together with its line items. Deleting a
// shipped order does not restock its products.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.Invalid("order_id", "must be positive")
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.orders.Delete(ctx, id)
	})
}

// ListByCustomer returns a customer's orders, newest first.
func (s *OrderService) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	if customerID <= 0 {
		return nil, domain.Invalid("customer_id", "must be positive")
	}
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.orders.ListByCustomer(ctx, customerID)
}
