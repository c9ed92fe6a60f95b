package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type fixture struct {
	store     *repository.MemoryStore
	products  *ProductService
	customers *CustomerService
	employees *EmployeeService
	orders    *OrderService
	ledger    *InventoryLedger
	fulfiller *FulfillmentCoordinator
	notifier  *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	customers := repository.NewMemoryCustomers(store)
	employees := repository.NewMemoryEmployees(store)
	orders := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)
	ledger := NewInventoryLedger(store)
	notifier := &recordingNotifier{}
	return &fixture{
		store:     store,
		products:  NewProductService(store, ledger),
		customers: NewCustomerService(customers),
		employees: NewEmployeeService(employees),
		orders:    NewOrderService(store, customers, employees, orders, tx),
		ledger:    ledger,
		fulfiller: NewFulfillmentCoordinator(orders, ledger, tx, notifier, zaptest.NewLogger(t)),
		notifier:  notifier,
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int64) *domain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), domain.Product{
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
		Stock:     stock,
		Category:  domain.CategoryAccessory,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (f *fixture) customer(t *testing.T, email string) *domain.Customer {
	t.Helper()
	c, err := f.customers.Create(context.Background(), domain.Customer{FirstName: "Alex", LastName: "Smith", Email: email})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func (f *fixture) order(t *testing.T, customerID int64, items ...domain.LineItem) *domain.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), customerID, nil, items)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func (f *fixture) stock(t *testing.T, productID int64) int64 {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return p.Stock
}

func item(productID, qty int64) domain.LineItem {
	return domain.LineItem{ProductID: productID, Quantity: qty}
}

type recordingNotifier struct {
	mu      sync.Mutex
	shipped []domain.Order
	err     error
}

func (n *recordingNotifier) OrderShipped(_ context.Context, o domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shipped = append(n.shipped, o)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.shipped)
}
