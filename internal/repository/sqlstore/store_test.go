package sqlstore

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// These tests run against a scratch database named by STOREFRONT_TEST_DSN
// (driver from STOREFRONT_TEST_DRIVER, postgres by default). Every table is
// dropped and recreated, so never point them at real data.
func setupDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("STOREFRONT_TEST_DSN")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DSN not set")
	}
	driver := os.Getenv("STOREFRONT_TEST_DRIVER")
	if driver == "" {
		driver = Postgres
	}
	db, err := Open(context.Background(), driver, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = Migrate(db, migrate.Down, 0)
	require.NoError(t, err)
	_, err = Migrate(db, migrate.Up, 0)
	require.NoError(t, err)
	return db
}

func createProduct(t *testing.T, products *Products, name, price string, stock int64) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, UnitPrice: decimal.RequireFromString(price), Stock: stock, Category: domain.CategoryOther}
	require.NoError(t, products.Create(context.Background(), &p))
	return p
}

func createCustomer(t *testing.T, db *DB, email string) domain.Customer {
	t.Helper()
	c := domain.Customer{FirstName: "Alex", LastName: "Smith", Address: "Main St", Email: email}
	require.NoError(t, NewCustomers(db).Create(context.Background(), &c))
	return c
}

func TestProducts_RoundTripAndStockGuard(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	products := NewProducts(db)

	p := createProduct(t, products, "Wireless Mouse", "19.99", 2)
	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wireless Mouse", got.Name)
	assert.True(t, got.UnitPrice.Equal(p.UnitPrice))
	assert.Equal(t, int64(2), got.Stock)

	n, err := products.AdjustStock(ctx, p.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = products.AdjustStock(ctx, p.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = products.AdjustStock(ctx, p.ID+1000, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p.UnitPrice = decimal.RequireFromString("24.50")
	p.Stock = 9
	require.NoError(t, products.Update(ctx, &p))
	assert.Equal(t, int64(0), p.Stock)
	got, err = products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)
	assert.True(t, got.UnitPrice.Equal(p.UnitPrice))

	missing := domain.Product{ID: p.ID + 1000, Name: "X", UnitPrice: decimal.NewFromInt(1), Category: domain.CategoryOther}
	assert.ErrorIs(t, products.Update(ctx, &missing), domain.ErrNotFound)
}

func TestProducts_ListPage(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	products := NewProducts(db)
	for _, price := range []string{"5.00", "50.00", "20.00", "10.00", "40.00"} {
		createProduct(t, products, "P"+price, price, 1)
	}

	page, err := products.List(ctx, repository.ProductQuery{Page: 2, PageSize: 2, OrderBy: "unit_price", Direction: repository.SortDesc})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].UnitPrice.Equal(decimal.NewFromInt(20)))
	assert.True(t, page[1].UnitPrice.Equal(decimal.NewFromInt(10)))
}

func TestProducts_ListByTypeIsAlphabetical(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	products := NewProducts(db)
	for _, c := range []domain.ProductCategory{domain.CategoryPhone, domain.CategoryOther, domain.CategoryAccessory} {
		p := domain.Product{Name: "P", UnitPrice: decimal.NewFromInt(1), Category: c}
		require.NoError(t, products.Create(ctx, &p))
	}

	page, err := products.List(ctx, repository.ProductQuery{Page: 1, PageSize: 3, OrderBy: "type", Direction: repository.SortAsc})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, []domain.ProductCategory{domain.CategoryAccessory, domain.CategoryOther, domain.CategoryPhone},
		[]domain.ProductCategory{page[0].Category, page[1].Category, page[2].Category})
}

func TestTransaction_Rollback(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	products := NewProducts(db)
	p := createProduct(t, products, "Cable", "3.00", 5)

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := products.AdjustStock(ctx, p.ID, -3); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Stock)
}

func TestOrders_CascadeAndReferences(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	products := NewProducts(db)
	orders := NewOrders(db)

	c := createCustomer(t, db, "alex@test.com")
	p1 := createProduct(t, products, "A", "1.00", 5)
	p2 := createProduct(t, products, "B", "2.00", 5)

	o := domain.Order{CustomerID: c.ID, Items: []domain.LineItem{{ProductID: p2.ID, Quantity: 1}, {ProductID: p1.ID, Quantity: 2}}}
	require.NoError(t, orders.Create(ctx, &o))

	got, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, p2.ID, got.Items[0].ProductID)
	assert.False(t, got.Shipped)

	err = orders.AddItem(ctx, domain.LineItem{OrderID: o.ID, ProductID: p1.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.ErrorIs(t, products.Delete(ctx, p1.ID), domain.ErrConflict)

	require.NoError(t, orders.Delete(ctx, o.ID))
	_, err = orders.GetByID(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, products.Delete(ctx, p1.ID))
}

func TestCustomers_DuplicateEmail(t *testing.T) {
	db := setupDB(t)
	createCustomer(t, db, "dup@test.com")

	c := domain.Customer{FirstName: "B", LastName: "C", Address: "x", Email: "dup@test.com"}
	err := NewCustomers(db).Create(context.Background(), &c)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestFulfill_ConcurrentDuplicateShipsOnce(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	products := NewProducts(db)
	orders := NewOrders(db)
	c := createCustomer(t, db, "race@test.com")
	p := createProduct(t, products, "Phone", "300.00", 10)
	o := domain.Order{CustomerID: c.ID, Items: []domain.LineItem{{ProductID: p.ID, Quantity: 3}}}
	require.NoError(t, orders.Create(ctx, &o))

	coordinator := service.NewFulfillmentCoordinator(orders, service.NewInventoryLedger(products), db, nil, zap.NewNop())

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = coordinator.Fulfill(ctx, o.ID)
		}(i)
	}
	wg.Wait()

	shipped := 0
	for _, err := range errs {
		if err == nil {
			shipped++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyShipped)
	}
	assert.Equal(t, 1, shipped)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Stock)
}

func TestOrders_MarkShipped(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	orders := NewOrders(db)
	c := createCustomer(t, db, "ship@test.com")
	o := domain.Order{CustomerID: c.ID}
	require.NoError(t, orders.Create(ctx, &o))

	require.NoError(t, orders.MarkShipped(ctx, o.ID))
	assert.ErrorIs(t, orders.MarkShipped(ctx, o.ID), domain.ErrAlreadyShipped)
	assert.ErrorIs(t, orders.MarkShipped(ctx, o.ID+100), domain.ErrNotFound)

	got, err := orders.GetForUpdate(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Shipped)
}
