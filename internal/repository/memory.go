package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
)

// MemoryStore is an in-memory backend for every repository with simple id sequences.
type MemoryStore struct {
	mu    sync.RWMutex
	state memoryState
}

type memoryState struct {
	nextProductID  int64
	nextCustomerID int64
	nextEmployeeID int64
	nextOrderID    int64
	products       map[int64]domain.Product
	customers      map[int64]domain.Customer
	employees      map[int64]domain.Employee
	orders         map[int64]domain.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memoryState{
		nextProductID:  1,
		nextCustomerID: 1,
		nextEmployeeID: 1,
		nextOrderID:    1,
		products:       make(map[int64]domain.Product),
		customers:      make(map[int64]domain.Customer),
		employees:      make(map[int64]domain.Employee),
		orders:         make(map[int64]domain.Order),
	}}
}

// clone deep-copies the state so a transaction can be undone.
func (s memoryState) clone() memoryState {
	cp := s
	cp.products = make(map[int64]domain.Product, len(s.products))
	for k, v := range s.products {
		cp.products[k] = v
	}
	cp.customers = make(map[int64]domain.Customer, len(s.customers))
	for k, v := range s.customers {
		cp.customers[k] = v
	}
	cp.employees = make(map[int64]domain.Employee, len(s.employees))
	for k, v := range s.employees {
		cp.employees[k] = v
	}
	cp.orders = make(map[int64]domain.Order, len(s.orders))
	for k, v := range s.orders {
		cp.orders[k] = copyOrder(v)
	}
	return cp
}

func copyOrder(o domain.Order) domain.Order {
	items := make([]domain.LineItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

var (
	_ ProductRepository = (*MemoryStore)(nil)
	_ StockStore        = (*MemoryStore)(nil)
	_ Pinger            = (*MemoryStore)(nil)
)

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p.ID = m.state.nextProductID
	m.state.nextProductID++
	m.state.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.state.products[id]
	if !ok {
		return nil, domain.NotFound("product", id)
	}
	return &p, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	stored, ok := m.state.products[p.ID]
	if !ok {
		return domain.NotFound("product", p.ID)
	}
	p.Stock = stored.Stock
	m.state.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.state.products[id]; !ok {
		return domain.NotFound("product", id)
	}
	for _, o := range m.state.orders {
		for _, it := range o.Items {
			if it.ProductID == id {
				return domain.Conflict(fmt.Sprintf("product %d is referenced by order %d", id, o.ID))
			}
		}
	}
	delete(m.state.products, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	all := make([]domain.Product, 0, len(m.state.products))
	for _, p := range m.state.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		c := compareProducts(all[i], all[j], q.OrderBy)
		if c == 0 {
			return all[i].ID < all[j].ID
		}
		if q.Direction == SortDesc {
			return c > 0
		}
		return c < 0
	})
	start := q.Offset()
	if start >= len(all) {
		return []domain.Product{}, nil
	}
	end := start + q.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func compareProducts(a, b domain.Product, column string) int {
	switch column {
	case "product_name":
		return strings.Compare(a.Name, b.Name)
	case "unit_price":
		return a.UnitPrice.Cmp(b.UnitPrice)
	case "units_in_stock":
		return cmpInt(a.Stock, b.Stock)
	case "type":
		return strings.Compare(string(a.Category), string(b.Category))
	default:
		return cmpInt(a.ID, b.ID)
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (m *MemoryStore) AdjustStock(ctx context.Context, productID, delta int64) (int64, error) {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p, ok := m.state.products[productID]
	if !ok {
		return 0, domain.NotFound("product", productID)
	}
	if p.Stock+delta < 0 {
		return p.Stock, &domain.InsufficientStockError{ProductID: productID, Requested: -delta, Available: p.Stock}
	}
	p.Stock += delta
	m.state.products[productID] = p
	return p.Stock, nil
}

// MemoryCustomers implements CustomerRepository on top of MemoryStore.
type MemoryCustomers struct{ store *MemoryStore }

func NewMemoryCustomers(store *MemoryStore) *MemoryCustomers { return &MemoryCustomers{store: store} }

var _ CustomerRepository = (*MemoryCustomers)(nil)

func (mc *MemoryCustomers) Create(ctx context.Context, c *domain.Customer) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	for _, existing := range mc.store.state.customers {
		if strings.EqualFold(existing.Email, c.Email) {
			return domain.Conflict("email already registered")
		}
	}
	c.ID = mc.store.state.nextCustomerID
	mc.store.state.nextCustomerID++
	mc.store.state.customers[c.ID] = *c
	return nil
}

func (mc *MemoryCustomers) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.state.customers[id]
	if !ok {
		return nil, domain.NotFound("customer", id)
	}
	return &c, nil
}

// MemoryEmployees implements EmployeeRepository on top of MemoryStore.
type MemoryEmployees struct{ store *MemoryStore }

func NewMemoryEmployees(store *MemoryStore) *MemoryEmployees { return &MemoryEmployees{store: store} }

var _ EmployeeRepository = (*MemoryEmployees)(nil)

func (me *MemoryEmployees) Create(ctx context.Context, e *domain.Employee) error {
	me.store.wlock(ctx)
	defer me.store.wunlock(ctx)
	e.ID = me.store.state.nextEmployeeID
	me.store.state.nextEmployeeID++
	me.store.state.employees[e.ID] = *e
	return nil
}

func (me *MemoryEmployees) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	me.store.rlock(ctx)
	defer me.store.runlock(ctx)
	e, ok := me.store.state.employees[id]
	if !ok {
		return nil, domain.NotFound("employee", id)
	}
	return &e, nil
}

// MemoryOrders implements OrderRepository on top of MemoryStore.
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o.ID = mo.store.state.nextOrderID
	mo.store.state.nextOrderID++
	o.OrderedAt = time.Now().UTC()
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	mo.store.state.orders[o.ID] = copyOrder(*o)
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.state.orders[id]
	if !ok {
		return nil, domain.NotFound("order", id)
	}
	cp := copyOrder(o)
	return &cp, nil
}

// GetForUpdate needs no extra locking: a MemoryTx holds the write lock for
// the whole transaction.
func (mo *MemoryOrders) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return mo.GetByID(ctx, id)
}

func (mo *MemoryOrders) MarkShipped(ctx context.Context, id int64) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	stored, ok := mo.store.state.orders[id]
	if !ok {
		return domain.NotFound("order", id)
	}
	if stored.Shipped {
		return fmt.Errorf("order %d: %w", id, domain.ErrAlreadyShipped)
	}
	stored.Shipped = true
	mo.store.state.orders[id] = stored
	return nil
}

func (mo *MemoryOrders) AddItem(ctx context.Context, it domain.LineItem) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	stored, ok := mo.store.state.orders[it.OrderID]
	if !ok {
		return domain.NotFound("order", it.OrderID)
	}
	for _, existing := range stored.Items {
		if existing.ProductID == it.ProductID {
			return domain.Conflict(fmt.Sprintf("product %d already in order %d", it.ProductID, it.OrderID))
		}
	}
	stored = copyOrder(stored)
	stored.Items = append(stored.Items, it)
	mo.store.state.orders[it.OrderID] = stored
	return nil
}

func (mo *MemoryOrders) Delete(ctx context.Context, id int64) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.state.orders[id]; !ok {
		return domain.NotFound("order", id)
	}
	// line items live inside the order value and go with it
	delete(mo.store.state.orders, id)
	return nil
}

func (mo *MemoryOrders) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.state.orders {
		if o.CustomerID == customerID {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// MemoryTx serializes transactions behind the store's write lock and
// restores a snapshot when fn fails or ctx is cancelled.
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		// already inside a transaction; join it
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return ctxError(err)
	}
	snapshot := tx.store.state.clone()
	err := fn(context.WithValue(ctx, txKey{}, true))
	if err == nil && ctx.Err() != nil {
		err = ctxError(ctx.Err())
	}
	if err != nil {
		tx.store.state = snapshot
		return err
	}
	return nil
}

func ctxError(err error) error {
	if err == context.DeadlineExceeded {
		return fmt.Errorf("transaction aborted: %w: %w", domain.ErrTimeout, err)
	}
	return fmt.Errorf("transaction aborted: %w", err)
}
