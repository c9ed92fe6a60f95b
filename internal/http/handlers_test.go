package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

func setupServer(t *testing.T) *Server {
	t.Helper()
	store := repository.NewMemoryStore()
	customers := repository.NewMemoryCustomers(store)
	employees := repository.NewMemoryEmployees(store)
	orders := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)
	ledger := service.NewInventoryLedger(store)
	logger := zaptest.NewLogger(t)
	return NewServer(Services{
		Products:  service.NewProductService(store, ledger),
		Customers: service.NewCustomerService(customers),
		Employees: service.NewEmployeeService(employees),
		Orders:    service.NewOrderService(store, customers, employees, orders, tx),
		Fulfiller: service.NewFulfillmentCoordinator(orders, ledger, tx, nil, logger),
		Health:    store,
	}, logger, time.Second)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func mustCreate(t *testing.T, s *Server, path string, body any) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, path, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST %s: code %v body %s", path, w.Code, w.Body.String())
	}
}

func TestProductFlow(t *testing.T) {
	s := setupServer(t)
	// create
	w := doJSON(t, s, http.MethodPost, "/products", map[string]any{
		"product_name": "usb cable", "unit_price": "9.99", "units_in_stock": 5, "type": "ACCESSORY",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create code %v", w.Code)
	}
	var p domain.Product
	decode(t, w, &p)
	if p.ID != 1 || p.Name != "Usb Cable" {
		t.Fatalf("unexpected product %+v", p)
	}
	// get
	w = doJSON(t, s, http.MethodGet, "/products/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get code %v", w.Code)
	}
	// update
	w = doJSON(t, s, http.MethodPut, "/products/1", map[string]any{
		"product_name": "usb-c cable", "unit_price": 12, "units_in_stock": 7, "type": "ACCESSORY",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v", w.Code)
	}
	// restock
	w = doJSON(t, s, http.MethodPost, "/products/1/restock", map[string]any{"quantity": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("restock code %v", w.Code)
	}
	decode(t, w, &p)
	if p.Stock != 8 {
		t.Fatalf("expected 8 in stock, got %d", p.Stock)
	}
	// list
	w = doJSON(t, s, http.MethodGet, "/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v", w.Code)
	}
	// delete
	w = doJSON(t, s, http.MethodDelete, "/products/1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete code %v", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/products/1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", w.Code)
	}
}

func TestListProducts_Paging(t *testing.T) {
	s := setupServer(t)
	for _, price := range []string{"15.00", "99.99", "5.50", "42.00", "70.00", "1.00"} {
		mustCreate(t, s, "/products", map[string]any{"product_name": "item", "unit_price": price, "units_in_stock": 1})
	}

	w := doJSON(t, s, http.MethodGet, "/products?page=2&page_size=2&order_by=unit_price&direction=desc", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v", w.Code)
	}
	var list []domain.Product
	decode(t, w, &list)
	if len(list) != 2 || !list[0].UnitPrice.Equal(decimal.NewFromInt(42)) || !list[1].UnitPrice.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected page %+v", list)
	}

	w = doJSON(t, s, http.MethodGet, "/products", nil)
	decode(t, w, &list)
	if len(list) != 3 {
		t.Fatalf("expected default page of 3, got %d", len(list))
	}

	for _, q := range []string{"direction=sideways", "order_by=password", "page=0", "page_size=101", "page=abc"} {
		w = doJSON(t, s, http.MethodGet, "/products?"+q, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %v", q, w.Code)
		}
	}
}

func seedOrder(t *testing.T, s *Server, stock, qty int64) {
	t.Helper()
	mustCreate(t, s, "/products", map[string]any{"product_name": "phone", "unit_price": "300", "units_in_stock": stock, "type": "PHONE"})
	mustCreate(t, s, "/customers", map[string]any{"first_name": "John", "last_name": "Doe", "email": "john@test.com"})
	mustCreate(t, s, "/orders", map[string]any{
		"customer_id":   1,
		"order_details": []map[string]any{{"product_id": 1, "quantity": qty}},
	})
}

func TestOrderFlow(t *testing.T) {
	s := setupServer(t)
	seedOrder(t, s, 5, 3)

	w := doJSON(t, s, http.MethodGet, "/orders/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get order %v", w.Code)
	}
	var o domain.Order
	decode(t, w, &o)
	if o.Shipped || len(o.Items) != 1 {
		t.Fatalf("unexpected order %+v", o)
	}

	// fulfill
	w = doJSON(t, s, http.MethodPost, "/orders/1/fulfill", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fulfill %v: %s", w.Code, w.Body.String())
	}
	decode(t, w, &o)
	if !o.Shipped {
		t.Fatalf("order not shipped")
	}
	var p domain.Product
	decode(t, doJSON(t, s, http.MethodGet, "/products/1", nil), &p)
	if p.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", p.Stock)
	}

	// second fulfill conflicts
	w = doJSON(t, s, http.MethodPost, "/orders/1/fulfill", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
	// shipped orders take no new items
	w = doJSON(t, s, http.MethodPost, "/orders/1/items", map[string]any{"product_id": 1, "quantity": 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on add to shipped order, got %v", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/customers/1/orders", nil)
	var list []domain.Order
	decode(t, w, &list)
	if len(list) != 1 || list[0].ID != 1 {
		t.Fatalf("unexpected customer orders %+v", list)
	}

	w = doJSON(t, s, http.MethodDelete, "/orders/1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete order %v", w.Code)
	}
}

func TestUpdateProduct_KeepsFulfilledStock(t *testing.T) {
	s := setupServer(t)
	seedOrder(t, s, 5, 3)
	if w := doJSON(t, s, http.MethodPost, "/orders/1/fulfill", nil); w.Code != http.StatusOK {
		t.Fatalf("fulfill %v", w.Code)
	}

	w := doJSON(t, s, http.MethodPut, "/products/1", map[string]any{
		"product_name": "phone", "unit_price": "310", "units_in_stock": 5, "type": "PHONE",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v", w.Code)
	}
	var p domain.Product
	decode(t, doJSON(t, s, http.MethodGet, "/products/1", nil), &p)
	if p.Stock != 2 {
		t.Fatalf("PUT overwrote stock: expected 2, got %d", p.Stock)
	}
}

func TestFulfill_InsufficientStock(t *testing.T) {
	s := setupServer(t)
	seedOrder(t, s, 1, 2)

	w := doJSON(t, s, http.MethodPost, "/orders/1/fulfill", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["product_id"] != float64(1) {
		t.Fatalf("expected product_id in body, got %v", body)
	}

	var p domain.Product
	decode(t, doJSON(t, s, http.MethodGet, "/products/1", nil), &p)
	if p.Stock != 1 {
		t.Fatalf("stock changed after failed fulfillment: %d", p.Stock)
	}
	var o domain.Order
	decode(t, doJSON(t, s, http.MethodGet, "/orders/1", nil), &o)
	if o.Shipped {
		t.Fatalf("order marked shipped after failed fulfillment")
	}
}

func TestHTTP_BadRequests(t *testing.T) {
	s := setupServer(t)
	// invalid product body
	w := doJSON(t, s, http.MethodPost, "/products", map[string]any{"product_name": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPost, "/products", map[string]any{"product_name": "x", "unit_price": "-1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative price, got %v", w.Code)
	}

	// invalid id
	for _, path := range []string{"/products/abc", "/orders/0", "/customers/-1"} {
		w = doJSON(t, s, http.MethodGet, path, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %v", path, w.Code)
		}
	}
	w = doJSON(t, s, http.MethodPost, "/orders/x/fulfill", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}

	// invalid email reports the field
	w = doJSON(t, s, http.MethodPost, "/customers", map[string]any{"first_name": "A", "last_name": "B", "email": "nope"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["field"] != "email" {
		t.Fatalf("expected field email, got %v", body)
	}

	w = doJSON(t, s, http.MethodPost, "/employees", map[string]any{"first_name": "A", "hire_date": "01/05/2024"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for hire date, got %v", w.Code)
	}
}

func TestHTTP_NotFound_Conflict(t *testing.T) {
	s := setupServer(t)
	// not found
	for _, path := range []string{"/products/999", "/orders/999", "/customers/999", "/employees/999", "/customers/999/orders"} {
		w := doJSON(t, s, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %v", path, w.Code)
		}
	}
	w := doJSON(t, s, http.MethodPost, "/orders/999/fulfill", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}

	seedOrder(t, s, 5, 1)
	// referenced product
	w = doJSON(t, s, http.MethodDelete, "/products/1", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
	// duplicate email
	w = doJSON(t, s, http.MethodPost, "/customers", map[string]any{"first_name": "J", "last_name": "D", "email": "JOHN@test.com"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
	// duplicate line item
	w = doJSON(t, s, http.MethodPost, "/orders/1/items", map[string]any{"product_id": 1, "quantity": 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
}

func TestEmployees(t *testing.T) {
	s := setupServer(t)
	mustCreate(t, s, "/employees", map[string]any{"first_name": "Amelia", "is_manager": true, "hire_date": "2024-05-01"})

	w := doJSON(t, s, http.MethodPost, "/employees", map[string]any{"first_name": "Ben", "manager_id": 1})
	if w.Code != http.StatusCreated {
		t.Fatalf("create report %v: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, s, http.MethodPost, "/employees", map[string]any{"first_name": "Cy", "manager_id": 42})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing manager, got %v", w.Code)
	}

	var e domain.Employee
	decode(t, doJSON(t, s, http.MethodGet, "/employees/1", nil), &e)
	if !e.HireDate.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) || !e.IsManager {
		t.Fatalf("unexpected employee %+v", e)
	}
}

func TestHealthz(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz %v", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("missing request id header")
	}
}
