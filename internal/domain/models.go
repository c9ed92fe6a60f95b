package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategory groups products in the catalog.
type ProductCategory string

const (
	CategoryPhone     ProductCategory = "PHONE"
	CategoryAccessory ProductCategory = "ACCESSORY"
	CategoryOther     ProductCategory = "OTHER"
)

// Valid reports whether c is one of the known categories.
func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryPhone, CategoryAccessory, CategoryOther:
		return true
	}
	return false
}

// Product is a catalog entry with its stock level.
type Product struct {
	ID        int64           `json:"product_id"`
	Name      string          `json:"product_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int64           `json:"units_in_stock"`
	Category  ProductCategory `json:"type"`
}

// Customer places orders.
type Customer struct {
	ID        int64  `json:"customer_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Email     string `json:"email"`
}

// Employee may be assigned to orders. ManagerID points at another employee.
type Employee struct {
	ID        int64     `json:"employee_id"`
	ManagerID *int64    `json:"manager_id,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsManager bool      `json:"is_manager"`
	HireDate  time.Time `json:"hire_date"`
}

// LineItem is one product and quantity inside an order.
type LineItem struct {
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Order owns its line items. OrderedAt is set once when the order is stored.
type Order struct {
	ID         int64      `json:"order_id"`
	CustomerID int64      `json:"customer_id"`
	EmployeeID *int64     `json:"employee_id,omitempty"`
	OrderedAt  time.Time  `json:"order_datetime"`
	Shipped    bool       `json:"is_shipped"`
	Items      []LineItem `json:"order_details"`
}
