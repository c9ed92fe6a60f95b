package domain

import (
	"fmt"
	"sort"
)

// NewOrder builds an unshipped order, rejecting bad or duplicate line items.
func NewOrder(customerID int64, employeeID *int64, items []LineItem) (*Order, error) {
	if customerID <= 0 {
		return nil, Invalid("customer_id", "must be positive")
	}
	if employeeID != nil && *employeeID <= 0 {
		return nil, Invalid("employee_id", "must be positive")
	}
	o := &Order{CustomerID: customerID, EmployeeID: employeeID}
	for _, it := range items {
		if err := o.AddLineItem(it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// LineItems returns a copy of the items in insertion order.
func (o *Order) LineItems() []LineItem {
	out := make([]LineItem, len(o.Items))
	copy(out, o.Items)
	return out
}

// IsShipped reports the shipped flag.
func (o *Order) IsShipped() bool { return o.Shipped }

// MarkShipped flips the order to shipped. It fails on an order that already shipped.
func (o *Order) MarkShipped() error {
	if o.Shipped {
		return fmt.Errorf("order %d: %w", o.ID, ErrAlreadyShipped)
	}
	o.Shipped = true
	return nil
}

// AddLineItem appends a product to an unshipped order. One line per product.
func (o *Order) AddLineItem(productID, quantity int64) error {
	if o.Shipped {
		return fmt.Errorf("order %d: %w", o.ID, ErrAlreadyShipped)
	}
	it := LineItem{OrderID: o.ID, ProductID: productID, Quantity: quantity}
	if err := ValidateLineItem(it); err != nil {
		return err
	}
	for _, existing := range o.Items {
		if existing.ProductID == productID {
			return Conflict(fmt.Sprintf("product %d already in order", productID))
		}
	}
	o.Items = append(o.Items, it)
	return nil
}

// ItemsByProduct returns the line items sorted by ascending product id,
// the order in which stock rows are locked.
func (o *Order) ItemsByProduct() []LineItem {
	items := o.LineItems()
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items
}
