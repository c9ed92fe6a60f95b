package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxNameLen    = 255
	maxPersonLen  = 127
	maxAddressLen = 255
	priceScale    = 2
)

var validate = validator.New()

// NormalizeProductName trims and title-cases a product name: "wireless mouse" -> "Wireless Mouse".
func NormalizeProductName(name string) string {
	// cases.Caser is stateful, so one per call.
	return cases.Title(language.Und).String(strings.TrimSpace(name))
}

// ValidateProduct normalizes p in place and checks its invariants.
func ValidateProduct(p *Product) error {
	p.Name = NormalizeProductName(p.Name)
	if p.Name == "" {
		return Invalid("product_name", "must not be empty")
	}
	if len(p.Name) > maxNameLen {
		return Invalid("product_name", "too long")
	}
	if err := ValidatePrice(p.UnitPrice); err != nil {
		return err
	}
	if p.Stock < 0 {
		return Invalid("units_in_stock", "must not be negative")
	}
	if p.Category == "" {
		p.Category = CategoryOther
	}
	if !p.Category.Valid() {
		return Invalid("type", "must be one of PHONE, ACCESSORY, OTHER")
	}
	return nil
}

// ValidatePrice requires a positive amount with at most two fractional digits.
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return Invalid("unit_price", "must be positive")
	}
	if !price.Equal(price.Round(priceScale)) {
		return Invalid("unit_price", "at most 2 fractional digits")
	}
	return nil
}

// ValidateCustomer trims names and checks the email format.
func ValidateCustomer(c *Customer) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	if c.FirstName == "" || len(c.FirstName) > maxPersonLen {
		return Invalid("first_name", "must be 1-127 characters")
	}
	if c.LastName == "" || len(c.LastName) > maxPersonLen {
		return Invalid("last_name", "must be 1-127 characters")
	}
	if len(c.Address) > maxAddressLen {
		return Invalid("address", "too long")
	}
	if err := validate.Var(c.Email, "required,email,max=127"); err != nil {
		return Invalid("email", "malformed email")
	}
	return nil
}

// ValidateEmployee checks names and fills the hire date when absent.
func ValidateEmployee(e *Employee, now time.Time) error {
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	if e.FirstName == "" || len(e.FirstName) > maxPersonLen {
		return Invalid("first_name", "must be 1-127 characters")
	}
	if len(e.LastName) > maxPersonLen {
		return Invalid("last_name", "too long")
	}
	if e.ManagerID != nil && *e.ManagerID <= 0 {
		return Invalid("manager_id", "must be positive")
	}
	if e.HireDate.IsZero() {
		y, m, d := now.Date()
		e.HireDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return nil
}

// ValidateLineItem checks a single product/quantity pair.
func ValidateLineItem(it LineItem) error {
	if it.ProductID <= 0 {
		return Invalid("product_id", "must be positive")
	}
	if it.Quantity <= 0 {
		return Invalid("quantity", "must be positive")
	}
	return nil
}
