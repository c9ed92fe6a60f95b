package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProductName(t *testing.T) {
	assert.Equal(t, "Wireless Mouse", NormalizeProductName("wireless mouse"))
	assert.Equal(t, "Phone Screen Protector", NormalizeProductName("  phone SCREEN protector "))
	assert.Equal(t, "", NormalizeProductName("   "))
}

func TestValidateProduct(t *testing.T) {
	p := Product{Name: "usb cable", UnitPrice: decimal.RequireFromString("4.50"), Stock: 3}
	require.NoError(t, ValidateProduct(&p))
	assert.Equal(t, "Usb Cable", p.Name)
	assert.Equal(t, CategoryOther, p.Category)

	cases := []Product{
		{Name: "", UnitPrice: decimal.NewFromInt(1)},
		{Name: "a", UnitPrice: decimal.Zero},
		{Name: "a", UnitPrice: decimal.NewFromInt(-3)},
		{Name: "a", UnitPrice: decimal.RequireFromString("1.005")},
		{Name: "a", UnitPrice: decimal.NewFromInt(1), Stock: -1},
		{Name: "a", UnitPrice: decimal.NewFromInt(1), Category: "TABLET"},
	}
	for _, c := range cases {
		c := c
		err := ValidateProduct(&c)
		assert.ErrorIs(t, err, ErrValidation, "%+v", c)
	}
}

func TestValidateProduct_KeepsPriceAsGiven(t *testing.T) {
	p := Product{Name: "desk lamp", UnitPrice: decimal.RequireFromString("24.9")}
	require.NoError(t, ValidateProduct(&p))
	assert.Equal(t, "24.9", p.UnitPrice.String())

	p.UnitPrice = decimal.RequireFromString("24.999")
	require.ErrorIs(t, ValidateProduct(&p), ErrValidation)
	assert.Equal(t, "24.999", p.UnitPrice.String())
}

func TestValidateCustomer(t *testing.T) {
	c := Customer{FirstName: "Alex", LastName: "Smith", Email: "alex_smith@test.com"}
	require.NoError(t, ValidateCustomer(&c))

	c.Email = "not_valid"
	err := ValidateCustomer(&c)
	require.ErrorIs(t, err, ErrValidation)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "email", ve.Field)
}

func TestValidateEmployee_DefaultsHireDate(t *testing.T) {
	now := time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)
	e := Employee{FirstName: "Amelia"}
	require.NoError(t, ValidateEmployee(&e, now))
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), e.HireDate)

	assert.ErrorIs(t, ValidateEmployee(&Employee{}, now), ErrValidation)
}

func TestOrderAggregate(t *testing.T) {
	o, err := NewOrder(1, nil, []LineItem{{ProductID: 7, Quantity: 1}, {ProductID: 3, Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, []int64{7, 3}, productIDs(o.LineItems()))
	assert.Equal(t, []int64{3, 7}, productIDs(o.ItemsByProduct()))

	assert.ErrorIs(t, o.AddLineItem(7, 5), ErrConflict)
	assert.ErrorIs(t, o.AddLineItem(9, 0), ErrValidation)

	assert.False(t, o.IsShipped())
	require.NoError(t, o.MarkShipped())
	assert.True(t, o.IsShipped())
	assert.ErrorIs(t, o.MarkShipped(), ErrAlreadyShipped)
	assert.ErrorIs(t, o.AddLineItem(9, 1), ErrAlreadyShipped)
}

func TestNewOrder_Invalid(t *testing.T) {
	_, err := NewOrder(0, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewOrder(1, nil, []LineItem{{ProductID: 1, Quantity: 1}, {ProductID: 1, Quantity: 2}})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestInsufficientStockProduct(t *testing.T) {
	err := errors.Join(errors.New("other"), &InsufficientStockError{ProductID: 42, Requested: 2, Available: 1})
	id, ok := InsufficientStockProduct(err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func productIDs(items []LineItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
