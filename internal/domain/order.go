package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidAddress = errors.New("invalid delivery address")
)

// DefaultDeliveryFee фиксированная стоимость доставки
var DefaultDeliveryFee = decimal.RequireFromString("5.00")

// Validate требует непустые район, улицу и номер дома
func (a DeliveryAddress) Validate() error {
	if strings.TrimSpace(a.Neighborhood) == "" ||
		strings.TrimSpace(a.Street) == "" ||
		strings.TrimSpace(a.Number) == "" {
		return ErrInvalidAddress
	}
	return nil
}

// Subtotal sums the prices of the given products.
func Subtotal(cart []Product) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range cart {
		sum = sum.Add(p.Price)
	}
	return sum
}

// NewOrder builds the order snapshot for a cart. Totals are computed here once
// and stored with the order; readers never recompute them.
func NewOrder(cart []Product, addr DeliveryAddress, method PaymentMethod, fee decimal.Decimal) (Order, error) {
	if len(cart) == 0 {
		return Order{}, ErrEmptyCart
	}
	if !method.Valid() {
		return Order{}, ErrInvalidPaymentMethod
	}
	if err := addr.Validate(); err != nil {
		return Order{}, err
	}

	items := make([]OrderItem, 0, len(cart))
	for _, p := range cart {
		items = append(items, OrderItem{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	subtotal := Subtotal(cart)
	return Order{
		Items:         items,
		Address:       addr,
		PaymentMethod: method,
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		Total:         subtotal.Add(fee),
		Status:        OrderStatusPending,
	}, nil
}
