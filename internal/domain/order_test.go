package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validAddress() DeliveryAddress {
	return DeliveryAddress{Neighborhood: "Centro", Street: "Rua A", Number: "10"}
}

func TestNewOrder_Totals(t *testing.T) {
	cart := []Product{
		{ID: "1", Name: "X-Bacon", Price: price("25.90")},
		{ID: "2", Name: "X-Salada", Price: price("22.90")},
	}
	o, err := NewOrder(cart, validAddress(), PaymentCash, price("5.00"))
	require.NoError(t, err)

	assert.True(t, o.Subtotal.Equal(price("48.80")), "subtotal %s", o.Subtotal)
	assert.True(t, o.Total.Equal(price("53.80")), "total %s", o.Total)
	assert.True(t, o.Total.Equal(o.Subtotal.Add(o.DeliveryFee)))
	assert.Len(t, o.Items, len(cart))
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, "X-Salada", o.Items[1].Name)
}

func TestNewOrder_SubtotalIsSumOfItems(t *testing.T) {
	carts := [][]Product{
		{{ID: "a", Price: price("0.10")}},
		{{ID: "a", Price: price("0.10")}, {ID: "a", Price: price("0.20")}, {ID: "b", Price: price("32.90")}},
		{{ID: "a", Price: price("0")}, {ID: "b", Price: price("99.99")}},
	}
	for _, cart := range carts {
		o, err := NewOrder(cart, validAddress(), PaymentDebitCard, DefaultDeliveryFee)
		require.NoError(t, err)
		sum := decimal.Zero
		for _, it := range o.Items {
			sum = sum.Add(it.Price)
		}
		assert.True(t, o.Subtotal.Equal(sum))
		assert.True(t, o.Total.Equal(o.Subtotal.Add(DefaultDeliveryFee)))
		assert.Len(t, o.Items, len(cart))
	}
}

func TestNewOrder_Validation(t *testing.T) {
	cart := []Product{{ID: "1", Price: price("10")}}

	_, err := NewOrder(nil, validAddress(), PaymentCash, DefaultDeliveryFee)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = NewOrder(cart, validAddress(), PaymentMethod("cheque"), DefaultDeliveryFee)
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = NewOrder(cart, DeliveryAddress{Neighborhood: "Centro", Street: " ", Number: "1"}, PaymentCash, DefaultDeliveryFee)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	// complement is optional
	_, err = NewOrder(cart, validAddress(), PaymentCash, DefaultDeliveryFee)
	assert.NoError(t, err)
}

func TestParsePaymentMethod(t *testing.T) {
	cases := map[string]PaymentMethod{
		"cash":             PaymentCash,
		"Credit Card":      PaymentCreditCard,
		" debit_card ":     PaymentDebitCard,
		"instant-transfer": PaymentInstantTransfer,
		"INSTANT_TRANSFER": PaymentInstantTransfer,
	}
	for in, want := range cases {
		got, err := ParsePaymentMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParsePaymentMethod("bitcoin")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	assert.Len(t, PaymentMethods(), 4)
}
