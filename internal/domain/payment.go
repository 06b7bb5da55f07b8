package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// PaymentMethod способ оплаты при получении
type PaymentMethod string

const (
	PaymentCash            PaymentMethod = "cash"
	PaymentCreditCard      PaymentMethod = "credit_card"
	PaymentDebitCard       PaymentMethod = "debit_card"
	PaymentInstantTransfer PaymentMethod = "instant_transfer"
)

var paymentLabels = map[PaymentMethod]string{
	PaymentCash:            "Cash",
	PaymentCreditCard:      "Credit Card",
	PaymentDebitCard:       "Debit Card",
	PaymentInstantTransfer: "Instant-Transfer",
}

// PaymentMethods returns the accepted methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentInstantTransfer}
}

// ParsePaymentMethod accepts either the wire value ("credit_card") or the
// display label ("Credit Card"), case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	v := strings.TrimSpace(s)
	for m, label := range paymentLabels {
		if strings.EqualFold(v, string(m)) || strings.EqualFold(v, label) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentLabels[m]
	return ok
}

func (m PaymentMethod) Label() string {
	return paymentLabels[m]
}
