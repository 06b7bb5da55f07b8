package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product товар из каталога
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Emoji       string          `json:"emoji"`
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "Pending"
)

// OrderItem снимок товара на момент оформления заказа
type OrderItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// DeliveryAddress адрес доставки
type DeliveryAddress struct {
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
}

// Order заказ в том виде, в каком он записывается в хранилище.
// CreatedAt не заполняется клиентом: время ставит хранилище при записи.
type Order struct {
	Items         []OrderItem     `json:"items"`
	Address       DeliveryAddress `json:"address"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
}

// OrderHistoryItem сохранённый заказ с присвоенным id и временем записи
type OrderHistoryItem struct {
	ID string `json:"id"`
	Order
	CreatedAt time.Time `json:"created_at"`
}
