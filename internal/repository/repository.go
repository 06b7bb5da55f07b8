package repository

import (
	"context"
	"errors"

	"storefront/internal/docstore"
	"storefront/internal/domain"
)

const (
	ProductsCollection = "products"
	OrdersCollection   = "orders"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = docstore.ErrNotFound

// Subscription живая подписка на коллекцию. Close освобождает слушателя хранилища.
type Subscription interface {
	Close()
}

// ProductRepository интерфейс репозитория каталога
type ProductRepository interface {
	Subscribe(ctx context.Context, onChange func([]domain.Product), onError func(error)) (Subscription, error)
	Save(ctx context.Context, p domain.Product) error
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository интерфейс репозитория заказов: только добавление и чтение истории
type OrderRepository interface {
	PlaceOrder(ctx context.Context, o domain.Order) (string, error)
	SubscribeHistory(ctx context.Context, onChange func([]domain.OrderHistoryItem), onError func(error)) (Subscription, error)
}

type subscription struct {
	reg docstore.Registration
}

func (s subscription) Close() { s.reg.Remove() }

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}
