package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// PlaceOrder записывает заказ и сообщает кухне
type PlaceOrder struct {
	orders    repository.OrderRepository
	publisher events.Publisher
	log       zerolog.Logger
}

func NewPlaceOrder(orders repository.OrderRepository, publisher events.Publisher, log zerolog.Logger) *PlaceOrder {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &PlaceOrder{orders: orders, publisher: publisher, log: log}
}

// Run waits for the store to acknowledge the write; it applies no timeout of
// its own. The order-placed event is best-effort: the order is already durable.
func (uc *PlaceOrder) Run(ctx context.Context, o domain.Order) (string, error) {
	id, err := uc.orders.PlaceOrder(ctx, o)
	if err != nil {
		return "", err
	}
	ev := events.OrderPlaced{
		OrderID:       id,
		Items:         len(o.Items),
		Total:         o.Total,
		PaymentMethod: string(o.PaymentMethod),
		PlacedAt:      timeNow(),
	}
	if err := uc.publisher.PublishOrderPlaced(context.WithoutCancel(ctx), ev); err != nil {
		uc.log.Warn().Err(err).Str("order_id", id).Msg("order placed event not published")
	}
	return id, nil
}

type GetProducts struct {
	products repository.ProductRepository
}

func NewGetProducts(products repository.ProductRepository) *GetProducts {
	return &GetProducts{products: products}
}

func (uc *GetProducts) Run(ctx context.Context, onChange func([]domain.Product), onError func(error)) (repository.Subscription, error) {
	return uc.products.Subscribe(ctx, onChange, onError)
}

type GetOrderHistory struct {
	orders repository.OrderRepository
}

func NewGetOrderHistory(orders repository.OrderRepository) *GetOrderHistory {
	return &GetOrderHistory{orders: orders}
}

func (uc *GetOrderHistory) Run(ctx context.Context, onChange func([]domain.OrderHistoryItem), onError func(error)) (repository.Subscription, error) {
	return uc.orders.SubscribeHistory(ctx, onChange, onError)
}
