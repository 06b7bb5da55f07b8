package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"storefront/internal/docstore"
	"storefront/internal/domain"
)

type Orders struct {
	store docstore.Store
	log   zerolog.Logger
}

var _ OrderRepository = (*Orders)(nil)

func NewOrders(store docstore.Store, log zerolog.Logger) *Orders {
	return &Orders{store: store, log: log.With().Str("repository", OrdersCollection).Logger()}
}

// PlaceOrder appends the order and returns the id assigned by the store.
func (r *Orders) PlaceOrder(ctx context.Context, o domain.Order) (string, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	doc, err := r.store.Add(ctx, OrdersCollection, data)
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	return doc.ID, nil
}

// SubscribeHistory streams all orders, newest first.
func (r *Orders) SubscribeHistory(ctx context.Context, onChange func([]domain.OrderHistoryItem), onError func(error)) (Subscription, error) {
	q := docstore.Query{Collection: OrdersCollection, OrderBy: docstore.Descending}
	reg, err := r.store.Listen(ctx, q,
		func(s docstore.Snapshot) { onChange(r.decode(s)) },
		onError,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe orders: %w", err)
	}
	return subscription{reg: reg}, nil
}

func (r *Orders) decode(s docstore.Snapshot) []domain.OrderHistoryItem {
	out := make([]domain.OrderHistoryItem, 0, len(s.Documents))
	for _, d := range s.Documents {
		var o domain.Order
		if err := json.Unmarshal(d.Data, &o); err != nil {
			r.log.Warn().Err(err).Str("id", d.ID).Msg("skip malformed order")
			continue
		}
		out = append(out, domain.OrderHistoryItem{ID: d.ID, Order: o, CreatedAt: d.CreatedAt})
	}
	return out
}
