package screen

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var (
	ErrSubmissionInFlight = errors.New("order submission in progress")
	ErrNoSuchItem         = errors.New("no such cart item")
)

// OrderPlacer записывает заказ и возвращает его id
type OrderPlacer interface {
	Run(ctx context.Context, o domain.Order) (string, error)
}

// Totals суммы корзины для отображения
type Totals struct {
	Count       int             `json:"count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// CartScreen owns one cart and its submission lifecycle:
// Idle -> Loading -> Success(id) | Error(message), Reset -> Idle.
type CartScreen struct {
	placer OrderPlacer
	fee    decimal.Decimal
	log    zerolog.Logger
	state  *Observable[SubmitState]

	mu    sync.Mutex
	items []domain.Product
}

func NewCartScreen(placer OrderPlacer, fee decimal.Decimal, log zerolog.Logger) *CartScreen {
	return &CartScreen{
		placer: placer,
		fee:    fee,
		log:    log.With().Str("screen", "cart").Logger(),
		state:  newObservable(SubmitState{Phase: PhaseIdle}),
	}
}

func (c *CartScreen) Add(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, p)
}

func (c *CartScreen) Remove(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.items) {
		return ErrNoSuchItem
	}
	c.items = append(c.items[:index:index], c.items[index+1:]...)
	return nil
}

func (c *CartScreen) Items() []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Product(nil), c.items...)
}

func (c *CartScreen) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

func (c *CartScreen) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := domain.Subtotal(c.items)
	return Totals{Count: len(c.items), Subtotal: sub, DeliveryFee: c.fee, Total: sub.Add(c.fee)}
}

func (c *CartScreen) State() SubmitState { return c.state.Get() }

func (c *CartScreen) Observe(fn func(SubmitState)) func() { return c.state.Observe(fn) }

// PlaceOrder validates the cart and writes the order. Validation failures go
// straight to Error and nothing is written. The write has no timeout of its
// own; it ends with the store acknowledgment or with ctx.
func (c *CartScreen) PlaceOrder(ctx context.Context, addr domain.DeliveryAddress, method domain.PaymentMethod) (string, error) {
	c.mu.Lock()
	if c.state.Get().Phase == PhaseLoading {
		c.mu.Unlock()
		return "", ErrSubmissionInFlight
	}
	order, err := domain.NewOrder(c.items, addr, method, c.fee)
	if err != nil {
		c.state.set(SubmitState{Phase: PhaseError, Message: err.Error()})
		c.mu.Unlock()
		return "", err
	}
	c.state.set(SubmitState{Phase: PhaseLoading})
	c.mu.Unlock()

	id, err := c.placer.Run(ctx, order)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Error().Err(err).Msg("place order")
		c.state.set(SubmitState{Phase: PhaseError, Message: err.Error()})
		return "", err
	}
	c.items = nil
	c.log.Info().Str("order_id", id).Str("total", order.Total.StringFixed(2)).Msg("order placed")
	c.state.set(SubmitState{Phase: PhaseSuccess, OrderID: id})
	return id, nil
}

// Reset returns to Idle after Success or Error. It is a no-op while Loading.
func (c *CartScreen) Reset() {
	c.state.update(func(s SubmitState) (SubmitState, bool) {
		if s.Phase == PhaseLoading || s.Phase == PhaseIdle {
			return s, false
		}
		return SubmitState{Phase: PhaseIdle}, true
	})
}

// Close drops observers; called when the owning session ends.
func (c *CartScreen) Close() { c.state.close() }
