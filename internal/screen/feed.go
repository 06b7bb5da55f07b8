package screen

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// Subscriber источник живого списка; реализуется use case'ами сервиса
type Subscriber[T any] interface {
	Run(ctx context.Context, onChange func([]T), onError func(error)) (repository.Subscription, error)
}

// feed owns one subscription at a time. Every subscription gets a generation
// number; callbacks from an older generation are dropped.
type feed[T any] struct {
	source Subscriber[T]
	state  *Observable[FeedState[T]]
	log    zerolog.Logger

	mu     sync.Mutex
	gen    uint64
	sub    repository.Subscription
	closed bool
}

func newFeed[T any](source Subscriber[T], log zerolog.Logger) *feed[T] {
	return &feed[T]{source: source, state: newObservable(loadingFeed[T]()), log: log}
}

// subscribe releases the current subscription, goes back to Loading and
// opens a new one.
func (f *feed[T]) subscribe(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.sub != nil {
		f.sub.Close()
		f.sub = nil
	}
	f.gen++
	gen := f.gen
	f.state.set(loadingFeed[T]())

	sub, err := f.source.Run(ctx,
		func(items []T) { f.apply(gen, successFeed(items)) },
		func(err error) {
			f.log.Error().Err(err).Msg("subscription failed")
			f.apply(gen, errorFeed[T](err))
		},
	)
	if err != nil {
		f.log.Error().Err(err).Msg("subscribe")
		f.state.set(errorFeed[T](err))
		return
	}
	f.sub = sub
}

func (f *feed[T]) apply(gen uint64, s FeedState[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen {
		return
	}
	f.state.set(s)
}

func (f *feed[T]) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.sub != nil {
		f.sub.Close()
		f.sub = nil
	}
	f.state.close()
}

// HomeScreen живой каталог
type HomeScreen struct {
	feed *feed[domain.Product]
}

// NewHomeScreen subscribes immediately; the state is Loading until the first
// snapshot arrives.
func NewHomeScreen(ctx context.Context, products Subscriber[domain.Product], log zerolog.Logger) *HomeScreen {
	s := &HomeScreen{feed: newFeed(products, log.With().Str("screen", "home").Logger())}
	s.feed.subscribe(ctx)
	return s
}

func (s *HomeScreen) State() FeedState[domain.Product] { return s.feed.state.Get() }

func (s *HomeScreen) Observe(fn func(FeedState[domain.Product])) func() {
	return s.feed.state.Observe(fn)
}

// Close releases the subscription. No state reaches observers afterwards.
func (s *HomeScreen) Close() { s.feed.close() }

// HistoryScreen история заказов, новые сверху
type HistoryScreen struct {
	feed *feed[domain.OrderHistoryItem]
}

func NewHistoryScreen(ctx context.Context, orders Subscriber[domain.OrderHistoryItem], log zerolog.Logger) *HistoryScreen {
	s := &HistoryScreen{feed: newFeed(orders, log.With().Str("screen", "history").Logger())}
	s.feed.subscribe(ctx)
	return s
}

func (s *HistoryScreen) State() FeedState[domain.OrderHistoryItem] { return s.feed.state.Get() }

func (s *HistoryScreen) Observe(fn func(FeedState[domain.OrderHistoryItem])) func() {
	return s.feed.state.Observe(fn)
}

// Refresh re-subscribes. This is also the way out of the Error state.
func (s *HistoryScreen) Refresh(ctx context.Context) { s.feed.subscribe(ctx) }

func (s *HistoryScreen) Close() { s.feed.close() }
