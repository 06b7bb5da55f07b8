package docstore

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Notifier разносит события "коллекция изменилась" между экземплярами сервиса
type Notifier interface {
	Notify(ctx context.Context, collection string) error
	OnChange(fn func(ctx context.Context, collection string))
}

type handlers struct {
	mu  sync.RWMutex
	fns []func(ctx context.Context, collection string)
}

func (h *handlers) add(fn func(ctx context.Context, collection string)) {
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func (h *handlers) dispatch(ctx context.Context, collection string) {
	h.mu.RLock()
	fns := append([]func(context.Context, string){}, h.fns...)
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(ctx, collection)
	}
}

// LocalNotifier delivers change events inside the current process only.
type LocalNotifier struct {
	handlers
}

func NewLocalNotifier() *LocalNotifier { return &LocalNotifier{} }

func (n *LocalNotifier) Notify(ctx context.Context, collection string) error {
	n.dispatch(ctx, collection)
	return nil
}

func (n *LocalNotifier) OnChange(fn func(ctx context.Context, collection string)) { n.add(fn) }

// RedisNotifier publishes change events on "<prefix>:<collection>" so every
// instance sharing the database reloads its listeners. Run must be started for
// events to be received, including this instance's own.
type RedisNotifier struct {
	handlers
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

func NewRedisNotifier(client *redis.Client, prefix string, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		prefix: prefix,
		log:    log.With().Str("component", "redis_notifier").Logger(),
	}
}

func (n *RedisNotifier) channel(collection string) string {
	var b strings.Builder
	b.Grow(len(n.prefix) + 1 + len(collection))
	b.WriteString(n.prefix)
	b.WriteString(":")
	b.WriteString(collection)
	return b.String()
}

func (n *RedisNotifier) Notify(ctx context.Context, collection string) error {
	return n.client.Publish(ctx, n.channel(collection), collection).Err()
}

func (n *RedisNotifier) OnChange(fn func(ctx context.Context, collection string)) { n.add(fn) }

func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

// Run blocks until ctx is done.
func (n *RedisNotifier) Run(ctx context.Context) error {
	sub := n.client.PSubscribe(ctx, n.channel("*"))
	defer sub.Close()

	// wait for subscription confirmation
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	n.log.Info().Str("pattern", n.channel("*")).Msg("listening for collection changes")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			n.dispatch(ctx, msg.Payload)
		}
	}
}
