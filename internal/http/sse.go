package httpapi

import (
	"io"
	"sync"

	"github.com/gin-gonic/gin"
)

// mailbox buffers states for one SSE client so observers never block on the
// network. Order is preserved.
type mailbox[S any] struct {
	mu    sync.Mutex
	items []S
	wake  chan struct{}
}

func newMailbox[S any]() *mailbox[S] {
	return &mailbox[S]{wake: make(chan struct{}, 1)}
}

func (m *mailbox[S]) push(s S) {
	m.mu.Lock()
	m.items = append(m.items, s)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox[S]) drain() []S {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.items
	m.items = nil
	return out
}

// stream sends every observed state as an SSE "state" event until the client
// goes away.
func stream[S any](c *gin.Context, observe func(func(S)) func()) {
	box := newMailbox[S]()
	cancel := observe(box.push)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-box.wake:
		}
		for _, s := range box.drain() {
			c.SSEvent("state", s)
		}
		return true
	})
}
