package screen

import (
	"sync"
)

// Phase тег состояния экрана
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// FeedState состояние живого списка (каталог, история)
type FeedState[T any] struct {
	Phase   Phase  `json:"state"`
	Items   []T    `json:"items"`
	Message string `json:"message,omitempty"`
}

func loadingFeed[T any]() FeedState[T] { return FeedState[T]{Phase: PhaseLoading} }

func successFeed[T any](items []T) FeedState[T] {
	if items == nil {
		items = []T{}
	}
	return FeedState[T]{Phase: PhaseSuccess, Items: items}
}

func errorFeed[T any](err error) FeedState[T] {
	return FeedState[T]{Phase: PhaseError, Message: err.Error()}
}

// SubmitState состояние отправки заказа
type SubmitState struct {
	Phase   Phase  `json:"state"`
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message,omitempty"`
}

type observer[S any] struct {
	id int
	fn func(S)
}

// Observable holds one value and calls observers on every change, in order.
// set and observer calls are serialised: an observer never runs concurrently
// with another call for the same Observable, and must not call back into it.
type Observable[S any] struct {
	mu        sync.Mutex
	state     S
	observers []observer[S]
	nextID    int
	closed    bool
}

func newObservable[S any](initial S) *Observable[S] {
	return &Observable[S]{state: initial}
}

func (o *Observable[S]) Get() S {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Observe calls fn with the current value right away and then on every change.
// The returned func stops delivery.
func (o *Observable[S]) Observe(fn func(S)) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return func() {}
	}
	o.nextID++
	id := o.nextID
	o.observers = append(o.observers, observer[S]{id: id, fn: fn})
	fn(o.state)
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, ob := range o.observers {
			if ob.id == id {
				o.observers = append(o.observers[:i:i], o.observers[i+1:]...)
				return
			}
		}
	}
}

func (o *Observable[S]) set(s S) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.state = s
	for _, ob := range o.observers {
		ob.fn(s)
	}
}

// update applies f to the current value atomically; ok=false leaves it as is.
func (o *Observable[S]) update(f func(S) (S, bool)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	next, ok := f(o.state)
	if !ok {
		return false
	}
	o.state = next
	for _, ob := range o.observers {
		ob.fn(next)
	}
	return true
}

// close drops every observer; later changes are ignored.
func (o *Observable[S]) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.observers = nil
}
