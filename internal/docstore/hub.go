package docstore

import (
	"context"
	"sync"
)

type loadFunc func(ctx context.Context, q Query) ([]Document, error)

// hub keeps the listeners of one store. publishMu serialises load+enqueue so
// every registration sees snapshots that never go back in time.
type hub struct {
	load loadFunc

	publishMu sync.Mutex

	mu     sync.Mutex
	regs   map[string]map[*registration]struct{}
	closed bool
}

func newHub(load loadFunc) *hub {
	return &hub{load: load, regs: make(map[string]map[*registration]struct{})}
}

func (h *hub) listen(ctx context.Context, q Query, onSnapshot func(Snapshot), onError func(error)) (Registration, error) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	docs, err := h.load(ctx, q)
	if err != nil {
		return nil, err
	}

	r := &registration{
		hub:        h,
		query:      q,
		onSnapshot: onSnapshot,
		onError:    onError,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	h.mu.Lock()
	// close may have run while the collection was loading
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	set, ok := h.regs[q.Collection]
	if !ok {
		set = make(map[*registration]struct{})
		h.regs[q.Collection] = set
	}
	set[r] = struct{}{}
	h.mu.Unlock()

	r.push(event{snap: Snapshot{Documents: docs}})
	go r.run()
	return r, nil
}

// publish reloads the collection once per distinct query and queues the
// snapshot for every registration listening to it.
func (h *hub) publish(ctx context.Context, collection string) {
	ctx = context.WithoutCancel(ctx)

	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.Lock()
	regs := make([]*registration, 0, len(h.regs[collection]))
	for r := range h.regs[collection] {
		regs = append(regs, r)
	}
	h.mu.Unlock()

	type result struct {
		docs []Document
		err  error
	}
	loaded := make(map[Query]result)
	for _, r := range regs {
		res, ok := loaded[r.query]
		if !ok {
			docs, err := h.load(ctx, r.query)
			res = result{docs: docs, err: err}
			loaded[r.query] = res
		}
		if res.err != nil {
			h.drop(r)
			r.push(event{err: res.err})
			continue
		}
		r.push(event{snap: Snapshot{Documents: res.docs}})
	}
}

func (h *hub) drop(r *registration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.regs[r.query.Collection]; ok {
		delete(set, r)
		if len(set) == 0 {
			delete(h.regs, r.query.Collection)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	h.closed = true
	var all []*registration
	for _, set := range h.regs {
		for r := range set {
			all = append(all, r)
		}
	}
	h.mu.Unlock()
	for _, r := range all {
		r.Remove()
	}
}

type event struct {
	snap Snapshot
	err  error
}

type registration struct {
	hub        *hub
	query      Query
	onSnapshot func(Snapshot)
	onError    func(error)

	mu    sync.Mutex
	queue []event

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func (r *registration) push(e event) {
	r.mu.Lock()
	r.queue = append(r.queue, e)
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *registration) next() (event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return event{}, false
	}
	e := r.queue[0]
	r.queue[0] = event{}
	r.queue = r.queue[1:]
	return e, true
}

func (r *registration) run() {
	for {
		select {
		case <-r.done:
			return
		case <-r.wake:
		}
		for {
			e, ok := r.next()
			if !ok {
				break
			}
			select {
			case <-r.done:
				return
			default:
			}
			if e.err != nil {
				if r.onError != nil {
					r.onError(e.err)
				}
				r.Remove()
				return
			}
			if r.onSnapshot != nil {
				r.onSnapshot(e.snap)
			}
		}
	}
}

func (r *registration) Remove() {
	r.once.Do(func() {
		close(r.done)
		r.hub.drop(r)
	})
}
