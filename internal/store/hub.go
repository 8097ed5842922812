package store

import "sync"

// Hub fans change notifications out to snapshot subscribers. Each subscriber
// is scoped to one (collection, identity) pair and owns a push func that
// reloads its snapshot and invokes the consumer callback.
//
// Delivery ordering relative to the mutation that triggered it is not
// guaranteed; consumers treat every snapshot as a full replacement.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[int64]*hubSub
	next int64
}

type hubSub struct {
	mu     sync.Mutex
	closed bool
	push   func()
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int64]*hubSub)}
}

// Subscribe registers a push func and delivers the initial snapshot before
// returning. The returned Unsubscribe blocks until any in-flight delivery to
// this subscriber finishes, so no snapshot arrives after it returns.
func (h *Hub) Subscribe(collection, identity string, push func()) Unsubscribe {
	sub := &hubSub{push: push}
	key := collection + "/" + identity

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[int64]*hubSub)
	}
	h.next++
	id := h.next
	h.subs[key][id] = sub
	h.mu.Unlock()

	sub.deliver()

	return func() {
		h.mu.Lock()
		delete(h.subs[key], id)
		h.mu.Unlock()

		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()
	}
}

// Notify schedules a fresh snapshot push to every subscriber of the
// identity's collection. Pushes run asynchronously so mutations never block
// on slow consumers.
func (h *Hub) Notify(collection, identity string) {
	key := collection + "/" + identity

	h.mu.Lock()
	targets := make([]*hubSub, 0, len(h.subs[key]))
	for _, sub := range h.subs[key] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		go sub.deliver()
	}
}

func (s *hubSub) deliver() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.push()
}
