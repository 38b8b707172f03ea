package events

import (
	"context"
	"expertconnect/pkg/model"
	"sync"
	"sync/atomic"
)

// Publisher delivers a slot event to observers. Implementations must not block
// the caller on slow observers.
type Publisher interface {
	Publish(ctx context.Context, ev model.ReservationEvent) error
}

// Bus fans events out to in-process subscribers. Each subscriber has its own
// bounded queue; when it is full the oldest queued event is discarded to make
// room. Events published before a subscription exist are never delivered to it.
type Bus struct {
	mu      sync.Mutex
	subs    map[uint64]*Subscription
	nextID  uint64
	closed  bool
	dropped atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

type Subscription struct {
	id      uint64
	bus     *Bus
	ch      chan model.ReservationEvent
	filter  func(model.ReservationEvent) bool
	dropped atomic.Uint64
	once    sync.Once
}

// Events is closed when the subscription or the bus is closed.
func (s *Subscription) Events() <-chan model.ReservationEvent {
	return s.ch
}

// Dropped reports how many events this subscriber lost to overflow.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) Close() {
	s.bus.Unsubscribe(s)
}

type SubscribeOption func(*Subscription)

// ForExpert limits a subscription to one expert's slots.
func ForExpert(expertID string) SubscribeOption {
	return func(s *Subscription) {
		if expertID == "" {
			return
		}
		s.filter = func(ev model.ReservationEvent) bool {
			return ev.ExpertID == expertID
		}
	}
}

// Subscribe registers an observer with a queue of buffer events (minimum 1).
func (b *Bus) Subscribe(buffer int, opts ...SubscribeOption) *Subscription {
	if buffer < 1 {
		buffer = 1
	}

	sub := &Subscription{
		bus: b,
		ch:  make(chan model.ReservationEvent, buffer),
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	return sub
}

func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; ok {
		delete(b.subs, sub.id)
	}
	sub.once.Do(func() { close(sub.ch) })
}

// Publish enqueues ev for every current subscriber and returns without waiting
// for any of them. Publishes are serialized, so every subscriber sees events in
// publish order.
func (b *Bus) Publish(_ context.Context, ev model.ReservationEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		b.deliver(sub, ev)
	}
	return nil
}

// deliver runs under b.mu. Only the subscriber drains its channel, so after
// one receive the send below always has room.
func (b *Bus) deliver(sub *Subscription, ev model.ReservationEvent) {
	select {
	case sub.ch <- ev:
		return
	default:
	}

	select {
	case <-sub.ch:
		sub.dropped.Add(1)
		b.dropped.Add(1)
	default:
	}

	select {
	case sub.ch <- ev:
	default:
		sub.dropped.Add(1)
		b.dropped.Add(1)
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped reports how many events were discarded across all subscribers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close ends every subscription. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
}
