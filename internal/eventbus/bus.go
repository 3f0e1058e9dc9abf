// Package eventbus fans scheduling events out to background consumers
// (metrics, notifications, the booking journal).
//
// Publish never blocks. A subscription made with Subscribe or
// SubscribeBuffered is lossy: when its buffer is full the event is skipped
// and counted in Dropped. A subscription made with SubscribeQueued keeps an
// unbounded backlog instead and receives every event published before the
// bus closes, in order.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the channel capacity used by Subscribe.
const DefaultBuffer = 8

// Bus is a type-safe publish/subscribe bus for events of type T.
type Bus[T any] struct {
	mu      sync.RWMutex
	subs    []*subscriber[T]
	closed  bool
	dropped atomic.Uint64
}

// New creates an empty bus.
func New[T any]() *Bus[T] { return &Bus[T]{} }

// Publish hands the event to every subscriber without blocking.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if !s.deliver(e) {
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a lossy subscriber with the default buffer.
func (b *Bus[T]) Subscribe() <-chan T { return b.SubscribeBuffered(DefaultBuffer) }

// SubscribeBuffered registers a lossy subscriber whose channel holds up to n
// pending events.
func (b *Bus[T]) SubscribeBuffered(n int) <-chan T {
	if n < 1 {
		n = 1
	}
	return b.add(&subscriber[T]{out: make(chan T, n)})
}

// SubscribeQueued registers a subscriber that never misses an event. Events
// wait in a per-subscriber queue until the consumer reads them. After Close
// the queue is drained before the channel closes; after Unsubscribe the
// backlog is discarded.
func (b *Bus[T]) SubscribeQueued() <-chan T {
	s := &subscriber[T]{
		out:    make(chan T, DefaultBuffer),
		queued: true,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	go s.pump()
	return b.add(s)
}

func (b *Bus[T]) add(s *subscriber[T]) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.finish()
	} else {
		b.subs = append(b.subs, s)
	}
	return s.out
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.out == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			s.cancel()
			return
		}
	}
}

// Dropped reports how many deliveries lossy subscribers missed because
// their buffer was full.
func (b *Bus[T]) Dropped() uint64 { return b.dropped.Load() }

// Close stops publishing and closes every subscriber channel once queued
// subscribers have received their backlog.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		s.finish()
	}
	b.subs = nil
}

type subscriber[T any] struct {
	out    chan T
	queued bool

	// queued subscribers only
	mu      sync.Mutex
	backlog []T
	closing bool
	wake    chan struct{}
	stop    chan struct{}
}

func (s *subscriber[T]) deliver(e T) bool {
	if !s.queued {
		select {
		case s.out <- e:
			return true
		default:
			return false
		}
	}
	s.mu.Lock()
	s.backlog = append(s.backlog, e)
	s.mu.Unlock()
	s.signal()
	return true
}

func (s *subscriber[T]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// finish ends the subscription when the bus closes.
func (s *subscriber[T]) finish() {
	if !s.queued {
		close(s.out)
		return
	}
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.signal()
}

// cancel ends the subscription on Unsubscribe.
func (s *subscriber[T]) cancel() {
	if !s.queued {
		close(s.out)
		return
	}
	close(s.stop)
}

// pump moves the backlog to out. It owns out for queued subscribers.
func (s *subscriber[T]) pump() {
	defer close(s.out)
	var zero T
	for {
		s.mu.Lock()
		if len(s.backlog) == 0 {
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return
			}
			select {
			case <-s.wake:
			case <-s.stop:
				return
			}
			continue
		}
		e := s.backlog[0]
		s.backlog[0] = zero
		s.backlog = s.backlog[1:]
		s.mu.Unlock()
		select {
		case s.out <- e:
		case <-s.stop:
			return
		}
	}
}
