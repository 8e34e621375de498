package repository

import (
	"context"
	"sync"
)

// Broadcaster fans the latest snapshot out to subscribers. Each subscriber
// holds at most one pending value; a newer publish replaces an unread one,
// so publishing never blocks.
type Broadcaster[T any] struct {
	clone func(T) T

	mu      sync.Mutex
	current T
	has     bool
	subs    map[*Subscription[T]]struct{}
	closed  bool
}

// Subscription receives snapshots on C until closed.
type Subscription[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
	b    *Broadcaster[T]
}

// NewBroadcaster returns a Broadcaster that hands each subscriber its own
// copy made by clone. A nil clone delivers values as published.
func NewBroadcaster[T any](clone func(T) T) *Broadcaster[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Broadcaster[T]{clone: clone, subs: make(map[*Subscription[T]]struct{})}
}

// Subscribe registers a subscriber that first sees the current snapshot,
// if there is one. It ends when ctx is done, Close is called, or the
// broadcaster closes.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) *Subscription[T] {
	s, _ := b.subscribe(ctx)
	return s
}

// subscribe also reports whether the broadcaster lacks a current snapshot,
// checked atomically with registration.
func (b *Broadcaster[T]) subscribe(ctx context.Context) (*Subscription[T], bool) {
	s := &Subscription[T]{ch: make(chan T, 1), done: make(chan struct{}), b: b}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.once.Do(s.finish)
		return s, false
	}
	b.subs[s] = struct{}{}
	if b.has {
		s.ch <- b.clone(b.current)
	}
	stale := !b.has
	b.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.Close()
			case <-s.done:
			}
		}()
	}
	return s, stale
}

// Publish makes v the current snapshot and offers it to every subscriber.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.current = v
	b.has = true
	for s := range b.subs {
		// senders hold b.mu, so after one drain the send cannot block
		select {
		case <-s.ch:
		default:
		}
		s.ch <- b.clone(v)
	}
}

// invalidate drops the current snapshot when nobody is listening and
// reports whether a refresh is wanted.
func (b *Broadcaster[T]) invalidate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		var zero T
		b.current, b.has = zero, false
		return false
	}
	return !b.closed
}

// Len returns the number of live subscriptions.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later subscriptions start closed.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*Subscription[T]]struct{})
	b.mu.Unlock()

	for s := range subs {
		s.once.Do(s.finish)
	}
}

// C delivers snapshots. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.b.mu.Lock()
	delete(s.b.subs, s)
	s.b.mu.Unlock()
	s.once.Do(s.finish)
}

func (s *Subscription[T]) finish() {
	// Publish holds b.mu while sending; take it so close cannot race a send
	s.b.mu.Lock()
	close(s.ch)
	s.b.mu.Unlock()
	close(s.done)
}
