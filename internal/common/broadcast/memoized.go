package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Recv once the subscription or its channel is closed.
var ErrClosed = errors.New("broadcast: closed")

const defaultBuffer = 64

// Memoized is a single producer, many consumer channel that replays every
// message ever sent to new subscribers before the live tail.
type Memoized[T any] struct {
	mu      sync.RWMutex
	history []T
	subs    map[*Subscription[T]]struct{}
	closed  bool
}

func NewMemoized[T any]() *Memoized[T] {
	return &Memoized[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Send records v and offers it to every subscriber. A subscriber whose live
// buffer is full loses v.
func (m *Memoized[T]) Send(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.history = append(m.history, v)
	for sub := range m.subs {
		select {
		case sub.live <- v:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscribe snapshots the history and attaches a live tail with the given
// buffer size.
func (m *Memoized[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &Subscription[T]{
		parent:  m,
		backlog: append([]T(nil), m.history...),
		live:    make(chan T, buffer),
	}
	if m.closed {
		close(sub.live)
		sub.done = true
		return sub
	}
	m.subs[sub] = struct{}{}
	return sub
}

// History returns a copy of every message sent so far.
func (m *Memoized[T]) History() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]T(nil), m.history...)
}

// Len is the number of messages sent so far.
func (m *Memoized[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history)
}

// Subscribers is the number of attached subscriptions.
func (m *Memoized[T]) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// Close detaches every subscriber. Pending live messages can still be read.
func (m *Memoized[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for sub := range m.subs {
		sub.detach()
	}
	clear(m.subs)
}

// Subscription reads the history snapshot, then the live tail.
// A Subscription is meant for a single reader.
type Subscription[T any] struct {
	parent  *Memoized[T]
	backlog []T
	live    chan T
	dropped atomic.Uint64
	done    bool
}

// Recv returns the next message, waiting for the live tail when the
// snapshot is drained.
func (s *Subscription[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	if len(s.backlog) > 0 {
		v := s.backlog[0]
		s.backlog = s.backlog[1:]
		return v, nil
	}
	select {
	case v, ok := <-s.live:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Dropped counts live messages lost because the buffer was full.
func (s *Subscription[T]) Dropped() uint64 {
	return s.dropped.Load()
}

// Close detaches the subscription from its channel.
func (s *Subscription[T]) Close() {
	m := s.parent
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[s]; ok {
		delete(m.subs, s)
		s.detach()
	}
}

// detach must run with the parent lock held.
func (s *Subscription[T]) detach() {
	if !s.done {
		s.done = true
		close(s.live)
	}
}
