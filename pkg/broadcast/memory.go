package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryBroadcaster is the in-process Broadcaster. Safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[uint64]*memorySubscriber[T]
	nextID      uint64
	bufferSize  int
	closed      bool
	dropped     atomic.Uint64
}

// NewMemoryBroadcaster creates a broadcaster whose subscribers buffer up to
// bufferSize messages. The buffer is at least 1.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		subscribers: make(map[uint64]*memorySubscriber[T]),
		bufferSize:  max(bufferSize, 1),
	}
}

func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &memorySubscriber[T]{
		id:     b.nextID,
		ch:     make(chan Message[T], b.bufferSize),
		stop:   make(chan struct{}),
		parent: b,
	}

	if b.closed {
		sub.closeChannel()
		return sub
	}

	b.subscribers[sub.id] = sub

	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				_ = sub.Close()
			case <-sub.stop:
			}
		}()
	}

	return sub
}

func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for _, sub := range b.subscribers {
		if !sub.offer(msg) {
			b.dropped.Add(1)
		}
	}
	return nil
}

func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for id, sub := range b.subscribers {
		sub.closeChannel()
		delete(b.subscribers, id)
	}
	return nil
}

// Len returns the number of live subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *MemoryBroadcaster[T]) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *MemoryBroadcaster[T]) remove(sub *memorySubscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub.id)
	sub.closeChannel()
}

type memorySubscriber[T any] struct {
	id     uint64
	ch     chan Message[T]
	parent *MemoryBroadcaster[T]

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
}

func (s *memorySubscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *memorySubscriber[T]) Close() error {
	s.parent.remove(s)
	return nil
}

// offer is called with the parent's read lock held.
func (s *memorySubscriber[T]) offer(msg Message[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

func (s *memorySubscriber[T]) closeChannel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	close(s.stop)
}
