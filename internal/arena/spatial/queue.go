package spatial

import "sync/atomic"

// CacheLineSize is the typical CPU cache line size (64 bytes on x86-64).
const CacheLineSize = 64

// padding prevents the producer- and consumer-owned fields below from
// sharing a cache line (false sharing).
type padding [CacheLineSize]byte

// SPSCQueue is a single-producer, single-consumer ring buffer: one
// goroutine TryPushes, a different single goroutine TryPops/Peeks/Drops. This
// matches the engine's concurrency model exactly — the client port
// goroutine is the sole producer of direction inputs, the tick goroutine is
// the sole consumer — so no CAS is needed on either side, just plain atomic
// loads/stores.
type SPSCQueue[T any] struct {
	_pad0 padding
	head  uint64 // next write slot (producer-owned)
	_pad1 padding
	tail  uint64 // next read slot (consumer-owned)
	_pad2 padding
	mask  uint64
	data  []T
}

// NewSPSCQueue creates a queue with capacity rounded up to the next power of two.
func NewSPSCQueue[T any](capacity int) *SPSCQueue[T] {
	c := 1
	for c < capacity {
		c <<= 1
	}

	return &SPSCQueue[T]{
		mask: uint64(c - 1),
		data: make([]T, c),
	}
}

// TryPush adds an item. Producer-only. Returns false if the queue is full.
func (q *SPSCQueue[T]) TryPush(item T) bool {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)

	if head-tail > q.mask {
		return false
	}

	q.data[head&q.mask] = item
	atomic.StoreUint64(&q.head, head+1)
	return true
}

// TryPop removes the oldest item. Consumer-only. Returns (zero, false) if empty.
func (q *SPSCQueue[T]) TryPop() (T, bool) {
	var zero T
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)

	if tail >= head {
		return zero, false
	}

	item := q.data[tail&q.mask]
	atomic.StoreUint64(&q.tail, tail+1)
	return item, true
}

// Peek returns the oldest item without removing it. Consumer-only.
func (q *SPSCQueue[T]) Peek() (T, bool) {
	var zero T
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)

	if tail >= head {
		return zero, false
	}
	return q.data[tail&q.mask], true
}

// Drop discards the oldest item without inspecting it. Consumer-only.
// Returns false if the queue was already empty.
func (q *SPSCQueue[T]) Drop() bool {
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)
	if tail >= head {
		return false
	}
	atomic.StoreUint64(&q.tail, tail+1)
	return true
}

// Len returns the approximate number of queued items. Safe from either side.
func (q *SPSCQueue[T]) Len() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if head < tail {
		return 0
	}
	return int(head - tail)
}
