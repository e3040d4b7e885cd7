// Package ringbuf implements fixed-capacity rolling windows used for
// episode statistics
package ringbuf

import "fmt"

// Bool is a fixed-capacity circular buffer of booleans. Once the
// buffer is full, pushing a new value evicts the oldest one. The main
// use is tracking the most recent episode outcomes (success, timeout,
// collision) over a rolling window.
type Bool struct {
	data []bool
	head int
	size int
}

// NewBool creates and returns a new Bool buffer with the given
// capacity. The capacity must be positive.
func NewBool(capacity int) *Bool {
	if capacity <= 0 {
		panic(fmt.Sprintf("newBool: capacity must be positive, got %v",
			capacity))
	}
	return &Bool{data: make([]bool, capacity)}
}

// Push adds a value to the buffer, evicting the oldest value if the
// buffer is at capacity
func (b *Bool) Push(v bool) {
	b.data[b.head] = v
	b.head = (b.head + 1) % len(b.data)
	if b.size < len(b.data) {
		b.size++
	}
}

// Len returns the number of values currently held, which is never
// larger than the capacity
func (b *Bool) Len() int {
	return b.size
}

// Cap returns the buffer capacity
func (b *Bool) Cap() int {
	return len(b.data)
}

// Rate returns the fraction of held values that are true. An empty
// buffer has a rate of 0.
func (b *Bool) Rate() float64 {
	if b.size == 0 {
		return 0
	}
	count := 0
	for i := 0; i < b.size; i++ {
		idx := (b.head - b.size + i + len(b.data)) % len(b.data)
		if b.data[idx] {
			count++
		}
	}
	return float64(count) / float64(b.size)
}
