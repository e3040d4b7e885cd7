package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoolLengthNeverExceedsCapacity(t *testing.T) {
	b := NewBool(25)

	for i := 0; i < 60; i++ {
		expected := i
		if expected > 25 {
			expected = 25
		}
		assert.Equal(t, expected, b.Len())
		b.Push(i%2 == 0)
	}
	assert.Equal(t, 25, b.Len())
	assert.Equal(t, 25, b.Cap())
}

func TestBoolEvictsOldestFirst(t *testing.T) {
	b := NewBool(3)
	b.Push(true)
	b.Push(false)
	b.Push(false)
	assert.InDelta(t, 1.0/3.0, b.Rate(), 1e-12)

	// The initial true should be evicted
	b.Push(false)
	assert.Equal(t, 0.0, b.Rate())

	b.Push(true)
	b.Push(true)
	assert.InDelta(t, 2.0/3.0, b.Rate(), 1e-12)
}

func TestBoolEmptyRate(t *testing.T) {
	b := NewBool(5)
	assert.Equal(t, 0.0, b.Rate())
	assert.Equal(t, 0, b.Len())
}

func TestBoolPanicsOnBadCapacity(t *testing.T) {
	assert.Panics(t, func() { NewBool(0) })
	assert.Panics(t, func() { NewBool(-1) })
}
