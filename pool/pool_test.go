package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_AllocateAndFree(t *testing.T) {
	p := New[[4]byte](4)
	assert.Equal(t, 4, p.Cap())
	assert.Equal(t, 4, p.FreeSlots())

	_, i0 := p.Allocate()
	_, i1 := p.Allocate()
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 2, p.FreeSlots())

	p.Free(i0)
	p.Free(i1)
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 4, p.FreeSlots())
}

func TestAllocator_ExhaustionPanics(t *testing.T) {
	p := New[int](2)
	p.Allocate()
	p.Allocate()
	assert.Panics(t, func() { p.Allocate() })
}

func TestAllocator_ZeroesOnAllocate(t *testing.T) {
	p := New[[8]byte](1)
	elem, idx := p.Allocate()
	elem[0] = 0xFF
	p.Free(idx)

	elem2, idx2 := p.Allocate()
	require.Equal(t, idx, idx2)
	assert.Equal(t, byte(0), elem2[0])
}

func TestAllocator_AssertDrained(t *testing.T) {
	p := New[int](1)
	assert.NotPanics(t, func() { p.AssertDrained() })

	_, idx := p.Allocate()
	assert.Panics(t, func() { p.AssertDrained() })
	p.Free(idx)
	assert.NotPanics(t, func() { p.AssertDrained() })
}
