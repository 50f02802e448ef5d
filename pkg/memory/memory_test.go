package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/memory"
	"github.com/emberlang/ember/pkg/object"
)

func TestAllocAddressStability(t *testing.T) {
	h := memory.New()
	a := h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	for i := 0; i < 100; i++ {
		h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	}
	require.NotPanics(t, func() { h.Get(a) })
}

func TestDeallocateThenReuseIsLIFO(t *testing.T) {
	h := memory.New()
	a := h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	b := h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	h.Deallocate(a)
	h.Deallocate(b)
	reused := h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	assert.Equal(t, b, reused)
}

func TestConstDeallocateIsNoop(t *testing.T) {
	h := memory.New()
	a := h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	h.MakeConst(a)
	h.Deallocate(a)
	assert.NotPanics(t, func() { h.Get(a) })
}

func TestDoubleFreeIsFatal(t *testing.T) {
	h := memory.New()
	a := h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	h.Deallocate(a)
	assert.Panics(t, func() { h.Deallocate(a) })
}

func TestUseAfterFreeIsFatal(t *testing.T) {
	h := memory.New()
	a := h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	h.Deallocate(a)
	assert.Panics(t, func() { h.Get(a) })
}

func TestNullAddressIsNeverValid(t *testing.T) {
	h := memory.New()
	assert.Panics(t, func() { h.Get(memory.NullAddress) })
}

func TestStats(t *testing.T) {
	h := memory.New()
	a := h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	h.Alloc(object.NewObject(object.KindNone, memory.NullAddress))
	h.Deallocate(a)
	stats := h.Stats()
	assert.Equal(t, 1, stats.LiveObjects)
	assert.Equal(t, 1, stats.FreedSlots)
}
