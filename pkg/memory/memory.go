// Package memory implements Ember's heap: a reference-counted, non-tracing
// allocator that hands out address-stable slots for pkg/object.Object values.
//
// The design is grounded in the commented-out VecRefCellMemory design found
// in the original implementation's memory module, not its active
// pointer-based allocator: that design used Box::leak and raw-pointer
// dereferencing, which has no safe idiomatic Go translation. Go already gives
// pointer stability for heap values, so a slice of *object.Object (not inline
// structs) plus a parallel slot table (valid/const flags) reproduces the
// same invariants — address stability across growth, LIFO slot reuse after
// deallocation, fatal use-after-free/double-free detection — without unsafe
// code.
package memory

import (
	"fmt"

	"github.com/emberlang/ember/pkg/object"
)

type slot struct {
	obj     *object.Object
	valid   bool
	isConst bool
}

// Heap is Ember's allocator. The zero value is not usable; call New.
type Heap struct {
	slots []slot
	free  []object.Address // LIFO stack of indexes ready for reuse
}

// New returns an empty heap. Address 0 is reserved as the null address and
// is never handed out by Alloc.
func New() *Heap {
	h := &Heap{}
	h.slots = append(h.slots, slot{}) // reserve address 0
	return h
}

// NullAddress is never a valid allocated address.
const NullAddress object.Address = 0

// Alloc stores obj and returns its address, preferring to reuse the most
// recently deallocated slot (LIFO) before growing the backing slice.
func (h *Heap) Alloc(obj *object.Object) object.Address {
	if n := len(h.free); n > 0 {
		addr := h.free[n-1]
		h.free = h.free[:n-1]
		s := &h.slots[addr]
		if s.valid {
			panic(fmt.Sprintf("memory: attempt to allocate onto already occupied address %d", addr))
		}
		s.obj = obj
		s.valid = true
		s.isConst = false
		return addr
	}
	h.slots = append(h.slots, slot{obj: obj, valid: true})
	return object.Address(len(h.slots) - 1)
}

// Get returns the live object at addr, panicking on a null, freed, or
// out-of-range address — reads from invalid memory are a fatal invariant
// violation, not a recoverable error, matching the original's panic-on-access
// semantics for non-valid cells.
func (h *Heap) Get(addr object.Address) *object.Object {
	if addr == NullAddress || int(addr) >= len(h.slots) {
		panic(fmt.Sprintf("memory: attempt to read from non-valid memory address %d", addr))
	}
	s := &h.slots[addr]
	if !s.valid {
		panic(fmt.Sprintf("memory: attempt to read from non-valid memory address %d", addr))
	}
	return s.obj
}

// MakeConst marks addr as immortal: Deallocate becomes a no-op for it, and
// refcount increments/decrements against it are no-ops too (see pkg/vm's
// IncRef/DecRef), so types, modules, and singletons never get collected.
func (h *Heap) MakeConst(addr object.Address) {
	if addr == NullAddress || int(addr) >= len(h.slots) {
		panic(fmt.Sprintf("memory: attempt to make non-valid memory address %d const", addr))
	}
	h.slots[addr].isConst = true
}

// IsConst reports whether addr was marked const via MakeConst.
func (h *Heap) IsConst(addr object.Address) bool {
	if addr == NullAddress || int(addr) >= len(h.slots) {
		return false
	}
	return h.slots[addr].isConst
}

// Deallocate frees addr's slot for reuse. It is a no-op for const addresses.
// Deallocating an already-freed (or never-allocated) address is a fatal
// double-free.
func (h *Heap) Deallocate(addr object.Address) {
	if addr == NullAddress || int(addr) >= len(h.slots) {
		panic(fmt.Sprintf("memory: attempt to deallocate non-valid memory address %d", addr))
	}
	s := &h.slots[addr]
	if s.isConst {
		return
	}
	if !s.valid {
		panic(fmt.Sprintf("memory: attempt to deallocate already invalid memory address %d", addr))
	}
	s.valid = false
	s.obj = nil
	h.free = append(h.free, addr)
}

// Stats reports live/freed slot counts for the debugger's humanize-formatted
// `stats` command.
type Stats struct {
	LiveObjects int
	FreedSlots  int
	TotalSlots  int
}

func (h *Heap) Stats() Stats {
	live := 0
	for i := 1; i < len(h.slots); i++ {
		if h.slots[i].valid {
			live++
		}
	}
	return Stats{LiveObjects: live, FreedSlots: len(h.free), TotalSlots: len(h.slots) - 1}
}
