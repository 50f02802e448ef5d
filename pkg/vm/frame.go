package vm

import "github.com/emberlang/ember/pkg/object"

// Frame is one call's activation record: a dense, compiler-numbered locals
// array, an evaluation stack of borrowed addresses, a program counter, and a
// single exception slot. There is no general try/except machinery — ForIter
// is the only opcode that ever inspects and clears a popped frame's
// exception field, matching the language's simple propagation model.
type Frame struct {
	code      *object.CodeObject
	locals    []Address
	stack     []Address
	pc        int
	exception Address
}

// newFrame builds a frame for code bound to args, sizing the locals array
// to the code object's declared slot count. It does not touch refcounts:
// runUserFunction retains (IncRef) each argument it binds here, since the
// frame then owns a reference to it.
func newFrame(code *object.CodeObject, args []Address) *Frame {
	f := &Frame{code: code, locals: make([]Address, code.Raw.NumLocals)}
	for i, a := range args {
		if i >= len(f.locals) {
			break
		}
		f.locals[i] = a
	}
	return f
}

// bindLocal grows the locals array on first use of a slot past its current
// length, matching the original's "bind_local" null-padding growth — the
// compiler numbers locals densely but a frame may be entered with fewer
// slots populated than the code object ultimately uses (e.g. a local first
// assigned inside a conditional branch).
func (f *Frame) bindLocal(slot int, addr Address) {
	for slot >= len(f.locals) {
		f.locals = append(f.locals, NullAddress)
	}
	f.locals[slot] = addr
}

func (f *Frame) push(addr Address) {
	f.stack = append(f.stack, addr)
}

func (f *Frame) pop() Address {
	n := len(f.stack)
	addr := f.stack[n-1]
	f.stack = f.stack[:n-1]
	return addr
}

func (f *Frame) top() Address {
	return f.stack[len(f.stack)-1]
}
