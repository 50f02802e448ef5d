package vm

import (
	"fmt"
	"math/big"

	"github.com/emberlang/ember/pkg/object"
)

// IncRef bumps addr's refcount. A no-op on the null address or on any
// const/immortal object (types, modules, functions, code objects, and the
// None/NotImplemented/StopIteration singletons never need collecting).
func (vm *VM) IncRef(addr Address) {
	if addr == NullAddress || vm.Heap.IsConst(addr) {
		return
	}
	vm.Heap.Get(addr).Refcount++
}

// DecRef drops addr's refcount, deallocating it once it reaches zero. A
// no-op on the null address or on any const object.
func (vm *VM) DecRef(addr Address) {
	if addr == NullAddress || vm.Heap.IsConst(addr) {
		return
	}
	o := vm.Heap.Get(addr)
	o.Refcount--
	if o.Refcount <= 0 {
		vm.Heap.Deallocate(addr)
	}
}

// resolveMethod walks a type's own method table, then recurses into its one
// supertype, mirroring single-inheritance method resolution order.
func (vm *VM) resolveMethod(typeAddr Address, name string) (Address, bool) {
	for typeAddr != NullAddress {
		t := vm.Heap.Get(typeAddr)
		if t.TypeVal == nil {
			return NullAddress, false
		}
		if addr, ok := t.TypeVal.Methods[name]; ok {
			return addr, true
		}
		typeAddr = t.TypeVal.Super
	}
	return NullAddress, false
}

// ResolveMethod exposes resolveMethod for pkg/builtins, which needs to probe
// whether a type defines a dunder before calling it (e.g. bool's __and__
// coercion fallback checks for __bool__ then __len__ before giving up).
func (vm *VM) ResolveMethod(typeAddr Address, name string) (Address, bool) {
	return vm.resolveMethod(typeAddr, name)
}

// CallMethod resolves name on receiver's type (walking the supertype chain)
// and invokes it bound to receiver. Returns the None address if no such
// method exists anywhere in the chain — callers that need to distinguish
// "returned None" from "method missing" should resolveMethod themselves.
func (vm *VM) CallMethod(receiver Address, name string, args []Address) Address {
	recv := vm.Heap.Get(receiver)
	fn, ok := vm.resolveMethod(recv.TypeAddr, name)
	if !ok {
		return vm.NoneAddr
	}
	return vm.RunFunction(args, fn, &receiver)
}

// RunFunction is the central callable dispatch: it inspects callee's
// structural Kind and invokes it the right way for that shape. bound, when
// non-nil, is the receiver a BoundMethod or CallMethod curried in; it is
// consumed differently depending on callee's kind.
func (vm *VM) RunFunction(args []Address, callee Address, bound *Address) Address {
	fn := vm.Heap.Get(callee)
	switch fn.Kind {
	case object.KindNativeCallable:
		callArgs := args
		if fn.NativeBound {
			if bound == nil {
				panic("vm: bound native callable invoked without a receiver")
			}
			callArgs = prepend(*bound, args)
		}
		return fn.NativeVal(vm, callArgs)

	case object.KindUserFunction:
		callArgs := args
		if bound != nil {
			callArgs = prepend(*bound, args)
		}
		return vm.runUserFunction(fn.UserFuncVal, callArgs)

	case object.KindBoundMethod:
		bm := fn.BoundVal
		return vm.RunFunction(args, bm.Func, &bm.Receiver)

	case object.KindType:
		newFn, ok := vm.resolveMethod(callee, "__new__")
		if !ok {
			panic(fmt.Sprintf("vm: type %q has no __new__", vm.TypeNameOf(callee)))
		}
		return vm.RunFunction(args, newFn, nil)

	default:
		panic(fmt.Sprintf("vm: address %d (kind %s) is not callable", callee, fn.Kind))
	}
}

func prepend(first Address, rest []Address) []Address {
	out := make([]Address, 0, len(rest)+1)
	out = append(out, first)
	out = append(out, rest...)
	return out
}

// runUserFunction validates arity (filling missing trailing positionals from
// the tail of fn.Code.Raw.Defaults, matched right-to-left against the
// formals, per the original's default-fill semantics) and executes the
// function's code object in a fresh frame, retaining (IncRef) each argument
// it binds there.
func (vm *VM) runUserFunction(fn *object.UserFunction, args []Address) Address {
	code := fn.Code
	params := code.Raw.ParamNames
	arity := len(params)
	defaults := code.Raw.Defaults

	if len(args) > arity {
		panic(fmt.Sprintf("vm: %s() takes %d arguments but %d were given", code.Raw.QualName, arity, len(args)))
	}
	if missing := arity - len(args); missing > 0 {
		if missing > len(defaults) {
			panic(fmt.Sprintf("vm: %s() missing %d required positional arguments", code.Raw.QualName, missing-len(defaults)))
		}
		fill := defaults[len(defaults)-missing:]
		filled := make([]Address, 0, arity)
		filled = append(filled, args...)
		for _, d := range fill {
			filled = append(filled, vm.materializeConst(d))
		}
		args = filled
	}

	frame := newFrame(code, args)
	for _, a := range args {
		vm.IncRef(a)
	}
	return vm.execFrame(frame)
}

// materializeConst allocates a fresh heap value for a raw Go default value
// stored in a CodeObject's Defaults list (the compiler stores these as plain
// Go literals, not pre-allocated addresses, since a default is evaluated
// once per call in a reference implementation; Ember's simple literal
// defaults make a fresh allocation per missing-arg fill equally correct and
// far simpler).
func (vm *VM) materializeConst(v any) Address {
	switch val := v.(type) {
	case int64:
		return vm.AllocBuiltin(vm.IntType, object.BuiltinInt, object.NewBigInt(val))
	case *big.Int:
		return vm.AllocBuiltin(vm.IntType, object.BuiltinInt, object.BigInt{V: val})
	case float64:
		return vm.AllocBuiltin(vm.FloatType, object.BuiltinFloat, object.NewFloatVal(val))
	case string:
		return vm.AllocBuiltin(vm.StrType, object.BuiltinString, val)
	case bool:
		if val {
			return vm.TrueAddr
		}
		return vm.FalseAddr
	case nil:
		return vm.NoneAddr
	default:
		panic(fmt.Sprintf("vm: unsupported default value type %T", v))
	}
}

// AllocBuiltin allocates a fresh KindBuiltin object carrying payload,
// satisfying object.Runtime so native functions can construct results
// without reaching into pkg/object's internals.
func (vm *VM) AllocBuiltin(typeAddr Address, kind object.BuiltinKind, payload any) Address {
	o := object.NewObject(object.KindBuiltin, typeAddr)
	o.Builtin = kind
	switch kind {
	case object.BuiltinInt:
		o.IntVal = payload.(object.BigInt)
	case object.BuiltinFloat:
		o.FloatVal = payload.(object.FloatVal)
	case object.BuiltinString:
		o.StringVal = payload.(string)
	case object.BuiltinList:
		o.ListVal = payload.([]Address)
	case object.BuiltinClassInstance:
		// no payload; state lives entirely in Properties.
	case object.BuiltinCodeObject:
		o.CodeVal = payload.(*object.CodeObject)
	default:
		panic(fmt.Sprintf("vm: unknown builtin kind %d", kind))
	}
	return vm.Heap.Alloc(o)
}

// HasPendingException reports whether a Raise is currently propagating.
// Native functions that themselves invoke other callables (e.g. list()'s
// __new__ draining an iterator) use this to notice a callee raised without
// needing their own try/except machinery, which this language doesn't have.
func (vm *VM) HasPendingException() bool {
	return vm.pendingException != NullAddress
}

// ClearIfStopIteration is the native-function equivalent of ForIter's catch:
// if the pending exception's type is StopIteration, it clears the VM's and
// current frame's exception registers and returns true; otherwise it leaves
// the exception propagating (the caller should return immediately so the
// interpreter loop unwinds) and returns false.
func (vm *VM) ClearIfStopIteration() bool {
	if vm.pendingException == NullAddress {
		return false
	}
	if vm.Heap.Get(vm.pendingException).TypeAddr != vm.StopIterationType {
		return false
	}
	vm.pendingException = NullAddress
	if n := len(vm.callStack); n > 0 {
		vm.callStack[n-1].exception = NullAddress
	}
	return true
}

// Raise records exception as the current frame's pending exception and as
// the VM's in-flight exception register, which execFrame consults after
// every instruction capable of invoking other code. Per the language's
// simple exception model there's only one field-based slot per frame and no
// general try/except; this is invoked by native functions that need to
// signal a failure (e.g. list index out of range) the same way the Raise
// opcode does.
func (vm *VM) Raise(exception Address) {
	if len(vm.callStack) == 0 {
		panic(fmt.Sprintf("vm: uncaught exception with no active frame: %d", exception))
	}
	vm.callStack[len(vm.callStack)-1].exception = exception
	vm.pendingException = exception
}
