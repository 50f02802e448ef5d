// Package vm implements Ember's runtime: the type/module registry, the
// callable dispatch table (RunFunction/CallMethod), and the stack-based
// bytecode interpreter that executes compiled CodeObjects.
//
// The bootstrap sequence in New, the method-resolution order, and the
// callable dispatch shapes are grounded in the original implementation's
// runtime/vm.rs (VM::new, run_function, call_method); the interpreter loop's
// opcode handling is grounded in runtime/interpreter.rs. The surrounding
// frame/stack machinery and its doc-comment density follow the teacher's
// pkg/vm/vm.go (its VM struct, New(), and Run() loop shape).
package vm

import (
	"fmt"

	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/memory"
	"github.com/emberlang/ember/pkg/object"
)

// Address is re-exported for callers that only import pkg/vm.
type Address = object.Address

// NullAddress is never a valid allocated address.
const NullAddress = memory.NullAddress

// VM holds the heap, the type/module registry, and the call stack. It
// implements object.Runtime so native functions (pkg/builtins) can call back
// into dispatch without pkg/object importing pkg/vm.
type VM struct {
	Heap *memory.Heap

	// TypeAddr is the root "type" object: its own TypeAddr points to itself.
	TypeAddr Address
	// ModuleType is the type of Module objects.
	ModuleType Address
	// FunctionType is the shared type used for native callables, user
	// functions, and bound methods (none of these expose their own
	// user-visible type hierarchy beyond "is callable").
	FunctionType Address

	BuiltinModule Address
	MainModule    Address

	NoneAddr           Address
	NotImplementedAddr Address
	StopIterationAddr  Address
	NoneType           Address
	NotImplementedType Address
	StopIterationType  Address
	TrueAddr           Address
	FalseAddr          Address
	BoolType           Address
	IntType            Address
	FloatType          Address
	StrType            Address
	ListType           Address
	IndexErrorType     Address
	AttributeErrorType Address
	CodeObjectType     Address

	typesByName map[string]Address
	callStack   []*Frame
	debugger    *Debugger

	// pendingException is set by Raise and checked by execFrame after every
	// instruction that can invoke other code (CallFunction, IndexAccess,
	// ForIter's __next__ call, and the dunder fallback path of the binary/
	// compare opcodes). A frame's own exception field mirrors this at the
	// point Raise fires, but propagation itself is driven off this single
	// VM-wide register since a callee's Frame no longer exists once its
	// execFrame call returns.
	pendingException Address

	// moduleCode identifies the program's top-level code object so
	// MakeFunction/MakeClass know to mirror a definition into the main
	// module's globals in addition to binding it as a local of the frame
	// currently executing (which, for the top level, is the same frame).
	moduleCode *bytecode.CodeObject
}

// RunModule executes code as the program's top-level frame, wiring
// MakeFunction/MakeClass at that level through to the main module's
// globals. If an exception propagates all the way out of the program, it's
// surfaced as a *RuntimeError rather than silently discarded.
func (vm *VM) RunModule(code *object.CodeObject) (Address, *RuntimeError) {
	vm.moduleCode = code.Raw
	result := vm.execFrame(newFrame(code, nil))
	if vm.pendingException != NullAddress {
		exc := vm.pendingException
		vm.pendingException = NullAddress
		return NullAddress, vm.UncaughtException(exc)
	}
	return result, nil
}

// New builds a VM with its bootstrap object graph already in place: the root
// type, the module type, the builtin and main modules, the None/
// NotImplemented/StopIteration singletons, and the shared function type.
// The sequence matches the original's VM::new exactly, because later
// bootstrap steps (module creation) depend on the type object existing.
func New() *VM {
	vm := &VM{
		Heap:        memory.New(),
		typesByName: make(map[string]Address),
	}

	// 1. The root type: a Type object whose own TypeAddr is itself.
	rootType := object.NewObject(object.KindType, NullAddress)
	rootType.TypeVal = &object.TypeData{Name: "type", Super: NullAddress, Methods: map[string]Address{}, ClassVars: map[string]Address{}}
	vm.TypeAddr = vm.Heap.Alloc(rootType)
	rootType.TypeAddr = vm.TypeAddr
	vm.Heap.MakeConst(vm.TypeAddr)

	// 2. The module type.
	vm.ModuleType = vm.newType("module", NullAddress)

	// 3. The builtin and main modules.
	vm.BuiltinModule = vm.newModule("__builtin__")
	vm.MainModule = vm.newModule("__main__")

	// 4. None / NotImplemented / StopIteration: const types and const values.
	vm.NoneType = vm.newType("NoneType", NullAddress)
	vm.NoneAddr = vm.newSingleton(object.KindNone, vm.NoneType)

	vm.NotImplementedType = vm.newType("NotImplementedType", NullAddress)
	vm.NotImplementedAddr = vm.newSingleton(object.KindNotImplemented, vm.NotImplementedType)

	vm.StopIterationType = vm.newType("StopIteration", NullAddress)
	vm.StopIterationAddr = vm.newSingleton(object.KindStopIteration, vm.StopIterationType)

	// 5. The shared function (callable) type.
	vm.FunctionType = vm.newType("function", NullAddress)

	// 6. The type tagging a resolved CodeObject constant sitting in another
	// CodeObject's Consts pool, between MakeFunction/MakeClass popping it and
	// binding it. Never exposed as a module global; nothing calls methods on
	// one.
	vm.CodeObjectType = vm.newType("code", NullAddress)

	return vm
}

func (vm *VM) newType(name string, super Address) Address {
	t := object.NewObject(object.KindType, vm.TypeAddr)
	t.TypeVal = &object.TypeData{Name: name, Super: super, Methods: map[string]Address{}, ClassVars: map[string]Address{}}
	addr := vm.Heap.Alloc(t)
	vm.Heap.MakeConst(addr)
	vm.typesByName[name] = addr
	return addr
}

func (vm *VM) newModule(name string) Address {
	m := object.NewObject(object.KindModule, vm.ModuleType)
	m.ModuleVal = &object.ModuleData{Name: name, Globals: map[string]Address{}}
	addr := vm.Heap.Alloc(m)
	vm.Heap.MakeConst(addr)
	return addr
}

func (vm *VM) newSingleton(kind object.Kind, typeAddr Address) Address {
	o := object.NewObject(kind, typeAddr)
	addr := vm.Heap.Alloc(o)
	vm.Heap.MakeConst(addr)
	return addr
}

// CreateType registers a new named type in module, optionally with a
// supertype — the single-inheritance hook user classes and builtin types
// both go through (MakeClass calls this too).
func (vm *VM) CreateType(module Address, name string, super Address) Address {
	addr := vm.newType(name, super)
	vm.AddToModule(module, name, addr)
	return addr
}

// RegisterMethod installs a native Go function as a method named name on
// typeAddr. bound selects whether RunFunction should curry the receiver into
// args[0] (an instance method) or leave args untouched (a static/bootstrap
// helper like a type's __new__).
func (vm *VM) RegisterMethod(typeAddr Address, name string, fn object.NativeFunc, bound bool) Address {
	native := object.NewObject(object.KindNativeCallable, vm.FunctionType)
	native.NativeVal = fn
	native.NativeBound = bound
	addr := vm.Heap.Alloc(native)
	vm.Heap.MakeConst(addr)
	t := vm.Heap.Get(typeAddr)
	if t.TypeVal == nil {
		panic(fmt.Sprintf("vm: RegisterMethod on non-type address %d", typeAddr))
	}
	t.TypeVal.Methods[name] = addr
	return addr
}

// AddToModule binds name to valueAddr in module's global namespace.
func (vm *VM) AddToModule(module Address, name string, valueAddr Address) {
	m := vm.Heap.Get(module)
	if m.ModuleVal == nil {
		panic(fmt.Sprintf("vm: AddToModule on non-module address %d", module))
	}
	m.ModuleVal.Globals[name] = valueAddr
}

// FindInModule looks up name in module's global namespace.
func (vm *VM) FindInModule(module Address, name string) (Address, bool) {
	m := vm.Heap.Get(module)
	if m.ModuleVal == nil {
		return NullAddress, false
	}
	addr, ok := m.ModuleVal.Globals[name]
	return addr, ok
}

// TypeAddrOf returns the builtin type address registered under name.
func (vm *VM) TypeAddrOf(name string) Address {
	addr, ok := vm.typesByName[name]
	if !ok {
		panic(fmt.Sprintf("vm: unknown builtin type %q", name))
	}
	return addr
}

// TypeNameOf returns the name of the type at typeAddr, for error messages.
func (vm *VM) TypeNameOf(typeAddr Address) string {
	t := vm.Heap.Get(typeAddr)
	if t.TypeVal == nil {
		return "?"
	}
	return t.TypeVal.Name
}

// Get exposes the heap's Get to satisfy object.Runtime.
func (vm *VM) Get(addr Address) *object.Object { return vm.Heap.Get(addr) }

// Alloc exposes the heap's Alloc to satisfy object.Runtime.
func (vm *VM) Alloc(o *object.Object) Address { return vm.Heap.Alloc(o) }

// describeValue renders a short human-readable form of addr for the
// debugger's stack/locals/globals views.
func (vm *VM) describeValue(addr Address) string {
	if addr == NullAddress {
		return "<null>"
	}
	o := vm.Heap.Get(addr)
	switch o.Kind {
	case object.KindNone:
		return "None"
	case object.KindBuiltin:
		switch o.Builtin {
		case object.BuiltinInt:
			return fmt.Sprintf("%s (int @%d)", o.IntVal.String(), addr)
		case object.BuiltinFloat:
			return fmt.Sprintf("%g (float @%d)", o.FloatVal.V, addr)
		case object.BuiltinString:
			return fmt.Sprintf("%q (str @%d)", o.StringVal, addr)
		case object.BuiltinList:
			return fmt.Sprintf("list[%d] @%d", len(o.ListVal), addr)
		case object.BuiltinClassInstance:
			return fmt.Sprintf("%s instance @%d", vm.TypeNameOf(o.TypeAddr), addr)
		default:
			return fmt.Sprintf("builtin @%d", addr)
		}
	case object.KindType:
		return fmt.Sprintf("type %s @%d", vm.TypeNameOf(addr), addr)
	default:
		return fmt.Sprintf("%s @%d", o.Kind, addr)
	}
}

// Singleton returns the address of a bootstrap singleton by kind.
func (vm *VM) Singleton(kind object.Kind) Address {
	switch kind {
	case object.KindNone:
		return vm.NoneAddr
	case object.KindNotImplemented:
		return vm.NotImplementedAddr
	case object.KindStopIteration:
		return vm.StopIterationAddr
	default:
		panic(fmt.Sprintf("vm: no singleton for kind %s", kind))
	}
}
