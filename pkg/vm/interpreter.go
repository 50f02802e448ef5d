package vm

import (
	"fmt"

	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/object"
)

// execFrame runs f's instructions to completion, returning the value of its
// ReturnValue opcode (or the None address if control falls off the end of
// the instruction stream). It pushes f onto the call stack for the duration
// of the run and releases every address still sitting on f's eval stack when
// it exits, whether by returning normally or by propagating an exception.
//
// Opcode handling mirrors the original implementation's
// execute_next_instruction/execute_code_object; the fast/fallback split on
// the arithmetic and comparison opcodes, and ForIter's sole-catch-site
// behavior, are both grounded there too.
func (vm *VM) execFrame(f *Frame) Address {
	vm.callStack = append(vm.callStack, f)
	defer func() {
		vm.callStack = vm.callStack[:len(vm.callStack)-1]
		for _, addr := range f.stack {
			vm.DecRef(addr)
		}
	}()

	code := f.code.Raw
	for {
		if vm.debugger != nil {
			vm.debugger.beforeInstruction(vm, f)
		}

		if f.pc >= len(code.Instructions) {
			return vm.NoneAddr
		}
		instr := code.Instructions[f.pc]
		f.pc++

		switch instr.Op {
		case bytecode.OpLoadConst:
			f.push(f.code.Consts[instr.Operand])

		case bytecode.OpLoadName:
			f.push(f.locals[instr.Operand])

		case bytecode.OpLoadGlobal:
			name := code.Names[instr.Operand]
			addr, ok := vm.FindInModule(vm.MainModule, name)
			if !ok {
				addr, ok = vm.FindInModule(vm.BuiltinModule, name)
			}
			if !ok {
				panic(fmt.Sprintf("vm: name %q is not defined", name))
			}
			f.push(addr)

		case bytecode.OpLoadAttr:
			recv := f.pop()
			name := code.Names[instr.Operand]
			// recv is not released here: a BoundMethod pushed by loadAttr
			// still refers to it.
			f.push(vm.loadAttr(recv, name))
			if vm.checkPropagate(f) {
				return vm.NoneAddr
			}

		case bytecode.OpStoreName:
			addr := f.pop()
			old := Address(NullAddress)
			if instr.Operand < len(f.locals) {
				old = f.locals[instr.Operand]
			}
			vm.IncRef(addr)
			f.bindLocal(instr.Operand, addr)
			vm.DecRef(old)

		case bytecode.OpStoreAttr:
			// Stack, top to bottom: object, value — StoreAttr pops the
			// object first, then the value being assigned to it. Both are
			// retained.
			objAddr := f.pop()
			valAddr := f.pop()
			name := code.Names[instr.Operand]
			obj := vm.Heap.Get(objAddr)
			old, existed := obj.Properties[name]
			obj.Properties[name] = valAddr
			vm.IncRef(valAddr)
			if existed {
				vm.DecRef(old)
			}
			vm.IncRef(objAddr)

		case bytecode.OpBinaryAdd, bytecode.OpBinarySub, bytecode.OpBinaryMul,
			bytecode.OpBinaryMod, bytecode.OpBinaryTrueDivision:
			vm.execBinaryOp(f, instr.Op)
			if vm.checkPropagate(f) {
				return vm.NoneAddr
			}

		case bytecode.OpCompareLt, bytecode.OpCompareLe, bytecode.OpCompareGt,
			bytecode.OpCompareGe, bytecode.OpCompareEq, bytecode.OpCompareNe:
			vm.execCompareOp(f, instr.Op)
			if vm.checkPropagate(f) {
				return vm.NoneAddr
			}

		case bytecode.OpCallFunction:
			argc := instr.Operand
			args := make([]Address, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = f.pop()
			}
			callee := f.pop()
			// Protect each arg and the callee for the duration of the call: the
			// callee's frame may not independently retain an arg it merely
			// passes through (e.g. a no-op parameter), and the post-call
			// DecRef below must not drop a still-referenced object to zero.
			for _, a := range args {
				vm.IncRef(a)
			}
			vm.IncRef(callee)
			result := vm.RunFunction(args, callee, nil)
			for _, a := range args {
				vm.DecRef(a)
			}
			vm.DecRef(callee)
			f.push(result)
			if vm.checkPropagate(f) {
				return vm.NoneAddr
			}

		case bytecode.OpJumpIfFalseAndPopStack:
			v := f.pop()
			falsy := !vm.truthy(v)
			vm.DecRef(v)
			if falsy {
				f.pc = instr.Operand
			}

		case bytecode.OpJumpUnconditional:
			f.pc = instr.Operand

		case bytecode.OpBuildList:
			n := instr.Operand
			items := make([]Address, n)
			for i := n - 1; i >= 0; i-- {
				items[i] = f.pop()
			}
			addr := vm.AllocBuiltin(vm.ListType, object.BuiltinList, items)
			f.push(addr)

		case bytecode.OpMakeFunction:
			vm.execMakeFunction(f, instr)

		case bytecode.OpMakeClass:
			vm.execMakeClass(f, instr)

		case bytecode.OpPopTop:
			addr := f.pop()
			vm.DecRef(addr)

		case bytecode.OpReturnValue:
			return f.pop()

		case bytecode.OpIndexAccess:
			idx := f.pop()
			recv := f.pop()
			f.push(vm.indexAccess(recv, idx))
			vm.DecRef(idx)
			vm.DecRef(recv)
			if vm.checkPropagate(f) {
				return vm.NoneAddr
			}

		case bytecode.OpRaise:
			exc := f.pop()
			vm.Raise(exc)
			return vm.NoneAddr

		case bytecode.OpForIter:
			if vm.execForIter(f, instr) {
				return vm.NoneAddr
			}

		default:
			panic(fmt.Sprintf("vm: unknown opcode %s", instr.Op))
		}
	}
}

// checkPropagate returns true (after mirroring the VM's in-flight exception
// onto f) when an instruction just raised, signaling execFrame's caller to
// unwind without inspecting the (meaningless) return value.
func (vm *VM) checkPropagate(f *Frame) bool {
	if vm.pendingException == NullAddress {
		return false
	}
	f.exception = vm.pendingException
	return true
}

// execMakeFunction pops a resolved CodeObject constant and registers a
// UserFunction under it. Bound to the current frame's own local slot so a
// class body's defs become part of its positionally-named locals (harvested
// by execMakeClass); a top-level def additionally mirrors into the main
// module's globals, since the module's top-level frame has no caller to
// hand locals back to.
func (vm *VM) execMakeFunction(f *Frame, instr bytecode.Instruction) {
	codeConst := f.pop()
	codeObj := vm.Heap.Get(codeConst).CodeVal
	vm.DecRef(codeConst)

	fn := object.NewObject(object.KindUserFunction, vm.FunctionType)
	fn.UserFuncVal = &object.UserFunction{Code: codeObj}
	addr := vm.Heap.Alloc(fn)
	vm.Heap.MakeConst(addr)

	f.bindLocal(instr.Operand, addr)
	if f.code.Raw == vm.moduleCode {
		name := f.code.Raw.Names[instr.Operand]
		vm.AddToModule(vm.MainModule, name, addr)
	}
}

// execMakeClass pops a resolved CodeObject constant for the class body,
// executes it in its own frame, and harvests the resulting locals back into
// a method table by name — the class body's locals are positionally aligned
// with its Names table, so index i's bound local (if any) becomes the
// method/class-variable named Names[i]. A synthesized __new__ allocates a
// ClassInstance and, if the class defines __init__, calls it with the new
// instance bound as the receiver.
func (vm *VM) execMakeClass(f *Frame, instr bytecode.Instruction) {
	codeConst := f.pop()
	bodyCode := vm.Heap.Get(codeConst).CodeVal
	vm.DecRef(codeConst)

	super := NullAddress
	if bodyCode.Raw.SuperName != "" {
		addr, ok := vm.FindInModule(vm.MainModule, bodyCode.Raw.SuperName)
		if !ok {
			panic(fmt.Sprintf("vm: base class %q is not defined", bodyCode.Raw.SuperName))
		}
		super = addr
	}

	classFrame := newFrame(bodyCode, nil)
	vm.execFrame(classFrame)

	className := f.code.Raw.Names[instr.Operand]
	typeAddr := vm.newType(className, super)
	t := vm.Heap.Get(typeAddr)
	for i, name := range bodyCode.Raw.Names {
		if i < len(classFrame.locals) && classFrame.locals[i] != NullAddress {
			t.TypeVal.Methods[name] = classFrame.locals[i]
			vm.IncRef(classFrame.locals[i])
		}
	}
	if _, ok := t.TypeVal.Methods["__new__"]; !ok {
		vm.RegisterMethod(typeAddr, "__new__", vm.makeDefaultNew(typeAddr), false)
	}

	f.bindLocal(instr.Operand, typeAddr)
	if f.code.Raw == vm.moduleCode {
		vm.AddToModule(vm.MainModule, className, typeAddr)
	}
}

// makeDefaultNew builds the __new__ every user-defined class gets unless it
// overrides one itself: allocate a bare ClassInstance of typeAddr and run
// __init__ on it with the constructor's arguments, if the class defines one.
// Closing over typeAddr per class (rather than recovering it from the call
// site) keeps RunFunction's Type-dispatch branch — which always resolves
// __new__ starting from the exact type being called — free of any special
// case for synthesized constructors.
func (vm *VM) makeDefaultNew(typeAddr Address) object.NativeFunc {
	return func(rt object.Runtime, args []Address) Address {
		inst := object.NewObject(object.KindBuiltin, typeAddr)
		inst.Builtin = object.BuiltinClassInstance
		addr := rt.Alloc(inst)
		if _, ok := vm.resolveMethod(typeAddr, "__init__"); ok {
			rt.CallMethod(addr, "__init__", args)
		}
		return addr
	}
}

// loadAttr implements LoadAttr's lookup order. ClassInstance receivers try a
// bound-method lookup on their type first, then fall back to their instance
// Properties; every other receiver (builtins, types, modules) tries
// Properties first, then a method lookup, then — for modules — their own
// globals.
func (vm *VM) loadAttr(recvAddr Address, name string) Address {
	recv := vm.Heap.Get(recvAddr)

	if recv.Kind == object.KindBuiltin && recv.Builtin == object.BuiltinClassInstance {
		if fn, ok := vm.resolveMethod(recv.TypeAddr, name); ok {
			return vm.bindMethod(recvAddr, fn)
		}
		if val, ok := recv.Properties[name]; ok {
			return val
		}
		vm.raiseAttributeError(recvAddr, name)
		return vm.NoneAddr
	}

	if val, ok := recv.Properties[name]; ok {
		return val
	}
	if fn, ok := vm.resolveMethod(recv.TypeAddr, name); ok {
		return vm.bindMethod(recvAddr, fn)
	}
	if recv.Kind == object.KindModule {
		if val, ok := recv.ModuleVal.Globals[name]; ok {
			return val
		}
	}
	vm.raiseAttributeError(recvAddr, name)
	return vm.NoneAddr
}

func (vm *VM) bindMethod(recvAddr, fn Address) Address {
	bm := object.NewObject(object.KindBoundMethod, vm.FunctionType)
	bm.BoundVal = &object.BoundMethod{Receiver: recvAddr, Func: fn}
	return vm.Heap.Alloc(bm)
}

func (vm *VM) raiseAttributeError(recvAddr Address, name string) {
	msg := fmt.Sprintf("%q object has no attribute %q", vm.TypeNameOf(vm.Heap.Get(recvAddr).TypeAddr), name)
	vm.Raise(vm.AllocBuiltin(vm.TypeAddrOf("AttributeError"), object.BuiltinString, msg))
}

// indexAccess implements IndexAccess. Lists bounds-check directly and raise
// IndexError on the corrected (non-buggy) semantics; every other receiver
// falls back to its __getitem__ dunder.
func (vm *VM) indexAccess(recvAddr, idxAddr Address) Address {
	recv := vm.Heap.Get(recvAddr)
	if recv.Kind == object.KindBuiltin && recv.Builtin == object.BuiltinList {
		idx := vm.Heap.Get(idxAddr).IntVal.Int64()
		if idx < 0 || int(idx) >= len(recv.ListVal) {
			vm.Raise(vm.AllocBuiltin(vm.IndexErrorType, object.BuiltinString, "list index out of range"))
			return vm.NoneAddr
		}
		return recv.ListVal[idx]
	}
	return vm.CallMethod(recvAddr, "__getitem__", []Address{idxAddr})
}

// truthy dispatches to __bool__ for everything but the well-known
// True/False/None singletons, which are checked directly to avoid a method
// call on the hottest path (every JumpIfFalseAndPopStack).
func (vm *VM) truthy(addr Address) bool {
	switch addr {
	case vm.TrueAddr:
		return true
	case vm.FalseAddr, vm.NoneAddr:
		return false
	}
	result := vm.CallMethod(addr, "__bool__", nil)
	return result == vm.TrueAddr
}

func dunderNameFor(op bytecode.Opcode) string {
	switch op {
	case bytecode.OpBinaryAdd:
		return "__add__"
	case bytecode.OpBinarySub:
		return "__sub__"
	case bytecode.OpBinaryMul:
		return "__mul__"
	case bytecode.OpBinaryMod:
		return "__mod__"
	case bytecode.OpBinaryTrueDivision:
		return "__truediv__"
	case bytecode.OpCompareLt:
		return "__lt__"
	case bytecode.OpCompareLe:
		return "__le__"
	case bytecode.OpCompareGt:
		return "__gt__"
	case bytecode.OpCompareGe:
		return "__ge__"
	case bytecode.OpCompareEq:
		return "__eq__"
	case bytecode.OpCompareNe:
		return "__ne__"
	default:
		panic(fmt.Sprintf("vm: %s has no dunder fallback", op))
	}
}

func isNumeric(o *object.Object) bool {
	return o.Kind == object.KindBuiltin && (o.Builtin == object.BuiltinInt || o.Builtin == object.BuiltinFloat)
}

// execBinaryOp implements the arithmetic opcodes. Both operands numeric
// takes a direct computed fast path (promoting int/float mixes to float);
// anything else falls back to the left operand's dunder method. Either way,
// an operand whose refcount was already zero before the operation — meaning
// it was a freshly computed temporary nothing else references, like the `1`
// in `1 + 2 + 3` — is collected immediately rather than waiting for an
// explicit PopTop, so chained arithmetic doesn't leak intermediates.
func (vm *VM) execBinaryOp(f *Frame, op bytecode.Opcode) {
	b := f.pop()
	a := f.pop()
	aObj, bObj := vm.Heap.Get(a), vm.Heap.Get(b)
	aFree := aObj.Refcount == 0 && !vm.Heap.IsConst(a)
	bFree := bObj.Refcount == 0 && !vm.Heap.IsConst(b)

	var result Address
	fastEligible := isNumeric(aObj) && isNumeric(bObj) &&
		(op != bytecode.OpBinaryMod || (aObj.Builtin == object.BuiltinInt && bObj.Builtin == object.BuiltinInt))
	if fastEligible {
		result = vm.fastNumericBinOp(op, aObj, bObj)
	} else {
		result = vm.CallMethod(a, dunderNameFor(op), []Address{b})
	}

	if aFree {
		vm.Heap.Deallocate(a)
	}
	if bFree {
		vm.Heap.Deallocate(b)
	}
	f.push(result)
}

func (vm *VM) fastNumericBinOp(op bytecode.Opcode, a, b *object.Object) Address {
	bothInt := a.Builtin == object.BuiltinInt && b.Builtin == object.BuiltinInt

	if op == bytecode.OpBinaryTrueDivision {
		af, bf := toFloat(a), toFloat(b)
		return vm.AllocBuiltin(vm.FloatType, object.BuiltinFloat, object.NewFloatVal(af/bf))
	}
	if op == bytecode.OpBinaryMod {
		// The original only defines __mod__ for ints; floats fall back to
		// the dunder path, same as any other non-numeric-pair operand.
		return vm.AllocBuiltin(vm.IntType, object.BuiltinInt, a.IntVal.Mod(b.IntVal))
	}

	if bothInt {
		var v object.BigInt
		switch op {
		case bytecode.OpBinaryAdd:
			v = a.IntVal.Add(b.IntVal)
		case bytecode.OpBinarySub:
			v = a.IntVal.Sub(b.IntVal)
		case bytecode.OpBinaryMul:
			v = a.IntVal.Mul(b.IntVal)
		}
		return vm.AllocBuiltin(vm.IntType, object.BuiltinInt, v)
	}

	af, bf := toFloat(a), toFloat(b)
	var v float64
	switch op {
	case bytecode.OpBinaryAdd:
		v = af + bf
	case bytecode.OpBinarySub:
		v = af - bf
	case bytecode.OpBinaryMul:
		v = af * bf
	}
	return vm.AllocBuiltin(vm.FloatType, object.BuiltinFloat, object.NewFloatVal(v))
}

func toFloat(o *object.Object) float64 {
	if o.Builtin == object.BuiltinFloat {
		return o.FloatVal.V
	}
	return o.IntVal.Float64()
}

// execCompareOp mirrors execBinaryOp's fast/fallback split and refcount
// discipline for the six comparison opcodes.
func (vm *VM) execCompareOp(f *Frame, op bytecode.Opcode) {
	b := f.pop()
	a := f.pop()
	aObj, bObj := vm.Heap.Get(a), vm.Heap.Get(b)
	aFree := aObj.Refcount == 0 && !vm.Heap.IsConst(a)
	bFree := bObj.Refcount == 0 && !vm.Heap.IsConst(b)

	var result Address
	if isNumeric(aObj) && isNumeric(bObj) {
		result = vm.fastNumericCompare(op, aObj, bObj)
	} else {
		result = vm.CallMethod(a, dunderNameFor(op), []Address{b})
	}

	if aFree {
		vm.Heap.Deallocate(a)
	}
	if bFree {
		vm.Heap.Deallocate(b)
	}
	f.push(result)
}

func (vm *VM) fastNumericCompare(op bytecode.Opcode, a, b *object.Object) Address {
	var c int
	if a.Builtin == object.BuiltinInt && b.Builtin == object.BuiltinInt {
		c = a.IntVal.Cmp(b.IntVal)
	} else {
		c = object.NewFloatVal(toFloat(a)).Cmp(object.NewFloatVal(toFloat(b)))
	}
	var ok bool
	switch op {
	case bytecode.OpCompareLt:
		ok = c < 0
	case bytecode.OpCompareLe:
		ok = c <= 0
	case bytecode.OpCompareGt:
		ok = c > 0
	case bytecode.OpCompareGe:
		ok = c >= 0
	case bytecode.OpCompareEq:
		ok = c == 0
	case bytecode.OpCompareNe:
		ok = c != 0
	}
	if ok {
		return vm.TrueAddr
	}
	return vm.FalseAddr
}

// execForIter peeks the iterator on top of f's stack and calls __next__ on
// it. It returns true if an uncaught (non-StopIteration) exception is now
// propagating and execFrame should unwind.
func (vm *VM) execForIter(f *Frame, instr bytecode.Instruction) bool {
	iterAddr := f.top()
	next := vm.CallMethod(iterAddr, "__next__", nil)

	if vm.pendingException != NullAddress {
		exc := vm.Heap.Get(vm.pendingException)
		if exc.TypeAddr == vm.StopIterationType {
			vm.pendingException = NullAddress
			f.exception = NullAddress
			f.pop()
			vm.DecRef(iterAddr)
			f.pc = instr.Operand
			return false
		}
		f.exception = vm.pendingException
		return true
	}

	f.push(next)
	return false
}
