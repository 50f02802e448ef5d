package vm

import (
	"fmt"
	"math/big"

	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/object"
)

// Load resolves a compiler-produced CodeObject's constant pool into live heap
// addresses, recursively loading any nested CodeObject constants (def/class
// bodies compile to their own CodeObject, stored as a Consts entry of their
// enclosing one) the same way. This is the boundary between the portable
// bytecode pkg/compiler emits and the live object graph the interpreter
// walks: OpLoadConst only ever indexes an already-resolved
// object.CodeObject.Consts slice of addresses, never the compiler's raw
// literal pool.
func (vm *VM) Load(code *bytecode.CodeObject) *object.CodeObject {
	resolved := &object.CodeObject{Raw: code, Consts: make([]Address, len(code.Consts))}
	for i, c := range code.Consts {
		resolved.Consts[i] = vm.loadConst(c)
	}
	return resolved
}

func (vm *VM) loadConst(c any) Address {
	switch v := c.(type) {
	case *big.Int:
		addr := vm.AllocBuiltin(vm.IntType, object.BuiltinInt, object.BigInt{V: v})
		vm.Heap.MakeConst(addr)
		return addr
	case int64:
		addr := vm.AllocBuiltin(vm.IntType, object.BuiltinInt, object.NewBigInt(v))
		vm.Heap.MakeConst(addr)
		return addr
	case float64:
		addr := vm.AllocBuiltin(vm.FloatType, object.BuiltinFloat, object.NewFloatVal(v))
		vm.Heap.MakeConst(addr)
		return addr
	case string:
		addr := vm.AllocBuiltin(vm.StrType, object.BuiltinString, v)
		vm.Heap.MakeConst(addr)
		return addr
	case bool:
		if v {
			return vm.TrueAddr
		}
		return vm.FalseAddr
	case nil:
		return vm.NoneAddr
	case *bytecode.CodeObject:
		nested := vm.Load(v)
		addr := vm.AllocBuiltin(vm.CodeObjectType, object.BuiltinCodeObject, nested)
		vm.Heap.MakeConst(addr)
		return addr
	default:
		panic(fmt.Sprintf("vm: unsupported constant type %T", c))
	}
}
