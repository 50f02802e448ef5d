package builtins

import (
	"math"

	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerMath adds sin/cos/tanh directly to the builtin module's namespace
// rather than nesting them under a "math" submodule, matching
// builtin_math.rs's add_to_module calls.
func registerMath(v *vm.VM) {
	unary := func(fn func(float64) float64) object.NativeFunc {
		return func(rt object.Runtime, args []Address) Address {
			x, ok := numericFloat(rt.Get(args[0]))
			if !ok {
				panic("TypeError: expected a number")
			}
			return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(fn(x)))
		}
	}
	registerNative(v, "sin", unary(math.Sin))
	registerNative(v, "cos", unary(math.Cos))
	registerNative(v, "tanh", unary(math.Tanh))
}

func registerNative(v *vm.VM, name string, fn object.NativeFunc) {
	native := object.NewObject(object.KindNativeCallable, v.FunctionType)
	native.NativeVal = fn
	addr := v.Heap.Alloc(native)
	v.Heap.MakeConst(addr)
	v.AddToModule(v.BuiltinModule, name, addr)
}
