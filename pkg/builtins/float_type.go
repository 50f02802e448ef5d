package builtins

import (
	"fmt"

	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerFloat creates the float type. Binary ops mirror int's cross-type
// dispatch (int_type.go's binIntOp) but always compute in float64 since one
// operand is already a float.
func registerFloat(v *vm.VM) {
	t := v.CreateType(v.BuiltinModule, "float", vm.NullAddress)
	v.FloatType = t

	v.RegisterMethod(t, "__add__", binFloatOp(v, func(a, b float64) float64 { return a + b }), true)
	v.RegisterMethod(t, "__sub__", binFloatOp(v, func(a, b float64) float64 { return a - b }), true)
	v.RegisterMethod(t, "__mul__", binFloatOp(v, func(a, b float64) float64 { return a * b }), true)

	v.RegisterMethod(t, "__truediv__", func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		other, ok := numericFloat(rt.Get(args[1]))
		if !ok {
			return rt.Singleton(object.KindNotImplemented)
		}
		return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(self.FloatVal.V/other))
	}, true)

	v.RegisterMethod(t, "__neg__", func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(-self.FloatVal.V))
	}, true)

	v.RegisterMethod(t, "__pos__", func(rt object.Runtime, args []Address) Address { return args[0] }, true)

	v.RegisterMethod(t, "__eq__", func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		other, ok := numericFloat(rt.Get(args[1]))
		if ok && self.FloatVal.V == other {
			return v.TrueAddr
		}
		return v.FalseAddr
	}, true)

	v.RegisterMethod(t, "__bool__", func(rt object.Runtime, args []Address) Address {
		if rt.Get(args[0]).FloatVal.V == 0 {
			return v.FalseAddr
		}
		return v.TrueAddr
	}, true)

	v.RegisterMethod(t, "__int__", func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		return rt.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(int64(self.FloatVal.V)))
	}, true)
	v.RegisterMethod(t, "__float__", func(rt object.Runtime, args []Address) Address { return args[0] }, true)

	floatStr := func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		return rt.AllocBuiltin(v.StrType, object.BuiltinString, fmt.Sprintf("%g", self.FloatVal.V))
	}
	v.RegisterMethod(t, "__str__", floatStr, true)
	v.RegisterMethod(t, "__repr__", floatStr, true)
}

func binFloatOp(v *vm.VM, fn func(a, b float64) float64) object.NativeFunc {
	return func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		other, ok := numericFloat(rt.Get(args[1]))
		if !ok {
			return rt.Singleton(object.KindNotImplemented)
		}
		return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(fn(self.FloatVal.V, other)))
	}
}
