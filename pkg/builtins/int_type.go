package builtins

import (
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerInt creates the int type and its arithmetic/conversion dunders.
// Binary ops dispatch on the other operand's builtin payload kind to support int/float
// cross-type arithmetic the same way int_type.rs does; true division always
// produces a float, even for two ints.
func registerInt(v *vm.VM) {
	t := v.CreateType(v.BuiltinModule, "int", vm.NullAddress)
	v.IntType = t

	v.RegisterMethod(t, "__add__", binIntOp(v, func(a, b object.BigInt) object.BigInt { return a.Add(b) }, func(a, b float64) float64 { return a + b }), true)
	v.RegisterMethod(t, "__sub__", binIntOp(v, func(a, b object.BigInt) object.BigInt { return a.Sub(b) }, func(a, b float64) float64 { return a - b }), true)
	v.RegisterMethod(t, "__mul__", binIntOp(v, func(a, b object.BigInt) object.BigInt { return a.Mul(b) }, func(a, b float64) float64 { return a * b }), true)

	v.RegisterMethod(t, "__mod__", func(rt object.Runtime, args []Address) Address {
		self, other := rt.Get(args[0]), rt.Get(args[1])
		if other.Builtin != object.BuiltinInt {
			return rt.Singleton(object.KindNotImplemented)
		}
		return rt.AllocBuiltin(v.IntType, object.BuiltinInt, self.IntVal.Mod(other.IntVal))
	}, true)

	v.RegisterMethod(t, "__truediv__", func(rt object.Runtime, args []Address) Address {
		self, other := rt.Get(args[0]), rt.Get(args[1])
		a := self.IntVal.Float64()
		b, ok := numericFloat(other)
		if !ok {
			return rt.Singleton(object.KindNotImplemented)
		}
		return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(a/b))
	}, true)

	v.RegisterMethod(t, "__neg__", func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		return rt.AllocBuiltin(v.IntType, object.BuiltinInt, self.IntVal.Neg())
	}, true)

	v.RegisterMethod(t, "__pos__", func(rt object.Runtime, args []Address) Address {
		return args[0]
	}, true)

	v.RegisterMethod(t, "__eq__", func(rt object.Runtime, args []Address) Address {
		self, other := rt.Get(args[0]), rt.Get(args[1])
		if other.Builtin != object.BuiltinInt {
			return v.FalseAddr
		}
		if self.IntVal.Cmp(other.IntVal) == 0 {
			return v.TrueAddr
		}
		return v.FalseAddr
	}, true)

	v.RegisterMethod(t, "__bool__", func(rt object.Runtime, args []Address) Address {
		if rt.Get(args[0]).IntVal.IsZero() {
			return v.FalseAddr
		}
		return v.TrueAddr
	}, true)

	v.RegisterMethod(t, "__int__", func(rt object.Runtime, args []Address) Address { return args[0] }, true)
	v.RegisterMethod(t, "__float__", func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(self.IntVal.Float64()))
	}, true)

	intStr := func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		return rt.AllocBuiltin(v.StrType, object.BuiltinString, self.IntVal.String())
	}
	v.RegisterMethod(t, "__str__", intStr, true)
	v.RegisterMethod(t, "__repr__", intStr, true)
}

// Address is a package-local alias purely for brevity in these files; it's
// the same underlying type as object.Address/vm.Address.
type Address = object.Address

// numericFloat extracts a float64 from an int or float builtin, or reports
// that it can't.
func numericFloat(o *object.Object) (float64, bool) {
	if o.Kind != object.KindBuiltin {
		return 0, false
	}
	switch o.Builtin {
	case object.BuiltinFloat:
		return o.FloatVal.V, true
	case object.BuiltinInt:
		return o.IntVal.Float64(), true
	default:
		return 0, false
	}
}

// binIntOp builds a native __add__/__sub__/__mul__-shaped method: both
// operands ints computes with intFn, either one a float promotes both to
// float64 and computes with floatFn, anything else returns NotImplemented.
func binIntOp(v *vm.VM, intFn func(a, b object.BigInt) object.BigInt, floatFn func(a, b float64) float64) object.NativeFunc {
	return func(rt object.Runtime, args []Address) Address {
		self, other := rt.Get(args[0]), rt.Get(args[1])
		if other.Kind != object.KindBuiltin {
			return rt.Singleton(object.KindNotImplemented)
		}
		switch other.Builtin {
		case object.BuiltinInt:
			if self.Builtin == object.BuiltinInt {
				return rt.AllocBuiltin(v.IntType, object.BuiltinInt, intFn(self.IntVal, other.IntVal))
			}
		case object.BuiltinFloat:
		default:
			return rt.Singleton(object.KindNotImplemented)
		}
		af, aok := numericFloat(self)
		bf, bok := numericFloat(other)
		if !aok || !bok {
			return rt.Singleton(object.KindNotImplemented)
		}
		return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(floatFn(af, bf)))
	}
}
