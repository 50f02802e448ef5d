package builtins

import (
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerBool creates bool as a subtype of int (single inheritance, so a
// bool is accepted anywhere an int is: True + 1 == 2) and allocates the
// True/False singletons. __and__/__or__/__xor__ accept a non-bool operand by
// coercing it through __bool__ (falling back to __len__ if __bool__ is
// absent) before giving up with NotImplemented; in that coercion path they
// return one of the two original operand objects rather than a synthesized
// bool, matching boolean_type.rs's create_and_method/create_or_method/
// create_xor_method exactly.
func registerBool(v *vm.VM) {
	t := v.CreateType(v.BuiltinModule, "bool", v.IntType)
	v.BoolType = t

	v.TrueAddr = newBoolSingleton(v, true)
	v.FalseAddr = newBoolSingleton(v, false)

	// __and__'s coercion fallback returns the other operand when the result
	// is true and self when false; __or__/__xor__ return self when true and
	// the other operand when false, matching create_and_method/
	// create_or_method/create_xor_method's operand-return branches exactly.
	v.RegisterMethod(t, "__and__", boolOp(v, func(a, b bool) bool { return a && b }, true), true)
	v.RegisterMethod(t, "__or__", boolOp(v, func(a, b bool) bool { return a || b }, false), true)
	v.RegisterMethod(t, "__xor__", boolOp(v, func(a, b bool) bool { return a != b }, false), true)

	v.RegisterMethod(t, "__not__", func(rt object.Runtime, args []Address) Address {
		if args[0] == v.TrueAddr {
			return v.FalseAddr
		}
		return v.TrueAddr
	}, true)

	v.RegisterMethod(t, "__bool__", func(rt object.Runtime, args []Address) Address { return args[0] }, true)

	v.RegisterMethod(t, "__int__", func(rt object.Runtime, args []Address) Address {
		if args[0] == v.TrueAddr {
			return rt.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(1))
		}
		return rt.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(0))
	}, true)
	v.RegisterMethod(t, "__float__", func(rt object.Runtime, args []Address) Address {
		if args[0] == v.TrueAddr {
			return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(1))
		}
		return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(0))
	}, true)

	v.RegisterMethod(t, "__str__", func(rt object.Runtime, args []Address) Address { return boolStrOf(v, args[0]) }, true)
	v.RegisterMethod(t, "__repr__", func(rt object.Runtime, args []Address) Address { return boolStrOf(v, args[0]) }, true)
}

func newBoolSingleton(v *vm.VM, val bool) Address {
	n := int64(0)
	if val {
		n = 1
	}
	o := object.NewObject(object.KindBuiltin, v.BoolType)
	o.Builtin = object.BuiltinInt
	o.IntVal = object.NewBigInt(n)
	addr := v.Heap.Alloc(o)
	v.Heap.MakeConst(addr)
	return addr
}

func boolStrOf(v *vm.VM, addr Address) Address {
	if addr == v.TrueAddr {
		return v.AllocBuiltin(v.StrType, object.BuiltinString, "True")
	}
	return v.AllocBuiltin(v.StrType, object.BuiltinString, "False")
}

// coerceTruthy converts other to a bool via __bool__, falling back to
// __len__ (non-zero length is truthy) when __bool__ isn't defined, the same
// coercion chain boolean_type.rs's logical operators use for a non-bool
// right-hand operand.
func coerceTruthy(v *vm.VM, addr Address) (bool, bool) {
	if addr == v.TrueAddr {
		return true, true
	}
	if addr == v.FalseAddr {
		return false, true
	}
	o := v.Heap.Get(addr)
	if _, ok := v.ResolveMethod(o.TypeAddr, "__bool__"); ok {
		return v.CallMethod(addr, "__bool__", nil) == v.TrueAddr, true
	}
	if _, ok := v.ResolveMethod(o.TypeAddr, "__len__"); ok {
		n := v.CallMethod(addr, "__len__", nil)
		return !v.Heap.Get(n).IntVal.IsZero(), true
	}
	return false, false
}

// boolOp builds a __and__/__or__/__xor__ implementation. When the other
// operand is itself a bool, the result is always a fresh canonical
// True/False. When the other operand needs __bool__/__len__ coercion, the
// original returns one of the two operand objects rather than a synthesized
// bool: trueReturnsOther picks which operand a true result returns (the
// other operand if true, self if false), and a false result always returns
// whichever operand trueReturnsOther didn't pick.
func boolOp(v *vm.VM, fn func(a, b bool) bool, trueReturnsOther bool) object.NativeFunc {
	return func(rt object.Runtime, args []Address) Address {
		a := args[0] == v.TrueAddr
		if rt.Get(args[1]).TypeAddr == v.BoolType {
			b := args[1] == v.TrueAddr
			if fn(a, b) {
				return v.TrueAddr
			}
			return v.FalseAddr
		}
		b, ok := coerceTruthy(v, args[1])
		if !ok {
			return rt.Singleton(object.KindNotImplemented)
		}
		result := fn(a, b)
		if result == trueReturnsOther {
			return args[1]
		}
		return args[0]
	}
}
