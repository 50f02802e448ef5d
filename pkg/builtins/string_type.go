package builtins

import (
	"strconv"

	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerString creates the str type. __add__ is concatenation and is
// string-only (panics on a type mismatch, per string_type.rs); __new__ with
// no arguments yields "", with one argument calls __str__ on it.
func registerString(v *vm.VM) {
	t := v.CreateType(v.BuiltinModule, "str", vm.NullAddress)
	v.StrType = t

	v.RegisterMethod(t, "__add__", func(rt object.Runtime, args []Address) Address {
		self, other := rt.Get(args[0]), rt.Get(args[1])
		if other.Builtin != object.BuiltinString {
			panic("TypeError: can only concatenate str (not \"" + rt.TypeNameOf(other.TypeAddr) + "\") to str")
		}
		return rt.AllocBuiltin(v.StrType, object.BuiltinString, self.StringVal+other.StringVal)
	}, true)

	v.RegisterMethod(t, "__eq__", func(rt object.Runtime, args []Address) Address {
		self, other := rt.Get(args[0]), rt.Get(args[1])
		if other.Builtin == object.BuiltinString && self.StringVal == other.StringVal {
			return v.TrueAddr
		}
		return v.FalseAddr
	}, true)

	v.RegisterMethod(t, "__bool__", func(rt object.Runtime, args []Address) Address {
		if rt.Get(args[0]).StringVal == "" {
			return v.FalseAddr
		}
		return v.TrueAddr
	}, true)

	v.RegisterMethod(t, "__len__", func(rt object.Runtime, args []Address) Address {
		n := len([]rune(rt.Get(args[0]).StringVal))
		return rt.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(int64(n)))
	}, true)

	v.RegisterMethod(t, "__int__", func(rt object.Runtime, args []Address) Address {
		n, err := strconv.ParseInt(rt.Get(args[0]).StringVal, 10, 64)
		if err != nil {
			panic("ValueError: invalid literal for int(): " + rt.Get(args[0]).StringVal)
		}
		return rt.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(n))
	}, true)

	v.RegisterMethod(t, "__float__", func(rt object.Runtime, args []Address) Address {
		f, err := strconv.ParseFloat(rt.Get(args[0]).StringVal, 64)
		if err != nil {
			panic("ValueError: could not convert string to float: " + rt.Get(args[0]).StringVal)
		}
		return rt.AllocBuiltin(v.FloatType, object.BuiltinFloat, object.NewFloatVal(f))
	}, true)

	v.RegisterMethod(t, "__str__", func(rt object.Runtime, args []Address) Address { return args[0] }, true)
	v.RegisterMethod(t, "__repr__", func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		return rt.AllocBuiltin(v.StrType, object.BuiltinString, "'"+self.StringVal+"'")
	}, true)

	v.RegisterMethod(t, "__new__", func(rt object.Runtime, args []Address) Address {
		if len(args) == 0 {
			return rt.AllocBuiltin(v.StrType, object.BuiltinString, "")
		}
		return rt.CallMethod(args[0], "__str__", nil)
	}, false)
}
