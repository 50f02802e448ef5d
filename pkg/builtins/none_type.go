package builtins

import (
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerNone installs None's dunders on the NoneType bootstrap already
// created by vm.New. __eq__ compares structural None-ness, per none_type.rs
// — true only when the other operand is also the None singleton.
func registerNone(v *vm.VM) {
	t := v.NoneType

	v.RegisterMethod(t, "__str__", func(rt object.Runtime, args []Address) Address {
		return rt.AllocBuiltin(v.StrType, object.BuiltinString, "None")
	}, true)
	v.RegisterMethod(t, "__repr__", func(rt object.Runtime, args []Address) Address {
		return rt.AllocBuiltin(v.StrType, object.BuiltinString, "None")
	}, true)
	v.RegisterMethod(t, "__bool__", func(rt object.Runtime, args []Address) Address { return v.FalseAddr }, true)
	v.RegisterMethod(t, "__eq__", func(rt object.Runtime, args []Address) Address {
		if args[1] == v.NoneAddr {
			return v.TrueAddr
		}
		return v.FalseAddr
	}, true)
}
