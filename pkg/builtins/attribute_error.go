package builtins

import (
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerAttributeError creates AttributeError, used by LoadAttr's raise
// path (see pkg/vm/interpreter.go's raiseAttributeError) when a receiver has
// neither a matching property nor a method for the requested name. Not
// present in the original's builtin_types package — added so a missing
// attribute surfaces as a catchable object rather than a bare Go panic,
// mirroring how the original treats IndexError.
func registerAttributeError(v *vm.VM) {
	t := v.CreateType(v.BuiltinModule, "AttributeError", vm.NullAddress)
	v.AttributeErrorType = t

	str := func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		return rt.AllocBuiltin(v.StrType, object.BuiltinString, "AttributeError: "+self.StringVal)
	}
	v.RegisterMethod(t, "__str__", str, true)
	v.RegisterMethod(t, "__repr__", str, true)
}
