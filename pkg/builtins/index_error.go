package builtins

import (
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerIndexError creates IndexError, whose payload is the BuiltinString
// message (e.g. "list index out of range") per index_error.rs, rather than
// a ClassInstance with a message property.
func registerIndexError(v *vm.VM) {
	t := v.CreateType(v.BuiltinModule, "IndexError", vm.NullAddress)
	v.IndexErrorType = t

	str := func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		return rt.AllocBuiltin(v.StrType, object.BuiltinString, "IndexError: "+self.StringVal)
	}
	v.RegisterMethod(t, "__str__", str, true)
	v.RegisterMethod(t, "__repr__", str, true)
}
