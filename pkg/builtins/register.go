// Package builtins populates a freshly-constructed VM with Ember's built-in
// types and free functions: int, float, bool, str, list, None, IndexError,
// AttributeError, and the math/print/len/type free functions. Kept separate
// from pkg/vm so the registry/dispatch/interpreter core has no dependency on
// any concrete type's semantics — pkg/vm only needs object.Runtime.
//
// Registration order and per-type semantics are grounded in the original
// implementation's builtin_types/mod.rs and its sibling *_type.rs files.
package builtins

import "github.com/emberlang/ember/pkg/vm"

// Register wires every built-in type and free function into vm, in the
// original's register_builtins order (int, float, math, free functions,
// bool, string, list, index_error, none), with attribute_error, which the
// original does not have, registered just before none.
func Register(v *vm.VM) {
	registerInt(v)
	registerFloat(v)
	registerMath(v)
	registerFunctions(v)
	registerBool(v)
	registerString(v)
	registerList(v)
	registerIndexError(v)
	registerAttributeError(v)
	registerNone(v)
}
