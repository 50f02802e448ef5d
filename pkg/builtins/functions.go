package builtins

import (
	"fmt"

	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerFunctions adds print/printstack/traceback/panic/len/type directly
// to the builtin module's namespace, matching builtin_functions.rs.
func registerFunctions(v *vm.VM) {
	registerNative(v, "print", func(rt object.Runtime, args []Address) Address {
		parts := make([]string, len(args))
		for i, a := range args {
			s := rt.CallMethod(a, "__str__", nil)
			parts[i] = rt.Get(s).StringVal
		}
		line := ""
		for i, p := range parts {
			if i > 0 {
				line += " "
			}
			line += p
		}
		fmt.Println(line)
		return rt.Singleton(object.KindNone)
	})

	registerNative(v, "len", func(rt object.Runtime, args []Address) Address {
		if len(args) != 1 {
			panic("TypeError: len() takes exactly one argument")
		}
		recv := rt.Get(args[0])
		if _, ok := v.ResolveMethod(recv.TypeAddr, "__len__"); !ok {
			panic(fmt.Sprintf("TypeError: object of type %q has no len()", rt.TypeNameOf(recv.TypeAddr)))
		}
		return rt.CallMethod(args[0], "__len__", nil)
	})

	registerNative(v, "type", func(rt object.Runtime, args []Address) Address {
		return rt.Get(args[0]).TypeAddr
	})

	registerNative(v, "printstack", func(rt object.Runtime, args []Address) Address {
		v.PrintCallStack()
		return rt.Singleton(object.KindNone)
	})

	registerNative(v, "traceback", func(rt object.Runtime, args []Address) Address {
		v.PrintCallStack()
		return rt.Singleton(object.KindNone)
	})

	registerNative(v, "panic", func(rt object.Runtime, args []Address) Address {
		msg := "panic() called"
		if len(args) > 0 {
			s := rt.CallMethod(args[0], "__str__", nil)
			msg = rt.Get(s).StringVal
		}
		panic(msg)
	})
}
