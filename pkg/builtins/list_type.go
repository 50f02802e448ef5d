package builtins

import (
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/vm"
)

// registerList creates the list type. __eq__ is the corrected version of
// list_type.rs's equals(): that implementation inverts its own result
// (returns false when the lists genuinely are equal, true when they
// aren't), a bug this runtime does not reproduce.
func registerList(v *vm.VM) {
	t := v.CreateType(v.BuiltinModule, "list", vm.NullAddress)
	v.ListType = t

	v.RegisterMethod(t, "__eq__", func(rt object.Runtime, args []Address) Address {
		self, other := rt.Get(args[0]), rt.Get(args[1])
		if other.Builtin != object.BuiltinList || len(self.ListVal) != len(other.ListVal) {
			return v.FalseAddr
		}
		for i := range self.ListVal {
			if rt.CallMethod(self.ListVal[i], "__eq__", []Address{other.ListVal[i]}) != v.TrueAddr {
				return v.FalseAddr
			}
		}
		return v.TrueAddr
	}, true)

	v.RegisterMethod(t, "__len__", func(rt object.Runtime, args []Address) Address {
		n := len(rt.Get(args[0]).ListVal)
		return rt.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(int64(n)))
	}, true)

	v.RegisterMethod(t, "__bool__", func(rt object.Runtime, args []Address) Address {
		if len(rt.Get(args[0]).ListVal) == 0 {
			return v.FalseAddr
		}
		return v.TrueAddr
	}, true)

	v.RegisterMethod(t, "__getitem__", func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		idx := rt.Get(args[1]).IntVal.Int64()
		if idx < 0 || int(idx) >= len(self.ListVal) {
			rt.Raise(rt.AllocBuiltin(v.IndexErrorType, object.BuiltinString, "list index out of range"))
			return rt.Singleton(object.KindNone)
		}
		return self.ListVal[idx]
	}, true)

	iterType := registerListIterator(v)
	v.RegisterMethod(t, "__iter__", func(rt object.Runtime, args []Address) Address {
		return newListIterator(v, iterType, args[0])
	}, true)

	v.RegisterMethod(t, "__str__", func(rt object.Runtime, args []Address) Address { return listStr(v, args[0]) }, true)
	v.RegisterMethod(t, "__repr__", func(rt object.Runtime, args []Address) Address { return listStr(v, args[0]) }, true)

	// list() with no args builds an empty list; list(x) drains x's iterator
	// protocol (__iter__ then repeated __next__ until StopIteration), per
	// spec §4.6 — the one place outside ForIter the language observes and
	// discards a StopIteration itself.
	v.RegisterMethod(t, "__new__", func(rt object.Runtime, args []Address) Address {
		if len(args) == 0 {
			return rt.AllocBuiltin(v.ListType, object.BuiltinList, []Address{})
		}
		iter := rt.CallMethod(args[0], "__iter__", nil)
		var items []Address
		for {
			val := rt.CallMethod(iter, "__next__", nil)
			if v.HasPendingException() {
				if !v.ClearIfStopIteration() {
					return rt.Singleton(object.KindNone)
				}
				break
			}
			items = append(items, val)
		}
		return rt.AllocBuiltin(v.ListType, object.BuiltinList, items)
	}, false)
}

func listStr(v *vm.VM, addr Address) Address {
	self := v.Heap.Get(addr)
	s := "["
	for i, elem := range self.ListVal {
		if i > 0 {
			s += ", "
		}
		repr := v.CallMethod(elem, "__repr__", nil)
		s += v.Heap.Get(repr).StringVal
	}
	s += "]"
	return v.AllocBuiltin(v.StrType, object.BuiltinString, s)
}

// registerListIterator creates the private type backing the ClassInstance
// objects list's __iter__ produces; its __next__ walks the captured list by
// index, raising StopIteration (by type, the language's sole catch
// condition) once exhausted.
func registerListIterator(v *vm.VM) Address {
	t := v.CreateType(v.BuiltinModule, "list_iterator", vm.NullAddress)
	v.RegisterMethod(t, "__next__", func(rt object.Runtime, args []Address) Address {
		self := rt.Get(args[0])
		i := int(rt.Get(self.Properties["__index"]).IntVal.Int64())
		target := rt.Get(self.Properties["__list"])
		if i >= len(target.ListVal) {
			rt.Raise(rt.AllocBuiltin(v.StopIterationType, object.BuiltinClassInstance, nil))
			return rt.Singleton(object.KindNone)
		}
		self.Properties["__index"] = rt.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(int64(i+1)))
		return target.ListVal[i]
	}, true)
	v.RegisterMethod(t, "__iter__", func(rt object.Runtime, args []Address) Address { return args[0] }, true)
	return t
}

func newListIterator(v *vm.VM, iterType, list Address) Address {
	o := object.NewObject(object.KindBuiltin, iterType)
	o.Builtin = object.BuiltinClassInstance
	o.Properties["__list"] = list
	o.Properties["__index"] = v.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(0))
	v.IncRef(list)
	return v.Heap.Alloc(o)
}
