// Package object defines Ember's heap value representation: a tagged-union
// Object with a reference count, a type pointer, and a structural payload.
//
// The shape mirrors a Python-family object model: every value on the heap
// carries the address of its type, a dict of instance properties, and one of
// a small number of structural variants (None, a builtin payload, a native
// callable, a user function, a bound method, a type, or a module). Nothing
// here allocates or frees memory — that's pkg/memory's job. Object is a pure
// data shape so the allocator can grow its backing slice without touching
// objects already handed out.
package object

import (
	"fmt"

	"github.com/emberlang/ember/pkg/bytecode"
)

// Address identifies an object's memory slot. Zero is never a valid
// allocated address; pkg/memory reserves it as the null address.
type Address int

// Kind tags which structural variant a Object holds.
type Kind int

const (
	KindNone Kind = iota
	KindNotImplemented
	KindStopIteration
	KindBuiltin
	KindNativeCallable
	KindUserFunction
	KindBoundMethod
	KindType
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindNotImplemented:
		return "NotImplemented"
	case KindStopIteration:
		return "StopIteration"
	case KindBuiltin:
		return "Builtin"
	case KindNativeCallable:
		return "NativeCallable"
	case KindUserFunction:
		return "UserFunction"
	case KindBoundMethod:
		return "BoundMethod"
	case KindType:
		return "Type"
	case KindModule:
		return "Module"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// BuiltinKind tags which payload a KindBuiltin object carries.
type BuiltinKind int

const (
	BuiltinInt BuiltinKind = iota
	BuiltinFloat
	BuiltinString
	BuiltinList
	BuiltinClassInstance
	BuiltinCodeObject
)

// NativeFunc is the Go implementation behind a KindNativeCallable object.
// For bound natives, args[0] is the receiver: the caller (pkg/vm) prepends
// it to the call's positional arguments before invoking this.
type NativeFunc func(vm Runtime, args []Address) Address

// Runtime is the minimal surface pkg/builtins and native closures need from
// the VM, kept here (rather than importing pkg/vm) to avoid an import cycle
// between pkg/object and pkg/vm.
type Runtime interface {
	Alloc(o *Object) Address
	AllocBuiltin(typeAddr Address, kind BuiltinKind, payload any) Address
	Get(addr Address) *Object
	IncRef(addr Address)
	DecRef(addr Address)
	CallMethod(receiver Address, name string, args []Address) Address
	RunFunction(args []Address, callee Address, bound *Address) Address
	TypeAddrOf(name string) Address
	TypeNameOf(addr Address) string
	Singleton(kind Kind) Address
	Raise(exception Address)
}

// CodeObject is the resolved, ready-to-run form of a compiled function body:
// the compiler's raw *bytecode.CodeObject plus its constant pool resolved
// once into live addresses (string/int/float literals allocated, nested
// bytecode.CodeObjects wrapped in their own resolved CodeObject and boxed as
// KindBuiltin/BuiltinCodeObject values) so LoadConst is a plain slice index
// at run time rather than a re-materialization on every hit.
type CodeObject struct {
	Raw    *bytecode.CodeObject
	Consts []Address // parallel to Raw.Consts
}

// UserFunction is a user-defined callable: just its code object. Names the
// body does not bind as locals resolve through LoadGlobal at run time
// (functions don't nest lexical scopes beyond locals/globals, per the
// language's simplicity).
type UserFunction struct {
	Code *CodeObject
}

// BoundMethod pairs a receiver with an unbound callable (native or user).
// LoadAttr synthesizes these on the fly; they are never literal source.
type BoundMethod struct {
	Receiver Address
	Func     Address
}

// TypeData describes a class: its own method table, its one supertype (or
// the null address for root types), and the type's own qualified name.
type TypeData struct {
	Name      string
	Super     Address // null Address if no supertype
	Methods   map[string]Address
	ClassVars map[string]Address
}

// ModuleData is a flat namespace: the builtin module and the program's main
// module are the only two instances the VM ever creates.
type ModuleData struct {
	Name    string
	Globals map[string]Address
}

// Object is the single heap value shape. Exactly one of the payload fields
// below is meaningful, selected by Kind (and by Builtin for KindBuiltin).
type Object struct {
	TypeAddr   Address
	Kind       Kind
	IsConst    bool
	Refcount   int
	Properties map[string]Address

	Builtin     BuiltinKind
	IntVal      BigInt
	FloatVal    FloatVal
	StringVal   string
	ListVal     []Address
	CodeVal     *CodeObject

	NativeVal NativeFunc
	NativeBound bool // true if the receiver should be curried as args[0]

	UserFuncVal *UserFunction
	BoundVal    *BoundMethod
	TypeVal     *TypeData
	ModuleVal   *ModuleData
}

// NewObject allocates a fresh structural (non-builtin) Object value. The
// caller still has to hand it to pkg/memory to receive an Address.
func NewObject(kind Kind, typeAddr Address) *Object {
	return &Object{
		Kind:       kind,
		TypeAddr:   typeAddr,
		Properties: make(map[string]Address),
	}
}
