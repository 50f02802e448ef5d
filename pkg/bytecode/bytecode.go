// Package bytecode defines Ember's instruction set: a small, stack-oriented
// opcode table aimed at executing a dynamically-typed, single-inheritance
// object model. Each Instruction is one opcode plus a single integer operand;
// wide operands (name/const pool indexes, jump targets, arg counts) all fit
// in that one int rather than needing opcode-specific encodings, which keeps
// the interpreter's dispatch loop (pkg/vm) a flat switch over Opcode.
package bytecode

import "fmt"

// Opcode is one instruction in Ember's instruction set.
type Opcode byte

const (
	// LoadConst pushes Consts[operand] onto the eval stack.
	OpLoadConst Opcode = iota
	// LoadName pushes the current frame's local numbered by operand.
	OpLoadName
	// LoadGlobal pushes Names[operand] looked up in the main module's globals,
	// then in the builtin module's.
	OpLoadGlobal
	// LoadAttr pops a receiver, pushes its attribute Names[operand].
	OpLoadAttr
	// StoreName pops a value into the current frame's local numbered by operand.
	OpStoreName
	// StoreAttr pops object then value, stores value at object.Names[operand].
	OpStoreAttr
	// BinaryAdd pops b, a; pushes a + b.
	OpBinaryAdd
	// BinarySub pops b, a; pushes a - b.
	OpBinarySub
	// BinaryMul pops b, a; pushes a * b.
	OpBinaryMul
	// BinaryMod pops b, a; pushes a % b.
	OpBinaryMod
	// BinaryTrueDivision pops b, a; pushes a / b as a float.
	OpBinaryTrueDivision
	// CompareLt pops b, a; pushes a < b.
	OpCompareLt
	// CompareLe pops b, a; pushes a <= b.
	OpCompareLe
	// CompareGt pops b, a; pushes a > b.
	OpCompareGt
	// CompareGe pops b, a; pushes a >= b.
	OpCompareGe
	// CompareEq pops b, a; pushes a == b.
	OpCompareEq
	// CompareNe pops b, a; pushes a != b.
	OpCompareNe
	// CallFunction pops operand args then the callee; pushes the result.
	OpCallFunction
	// JumpIfFalseAndPopStack pops the top value; jumps to operand if falsy.
	OpJumpIfFalseAndPopStack
	// JumpUnconditional sets the instruction pointer to operand.
	OpJumpUnconditional
	// BuildList pops operand values and pushes a new list built from them.
	OpBuildList
	// MakeFunction pops a code object constant and binds a new UserFunction
	// to the current frame's local numbered by operand; at module top level it
	// is also registered under Names[operand] in the main module's globals.
	OpMakeFunction
	// MakeClass executes a nested code object as a class body and binds the
	// resulting type the same way MakeFunction binds a function.
	OpMakeClass
	// PopTop discards the top of the eval stack.
	OpPopTop
	// ReturnValue pops the top value and returns it from the current frame.
	OpReturnValue
	// IndexAccess pops an index then a receiver; pushes receiver[index].
	OpIndexAccess
	// Raise pops an exception value and begins unwinding the call stack.
	OpRaise
	// ForIter peeks the iterator on top of the eval stack and calls __next__
	// on it. On a normal result, pushes the yielded value and falls through
	// into the loop body. If __next__ raises StopIteration, ForIter is the
	// sole site that catches it: the exception is cleared, the iterator is
	// popped and released, and execution jumps to operand (the loop's exit).
	OpForIter
)

var names = [...]string{
	"LoadConst", "LoadName", "LoadGlobal", "LoadAttr", "StoreName", "StoreAttr",
	"BinaryAdd", "BinarySub", "BinaryMul", "BinaryMod", "BinaryTrueDivision",
	"CompareLt", "CompareLe", "CompareGt", "CompareGe", "CompareEq", "CompareNe",
	"CallFunction", "JumpIfFalseAndPopStack", "JumpUnconditional", "BuildList",
	"MakeFunction", "MakeClass", "PopTop", "ReturnValue", "IndexAccess", "Raise", "ForIter",
}

func (op Opcode) String() string {
	if int(op) < len(names) {
		return names[op]
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// Instruction is one opcode and its operand.
type Instruction struct {
	Op      Opcode
	Operand int
}

// CodeObject is a compiled function/method/class body: the instruction
// sequence plus its constant pool and name table. Consts holds literal
// values the compiler emitted (ints, floats, strings, nested CodeObjects for
// MakeFunction/MakeClass); Names holds identifiers referenced by
// LoadName/LoadGlobal/LoadAttr/StoreAttr/MakeFunction/MakeClass.
type CodeObject struct {
	QualName   string
	ParamNames []string
	// The trailing len(Defaults) formals have default values, supplied in Defaults
	// in left-to-right (not reversed) order; RunFunction fills unsupplied
	// trailing positionals from the tail of Defaults.
	Defaults     []any
	NumLocals    int
	Instructions []Instruction
	Consts       []any
	// Names is shared positional index space with locals: LoadName/StoreName/
	// MakeFunction/MakeClass operands index both a local slot and this table's
	// name for it, so a class body's locals are positionally self-describing
	// (MakeClass reads them back out by name to build the method table).
	// LoadGlobal/LoadAttr/StoreAttr reuse the same table purely as strings.
	Names []string

	// IsClassBody marks a code object compiled from a class statement's body
	// rather than a def. SuperName, when non-empty, names the base class
	// MakeClass should look up before executing the body.
	IsClassBody bool
	SuperName   string
}
