// Package compiler lowers a parsed Program into Ember's bytecode.CodeObject
// form. A Compiler has no state of its own between calls; all the per-unit
// bookkeeping (the constant pool, the name table, the local-slot numbering)
// lives in an internal scope built fresh for the module and for every
// nested def/class body.
//
// Locals are numbered at compile time, not discovered at run time: a
// pre-pass (collectLocals) walks a body before any code is emitted, finding
// every name that is ever an assignment target, a for-loop variable, or a
// nested def/class name, and reserves it a slot. A name referenced but never
// assigned in the current scope compiles to LoadGlobal instead, resolved
// against the running module's globals. This mirrors the teacher's
// single-pass compiler in structure (Compile/compileStatement/
// compileExpression/emit/addConstant) while the symbol handling itself is
// new — Ember's locals/Names-table pairing has no equivalent in the
// teacher's selector-indexed bytecode.
package compiler

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/bytecode"
)

// Compiler compiles parsed programs into CodeObjects.
type Compiler struct{}

// New returns a ready-to-use Compiler.
func New() *Compiler { return &Compiler{} }

// Compile compiles a whole file's Program into its top-level CodeObject.
func (c *Compiler) Compile(program *ast.Program) (*bytecode.CodeObject, error) {
	return compileUnit(program, "<module>")
}

// CompileSnippet compiles one REPL-entered fragment into its own top-level
// CodeObject, named uniquely via a random uuid so consecutive fragments
// evaluated against the same running module don't collide in stack traces
// or the debugger's instruction listing.
func (c *Compiler) CompileSnippet(program *ast.Program) (*bytecode.CodeObject, error) {
	return compileUnit(program, "<repl:"+uuid.New().String()[:8]+">")
}

func compileUnit(program *ast.Program, qualName string) (*bytecode.CodeObject, error) {
	sc := newScope(qualName, nil, false, "")
	sc.declareLocals(collectLocals(program.Statements))
	for _, stmt := range program.Statements {
		if err := sc.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	return sc.finish(), nil
}

// scope holds everything needed to compile one code unit: a module, a def
// body, or a class body. Names is shared index space between locals
// (assigned slots 0..numLocals-1, aligned 1:1 with their declared name so
// MakeClass can harvest a class body's bound locals back into a method
// table by name) and interned strings used only for LoadGlobal/LoadAttr/
// StoreAttr, which are appended after the local range and never touch a
// local slot.
type scope struct {
	qualName    string
	isClassBody bool
	superName   string

	paramNames []string
	defaults   []any

	names     []string
	nameIndex map[string]int
	numLocals int

	instructions []bytecode.Instruction
	consts       []any
}

func newScope(qualName string, params []ast.Param, isClassBody bool, superName string) *scope {
	sc := &scope{qualName: qualName, isClassBody: isClassBody, superName: superName, nameIndex: map[string]int{}}
	for _, p := range params {
		sc.paramNames = append(sc.paramNames, p.Name)
		sc.declareLocal(p.Name)
	}
	return sc
}

// declareDefaults records params' default expressions, which must be
// literals (Ember's run_function default-fill materializes a fresh literal
// per call, not an arbitrary evaluated expression). Once a parameter has a
// default, every parameter after it must too.
func (sc *scope) declareDefaults(params []ast.Param) error {
	seenDefault := false
	for _, p := range params {
		if p.Default == nil {
			if seenDefault {
				return fmt.Errorf("%s: parameter %q has no default but follows one that does", sc.qualName, p.Name)
			}
			continue
		}
		seenDefault = true
		v, err := literalValue(p.Default)
		if err != nil {
			return fmt.Errorf("%s: default for parameter %q: %w", sc.qualName, p.Name, err)
		}
		sc.defaults = append(sc.defaults, v)
	}
	return nil
}

// literalValue converts a default-value expression into the raw Go value
// bytecode.CodeObject.Defaults expects.
func literalValue(e ast.Expression) (any, error) {
	switch v := e.(type) {
	case *ast.IntLiteral:
		return parseIntLiteral(v.Value)
	case *ast.FloatLiteral:
		return v.Value, nil
	case *ast.StringLiteral:
		return v.Value, nil
	case *ast.BoolLiteral:
		return v.Value, nil
	case *ast.NoneLiteral:
		return nil, nil
	default:
		return nil, fmt.Errorf("default parameter values must be literals, got %T", e)
	}
}

func parseIntLiteral(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer literal %q", s)
	}
	return n, nil
}

// declareLocal reserves name a slot, reusing one already assigned to the
// same name (so re-declaring a parameter name, which can't happen, or
// re-scanning the same assignment target twice is harmless).
func (sc *scope) declareLocal(name string) int {
	if idx, ok := sc.nameIndex[name]; ok {
		return idx
	}
	idx := len(sc.names)
	sc.names = append(sc.names, name)
	sc.nameIndex[name] = idx
	sc.numLocals++
	return idx
}

func (sc *scope) declareLocals(names []string) {
	for _, n := range names {
		sc.declareLocal(n)
	}
}

// internName interns name into the shared table for LoadGlobal/LoadAttr/
// StoreAttr use. It never allocates a new local slot — if name already is a
// local (e.g. an attribute named the same as some unrelated local
// variable), the local's existing index is returned; the string at that
// index is the same either way, and a local reference only ever reaches its
// slot through isLocal, not internName.
func (sc *scope) internName(name string) int {
	if idx, ok := sc.nameIndex[name]; ok {
		return idx
	}
	idx := len(sc.names)
	sc.names = append(sc.names, name)
	sc.nameIndex[name] = idx
	return idx
}

// isLocal reports whether name was reserved a local slot during the
// pre-scan (collectLocals); indices below numLocals are always locals,
// indices at or above it are names interned later purely as strings.
func (sc *scope) isLocal(name string) (int, bool) {
	idx, ok := sc.nameIndex[name]
	if ok && idx < sc.numLocals {
		return idx, true
	}
	return 0, false
}

func (sc *scope) addConst(v any) int {
	sc.consts = append(sc.consts, v)
	return len(sc.consts) - 1
}

func (sc *scope) emit(op bytecode.Opcode, operand int) int {
	sc.instructions = append(sc.instructions, bytecode.Instruction{Op: op, Operand: operand})
	return len(sc.instructions) - 1
}

func (sc *scope) here() int { return len(sc.instructions) }

func (sc *scope) patch(idx, target int) { sc.instructions[idx].Operand = target }

func (sc *scope) finish() *bytecode.CodeObject {
	return &bytecode.CodeObject{
		QualName:     sc.qualName,
		ParamNames:   sc.paramNames,
		Defaults:     sc.defaults,
		NumLocals:    sc.numLocals,
		Instructions: sc.instructions,
		Consts:       sc.consts,
		Names:        sc.names,
		IsClassBody:  sc.isClassBody,
		SuperName:    sc.superName,
	}
}

// collectLocals walks a body (without descending into nested def/class
// bodies, which get their own scope) and returns, in first-appearance
// order, every name that becomes a local of this scope: assignment targets,
// for-loop variables, and nested def/class names.
func collectLocals(stmts []ast.Statement) []string {
	seen := map[string]bool{}
	var order []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	var walk func([]ast.Statement)
	walk = func(stmts []ast.Statement) {
		for _, s := range stmts {
			switch st := s.(type) {
			case *ast.AssignStatement:
				if id, ok := st.Target.(*ast.Identifier); ok {
					add(id.Name)
				}
			case *ast.ForStatement:
				add(st.Name)
				walk(st.Body)
			case *ast.WhileStatement:
				walk(st.Body)
			case *ast.IfStatement:
				walk(st.Then)
				walk(st.Else)
			case *ast.DefStatement:
				add(st.Name)
			case *ast.ClassStatement:
				add(st.Name)
			}
		}
	}
	walk(stmts)
	return order
}

var binaryOps = map[string]bytecode.Opcode{
	"+": bytecode.OpBinaryAdd,
	"-": bytecode.OpBinarySub,
	"*": bytecode.OpBinaryMul,
	"/": bytecode.OpBinaryTrueDivision,
	"%": bytecode.OpBinaryMod,

	"<":  bytecode.OpCompareLt,
	"<=": bytecode.OpCompareLe,
	">":  bytecode.OpCompareGt,
	">=": bytecode.OpCompareGe,
	"==": bytecode.OpCompareEq,
	"!=": bytecode.OpCompareNe,
}

func (sc *scope) compileStatement(stmt ast.Statement) error {
	switch st := stmt.(type) {
	case *ast.ExprStatement:
		if err := sc.compileExpression(st.Expr); err != nil {
			return err
		}
		sc.emit(bytecode.OpPopTop, 0)
		return nil

	case *ast.AssignStatement:
		return sc.compileAssign(st)

	case *ast.ReturnStatement:
		if st.Value != nil {
			if err := sc.compileExpression(st.Value); err != nil {
				return err
			}
		} else {
			sc.emit(bytecode.OpLoadConst, sc.addConst(nil))
		}
		sc.emit(bytecode.OpReturnValue, 0)
		return nil

	case *ast.RaiseStatement:
		if err := sc.compileExpression(st.Value); err != nil {
			return err
		}
		sc.emit(bytecode.OpRaise, 0)
		return nil

	case *ast.IfStatement:
		return sc.compileIf(st)

	case *ast.WhileStatement:
		return sc.compileWhile(st)

	case *ast.ForStatement:
		return sc.compileFor(st)

	case *ast.DefStatement:
		return sc.compileDef(st)

	case *ast.ClassStatement:
		return sc.compileClass(st)

	default:
		return fmt.Errorf("%s: unsupported statement type %T", sc.qualName, stmt)
	}
}

func (sc *scope) compileAssign(st *ast.AssignStatement) error {
	switch t := st.Target.(type) {
	case *ast.Identifier:
		if err := sc.compileExpression(st.Value); err != nil {
			return err
		}
		slot, ok := sc.isLocal(t.Name)
		if !ok {
			return fmt.Errorf("%s: %q was not pre-declared as a local (compiler bug)", sc.qualName, t.Name)
		}
		sc.emit(bytecode.OpStoreName, slot)
		return nil

	case *ast.AttrExpr:
		// StoreAttr pops object then value, so value must be pushed first.
		if err := sc.compileExpression(st.Value); err != nil {
			return err
		}
		if err := sc.compileExpression(t.Receiver); err != nil {
			return err
		}
		sc.emit(bytecode.OpStoreAttr, sc.internName(t.Name))
		return nil

	default:
		return fmt.Errorf("%s: invalid assignment target %T", sc.qualName, st.Target)
	}
}

func (sc *scope) compileIf(st *ast.IfStatement) error {
	if err := sc.compileExpression(st.Cond); err != nil {
		return err
	}
	jumpElse := sc.emit(bytecode.OpJumpIfFalseAndPopStack, -1)
	for _, s := range st.Then {
		if err := sc.compileStatement(s); err != nil {
			return err
		}
	}
	if st.Else != nil {
		jumpEnd := sc.emit(bytecode.OpJumpUnconditional, -1)
		sc.patch(jumpElse, sc.here())
		for _, s := range st.Else {
			if err := sc.compileStatement(s); err != nil {
				return err
			}
		}
		sc.patch(jumpEnd, sc.here())
	} else {
		sc.patch(jumpElse, sc.here())
	}
	return nil
}

func (sc *scope) compileWhile(st *ast.WhileStatement) error {
	loopStart := sc.here()
	if err := sc.compileExpression(st.Cond); err != nil {
		return err
	}
	exitJump := sc.emit(bytecode.OpJumpIfFalseAndPopStack, -1)
	for _, s := range st.Body {
		if err := sc.compileStatement(s); err != nil {
			return err
		}
	}
	sc.emit(bytecode.OpJumpUnconditional, loopStart)
	sc.patch(exitJump, sc.here())
	return nil
}

// compileFor lowers `for name in iter { body }` to: evaluate iter, call its
// __iter__, then loop on ForIter — which peeks the iterator, pushes
// __next__'s result and falls through on a normal value, or (the language's
// sole StopIteration catch site) pops the iterator and jumps past the loop
// once it's exhausted.
func (sc *scope) compileFor(st *ast.ForStatement) error {
	if err := sc.compileExpression(st.Iter); err != nil {
		return err
	}
	sc.emit(bytecode.OpLoadAttr, sc.internName("__iter__"))
	sc.emit(bytecode.OpCallFunction, 0)

	loopStart := sc.here()
	exitJump := sc.emit(bytecode.OpForIter, -1)
	slot, ok := sc.isLocal(st.Name)
	if !ok {
		return fmt.Errorf("%s: %q was not pre-declared as a local (compiler bug)", sc.qualName, st.Name)
	}
	sc.emit(bytecode.OpStoreName, slot)
	for _, s := range st.Body {
		if err := sc.compileStatement(s); err != nil {
			return err
		}
	}
	sc.emit(bytecode.OpJumpUnconditional, loopStart)
	sc.patch(exitJump, sc.here())
	return nil
}

func (sc *scope) compileDef(st *ast.DefStatement) error {
	inner := newScope(st.Name, st.Params, false, "")
	if err := inner.declareDefaults(st.Params); err != nil {
		return err
	}
	inner.declareLocals(collectLocals(st.Body))
	for _, s := range st.Body {
		if err := inner.compileStatement(s); err != nil {
			return err
		}
	}
	code := inner.finish()

	sc.emit(bytecode.OpLoadConst, sc.addConst(code))
	slot, ok := sc.isLocal(st.Name)
	if !ok {
		return fmt.Errorf("%s: %q was not pre-declared as a local (compiler bug)", sc.qualName, st.Name)
	}
	sc.emit(bytecode.OpMakeFunction, slot)
	return nil
}

func (sc *scope) compileClass(st *ast.ClassStatement) error {
	inner := newScope(st.Name, nil, true, st.Super)
	inner.declareLocals(collectLocals(st.Body))
	for _, s := range st.Body {
		if err := inner.compileStatement(s); err != nil {
			return err
		}
	}
	code := inner.finish()

	sc.emit(bytecode.OpLoadConst, sc.addConst(code))
	slot, ok := sc.isLocal(st.Name)
	if !ok {
		return fmt.Errorf("%s: %q was not pre-declared as a local (compiler bug)", sc.qualName, st.Name)
	}
	sc.emit(bytecode.OpMakeClass, slot)
	return nil
}

func (sc *scope) compileExpression(expr ast.Expression) error {
	switch n := expr.(type) {
	case *ast.Identifier:
		if slot, ok := sc.isLocal(n.Name); ok {
			sc.emit(bytecode.OpLoadName, slot)
		} else {
			sc.emit(bytecode.OpLoadGlobal, sc.internName(n.Name))
		}
		return nil

	case *ast.IntLiteral:
		v, err := parseIntLiteral(n.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.qualName, err)
		}
		sc.emit(bytecode.OpLoadConst, sc.addConst(v))
		return nil

	case *ast.FloatLiteral:
		sc.emit(bytecode.OpLoadConst, sc.addConst(n.Value))
		return nil

	case *ast.StringLiteral:
		sc.emit(bytecode.OpLoadConst, sc.addConst(n.Value))
		return nil

	case *ast.BoolLiteral:
		sc.emit(bytecode.OpLoadConst, sc.addConst(n.Value))
		return nil

	case *ast.NoneLiteral:
		sc.emit(bytecode.OpLoadConst, sc.addConst(nil))
		return nil

	case *ast.ListLiteral:
		for _, el := range n.Elements {
			if err := sc.compileExpression(el); err != nil {
				return err
			}
		}
		sc.emit(bytecode.OpBuildList, len(n.Elements))
		return nil

	case *ast.BinaryExpr:
		return sc.compileBinary(n)

	case *ast.UnaryExpr:
		return sc.compileUnary(n)

	case *ast.AttrExpr:
		if err := sc.compileExpression(n.Receiver); err != nil {
			return err
		}
		sc.emit(bytecode.OpLoadAttr, sc.internName(n.Name))
		return nil

	case *ast.IndexExpr:
		if err := sc.compileExpression(n.Receiver); err != nil {
			return err
		}
		if err := sc.compileExpression(n.Index); err != nil {
			return err
		}
		sc.emit(bytecode.OpIndexAccess, 0)
		return nil

	case *ast.CallExpr:
		if err := sc.compileExpression(n.Callee); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := sc.compileExpression(a); err != nil {
				return err
			}
		}
		sc.emit(bytecode.OpCallFunction, len(n.Args))
		return nil

	default:
		return fmt.Errorf("%s: unsupported expression type %T", sc.qualName, expr)
	}
}

// compileBinary handles the opcode-backed arithmetic/comparison operators
// directly, and lowers `and`/`or` to a bool-dunder call: the left operand is
// coerced to a literal True/False (via toBool, the same Jump-based pattern
// `not` uses) and dispatched to __and__/__or__, which itself coerces its
// raw right-hand argument through __bool__/__len__ (see pkg/builtins'
// boolean type). Both operands are always evaluated — there is no Dup
// opcode to retain an already-computed left value across a short-circuit
// skip, so this is not short-circuiting the way Python's and/or are.
func (sc *scope) compileBinary(n *ast.BinaryExpr) error {
	if n.Op == "and" || n.Op == "or" {
		if err := sc.compileExpression(n.Left); err != nil {
			return err
		}
		sc.toBool()
		sc.emit(bytecode.OpLoadAttr, sc.internName("__"+n.Op+"__"))
		if err := sc.compileExpression(n.Right); err != nil {
			return err
		}
		sc.emit(bytecode.OpCallFunction, 1)
		return nil
	}

	op, ok := binaryOps[n.Op]
	if !ok {
		return fmt.Errorf("%s: unknown binary operator %q", sc.qualName, n.Op)
	}
	if err := sc.compileExpression(n.Left); err != nil {
		return err
	}
	if err := sc.compileExpression(n.Right); err != nil {
		return err
	}
	sc.emit(op, 0)
	return nil
}

// toBool reduces the top-of-stack value to a literal True/False, consuming
// it either way: JumpIfFalseAndPopStack pops and tests the value, so both
// branches fall through with the stack balanced before pushing their own
// constant.
func (sc *scope) toBool() {
	falseJump := sc.emit(bytecode.OpJumpIfFalseAndPopStack, -1)
	sc.emit(bytecode.OpLoadConst, sc.addConst(true))
	endJump := sc.emit(bytecode.OpJumpUnconditional, -1)
	sc.patch(falseJump, sc.here())
	sc.emit(bytecode.OpLoadConst, sc.addConst(false))
	sc.patch(endJump, sc.here())
}

func (sc *scope) compileUnary(n *ast.UnaryExpr) error {
	switch n.Op {
	case "not":
		if err := sc.compileExpression(n.Operand); err != nil {
			return err
		}
		// Same shape as toBool with the branches swapped.
		falseJump := sc.emit(bytecode.OpJumpIfFalseAndPopStack, -1)
		sc.emit(bytecode.OpLoadConst, sc.addConst(false))
		endJump := sc.emit(bytecode.OpJumpUnconditional, -1)
		sc.patch(falseJump, sc.here())
		sc.emit(bytecode.OpLoadConst, sc.addConst(true))
		sc.patch(endJump, sc.here())
		return nil

	case "-":
		return sc.compileUnaryDunder(n, "__neg__")
	case "+":
		return sc.compileUnaryDunder(n, "__pos__")
	default:
		return fmt.Errorf("%s: unknown unary operator %q", sc.qualName, n.Op)
	}
}

// compileUnaryDunder lowers a unary operator to a zero-arg dunder call;
// there is no dedicated unary-negate opcode, so this reuses LoadAttr/
// CallFunction the same way a method call does.
func (sc *scope) compileUnaryDunder(n *ast.UnaryExpr, dunder string) error {
	if err := sc.compileExpression(n.Operand); err != nil {
		return err
	}
	sc.emit(bytecode.OpLoadAttr, sc.internName(dunder))
	sc.emit(bytecode.OpCallFunction, 0)
	return nil
}
