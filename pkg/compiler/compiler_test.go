package compiler_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/bytecode"
	"github.com/emberlang/ember/pkg/compiler"
	"github.com/emberlang/ember/pkg/parser"
)

func compile(t *testing.T, src string) *bytecode.CodeObject {
	t.Helper()
	p := parser.New(src)
	program, err := p.Parse()
	require.NoError(t, err, "parser errors: %v", p.Errors())
	code, err := compiler.New().Compile(program)
	require.NoError(t, err)
	return code
}

func opcodes(code *bytecode.CodeObject) []bytecode.Opcode {
	ops := make([]bytecode.Opcode, len(code.Instructions))
	for i, instr := range code.Instructions {
		ops[i] = instr.Op
	}
	return ops
}

func TestCompileIntLiteralExprStatement(t *testing.T) {
	code := compile(t, "1")
	assert.Equal(t, []bytecode.Opcode{bytecode.OpLoadConst, bytecode.OpPopTop}, opcodes(code))
	require.Len(t, code.Consts, 1)
	n := code.Consts[0].(*big.Int)
	assert.Equal(t, "1", n.String())
}

func TestCompileBinaryAdd(t *testing.T) {
	code := compile(t, "1 + 2")
	assert.Equal(t, []bytecode.Opcode{
		bytecode.OpLoadConst, bytecode.OpLoadConst, bytecode.OpBinaryAdd, bytecode.OpPopTop,
	}, opcodes(code))
}

func TestCompileAssignToLocal(t *testing.T) {
	code := compile(t, "x = 1")
	assert.Equal(t, []bytecode.Opcode{bytecode.OpLoadConst, bytecode.OpStoreName}, opcodes(code))
	assert.Equal(t, 1, code.NumLocals)
	assert.Equal(t, []string{"x"}, code.Names)
	assert.Equal(t, 0, code.Instructions[1].Operand)
}

func TestCompileAssignToAttributePushesValueBeforeReceiver(t *testing.T) {
	code := compile(t, "obj.field = 1")
	// obj is never assigned, so it resolves as a global load, not a local.
	assert.Equal(t, []bytecode.Opcode{
		bytecode.OpLoadConst, bytecode.OpLoadGlobal, bytecode.OpStoreAttr,
	}, opcodes(code))
}

func TestCompileIndexAssignmentIsRejected(t *testing.T) {
	p := parser.New("x[0] = 1")
	program, err := p.Parse()
	require.NoError(t, err)
	_, err = compiler.New().Compile(program)
	assert.Error(t, err)
}

func TestCompileUndeclaredNameLoadsGlobal(t *testing.T) {
	code := compile(t, "print(x)")
	assert.Contains(t, opcodes(code), bytecode.OpLoadGlobal)
}

func TestCompileLocalAssignedAnywhereInScope(t *testing.T) {
	code := compile(t, `if True {
	x = 1
}
x = 2`)
	assert.Equal(t, 1, code.NumLocals)
	assert.Equal(t, []string{"x"}, code.Names)
}

func TestCompileIfElseJumpsPatched(t *testing.T) {
	code := compile(t, `if x {
	y = 1
} else {
	y = 2
}`)
	var sawElseJump, sawCondJump bool
	for _, instr := range code.Instructions {
		if instr.Op == bytecode.OpJumpIfFalseAndPopStack {
			sawCondJump = true
			assert.Greater(t, instr.Operand, 0)
		}
		if instr.Op == bytecode.OpJumpUnconditional {
			sawElseJump = true
			assert.Equal(t, len(code.Instructions), instr.Operand)
		}
	}
	assert.True(t, sawCondJump)
	assert.True(t, sawElseJump)
}

func TestCompileWhileLoopsBackToCondition(t *testing.T) {
	code := compile(t, `while x {
	y = 1
}`)
	var backJump *bytecode.Instruction
	for i := range code.Instructions {
		if code.Instructions[i].Op == bytecode.OpJumpUnconditional {
			backJump = &code.Instructions[i]
		}
	}
	require.NotNil(t, backJump)
	assert.Equal(t, 0, backJump.Operand)
}

func TestCompileForUsesForIterAndIterProtocol(t *testing.T) {
	code := compile(t, `for item in items {
	x = item
}`)
	ops := opcodes(code)
	assert.Contains(t, ops, bytecode.OpLoadAttr)
	assert.Contains(t, ops, bytecode.OpForIter)
	assert.Contains(t, code.Names, "__iter__")
}

func TestCompileDefEmitsNestedCodeObjectAndMakeFunction(t *testing.T) {
	code := compile(t, `def greet(name) {
	return name
}`)
	require.Len(t, code.Consts, 1)
	nested, ok := code.Consts[0].(*bytecode.CodeObject)
	require.True(t, ok)
	assert.Equal(t, "greet", nested.QualName)
	assert.Equal(t, []string{"name"}, nested.ParamNames)
	assert.Contains(t, opcodes(code), bytecode.OpMakeFunction)
}

func compileErr(t *testing.T, src string) error {
	t.Helper()
	p := parser.New(src)
	program, err := p.Parse()
	require.NoError(t, err)
	_, compileErr := compiler.New().Compile(program)
	return compileErr
}

func TestCompileDefWithDefaultsMustTrail(t *testing.T) {
	assert.Error(t, compileErr(t, `def f(a=1, b) {
	return b
}`))
}

func TestCompileDefaultValueMustBeLiteral(t *testing.T) {
	assert.Error(t, compileErr(t, `def f(a=1+1) {
	return a
}`))
}

func TestCompileClassEmitsMakeClassWithSuperName(t *testing.T) {
	code := compile(t, `class Dog: Animal {
	def bark(self) {
		return 1
	}
}`)
	require.Len(t, code.Consts, 1)
	nested := code.Consts[0].(*bytecode.CodeObject)
	assert.True(t, nested.IsClassBody)
	assert.Equal(t, "Animal", nested.SuperName)
	assert.Contains(t, opcodes(code), bytecode.OpMakeClass)
}

func TestCompileAndOrLowerToDunderDispatch(t *testing.T) {
	code := compile(t, "a and b")
	assert.Contains(t, code.Names, "__and__")
	assert.Contains(t, opcodes(code), bytecode.OpJumpIfFalseAndPopStack)
	assert.Contains(t, opcodes(code), bytecode.OpCallFunction)
}

func TestCompileUnaryNegAndPosLowerToDunders(t *testing.T) {
	code := compile(t, "-a\n+a")
	assert.Contains(t, code.Names, "__neg__")
	assert.Contains(t, code.Names, "__pos__")
}

func TestCompileNotLowersToSwappedBranches(t *testing.T) {
	code := compile(t, "not a")
	ops := opcodes(code)
	assert.Contains(t, ops, bytecode.OpJumpIfFalseAndPopStack)
	assert.Contains(t, ops, bytecode.OpLoadConst)
}

func TestCompileListLiteral(t *testing.T) {
	code := compile(t, "[1, 2, 3]")
	var build *bytecode.Instruction
	for i := range code.Instructions {
		if code.Instructions[i].Op == bytecode.OpBuildList {
			build = &code.Instructions[i]
		}
	}
	require.NotNil(t, build)
	assert.Equal(t, 3, build.Operand)
}

func TestCompileSnippetUsesUniqueQualNames(t *testing.T) {
	c := compiler.New()
	p1 := parser.New("1")
	prog1, err := p1.Parse()
	require.NoError(t, err)
	p2 := parser.New("2")
	prog2, err := p2.Parse()
	require.NoError(t, err)

	code1, err := c.CompileSnippet(prog1)
	require.NoError(t, err)
	code2, err := c.CompileSnippet(prog2)
	require.NoError(t, err)

	assert.NotEqual(t, code1.QualName, code2.QualName)
	assert.Contains(t, code1.QualName, "<repl:")
}
