package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/builtins"
	"github.com/emberlang/ember/pkg/compiler"
	"github.com/emberlang/ember/pkg/object"
	"github.com/emberlang/ember/pkg/parser"
	"github.com/emberlang/ember/pkg/vm"
)

// newRuntime builds a fresh VM with every built-in type and function wired
// in, the same way cmd/ember's entry point does before running a program.
func newRuntime() *vm.VM {
	v := vm.New()
	builtins.Register(v)
	return v
}

// run compiles and executes src as a whole module in v, so the caller can
// inspect v's globals afterward.
func run(t *testing.T, v *vm.VM, src string) {
	t.Helper()
	p := parser.New(src)
	program, err := p.Parse()
	require.NoError(t, err, "parser errors: %v", p.Errors())
	bc, err := compiler.New().Compile(program)
	require.NoError(t, err)
	_, runErr := v.RunModule(v.Load(bc))
	require.Nil(t, runErr, "runtime error: %v", runErr)
}

// evalExpr wraps expr in a zero-arg top-level function, runs the module to
// define it, then calls it directly and returns its result address — the
// only way to observe a value a test didn't print, since a module frame's
// locals aren't reachable once RunModule returns.
func evalExpr(t *testing.T, v *vm.VM, expr string) object.Address {
	t.Helper()
	run(t, v, "def __probe__() {\n\treturn "+expr+"\n}")
	fn, ok := v.FindInModule(v.MainModule, "__probe__")
	require.True(t, ok)
	return v.RunFunction(nil, fn, nil)
}

func TestIntegerAddition(t *testing.T) {
	v := newRuntime()
	result := evalExpr(t, v, "1 + 2")
	o := v.Get(result)
	assert.Equal(t, object.BuiltinInt, o.Builtin)
	assert.Equal(t, "3", o.IntVal.String())
}

func TestMixedIntFloatArithmeticPromotesToFloat(t *testing.T) {
	v := newRuntime()
	result := evalExpr(t, v, "1 + 2.5")
	o := v.Get(result)
	assert.Equal(t, object.BuiltinFloat, o.Builtin)
	assert.Equal(t, 3.5, o.FloatVal.V)
}

func TestTrueDivisionAlwaysProducesFloat(t *testing.T) {
	v := newRuntime()
	result := evalExpr(t, v, "4 / 2")
	o := v.Get(result)
	assert.Equal(t, object.BuiltinFloat, o.Builtin)
	assert.Equal(t, 2.0, o.FloatVal.V)
}

func TestComparisonProducesBool(t *testing.T) {
	v := newRuntime()
	result := evalExpr(t, v, "3 < 4")
	assert.Equal(t, v.TrueAddr, result)
}

func TestBoolAddsAsIntViaSingleInheritance(t *testing.T) {
	v := newRuntime()
	result := evalExpr(t, v, "True + 1")
	o := v.Get(result)
	assert.Equal(t, object.BuiltinInt, o.Builtin)
	assert.Equal(t, "2", o.IntVal.String())
}

func TestAndOrNonShortCircuitDunderDispatch(t *testing.T) {
	v := newRuntime()
	assert.Equal(t, v.TrueAddr, evalExpr(t, v, "True and True"))
	assert.Equal(t, v.FalseAddr, evalExpr(t, v, "True and False"))
	assert.Equal(t, v.TrueAddr, evalExpr(t, v, "False or True"))
	assert.Equal(t, v.FalseAddr, evalExpr(t, v, "False or False"))
}

func TestNotNegation(t *testing.T) {
	v := newRuntime()
	assert.Equal(t, v.FalseAddr, evalExpr(t, v, "not True"))
	assert.Equal(t, v.TrueAddr, evalExpr(t, v, "not False"))
}

func TestUnaryNeg(t *testing.T) {
	v := newRuntime()
	result := evalExpr(t, v, "-5")
	o := v.Get(result)
	assert.Equal(t, "-5", o.IntVal.String())
}

func TestListConstructionAndIteration(t *testing.T) {
	v := newRuntime()
	result := evalExpr(t, v, "list([1, 2, 3])")
	o := v.Get(result)
	require.Equal(t, object.BuiltinList, o.Builtin)
	require.Len(t, o.ListVal, 3)
}

func TestForLoopOverListAccumulates(t *testing.T) {
	v := newRuntime()
	run(t, v, `def sumlist(items) {
	total = 0
	for x in items {
		total = total + x
	}
	return total
}`)
	fn, ok := v.FindInModule(v.MainModule, "sumlist")
	require.True(t, ok)
	list := v.AllocBuiltin(v.ListType, object.BuiltinList, []object.Address{
		v.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(1)),
		v.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(2)),
		v.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(3)),
	})
	result := v.RunFunction([]object.Address{list}, fn, nil)
	o := v.Get(result)
	assert.Equal(t, "6", o.IntVal.String())
}

func TestListIndexOutOfRangeRaisesIndexError(t *testing.T) {
	v := newRuntime()
	run(t, v, `def bad() {
	x = [1, 2]
	return x[5]
}`)
	fn, ok := v.FindInModule(v.MainModule, "bad")
	require.True(t, ok)
	result := v.RunFunction(nil, fn, nil)
	assert.True(t, v.HasPendingException())
	_ = result
}

func TestUserDefinedClassAndBoundMethodCall(t *testing.T) {
	v := newRuntime()
	run(t, v, `class Counter {
	def __init__(self, start) {
		self.value = start
	}
	def increment(self) {
		self.value = self.value + 1
		return self.value
	}
}`)
	classType, ok := v.FindInModule(v.MainModule, "Counter")
	require.True(t, ok)
	zero := v.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(10))
	inst := v.RunFunction([]object.Address{zero}, classType, nil)
	result := v.CallMethod(inst, "increment", nil)
	o := v.Get(result)
	assert.Equal(t, "11", o.IntVal.String())
}

func TestSingleInheritanceMethodResolution(t *testing.T) {
	v := newRuntime()
	run(t, v, `class Animal {
	def speak(self) {
		return 1
	}
}
class Dog: Animal {
}`)
	dogType, ok := v.FindInModule(v.MainModule, "Dog")
	require.True(t, ok)
	inst := v.RunFunction(nil, dogType, nil)
	result := v.CallMethod(inst, "speak", nil)
	o := v.Get(result)
	assert.Equal(t, "1", o.IntVal.String())
}

func TestDefaultParameterFillsTrailingArgument(t *testing.T) {
	v := newRuntime()
	run(t, v, `def greet(name, times=2) {
	return times
}`)
	fn, ok := v.FindInModule(v.MainModule, "greet")
	require.True(t, ok)
	name := v.AllocBuiltin(v.StrType, object.BuiltinString, "hi")
	result := v.RunFunction([]object.Address{name}, fn, nil)
	o := v.Get(result)
	assert.Equal(t, "2", o.IntVal.String())
}

func TestWhileLoopCountsDown(t *testing.T) {
	v := newRuntime()
	run(t, v, `def countdown(n) {
	total = 0
	while n > 0 {
		total = total + n
		n = n - 1
	}
	return total
}`)
	fn, ok := v.FindInModule(v.MainModule, "countdown")
	require.True(t, ok)
	n := v.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(3))
	result := v.RunFunction([]object.Address{n}, fn, nil)
	o := v.Get(result)
	assert.Equal(t, "6", o.IntVal.String())
}

func TestIfElseBranching(t *testing.T) {
	v := newRuntime()
	run(t, v, `def sign(n) {
	if n < 0 {
		return -1
	} else {
		return 1
	}
}`)
	fn, ok := v.FindInModule(v.MainModule, "sign")
	require.True(t, ok)
	neg := v.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(-5))
	result := v.RunFunction([]object.Address{neg}, fn, nil)
	o := v.Get(result)
	assert.Equal(t, "-1", o.IntVal.String())
}

func TestCallFunctionDoesNotFreeLiveArgument(t *testing.T) {
	v := newRuntime()
	run(t, v, `def noop(y) {
	return 0
}
def main() {
	x = 1 + 1
	noop(x)
	return x
}`)
	fn, ok := v.FindInModule(v.MainModule, "main")
	require.True(t, ok)
	result := v.RunFunction(nil, fn, nil)
	o := v.Get(result)
	assert.Equal(t, "2", o.IntVal.String())
}

func TestAndOrCoercionFallbackReturnsOperandNotSynthesizedBool(t *testing.T) {
	v := newRuntime()
	run(t, v, `class Box {
	def __init__(self, n) {
		self.n = n
	}
	def __len__(self) {
		return self.n
	}
}
def andcase(a, b) {
	return a and b
}
def orcase(a, b) {
	return a or b
}`)
	boxType, ok := v.FindInModule(v.MainModule, "Box")
	require.True(t, ok)
	andFn, ok := v.FindInModule(v.MainModule, "andcase")
	require.True(t, ok)
	orFn, ok := v.FindInModule(v.MainModule, "orcase")
	require.True(t, ok)

	newBox := func(n int64) object.Address {
		arg := v.AllocBuiltin(v.IntType, object.BuiltinInt, object.NewBigInt(n))
		return v.RunFunction([]object.Address{arg}, boxType, nil)
	}

	truthyBox := newBox(1)
	falsyBox := newBox(0)

	// True and <truthy box>: __and__'s coercion fallback returns the other
	// operand (the box itself) on a true result, not a fresh True.
	result := v.RunFunction([]object.Address{v.TrueAddr, truthyBox}, andFn, nil)
	assert.Equal(t, truthyBox, result)

	// True and <falsy box>: false result returns self (True), not the box.
	result = v.RunFunction([]object.Address{v.TrueAddr, falsyBox}, andFn, nil)
	assert.Equal(t, v.TrueAddr, result)

	// False or <falsy box>: __or__'s coercion fallback returns the other
	// operand (the box itself) on a false result, not a fresh False.
	result = v.RunFunction([]object.Address{v.FalseAddr, falsyBox}, orFn, nil)
	assert.Equal(t, falsyBox, result)

	// False or <truthy box>: true result returns self (False), not the box.
	result = v.RunFunction([]object.Address{v.FalseAddr, truthyBox}, orFn, nil)
	assert.Equal(t, v.FalseAddr, result)
}

func TestUncaughtExceptionSurfacesAsRuntimeError(t *testing.T) {
	v := newRuntime()
	p := parser.New(`raise "boom"`)
	program, err := p.Parse()
	require.NoError(t, err)
	bc, err := compiler.New().Compile(program)
	require.NoError(t, err)
	_, runErr := v.RunModule(v.Load(bc))
	require.NotNil(t, runErr)
	assert.Contains(t, runErr.Error(), "boom")
}
