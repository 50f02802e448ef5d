package object_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emberlang/ember/pkg/object"
)

func TestBigIntArithmetic(t *testing.T) {
	a := object.NewBigInt(7)
	b := object.NewBigInt(2)
	assert.Equal(t, "9", a.Add(b).String())
	assert.Equal(t, "5", a.Sub(b).String())
	assert.Equal(t, "14", a.Mul(b).String())
	assert.Equal(t, "1", a.Mod(b).String())
	assert.Equal(t, "-7", a.Neg().String())
}

func TestBigIntBeyondInt64Precision(t *testing.T) {
	huge := object.NewBigInt(math.MaxInt64)
	one := object.NewBigInt(1)
	sum := huge.Add(one)
	assert.Equal(t, "9223372036854775808", sum.String())
}

func TestBigIntCmpAndIsZero(t *testing.T) {
	assert.Equal(t, 0, object.NewBigInt(3).Cmp(object.NewBigInt(3)))
	assert.Equal(t, -1, object.NewBigInt(2).Cmp(object.NewBigInt(3)))
	assert.Equal(t, 1, object.NewBigInt(3).Cmp(object.NewBigInt(2)))
	assert.True(t, object.NewBigInt(0).IsZero())
	assert.False(t, object.NewBigInt(1).IsZero())
}

func TestFloatValCmpOrdersNaNAboveEverything(t *testing.T) {
	nan := object.NewFloatVal(math.NaN())
	one := object.NewFloatVal(1.0)
	assert.Equal(t, 1, nan.Cmp(one))
	assert.Equal(t, -1, one.Cmp(nan))
	assert.Equal(t, 0, nan.Cmp(object.NewFloatVal(math.NaN())))
}

func TestFloatValCmpOrdersNegativeZeroBelowPositiveZero(t *testing.T) {
	negZero := object.NewFloatVal(math.Copysign(0, -1))
	posZero := object.NewFloatVal(0)
	assert.Equal(t, -1, negZero.Cmp(posZero))
	assert.Equal(t, 1, posZero.Cmp(negZero))
	assert.Equal(t, 0, posZero.Cmp(posZero))
}

func TestFloatValCmpOrdinaryOrdering(t *testing.T) {
	assert.Equal(t, -1, object.NewFloatVal(1).Cmp(object.NewFloatVal(2)))
	assert.Equal(t, 1, object.NewFloatVal(2).Cmp(object.NewFloatVal(1)))
}

func TestNewObjectInitializesPropertiesMap(t *testing.T) {
	o := object.NewObject(object.KindNone, 0)
	assert.Equal(t, object.KindNone, o.Kind)
	assert.NotNil(t, o.Properties)
	assert.Empty(t, o.Properties)
}
