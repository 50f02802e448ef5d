package object

import "math/big"

// BigInt wraps math/big.Int to give Ember's int type the original runtime's
// i128 precision without hand-rolling a 128-bit integer type. big.Int is the
// standard library's arbitrary-precision integer; nothing in the retrieval
// pack ships an int128 library, and reaching for one just to cap precision at
// 128 bits rather than arbitrary would be a step backward, not an improvement.
type BigInt struct {
	V *big.Int
}

// NewBigInt builds a BigInt from a native int64, the common case for
// literals and loop counters.
func NewBigInt(v int64) BigInt {
	return BigInt{V: big.NewInt(v)}
}

func (b BigInt) Add(o BigInt) BigInt { return BigInt{V: new(big.Int).Add(b.V, o.V)} }
func (b BigInt) Sub(o BigInt) BigInt { return BigInt{V: new(big.Int).Sub(b.V, o.V)} }
func (b BigInt) Mul(o BigInt) BigInt { return BigInt{V: new(big.Int).Mul(b.V, o.V)} }
func (b BigInt) Mod(o BigInt) BigInt { return BigInt{V: new(big.Int).Mod(b.V, o.V)} }
func (b BigInt) Neg() BigInt         { return BigInt{V: new(big.Int).Neg(b.V)} }
func (b BigInt) Cmp(o BigInt) int    { return b.V.Cmp(o.V) }
func (b BigInt) IsZero() bool        { return b.V.Sign() == 0 }
func (b BigInt) Int64() int64        { return b.V.Int64() }
func (b BigInt) Float64() float64    { f, _ := new(big.Float).SetInt(b.V).Float64(); return f }
func (b BigInt) String() string      { return b.V.String() }

// FloatVal wraps float64 with a total order (per IEEE 754-2008 totalOrder)
// so the runtime's float comparisons behave consistently for NaN and -0.0 —
// the same concern the original's total-order wrapper addresses, since Go's
// plain < and == on float64 treat NaN as unordered and -0.0 == 0.0.
type FloatVal struct {
	V float64
}

func NewFloatVal(v float64) FloatVal { return FloatVal{V: v} }

// Cmp returns -1, 0, or 1 using a total order: NaN sorts above any non-NaN
// value (and NaN == NaN), -0.0 sorts below +0.0.
func (f FloatVal) Cmp(o FloatVal) int {
	a, b := f.V, o.V
	aNaN, bNaN := a != a, b != b
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	// a == b numerically; break the -0.0 vs +0.0 tie.
	aNeg, bNeg := isNegZero(a), isNegZero(b)
	switch {
	case aNeg && !bNeg:
		return -1
	case !aNeg && bNeg:
		return 1
	default:
		return 0
	}
}

func isNegZero(f float64) bool {
	return f == 0 && (1/f) < 0
}
