package testharness

import (
	"math"
)

// ulpTolerance is the maximum units-in-the-last-place distance that still
// counts as equal, matching hxtest_float_eq_/hxtest_double_eq_'s fixed
// 4-ULP threshold (the same tolerance Google Test's EXPECT_FLOAT_EQ and
// EXPECT_DOUBLE_EQ use).
const ulpTolerance = 4

// FloatEqual compares a and b by ULP distance rather than bit-for-bit or
// epsilon comparison. Unlike Google Test, any non-finite input makes the
// comparison fail outright - comparing test data against NaN or infinity
// usually indicates a bug in the test itself, not a result worth accepting.
func FloatEqual(a, b float32) bool {
	if !isFiniteFloat32(a) || !isFiniteFloat32(b) {
		return false
	}
	if a == b {
		return true
	}
	return ulpDistance32(a, b) <= ulpTolerance
}

// DoubleEqual is FloatEqual's float64 counterpart.
func DoubleEqual(a, b float64) bool {
	if !math.IsInf(a, 0) && !math.IsNaN(a) && !math.IsInf(b, 0) && !math.IsNaN(b) {
		if a == b {
			return true
		}
		return ulpDistance64(a, b) <= ulpTolerance
	}
	return false
}

func isFiniteFloat32(f float32) bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ulpDistance32 maps a's and b's bit patterns to a monotonic ordering (so
// adjacent floats differ by exactly one ulp, including across the
// positive/negative zero boundary) and returns the absolute difference.
func ulpDistance32(a, b float32) uint32 {
	return absDiffUint32(monotonicBits32(a), monotonicBits32(b))
}

func monotonicBits32(f float32) uint32 {
	bits := math.Float32bits(f)
	const signMask = uint32(1) << 31
	if bits&signMask != 0 {
		return ^bits + 1
	}
	return signMask | bits
}

func absDiffUint32(a, b uint32) uint32 {
	if a >= b {
		return a - b
	}
	return b - a
}

func ulpDistance64(a, b float64) uint64 {
	return absDiffUint64(monotonicBits64(a), monotonicBits64(b))
}

func monotonicBits64(f float64) uint64 {
	bits := math.Float64bits(f)
	const signMask = uint64(1) << 63
	if bits&signMask != 0 {
		return ^bits + 1
	}
	return signMask | bits
}

func absDiffUint64(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return b - a
}
