package maniac

import "math/bits"

// Ilog2 returns floor(log2(x)) for x >= 1. Ilog2(0) is defined as 0, since
// callers only use it on values known to be >= 1 except for the
// already-zero-checked symbol path.
func Ilog2(x int32) int {
	if x <= 0 {
		return 0
	}
	return bits.Len32(uint32(x)) - 1
}

// Abs returns the absolute value of x.
func Abs(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// Median3 returns the median of three values, matching util.h's median3.
func Median3(a, b, c int32) int32 {
	if a < b {
		if b < c {
			return b
		}
		if a < c {
			return c
		}
		return a
	}
	if a < c {
		return a
	}
	if b < c {
		return c
	}
	return b
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi int32) int32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// DivDown computes integer division rounded toward negative infinity.
func DivDown(sum int64, count int32) int32 {
	if count <= 0 {
		return 0
	}
	if sum >= 0 {
		return int32(sum / int64(count))
	}
	return -int32((-sum + int64(count) - 1) / int64(count))
}
