// Package mathx holds the small integer helpers the drivers share.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundDiv returns a/b rounded half up. b == 0 yields 0.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// Scale maps a code in [0, full] linearly onto [0, span] with rounding,
// using 64-bit intermediates. Codes above full saturate at span.
func Scale(code, full uint32, span int32) int32 {
	if full == 0 {
		return 0
	}
	if code > full {
		code = full
	}
	s := int64(code) * int64(span)
	if s < 0 {
		return int32((s - int64(full)/2) / int64(full))
	}
	return int32((s + int64(full)/2) / int64(full))
}
