// Package mathx holds small generic numeric helpers shared by drivers.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. Swapped bounds are tolerated.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// Between reports whether lo <= v <= hi.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

// Prefix returns at most n leading elements of s.
func Prefix[S ~[]E | ~string, E any](s S, n int) S {
	return s[:Clamp(n, 0, len(s))]
}
