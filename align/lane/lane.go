// Package lane implements a small capability set in place of
// template-specialized SIMD traits: operations like add, set1, max, cmpeq,
// blend, mask_set, zero, load, and store, monomorphized over the lane
// element type, rather than one inheritance hierarchy per width.
//
// The original kernel specialized these as AVX-512 intrinsics per score
// type (int8_t/int16_t/int32_t). Go has no portable SIMD intrinsics
// without cgo or hand-written assembly per architecture; this package is
// the same kind of portable fallback grailbio/base/simd ships for
// non-amd64 builds (a plain Go loop with identical semantics to the
// vectorized routine) — see grailbio-bio's count_generic.go. Every
// operation here processes a full lane in one call, so the vectorized DP
// kernel's structure (one call per DP cell, one lane-width chunk of
// queries advanced together) is preserved even though the arithmetic
// itself is a Go loop rather than a single machine instruction.
package lane

// Elem is the constraint on lane score types: the three supported score
// precisions.
type Elem interface {
	~int8 | ~int16 | ~int32
}

// Vec is one SIMD-width register: LaneCount(v) independent score values,
// one per query in the batch, advanced in lockstep.
type Vec[T Elem] []T

// Mask is the lane-wise result of a comparison, used to select updates
// (blend/mask_set) without branching per lane.
type Mask []bool

// Zero returns a width-lane register with every lane set to 0.
func Zero[T Elem](width int) Vec[T] {
	return make(Vec[T], width)
}

// Set1 returns a width-lane register with every lane set to v (broadcast).
func Set1[T Elem](width int, v T) Vec[T] {
	out := make(Vec[T], width)
	for i := range out {
		out[i] = v
	}
	return out
}

// Load copies width scalars from mem into a fresh register. mem must have
// at least width elements.
func Load[T Elem](mem []T, width int) Vec[T] {
	out := make(Vec[T], width)
	copy(out, mem[:width])
	return out
}

// Store copies v's lanes into mem.
func Store[T Elem](mem []T, v Vec[T]) {
	copy(mem, v)
}

// LaneCount returns the number of lanes packed in v.
func LaneCount[T Elem](v Vec[T]) int {
	return len(v)
}

// Add returns the lane-wise sum a+b.
func Add[T Elem](a, b Vec[T]) Vec[T] {
	out := make(Vec[T], len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// Sub returns the lane-wise difference a-b.
func Sub[T Elem](a, b Vec[T]) Vec[T] {
	out := make(Vec[T], len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// AddScalar returns a with c added to every lane.
func AddScalar[T Elem](a Vec[T], c T) Vec[T] {
	out := make(Vec[T], len(a))
	for i := range a {
		out[i] = a[i] + c
	}
	return out
}

// SubScalar returns a with c subtracted from every lane.
func SubScalar[T Elem](a Vec[T], c T) Vec[T] {
	out := make(Vec[T], len(a))
	for i := range a {
		out[i] = a[i] - c
	}
	return out
}

// Max returns the lane-wise maximum of a and b.
func Max[T Elem](a, b Vec[T]) Vec[T] {
	out := make(Vec[T], len(a))
	for i := range a {
		if a[i] > b[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

// CmpEq returns a mask that is true in every lane where a[i]==b[i].
func CmpEq[T Elem](a, b Vec[T]) Mask {
	out := make(Mask, len(a))
	for i := range a {
		out[i] = a[i] == b[i]
	}
	return out
}

// CmpGe returns a mask that is true in every lane where a[i]>=b[i].
func CmpGe[T Elem](a, b Vec[T]) Mask {
	out := make(Mask, len(a))
	for i := range a {
		out[i] = a[i] >= b[i]
	}
	return out
}

// Blend selects a[i] where mask[i] is true, otherwise b[i].
func Blend[T Elem](mask Mask, a, b Vec[T]) Vec[T] {
	out := make(Vec[T], len(a))
	for i := range a {
		if mask[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

// MaskSet overwrites v's lanes with val wherever mask is true, in place.
func MaskSet[T Elem](v Vec[T], mask Mask, val T) {
	for i, m := range mask {
		if m {
			v[i] = val
		}
	}
}

// MaskSetInt overwrites an int register's lanes with val wherever mask is
// true, in place. Column/row tracking registers are always 4 bytes wide
// regardless of score precision, so they use their own int32 vector rather
// than Vec[T].
func MaskSetInt(v []int32, mask Mask, val int32) {
	for i, m := range mask {
		if m {
			v[i] = val
		}
	}
}
