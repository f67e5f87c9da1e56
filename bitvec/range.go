package bitvec

import (
	"math"
	"unsafe"
)

// Integer covers the element types that can be packed into and out of a
// [Range].
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// Range is a cursor paired with a fixed width in bits. Successive fields of
// the same width are visited by shifting the range forward with [Range.Next];
// bulk packing of integer runs goes through [Append] and [Extract].
type Range struct {
	start Cursor
	size  int
}

// NewRange returns a range of `size` bits beginning at `start`.
func NewRange(start Cursor, size int) Range {
	return Range{start: start, size: size}
}

// Begin returns a cursor at the first bit of the range.
func (r Range) Begin() Cursor { return r.start }

// End returns a cursor one past the last bit of the range.
func (r Range) End() Cursor { return r.start.Add(r.size) }

// Size returns the width of the range in bits.
func (r Range) Size() int { return r.size }

// Next shifts the range forward by its own size.
func (r *Range) Next() {
	r.start.Advance(r.size)
}

// Uint reads the range as an unsigned integer. The range must not be wider
// than 64 bits; use [Extract] for runs that need clamping.
func (r Range) Uint() uint64 { return r.start.Uint(r.size) }

// Int reads the range as a sign-extended integer.
func (r Range) Int() int64 { return r.start.Int(r.size) }

// signedInteger reports whether T is a signed type.
func signedInteger[T Integer]() bool {
	return T(0)-1 < T(0)
}

// integerBits returns the width of T in bits.
func integerBits[T Integer]() int {
	var v T
	return int(unsafe.Sizeof(v)) * 8
}

// Append deposits each value of `vals` into the range and its successors,
// advancing the range past the appended run. Values are masked to the range
// width; for signed element types the mask keeps the low bits including the
// sign bit, so sign-extension on extraction recovers the value. The
// destination bits must be zero.
func Append[T Integer](r *Range, vals []T) {
	if r.size == 0 {
		return
	}
	if signedInteger[T]() {
		for _, v := range vals {
			r.start.OrUint(r.size, uint64(int64(v)))
			r.start.Advance(r.size)
		}
	} else {
		for _, v := range vals {
			r.start.OrUint(r.size, uint64(v))
			r.start.Advance(r.size)
		}
	}
}

// Extract reads len(out) fields from the range and its successors into `out`,
// advancing the range past the extracted run. Fields are interpreted as
// unsigned or two's-complement according to T. A field wider than T is
// clamped to T's representable range: unsigned targets saturate at their
// maximum, signed targets at both ends. A range of width zero fills `out`
// with zeros without moving the cursor.
func Extract[T Integer](r *Range, out []T) {
	if r.size == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	width := integerBits[T]()
	if signedInteger[T]() {
		upper, lower := int64(math.MaxInt64), int64(math.MinInt64)
		if width < 64 {
			upper = int64(1)<<uint(width-1) - 1
			lower = -int64(1) << uint(width-1)
		}
		for i := range out {
			v := r.start.Int(r.size)
			if r.size > width {
				if v > upper {
					v = upper
				} else if v < lower {
					v = lower
				}
			}
			out[i] = T(v)
			r.start.Advance(r.size)
		}
	} else {
		upper := ^uint64(0)
		if width < 64 {
			upper = 1<<uint(width) - 1
		}
		for i := range out {
			v := r.start.Uint(r.size)
			if r.size > width && v > upper {
				v = upper
			}
			out[i] = T(v)
			r.start.Advance(r.size)
		}
	}
}
