package terse

import (
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/senikm/trpx/bitvec"
	"github.com/senikm/trpx/errors"
)

// DefaultBlock is the number of values grouped under one block header when
// no option overrides it.
const DefaultBlock = 12

// maxWidth is the widest value field the decoder accepts. The header can
// nominally express widths up to 73, but nothing wider than a 64-bit word
// can have been produced by the encoder.
const maxWidth = 64

// Frame is one compressed sequence of integers plus the metadata needed to
// reconstruct it: the width and signedness of the original elements, the
// block size, and the value count. The bit payload is owned by the frame;
// packing never retains a reference to its input.
type Frame struct {
	prolixBits int
	signed     bool
	block      int
	count      int
	rows, cols int
	bits       int
	words      []uint64
}

// Option adjusts how [Pack] encodes a sequence.
type Option func(*Frame)

// WithBlock sets the number of values per block. Smaller blocks adapt faster
// to local dynamics at the price of more headers.
func WithBlock(n int) Option {
	return func(f *Frame) {
		if n >= 1 {
			f.block = n
		}
	}
}

// WithDim records the frame's image dimensions so they survive in the
// descriptor and the decompressed image can be rebuilt at the right shape.
func WithDim(rows, cols int) Option {
	return func(f *Frame) {
		f.rows = rows
		f.cols = cols
	}
}

// Count returns the number of encoded values.
func (f *Frame) Count() int { return f.count }

// BitsPerValue returns the bit width of the original elements. A frame
// cannot be unpacked into an integral type narrower than this.
func (f *Frame) BitsPerValue() int { return f.prolixBits }

// Signed reports whether the encoded data is signed. Signed frames cannot be
// unpacked into unsigned targets.
func (f *Frame) Signed() bool { return f.signed }

// Block returns the number of values per block.
func (f *Frame) Block() int { return f.block }

// TerseSize returns the number of payload bytes the frame occupies on disk.
func (f *Frame) TerseSize() int { return (f.bits + 7) / 8 }

// Dim returns the recorded image dimensions, zero when the frame was packed
// from a bare sequence.
func (f *Frame) Dim() (rows, cols int) { return f.rows, f.cols }

// Pack compresses a sequence of integers into a new frame. The element
// type's width and signedness are recorded as the frame's prolix type.
func Pack[T bitvec.Integer](vals []T, opts ...Option) *Frame {
	f := &Frame{
		prolixBits: integerBits[T](),
		signed:     signedInteger[T](),
		block:      DefaultBlock,
		count:      len(vals),
	}
	for _, opt := range opts {
		opt(f)
	}

	nblocks := (len(vals) + f.block - 1) / f.block
	f.words = make([]uint64, (len(vals)*f.prolixBits+nblocks*12)/64+2)

	cursor := bitvec.NewCursor(f.words, 0)
	prev := -1
	for from := 0; from < len(vals); from += f.block {
		to := from + f.block
		if to > len(vals) {
			to = len(vals)
		}
		s := blockWidth(vals[from:to], f.signed)
		if s == prev {
			cursor.Set()
			cursor.Next()
		} else {
			putWidth(&cursor, s)
			prev = s
		}
		if s > 0 {
			r := bitvec.NewRange(cursor, s)
			bitvec.Append(&r, vals[from:to])
			cursor = r.Begin()
		}
	}

	f.bits = cursor.Offset()
	f.words = f.words[:(f.bits+63)/64]
	return f
}

// putWidth writes a full block header for width s and advances the cursor
// past it. The leading 0 bit is already in place: the buffer starts zeroed
// and the width field or-deposits past it.
func putWidth(cursor *bitvec.Cursor, s int) {
	cursor.Next()
	switch {
	case s < 7:
		cursor.OrUint(3, uint64(s))
		cursor.Advance(3)
	case s < 10:
		cursor.OrUint(5, 0b111|uint64(s-7)<<3)
		cursor.Advance(5)
	default:
		cursor.OrUint(11, 0b11111|uint64(s-10)<<5)
		cursor.Advance(11)
	}
}

// readWidth consumes a full header's width field, the leading 0 bit having
// already been read, and returns the width. Range checking is the caller's
// job; the field can nominally express widths up to 73.
func (f *Frame) readWidth(cursor *bitvec.Cursor) (int, error) {
	if err := f.need(*cursor, 3); err != nil {
		return 0, err
	}
	s := int(cursor.Uint(3))
	cursor.Advance(3)
	if s == 7 {
		if err := f.need(*cursor, 2); err != nil {
			return 0, err
		}
		s += int(cursor.Uint(2))
		cursor.Advance(2)
		if s == 10 {
			if err := f.need(*cursor, 6); err != nil {
				return 0, err
			}
			s += int(cursor.Uint(6))
			cursor.Advance(6)
		}
	}
	return s, nil
}

// blockWidth computes the number of bits per value needed for one block.
// Unsigned data needs the highest set bit over all values. Signed data needs
// the smallest n with every value in [-2^(n-1), 2^(n-1)-1]: accumulating v
// for non-negative values and -(v+1) for negative ones makes that
// Len64(accumulator)+1, including the sign bit. All-zero blocks need no
// payload bits at all.
func blockWidth[T bitvec.Integer](vals []T, signed bool) int {
	var or uint64
	if signed {
		hasNegative := false
		for _, v := range vals {
			x := int64(v)
			if x < 0 {
				hasNegative = true
				or |= uint64(-(x + 1))
			} else {
				or |= uint64(x)
			}
		}
		if or == 0 && !hasNegative {
			return 0
		}
		return bits.Len64(or) + 1
	}
	for _, v := range vals {
		or |= uint64(v)
	}
	return bits.Len64(or)
}

// unpack decodes the frame's value sequence into out, which must hold
// exactly Count() values. Type-contract checks happen in the exported
// wrappers; this walks the block structure.
func unpack[T bitvec.Integer](f *Frame, out []T) error {
	cursor := bitvec.NewCursor(f.words, 0)
	s := 0
	havePrev := false
	for from := 0; from < f.count; from += f.block {
		to := from + f.block
		if to > f.count {
			to = f.count
		}
		if err := f.need(cursor, 1); err != nil {
			return err
		}
		if cursor.Bit() {
			cursor.Next()
			if !havePrev {
				return errors.NewWithMessage(errors.BadTerseHeader,
					"first block starts with a reuse marker")
			}
		} else {
			cursor.Next()
			var err error
			s, err = f.readWidth(&cursor)
			if err != nil {
				return err
			}
			if s > maxWidth {
				return errors.NewWithMessage(errors.BadTerseHeader,
					fmt.Sprintf("block header declares %d bits per value", s))
			}
			havePrev = true
		}
		if s == 0 {
			for i := from; i < to; i++ {
				out[i] = 0
			}
			continue
		}
		if err := f.need(cursor, (to-from)*s); err != nil {
			return err
		}
		r := bitvec.NewRange(cursor, s)
		if f.signed {
			bitvec.Extract(&r, out[from:to])
		} else {
			extractUnsigned(&r, out[from:to])
		}
		cursor = r.Begin()
	}
	return nil
}

// extractUnsigned reads fields as plain unsigned integers no matter the
// output element type. Field interpretation follows the frame's recorded
// signedness, not the target's: widening unsigned data into a signed target
// must not sign-extend a value whose block-width top bit happens to be set.
// checkTarget guarantees the target is at least as wide as the original
// elements, so the conversion below never truncates; the one quirk, an
// all-ones value landing in an equal-width signed target as -1, is inherent
// to the width and easy for callers to recognize.
func extractUnsigned[T bitvec.Integer](r *bitvec.Range, out []T) {
	for i := range out {
		out[i] = T(r.Uint())
		r.Next()
	}
}

// need checks that n more payload bits exist past the cursor.
func (f *Frame) need(cursor bitvec.Cursor, n int) error {
	if f.bits-cursor.Offset() < n {
		return errors.New(errors.TruncatedPayload)
	}
	return nil
}

// checkTarget validates the decode contract for an integral target of the
// given width and signedness.
func (f *Frame) checkTarget(targetBits int, targetSigned bool, outLen int) error {
	if f.signed && !targetSigned {
		return errors.NewWithMessage(errors.UnsupportedTarget,
			"signed data cannot be unpacked into an unsigned target")
	}
	if targetBits < f.prolixBits {
		return errors.NewWithMessage(errors.UnsupportedTarget,
			fmt.Sprintf("%d-bit data does not fit a %d-bit target", f.prolixBits, targetBits))
	}
	if outLen != f.count {
		return errors.NewWithMessage(errors.UnsupportedTarget,
			fmt.Sprintf("output holds %d values, frame has %d", outLen, f.count))
	}
	return nil
}

func (f *Frame) UnpackUint8(out []uint8) error {
	if err := f.checkTarget(8, false, len(out)); err != nil {
		return err
	}
	return unpack(f, out)
}

func (f *Frame) UnpackUint16(out []uint16) error {
	if err := f.checkTarget(16, false, len(out)); err != nil {
		return err
	}
	return unpack(f, out)
}

func (f *Frame) UnpackUint32(out []uint32) error {
	if err := f.checkTarget(32, false, len(out)); err != nil {
		return err
	}
	return unpack(f, out)
}

func (f *Frame) UnpackUint64(out []uint64) error {
	if err := f.checkTarget(64, false, len(out)); err != nil {
		return err
	}
	return unpack(f, out)
}

func (f *Frame) UnpackInt8(out []int8) error {
	if err := f.checkTarget(8, true, len(out)); err != nil {
		return err
	}
	return unpack(f, out)
}

func (f *Frame) UnpackInt16(out []int16) error {
	if err := f.checkTarget(16, true, len(out)); err != nil {
		return err
	}
	return unpack(f, out)
}

func (f *Frame) UnpackInt32(out []int32) error {
	if err := f.checkTarget(32, true, len(out)); err != nil {
		return err
	}
	return unpack(f, out)
}

func (f *Frame) UnpackInt64(out []int64) error {
	if err := f.checkTarget(64, true, len(out)); err != nil {
		return err
	}
	return unpack(f, out)
}

// Unpack allocates and fills the frame's natural target slice: the narrowest
// integral type matching the recorded prolix width and signedness. The
// result is one of []uint8, []uint16, []uint32, []uint64, []int8, []int16,
// []int32, []int64.
func (f *Frame) Unpack() (any, error) {
	switch {
	case f.signed && f.prolixBits == 8:
		out := make([]int8, f.count)
		return out, f.UnpackInt8(out)
	case f.signed && f.prolixBits == 16:
		out := make([]int16, f.count)
		return out, f.UnpackInt16(out)
	case f.signed && f.prolixBits == 32:
		out := make([]int32, f.count)
		return out, f.UnpackInt32(out)
	case f.signed && f.prolixBits == 64:
		out := make([]int64, f.count)
		return out, f.UnpackInt64(out)
	case f.prolixBits == 8:
		out := make([]uint8, f.count)
		return out, f.UnpackUint8(out)
	case f.prolixBits == 16:
		out := make([]uint16, f.count)
		return out, f.UnpackUint16(out)
	case f.prolixBits == 32:
		out := make([]uint32, f.count)
		return out, f.UnpackUint32(out)
	case f.prolixBits == 64:
		out := make([]uint64, f.count)
		return out, f.UnpackUint64(out)
	}
	return nil, errors.NewWithMessage(errors.BadDescriptor,
		fmt.Sprintf("frame declares %d bits per value", f.prolixBits))
}

func signedInteger[T bitvec.Integer]() bool {
	return T(0)-1 < T(0)
}

func integerBits[T bitvec.Integer]() int {
	var v T
	return int(unsafe.Sizeof(v)) * 8
}
