package terse_test

import (
	"testing"

	"github.com/senikm/trpx/errors"
	"github.com/senikm/trpx/terse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip__Uint16AcrossBlockSizes(t *testing.T) {
	original := make([]uint16, 1000)
	for i := range original {
		original[i] = uint16(i * 13 % 1021)
	}

	for _, block := range []int{1, 8, 12, 64} {
		t.Run(blockName(block), func(t *testing.T) {
			f := terse.Pack(original, terse.WithBlock(block))
			require.Equal(t, len(original), f.Count())

			out := make([]uint16, f.Count())
			require.NoError(t, f.UnpackUint16(out))
			assert.Equal(t, original, out)
		})
	}
}

func TestRoundTrip__AllWidths(t *testing.T) {
	t.Run("uint8", func(t *testing.T) {
		original := []uint8{0, 1, 255, 7, 128, 33}
		f := terse.Pack(original)
		out := make([]uint8, len(original))
		require.NoError(t, f.UnpackUint8(out))
		assert.Equal(t, original, out)
		assert.Equal(t, 8, f.BitsPerValue())
		assert.False(t, f.Signed())
	})
	t.Run("int8", func(t *testing.T) {
		original := []int8{0, -1, 127, -128, 55}
		f := terse.Pack(original)
		out := make([]int8, len(original))
		require.NoError(t, f.UnpackInt8(out))
		assert.Equal(t, original, out)
		assert.True(t, f.Signed())
	})
	t.Run("uint32", func(t *testing.T) {
		original := []uint32{0, 1 << 31, 0xFFFFFFFF, 3, 1000000}
		f := terse.Pack(original)
		out := make([]uint32, len(original))
		require.NoError(t, f.UnpackUint32(out))
		assert.Equal(t, original, out)
	})
	t.Run("int32 with int32 min", func(t *testing.T) {
		original := []int32{-(1 << 31), 1<<31 - 1, 0, -1, 42}
		f := terse.Pack(original)
		out := make([]int32, len(original))
		require.NoError(t, f.UnpackInt32(out))
		assert.Equal(t, original, out)
	})
	t.Run("int16", func(t *testing.T) {
		original := []int16{-32768, 32767, 0, 1, -1}
		f := terse.Pack(original)
		out := make([]int16, len(original))
		require.NoError(t, f.UnpackInt16(out))
		assert.Equal(t, original, out)
	})
}

// A thousand consecutive signed values compress to under 30% (about 29%) of
// their 32-bit representation.
func TestCompression__SignedRamp(t *testing.T) {
	original := make([]int32, 1000)
	for i := range original {
		original[i] = int32(i) - 500
	}

	f := terse.Pack(original, terse.WithBlock(12))
	t.Logf("compressed 1000 int32 values into %d bytes", f.TerseSize())
	assert.Less(t, f.TerseSize(), 1000*4*30/100)

	out := make([]int32, f.Count())
	require.NoError(t, f.UnpackInt32(out))
	assert.Equal(t, original, out)
}

func TestCompression__AllZeros(t *testing.T) {
	original := make([]uint32, 1000)
	f := terse.Pack(original)

	// One 4-bit header plus one reuse bit per remaining block.
	assert.Equal(t, 11, f.TerseSize())

	out := make([]uint32, f.Count())
	require.NoError(t, f.UnpackUint32(out))
	assert.Equal(t, original, out)
}

func TestCompression__AlternatingInt32Extremes(t *testing.T) {
	original := make([]int32, 1000)
	for i := range original {
		if i%2 == 0 {
			original[i] = 1<<31 - 1
		} else {
			original[i] = -(1 << 31)
		}
	}

	f := terse.Pack(original, terse.WithBlock(8))
	// s=32 for every block: one 12-bit header, 124 reuse bits, 32 bits per
	// value. Incompressible data costs almost nothing beyond its raw size.
	assert.Equal(t, (12+124+32*1000+7)/8, f.TerseSize())

	out := make([]int32, f.Count())
	require.NoError(t, f.UnpackInt32(out))
	assert.Equal(t, original, out)
}

func TestUnpack__WideningIsAllowed(t *testing.T) {
	original := []uint8{1, 2, 3, 250}
	f := terse.Pack(original)

	out := make([]uint32, len(original))
	require.NoError(t, f.UnpackUint32(out))
	assert.Equal(t, []uint32{1, 2, 3, 250}, out)

	// Unsigned data may widen into a signed target, even when the block
	// width's top bit is set: 250 stays 250, it must not sign-extend.
	signedOut := make([]int16, len(original))
	require.NoError(t, f.UnpackInt16(signedOut))
	assert.Equal(t, []int16{1, 2, 3, 250}, signedOut)

	// The one lossy corner: an all-ones value unpacked into an equal-width
	// signed target reads back as -1.
	overflowed := terse.Pack([]uint16{0xFFFF, 7})
	corner := make([]int16, 2)
	require.NoError(t, overflowed.UnpackInt16(corner))
	assert.Equal(t, []int16{-1, 7}, corner)
}

func TestUnpack__ContractViolations(t *testing.T) {
	signedFrame := terse.Pack([]int16{-5, 5})
	wideFrame := terse.Pack([]uint32{1, 2})

	t.Run("signed into unsigned", func(t *testing.T) {
		err := signedFrame.UnpackUint16(make([]uint16, 2))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrUnsupportedTarget)
	})
	t.Run("narrowing", func(t *testing.T) {
		err := wideFrame.UnpackUint16(make([]uint16, 2))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrUnsupportedTarget)
	})
	t.Run("wrong output length", func(t *testing.T) {
		err := wideFrame.UnpackUint32(make([]uint32, 3))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrUnsupportedTarget)
	})
}

func TestUnpack__NaturalTarget(t *testing.T) {
	f := terse.Pack([]int16{-3, 0, 3})
	out, err := f.Unpack()
	require.NoError(t, err)
	assert.Equal(t, []int16{-3, 0, 3}, out)
}

func TestPack__EmptySequence(t *testing.T) {
	f := terse.Pack([]uint16{})
	assert.Equal(t, 0, f.Count())
	assert.Equal(t, 0, f.TerseSize())

	out := make([]uint16, 0)
	require.NoError(t, f.UnpackUint16(out))
}

func TestPack__PartialFinalBlock(t *testing.T) {
	// 30 values with block size 12 leaves a final block of 6.
	original := make([]uint16, 30)
	for i := range original {
		original[i] = uint16(i)
	}
	f := terse.Pack(original)

	out := make([]uint16, f.Count())
	require.NoError(t, f.UnpackUint16(out))
	assert.Equal(t, original, out)
}

func TestPack__RecordsDimensions(t *testing.T) {
	f := terse.Pack(make([]uint16, 12), terse.WithDim(3, 4))
	rows, cols := f.Dim()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
}

func blockName(block int) string {
	switch block {
	case 1:
		return "block=1"
	case 8:
		return "block=8"
	case 12:
		return "block=12"
	default:
		return "block=64"
	}
}
