package greytif

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/senikm/trpx/errors"
)

// Regularize rewrites every frame to the target pixel type, converting
// values between integer and floating representations as needed. When all
// element sizes already match the target's and every frame's IFD carries a
// SampleFormat tag, frames are converted in place inside the existing buffer
// and those tags patched; otherwise the whole container is rebuilt with a
// fresh backing buffer. Either way,
// outstanding views are invalidated.
func Regularize(t *Tif, target PixelType) error {
	switch target {
	case Uint8, Int8, Uint16, Int16, Uint32, Int32, Float32, Float64:
	default:
		return errors.NewWithMessage(errors.UnsupportedTarget,
			fmt.Sprintf("cannot regularize to %s", target))
	}

	sameType := true
	sameSize := true
	for _, ref := range t.frames {
		sameType = sameType && ref.typ == target
		sameSize = sameSize && ref.typ.Size == target.Size
	}
	if sameType {
		return nil
	}
	if sameSize && t.patchableSampleFormats() {
		t.regularizeInPlace(target)
		return nil
	}
	return t.rebuild(target)
}

// regularizeInPlace converts each frame's pixels inside the current buffer.
// Element sizes match the target, so offsets and strip lengths are
// unchanged; only pixel bit patterns and SampleFormat tags move.
func (t *Tif) regularizeInPlace(target PixelType) {
	for i := range t.frames {
		ref := &t.frames[i]
		if ref.typ == target {
			continue
		}
		converted := convertTo(t.Image(i).Values(), target)
		t.storePixels(ref.offset, converted)
		ref.typ = target
		t.patchSampleFormat(ref.ifdOff, target.sampleFormat())
	}
}

// rebuild replaces the container contents with converted copies of every
// frame, allocating a new backing buffer.
func (t *Tif) rebuild(target PixelType) error {
	fresh := New()
	for i := range t.frames {
		im := t.Image(i)
		if err := fresh.PushBack(convertTo(im.Values(), target), im.rows, im.cols); err != nil {
			return err
		}
	}
	*t = *fresh
	return nil
}

// patchableSampleFormats reports whether every frame's IFD carries a
// SampleFormat entry that the in-place path can rewrite. Files missing the
// tag fall back to a rebuild.
func (t *Tif) patchableSampleFormats() bool {
	for _, ref := range t.frames {
		if !t.patchSampleFormat(ref.ifdOff, 0) {
			return false
		}
	}
	return true
}

// patchSampleFormat rewrites the SampleFormat value of the IFD at ifdOff.
// Passing 0 probes for the entry without modifying it.
func (t *Tif) patchSampleFormat(ifdOff int, sf uint16) bool {
	entryCount := int(binary.LittleEndian.Uint16(t.data[ifdOff:]))
	pos := ifdOff + 2
	for i := 0; i < entryCount; i++ {
		if binary.LittleEndian.Uint16(t.data[pos:]) == tagSampleFormat {
			if sf != 0 {
				binary.LittleEndian.PutUint16(t.data[pos+8:], sf)
			}
			return true
		}
		pos += 12
	}
	return false
}

// storePixels overwrites a frame's strip with the given values, which must
// occupy exactly the strip's byte length.
func (t *Tif) storePixels(offset int, values any) {
	switch p := values.(type) {
	case []uint8:
		copy(t.data[offset:], p)
	case []int8:
		for i, v := range p {
			t.data[offset+i] = byte(v)
		}
	case []uint16:
		for i, v := range p {
			binary.LittleEndian.PutUint16(t.data[offset+i*2:], v)
		}
	case []int16:
		for i, v := range p {
			binary.LittleEndian.PutUint16(t.data[offset+i*2:], uint16(v))
		}
	case []uint32:
		for i, v := range p {
			binary.LittleEndian.PutUint32(t.data[offset+i*4:], v)
		}
	case []int32:
		for i, v := range p {
			binary.LittleEndian.PutUint32(t.data[offset+i*4:], uint32(v))
		}
	case []float32:
		for i, v := range p {
			binary.LittleEndian.PutUint32(t.data[offset+i*4:], math.Float32bits(v))
		}
	case []float64:
		for i, v := range p {
			binary.LittleEndian.PutUint64(t.data[offset+i*8:], math.Float64bits(v))
		}
	}
}

// convertTo converts a typed pixel slice to the slice type matching the
// target descriptor. Floats converted to integers truncate toward zero;
// integers narrowed to a smaller width wrap like an ordinary conversion.
func convertTo(values any, target PixelType) any {
	if !target.Integral {
		floats := toFloat64s(values)
		if target == Float32 {
			out := make([]float32, len(floats))
			for i, v := range floats {
				out[i] = float32(v)
			}
			return out
		}
		return floats
	}

	ints := toInt64s(values)
	switch target {
	case Uint8:
		out := make([]uint8, len(ints))
		for i, v := range ints {
			out[i] = uint8(v)
		}
		return out
	case Int8:
		out := make([]int8, len(ints))
		for i, v := range ints {
			out[i] = int8(v)
		}
		return out
	case Uint16:
		out := make([]uint16, len(ints))
		for i, v := range ints {
			out[i] = uint16(v)
		}
		return out
	case Int16:
		out := make([]int16, len(ints))
		for i, v := range ints {
			out[i] = int16(v)
		}
		return out
	case Uint32:
		out := make([]uint32, len(ints))
		for i, v := range ints {
			out[i] = uint32(v)
		}
		return out
	default:
		out := make([]int32, len(ints))
		for i, v := range ints {
			out[i] = int32(v)
		}
		return out
	}
}

func toInt64s(values any) []int64 {
	switch p := values.(type) {
	case []uint8:
		out := make([]int64, len(p))
		for i, v := range p {
			out[i] = int64(v)
		}
		return out
	case []int8:
		out := make([]int64, len(p))
		for i, v := range p {
			out[i] = int64(v)
		}
		return out
	case []uint16:
		out := make([]int64, len(p))
		for i, v := range p {
			out[i] = int64(v)
		}
		return out
	case []int16:
		out := make([]int64, len(p))
		for i, v := range p {
			out[i] = int64(v)
		}
		return out
	case []uint32:
		out := make([]int64, len(p))
		for i, v := range p {
			out[i] = int64(v)
		}
		return out
	case []int32:
		out := make([]int64, len(p))
		for i, v := range p {
			out[i] = int64(v)
		}
		return out
	case []float32:
		out := make([]int64, len(p))
		for i, v := range p {
			out[i] = int64(v)
		}
		return out
	case []float64:
		out := make([]int64, len(p))
		for i, v := range p {
			out[i] = int64(v)
		}
		return out
	}
	return nil
}

func toFloat64s(values any) []float64 {
	switch p := values.(type) {
	case []uint8:
		out := make([]float64, len(p))
		for i, v := range p {
			out[i] = float64(v)
		}
		return out
	case []int8:
		out := make([]float64, len(p))
		for i, v := range p {
			out[i] = float64(v)
		}
		return out
	case []uint16:
		out := make([]float64, len(p))
		for i, v := range p {
			out[i] = float64(v)
		}
		return out
	case []int16:
		out := make([]float64, len(p))
		for i, v := range p {
			out[i] = float64(v)
		}
		return out
	case []uint32:
		out := make([]float64, len(p))
		for i, v := range p {
			out[i] = float64(v)
		}
		return out
	case []int32:
		out := make([]float64, len(p))
		for i, v := range p {
			out[i] = float64(v)
		}
		return out
	case []float32:
		out := make([]float64, len(p))
		for i, v := range p {
			out[i] = float64(v)
		}
		return out
	case []float64:
		out := make([]float64, len(p))
		copy(out, p)
		return out
	}
	return nil
}
