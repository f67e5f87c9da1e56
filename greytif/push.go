package greytif

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/senikm/trpx/errors"
)

// PushBack appends a new frame to the stack. `pixels` must be a slice of
// one of the supported element types ([]uint8, []int8, []uint16, []int16,
// []uint32, []int32, []float32, []float64) holding rows*cols values in
// row-major order. The backing buffer is extended in place: pixel data in
// little-endian order, even-byte padding, then a fresh IFD chained onto the
// previous one. Outstanding [Image] views are invalidated.
func (t *Tif) PushBack(pixels any, rows, cols int) error {
	typ, count, err := describePixels(pixels)
	if err != nil {
		return err
	}
	if rows <= 0 || cols <= 0 || count != rows*cols {
		return errors.NewWithMessage(errors.UnsupportedTarget,
			fmt.Sprintf("%d pixels do not fill a %dx%d frame", count, rows, cols))
	}

	// Keep the pixel strip on an even offset.
	if len(t.data)%2 == 1 {
		t.data = append(t.data, 0)
	}
	dataStart := len(t.data)
	t.appendPixels(pixels, typ)

	// And the IFD too.
	if len(t.data)%2 == 1 {
		t.data = append(t.data, 0)
	}
	ifdStart := len(t.data)
	binary.LittleEndian.PutUint32(t.data[t.lastIFD:], uint32(ifdStart))

	// The seven mandatory tags plus StripByteCounts, which baseline readers
	// need to locate the strip's end. Entries stay sorted by tag.
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], 8)
	t.data = append(t.data, scratch[:]...)
	t.appendEntry(tagImageWidth, fieldLong, uint32(cols))
	t.appendEntry(tagImageLength, fieldLong, uint32(rows))
	t.appendEntry(tagBitsPerSample, fieldShort, uint32(typ.Bits()))
	t.appendEntry(tagCompression, fieldShort, 1)
	t.appendEntry(tagPhotometric, fieldShort, 1)
	t.appendEntry(tagStripOffsets, fieldLong, uint32(dataStart))
	t.appendEntry(tagStripByteCounts, fieldLong, uint32(count*typ.Size))
	t.appendEntry(tagSampleFormat, fieldShort, uint32(typ.sampleFormat()))
	t.lastIFD = len(t.data)
	t.data = append(t.data, 0, 0, 0, 0)

	t.frames = append(t.frames, frameRef{
		typ:    typ,
		rows:   rows,
		cols:   cols,
		offset: dataStart,
		ifdOff: ifdStart,
	})
	return nil
}

// appendEntry writes one 12-byte IFD entry with a single inline value.
func (t *Tif) appendEntry(tag, fieldType uint16, val uint32) {
	var entry [12]byte
	binary.LittleEndian.PutUint16(entry[0:], tag)
	binary.LittleEndian.PutUint16(entry[2:], fieldType)
	binary.LittleEndian.PutUint32(entry[4:], 1)
	switch fieldType {
	case fieldByte:
		entry[8] = byte(val)
	case fieldShort:
		binary.LittleEndian.PutUint16(entry[8:], uint16(val))
	case fieldLong:
		binary.LittleEndian.PutUint32(entry[8:], val)
	}
	t.data = append(t.data, entry[:]...)
}

// describePixels maps a pixel slice to its runtime type descriptor.
func describePixels(pixels any) (PixelType, int, error) {
	switch p := pixels.(type) {
	case []uint8:
		return Uint8, len(p), nil
	case []int8:
		return Int8, len(p), nil
	case []uint16:
		return Uint16, len(p), nil
	case []int16:
		return Int16, len(p), nil
	case []uint32:
		return Uint32, len(p), nil
	case []int32:
		return Int32, len(p), nil
	case []float32:
		return Float32, len(p), nil
	case []float64:
		return Float64, len(p), nil
	}
	return PixelType{}, 0, errors.NewWithMessage(errors.UnsupportedTarget,
		fmt.Sprintf("unsupported pixel slice type %T", pixels))
}

// appendPixels serializes the pixel slice little-endian onto the buffer.
func (t *Tif) appendPixels(pixels any, typ PixelType) {
	var scratch [8]byte
	switch p := pixels.(type) {
	case []uint8:
		t.data = append(t.data, p...)
	case []int8:
		for _, v := range p {
			t.data = append(t.data, byte(v))
		}
	case []uint16:
		for _, v := range p {
			binary.LittleEndian.PutUint16(scratch[:], v)
			t.data = append(t.data, scratch[:2]...)
		}
	case []int16:
		for _, v := range p {
			binary.LittleEndian.PutUint16(scratch[:], uint16(v))
			t.data = append(t.data, scratch[:2]...)
		}
	case []uint32:
		for _, v := range p {
			binary.LittleEndian.PutUint32(scratch[:], v)
			t.data = append(t.data, scratch[:4]...)
		}
	case []int32:
		for _, v := range p {
			binary.LittleEndian.PutUint32(scratch[:], uint32(v))
			t.data = append(t.data, scratch[:4]...)
		}
	case []float32:
		for _, v := range p {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
			t.data = append(t.data, scratch[:4]...)
		}
	case []float64:
		for _, v := range p {
			binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v))
			t.data = append(t.data, scratch[:8]...)
		}
	}
}
