package greytif

import (
	"encoding/binary"
	"math"
)

// Image is a typed view of one frame. It borrows the container's backing
// buffer; it stays valid until the container is mutated by PushBack,
// Regularize, Clear or Swap. The typed extractors return fresh slices that
// outlive the view.
type Image struct {
	typ        PixelType
	rows, cols int
	data       []byte
}

// Image materializes a view of the i-th frame.
func (t *Tif) Image(i int) Image {
	ref := t.frames[i]
	length := ref.rows * ref.cols * ref.typ.Size
	return Image{
		typ:  ref.typ,
		rows: ref.rows,
		cols: ref.cols,
		data: t.data[ref.offset : ref.offset+length],
	}
}

// Type returns the frame's runtime pixel type.
func (im Image) Type() PixelType { return im.typ }

// Dim returns the frame dimensions as rows, cols.
func (im Image) Dim() (rows, cols int) { return im.rows, im.cols }

// Count returns the number of pixels, rows*cols.
func (im Image) Count() int { return im.rows * im.cols }

// Pix returns the raw little-endian pixel bytes of the frame.
func (im Image) Pix() []byte { return im.data }

// Uint8s decodes the pixel data as []uint8, or nil if the frame's runtime
// type does not match. The other typed extractors behave the same way.
func (im Image) Uint8s() []uint8 {
	if im.typ != Uint8 {
		return nil
	}
	out := make([]uint8, im.Count())
	copy(out, im.data)
	return out
}

func (im Image) Int8s() []int8 {
	if im.typ != Int8 {
		return nil
	}
	out := make([]int8, im.Count())
	for i := range out {
		out[i] = int8(im.data[i])
	}
	return out
}

func (im Image) Uint16s() []uint16 {
	if im.typ != Uint16 {
		return nil
	}
	out := make([]uint16, im.Count())
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(im.data[i*2:])
	}
	return out
}

func (im Image) Int16s() []int16 {
	if im.typ != Int16 {
		return nil
	}
	out := make([]int16, im.Count())
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(im.data[i*2:]))
	}
	return out
}

func (im Image) Uint32s() []uint32 {
	if im.typ != Uint32 {
		return nil
	}
	out := make([]uint32, im.Count())
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(im.data[i*4:])
	}
	return out
}

func (im Image) Int32s() []int32 {
	if im.typ != Int32 {
		return nil
	}
	out := make([]int32, im.Count())
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(im.data[i*4:]))
	}
	return out
}

func (im Image) Float32s() []float32 {
	if im.typ != Float32 {
		return nil
	}
	out := make([]float32, im.Count())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(im.data[i*4:]))
	}
	return out
}

func (im Image) Float64s() []float64 {
	if im.typ != Float64 {
		return nil
	}
	out := make([]float64, im.Count())
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(im.data[i*8:]))
	}
	return out
}

// Values decodes the pixel data into the slice type matching the frame's
// runtime pixel type.
func (im Image) Values() any {
	switch im.typ {
	case Uint8:
		return im.Uint8s()
	case Int8:
		return im.Int8s()
	case Uint16:
		return im.Uint16s()
	case Int16:
		return im.Int16s()
	case Uint32:
		return im.Uint32s()
	case Int32:
		return im.Int32s()
	case Float32:
		return im.Float32s()
	case Float64:
		return im.Float64s()
	}
	return nil
}

// At returns the pixel at row i, column j as a float64, whatever the
// underlying representation. Row-major: element i*cols + j.
func (im Image) At(i, j int) float64 {
	idx := i*im.cols + j
	switch im.typ {
	case Uint8:
		return float64(im.data[idx])
	case Int8:
		return float64(int8(im.data[idx]))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(im.data[idx*2:]))
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(im.data[idx*2:])))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(im.data[idx*4:]))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(im.data[idx*4:])))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(im.data[idx*4:])))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(im.data[idx*8:]))
	}
	return 0
}

// SetAt stores v at row i, column j, truncating to the frame's pixel type.
func (im Image) SetAt(i, j int, v float64) {
	idx := i*im.cols + j
	switch im.typ {
	case Uint8:
		im.data[idx] = uint8(v)
	case Int8:
		im.data[idx] = byte(int8(v))
	case Uint16:
		binary.LittleEndian.PutUint16(im.data[idx*2:], uint16(v))
	case Int16:
		binary.LittleEndian.PutUint16(im.data[idx*2:], uint16(int16(v)))
	case Uint32:
		binary.LittleEndian.PutUint32(im.data[idx*4:], uint32(v))
	case Int32:
		binary.LittleEndian.PutUint32(im.data[idx*4:], uint32(int32(v)))
	case Float32:
		binary.LittleEndian.PutUint32(im.data[idx*4:], math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(im.data[idx*8:], math.Float64bits(v))
	}
}
