package greytif

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/boljen/go-bitmap"
	"github.com/senikm/trpx/errors"
)

// TIFF tag and field-type constants for the subset the parser interprets.
const (
	tagImageWidth      = 0x0100
	tagImageLength     = 0x0101
	tagBitsPerSample   = 0x0102
	tagCompression     = 0x0103
	tagPhotometric     = 0x0106
	tagStripOffsets    = 0x0111
	tagSamplesPerPixel = 0x0115
	tagRowsPerStrip    = 0x0116
	tagStripByteCounts = 0x0117
	tagPlanarConfig    = 0x011C
	tagSampleFormat    = 0x0153
)

const (
	fieldByte  = 1
	fieldShort = 3
	fieldLong  = 4
)

// Bit indices into the parser's tag-presence map.
const (
	sawWidth = iota
	sawLength
	sawBitsPerSample
	sawStripOffsets
	sawStripByteCounts
)

// Tif is an ordered stack of greyscale frames sharing one backing buffer
// that always holds a complete, canonical little-endian TIFF file image.
type Tif struct {
	data    []byte
	frames  []frameRef
	lastIFD int // offset of the next-IFD cell to patch on append
}

// frameRef locates one frame inside the backing buffer.
type frameRef struct {
	typ        PixelType
	rows, cols int
	offset     int // pixel strip start
	ifdOff     int // IFD start, needed to patch tags on regularization
}

// New returns an empty container holding just the 8-byte TIFF header.
func New() *Tif {
	t := &Tif{
		data:    make([]byte, 8),
		lastIFD: 4,
	}
	t.data[0] = 'I'
	t.data[1] = 'I'
	binary.LittleEndian.PutUint16(t.data[2:], 42)
	return t
}

// Read bulk-loads a TIFF stream and parses its image directory chain. A
// big-endian file is converted to little-endian in place before use. On any
// parse failure the returned container is nil.
func Read(r io.Reader) (*Tif, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse takes ownership of `data` and parses it as a TIFF file image.
func Parse(data []byte) (*Tif, error) {
	t := &Tif{data: data}
	if err := t.scan(); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of frames on the stack.
func (t *Tif) Len() int { return len(t.frames) }

// Clear wipes all frames, resetting to an empty container. Outstanding
// views are invalidated.
func (t *Tif) Clear() {
	*t = *New()
}

// Swap exchanges the contents of two containers. Views obtained from either
// container are invalidated.
func (t *Tif) Swap(other *Tif) {
	*t, *other = *other, *t
}

// Bytes returns the backing TIFF file image. The slice aliases the
// container's buffer; treat it as read-only.
func (t *Tif) Bytes() []byte { return t.data }

// WriteTo dumps the complete TIFF file image, always little-endian.
func (t *Tif) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(t.data)
	return int64(n), err
}

// scan validates the header and walks the IFD chain, normalizing a foreign
// byte order along the way and building the frame index.
func (t *Tif) scan() error {
	if len(t.data) < 8 {
		return errors.NewWithMessage(errors.BadTiffHeader, "file shorter than a TIFF header")
	}
	if t.data[0] != t.data[1] || (t.data[0] != 'I' && t.data[0] != 'M') {
		return errors.NewWithMessage(errors.BadTiffHeader,
			fmt.Sprintf("bad byte-order mark %q", t.data[:2]))
	}
	foreign := t.data[0] == 'M'
	if foreign {
		t.data[0] = 'I'
		t.data[1] = 'I'
	}
	if t.read16(2, foreign) != 42 {
		return errors.NewWithMessage(errors.BadTiffHeader, "magic number is not 42")
	}

	t.lastIFD = 4
	visited := make(map[int]bool)
	off := int(t.read32(4, foreign))
	for off != 0 {
		if visited[off] {
			return errors.NewWithMessage(errors.CorruptStream, "IFD chain forms a cycle")
		}
		visited[off] = true
		next, err := t.parseIFD(off, foreign)
		if err != nil {
			return err
		}
		off = next
	}
	return nil
}

// parseIFD reads one image file directory, appends the frame it describes,
// and returns the offset of the next IFD (0 at the end of the chain).
func (t *Tif) parseIFD(off int, foreign bool) (int, error) {
	if off < 8 || off+2 > len(t.data) {
		return 0, errors.NewWithMessage(errors.CorruptStream,
			fmt.Sprintf("IFD offset %d is outside the file", off))
	}
	entryCount := int(t.read16(off, foreign))
	pos := off + 2
	if pos+entryCount*12+4 > len(t.data) {
		return 0, errors.NewWithMessage(errors.CorruptStream, "IFD is truncated")
	}

	seen := bitmap.NewSlice(8)
	var (
		rows, cols      int
		bitsPerSample   = 0
		compression     = 1
		photometric     = 0
		samplesPerPixel = 1
		planarConfig    = 1
		sampleFormat    = 1
		stripOffset     = 0
		stripByteCount  = 0
	)

	for i := 0; i < entryCount; i++ {
		tag := t.read16(pos, foreign)
		fieldType := t.read16(pos+2, foreign)
		count := t.read32(pos+4, foreign)
		val := 0
		switch fieldType {
		case fieldByte:
			val = int(t.data[pos+8])
		case fieldShort:
			val = int(t.read16(pos+8, foreign))
		case fieldLong:
			val = int(t.read32(pos+8, foreign))
		default:
			// Rationals and the other exotic field types carry calibration
			// data the container does not interpret.
		}
		pos += 12

		switch tag {
		case tagImageWidth:
			cols = val
			bitmap.Set(seen, sawWidth, true)
		case tagImageLength:
			rows = val
			bitmap.Set(seen, sawLength, true)
		case tagBitsPerSample:
			bitsPerSample = val
			bitmap.Set(seen, sawBitsPerSample, true)
		case tagCompression:
			compression = val
		case tagPhotometric:
			photometric = val
		case tagStripOffsets:
			if count != 1 {
				return 0, errors.NewWithMessage(errors.UnsupportedTiff,
					fmt.Sprintf("image is fragmented into %d strips", count))
			}
			stripOffset = val
			bitmap.Set(seen, sawStripOffsets, true)
		case tagSamplesPerPixel:
			samplesPerPixel = val
		case tagStripByteCounts:
			if count != 1 {
				return 0, errors.NewWithMessage(errors.UnsupportedTiff,
					fmt.Sprintf("image is fragmented into %d strips", count))
			}
			stripByteCount = val
			bitmap.Set(seen, sawStripByteCounts, true)
		case tagPlanarConfig:
			planarConfig = val
		case tagSampleFormat:
			sampleFormat = val
		case tagRowsPerStrip:
			// Implied by the single-strip requirement.
		}
	}

	t.lastIFD = pos
	next := int(t.read32(pos, foreign))

	for _, required := range []struct {
		bit int
		tag string
	}{
		{sawWidth, "ImageWidth"},
		{sawLength, "ImageLength"},
		{sawBitsPerSample, "BitsPerSample"},
		{sawStripOffsets, "StripOffsets"},
	} {
		if !bitmap.Get(seen, required.bit) {
			return 0, errors.NewWithMessage(errors.UnsupportedTiff,
				fmt.Sprintf("IFD is missing the %s tag", required.tag))
		}
	}

	if compression != 1 {
		return 0, errors.NewWithMessage(errors.UnsupportedTiff, "image is compressed")
	}
	if photometric > 1 {
		return 0, errors.NewWithMessage(errors.UnsupportedTiff, "image is not greyscale")
	}
	if samplesPerPixel != 1 {
		return 0, errors.NewWithMessage(errors.UnsupportedTiff,
			fmt.Sprintf("%d samples per pixel", samplesPerPixel))
	}
	if planarConfig != 1 {
		return 0, errors.NewWithMessage(errors.UnsupportedTiff, "planar pixel layout")
	}
	if bitsPerSample != 8 && bitsPerSample != 16 && bitsPerSample != 32 && bitsPerSample != 64 {
		return 0, errors.NewWithMessage(errors.UnsupportedTiff,
			fmt.Sprintf("%d bits per sample", bitsPerSample))
	}
	if sampleFormat < 1 || sampleFormat > 3 {
		return 0, errors.NewWithMessage(errors.UnsupportedTiff,
			fmt.Sprintf("sample format %d", sampleFormat))
	}
	if rows <= 0 || cols <= 0 {
		return 0, errors.NewWithMessage(errors.CorruptStream,
			fmt.Sprintf("image dimensions %dx%d", rows, cols))
	}

	stripLen := rows * cols * bitsPerSample / 8
	if stripOffset < 8 || stripOffset+stripLen > len(t.data) {
		return 0, errors.NewWithMessage(errors.CorruptStream,
			"pixel strip extends past the end of the file")
	}
	if bitmap.Get(seen, sawStripByteCounts) && stripByteCount != stripLen {
		return 0, errors.NewWithMessage(errors.UnsupportedTiff,
			fmt.Sprintf("strip holds %d bytes, dimensions require %d", stripByteCount, stripLen))
	}

	if foreign {
		t.swapStrip(stripOffset, stripLen, bitsPerSample/8)
	}

	t.frames = append(t.frames, frameRef{
		typ: PixelType{
			Size:     bitsPerSample / 8,
			Signed:   sampleFormat != 1,
			Integral: sampleFormat != 3,
		},
		rows:   rows,
		cols:   cols,
		offset: stripOffset,
		ifdOff: off,
	})
	return next, nil
}

// swapStrip converts a pixel strip from big- to little-endian in place.
func (t *Tif) swapStrip(offset, length, elemSize int) {
	if elemSize == 1 {
		return
	}
	for pos := offset; pos < offset+length; pos += elemSize {
		for i, j := pos, pos+elemSize-1; i < j; i, j = i+1, j-1 {
			t.data[i], t.data[j] = t.data[j], t.data[i]
		}
	}
}

// read16 reads a 16-bit field; for a foreign buffer it swaps the field to
// little-endian in place first.
func (t *Tif) read16(off int, foreign bool) uint16 {
	if foreign {
		v := binary.BigEndian.Uint16(t.data[off:])
		binary.LittleEndian.PutUint16(t.data[off:], v)
		return v
	}
	return binary.LittleEndian.Uint16(t.data[off:])
}

// read32 reads a 32-bit field, swapping in place like read16.
func (t *Tif) read32(off int, foreign bool) uint32 {
	if foreign {
		v := binary.BigEndian.Uint32(t.data[off:])
		binary.LittleEndian.PutUint32(t.data[off:], v)
		return v
	}
	return binary.LittleEndian.Uint32(t.data[off:])
}
