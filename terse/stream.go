package terse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/senikm/trpx/errors"
	"github.com/senikm/trpx/xmlel"
)

// WriteTo serializes the frame as one file record: the descriptor element
// immediately followed by the bit payload as little-endian bytes. The output
// is identical on big- and little-endian hosts.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	signed := "0"
	if f.signed {
		signed = "1"
	}
	attrs := []xmlel.Attr{
		{Key: "prolix_bits", Value: strconv.Itoa(f.prolixBits)},
		{Key: "signed", Value: signed},
		{Key: "block", Value: strconv.Itoa(f.block)},
		{Key: "memory_size", Value: strconv.Itoa(f.TerseSize())},
		{Key: "number_of_values", Value: strconv.Itoa(f.count)},
	}
	if f.rows > 0 && f.cols > 0 {
		attrs = append(attrs,
			xmlel.Attr{Key: "rows", Value: strconv.Itoa(f.rows)},
			xmlel.Attr{Key: "cols", Value: strconv.Itoa(f.cols)},
		)
	}

	var written int64
	n, err := io.WriteString(w, xmlel.Render("Terse", attrs...))
	written += int64(n)
	if err != nil {
		return written, err
	}

	payload := make([]byte, f.TerseSize())
	for i := range payload {
		payload[i] = byte(f.words[i/8] >> uint(8*(i%8)))
	}
	n, err = w.Write(payload)
	written += int64(n)
	return written, err
}

// ReadFrame scans the reader for the next frame record and reconstructs the
// frame, repacking the little-endian payload bytes into native words. It
// returns io.EOF when the stream ends cleanly before another record starts.
func ReadFrame(r *bufio.Reader) (*Frame, error) {
	el, err := xmlel.Scan(r, "Terse")
	if err != nil {
		return nil, err
	}

	f := &Frame{}
	if err := readDescriptor(el, f); err != nil {
		return nil, err
	}

	payload := make([]byte, f.TerseSize())
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.NewFromError(errors.TruncatedPayload, err)
	}
	f.words = make([]uint64, (len(payload)+7)/8)
	for i, b := range payload {
		f.words[i/8] |= uint64(b) << uint(8*(i%8))
	}
	return f, nil
}

// readDescriptor validates and applies the descriptor attributes.
func readDescriptor(el *xmlel.Element, f *Frame) error {
	prolixBits, err := el.Int("prolix_bits")
	if err != nil {
		return err
	}
	if prolixBits != 8 && prolixBits != 16 && prolixBits != 32 && prolixBits != 64 {
		return errors.NewWithMessage(errors.BadDescriptor,
			fmt.Sprintf("prolix_bits is %d, want 8, 16, 32 or 64", prolixBits))
	}
	signed, err := el.Int("signed")
	if err != nil {
		return err
	}
	block, err := el.Int("block")
	if err != nil {
		return err
	}
	if block < 1 {
		return errors.NewWithMessage(errors.BadDescriptor, "block size must be at least 1")
	}
	memorySize, err := el.Int("memory_size")
	if err != nil {
		return err
	}
	if memorySize < 0 {
		return errors.NewWithMessage(errors.BadDescriptor, "negative memory_size")
	}
	count, err := el.Int("number_of_values")
	if err != nil {
		return err
	}
	if count < 0 {
		return errors.NewWithMessage(errors.BadDescriptor, "negative number_of_values")
	}

	f.prolixBits = int(prolixBits)
	f.signed = signed != 0
	f.block = int(block)
	f.count = int(count)
	f.bits = int(memorySize) * 8

	// Dimensions are optional; a bare sequence has none.
	if el.Attr("rows") != "" && el.Attr("cols") != "" {
		rows, err := el.Int("rows")
		if err != nil {
			return err
		}
		cols, err := el.Int("cols")
		if err != nil {
			return err
		}
		if rows < 0 || cols < 0 || (rows*cols != int64(f.count) && rows*cols != 0) {
			return errors.NewWithMessage(errors.BadDescriptor,
				fmt.Sprintf("dimensions %dx%d do not match %d values", rows, cols, f.count))
		}
		f.rows = int(rows)
		f.cols = int(cols)
	}
	return nil
}

// Stack is an ordered sequence of frames sharing one Terse file. Records are
// concatenated with no central index; readers scan them in order.
type Stack struct {
	frames []*Frame
}

// PushBack appends a frame to the stack.
func (s *Stack) PushBack(f *Frame) {
	s.frames = append(s.frames, f)
}

// Len returns the number of frames.
func (s *Stack) Len() int { return len(s.frames) }

// Frame returns the i-th frame.
func (s *Stack) Frame(i int) *Frame { return s.frames[i] }

// WriteTo writes all frame records in order.
func (s *Stack) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, f := range s.frames {
		n, err := f.WriteTo(w)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// ReadStack reads frame records until the stream ends. A failure on any
// record leaves no partial result.
func ReadStack(r io.Reader) (*Stack, error) {
	br := bufio.NewReader(r)
	stack := &Stack{}
	for {
		f, err := ReadFrame(br)
		if err == io.EOF {
			return stack, nil
		}
		if err != nil {
			return nil, err
		}
		stack.frames = append(stack.frames, f)
	}
}
