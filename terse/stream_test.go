package terse_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/noxer/bytewriter"
	"github.com/senikm/trpx/errors"
	"github.com/senikm/trpx/terse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream__FrameRoundTrip(t *testing.T) {
	original := make([]int32, 1000)
	for i := range original {
		original[i] = int32(i) - 500
	}
	f := terse.Pack(original, terse.WithDim(25, 40))

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, buf.Len(), n)

	loaded, err := terse.ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, f.Count(), loaded.Count())
	assert.Equal(t, f.BitsPerValue(), loaded.BitsPerValue())
	assert.Equal(t, f.Signed(), loaded.Signed())
	assert.Equal(t, f.Block(), loaded.Block())
	assert.Equal(t, f.TerseSize(), loaded.TerseSize())
	rows, cols := loaded.Dim()
	assert.Equal(t, 25, rows)
	assert.Equal(t, 40, cols)

	out := make([]int32, loaded.Count())
	require.NoError(t, loaded.UnpackInt32(out))
	assert.Equal(t, original, out)
}

func TestStream__DescriptorShape(t *testing.T) {
	f := terse.Pack([]uint16{42, 1, 2, 3})

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	// The payload begins immediately after the descriptor's closing '>'.
	text := buf.String()
	require.True(t, strings.HasPrefix(text, `<Terse prolix_bits="16" signed="0" block="12" `))
	closing := strings.IndexByte(text, '>')
	require.Greater(t, closing, 0)
	assert.Equal(t, f.TerseSize(), len(text)-closing-1)
}

func TestStream__OutputIsDeterministic(t *testing.T) {
	vals := []uint16{9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 100, 1000, 10000}

	one := bytes.Buffer{}
	two := bytes.Buffer{}
	_, err := terse.Pack(vals).WriteTo(&one)
	require.NoError(t, err)
	_, err = terse.Pack(vals).WriteTo(&two)
	require.NoError(t, err)
	assert.Equal(t, one.Bytes(), two.Bytes())
}

func TestStream__WriteToFixedBuffer(t *testing.T) {
	f := terse.Pack([]uint8{1, 2, 3, 4, 5, 6})

	output := make([]byte, 256)
	writer := bytewriter.New(output)
	n, err := f.WriteTo(writer)
	require.NoError(t, err)

	loaded, err := terse.ReadFrame(bufio.NewReader(bytes.NewReader(output[:n])))
	require.NoError(t, err)
	out := make([]uint8, loaded.Count())
	require.NoError(t, loaded.UnpackUint8(out))
	assert.Equal(t, []uint8{1, 2, 3, 4, 5, 6}, out)
}

func TestStream__DescriptorToleratesOrderAndWhitespace(t *testing.T) {
	// Same payload the encoder would produce for [3 4 2] at block 12:
	// header 0 011, then 011 100 010, packed least-significant-bit first into
	// the bytes 0x36 0x0A. Rather than spelling it out, re-encode and graft a
	// reshuffled descriptor on top.
	var buf bytes.Buffer
	_, err := terse.Pack([]uint16{3, 4, 2}).WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	payload := raw[strings.IndexByte(raw, '>')+1:]

	reshuffled := `<Terse number_of_values="3"  block="12"
		signed="0" comment="hand written" memory_size="` +
		"2" + `" prolix_bits="16"/>` + payload

	loaded, err := terse.ReadFrame(bufio.NewReader(strings.NewReader(reshuffled)))
	require.NoError(t, err)
	out := make([]uint16, loaded.Count())
	require.NoError(t, loaded.UnpackUint16(out))
	assert.Equal(t, []uint16{3, 4, 2}, out)
}

func TestStream__TruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	_, err := terse.Pack(make([]uint32, 100)).WriteTo(&buf)
	require.NoError(t, err)

	clipped := buf.Bytes()[:buf.Len()-1]
	_, err = terse.ReadFrame(bufio.NewReader(bytes.NewReader(clipped)))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTruncatedPayload)
}

func TestStream__HeaderDeclaringHugeWidth(t *testing.T) {
	// Hand-crafted payload whose first header encodes s = 73:
	// bits 0, 111, 11, 111111 pack little-endian into 0xFE 0x0F.
	stream := `<Terse prolix_bits="8" signed="0" block="12" memory_size="2" number_of_values="1"/>` +
		string([]byte{0xFE, 0x0F})

	loaded, err := terse.ReadFrame(bufio.NewReader(strings.NewReader(stream)))
	require.NoError(t, err)

	err = loaded.UnpackUint8(make([]uint8, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBadTerseHeader)
}

func TestStream__ReuseMarkerInFirstBlock(t *testing.T) {
	stream := `<Terse prolix_bits="8" signed="0" block="12" memory_size="1" number_of_values="1"/>` +
		string([]byte{0x01})

	loaded, err := terse.ReadFrame(bufio.NewReader(strings.NewReader(stream)))
	require.NoError(t, err)

	err = loaded.UnpackUint8(make([]uint8, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBadTerseHeader)
}

func TestStream__PayloadShorterThanValues(t *testing.T) {
	// Header promises 6-bit values but only one byte of payload exists for
	// twelve of them.
	stream := `<Terse prolix_bits="8" signed="0" block="12" memory_size="1" number_of_values="12"/>` +
		string([]byte{0x0C}) // header 0 110 -> s=6

	loaded, err := terse.ReadFrame(bufio.NewReader(strings.NewReader(stream)))
	require.NoError(t, err)

	err = loaded.UnpackUint8(make([]uint8, 12))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTruncatedPayload)
}

func TestStack__MultiFrameRoundTrip(t *testing.T) {
	first := make([]uint16, 256)
	second := make([]int32, 100)
	for i := range first {
		first[i] = uint16(i)
	}
	for i := range second {
		second[i] = int32(-i * 3)
	}

	stack := &terse.Stack{}
	stack.PushBack(terse.Pack(first, terse.WithDim(16, 16)))
	stack.PushBack(terse.Pack(second, terse.WithDim(10, 10)))

	var buf bytes.Buffer
	_, err := stack.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := terse.ReadStack(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())

	outFirst := make([]uint16, loaded.Frame(0).Count())
	require.NoError(t, loaded.Frame(0).UnpackUint16(outFirst))
	assert.Equal(t, first, outFirst)

	outSecond := make([]int32, loaded.Frame(1).Count())
	require.NoError(t, loaded.Frame(1).UnpackInt32(outSecond))
	assert.Equal(t, second, outSecond)
}

func TestStack__EmptyStream(t *testing.T) {
	loaded, err := terse.ReadStack(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}
