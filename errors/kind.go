// Error kinds for everything that can go wrong while parsing TIFF input,
// decoding a Terse stream, or driving the codec outside its contract.

package errors

import (
	"fmt"
)

type Kind int

var errorMessagesByKind map[Kind]string

const (
	OK Kind = iota
	BadTiffHeader
	UnsupportedTiff
	BadTerseHeader
	BadDescriptor
	TruncatedPayload
	UnsupportedTarget
	CorruptStream
)

var ErrBadTiffHeader = New(BadTiffHeader)
var ErrUnsupportedTiff = New(UnsupportedTiff)
var ErrBadTerseHeader = New(BadTerseHeader)
var ErrBadDescriptor = New(BadDescriptor)
var ErrTruncatedPayload = New(TruncatedPayload)
var ErrUnsupportedTarget = New(UnsupportedTarget)
var ErrCorruptStream = New(CorruptStream)

// StrKind returns a human-readable message for a [Kind]. Unknown codes get a
// generic message rather than a panic, since corrupt input can put arbitrary
// values into error paths.
func StrKind(kind Kind) string {
	message, found := errorMessagesByKind[kind]
	if found {
		return message
	}
	return fmt.Sprintf("unknown error code %d", int(kind))
}

func init() {
	errorMessagesByKind = map[Kind]string{
		OK:                "no error",
		BadTiffHeader:     "not a TIFF file: bad byte-order mark or magic number",
		UnsupportedTiff:   "unsupported TIFF feature",
		BadTerseHeader:    "malformed Terse block header",
		BadDescriptor:     "malformed Terse frame descriptor",
		TruncatedPayload:  "Terse payload is shorter than its descriptor claims",
		UnsupportedTarget: "decode target is incompatible with the encoded data",
		CorruptStream:     "stream contents are inconsistent",
	}
}
