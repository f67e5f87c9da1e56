// Package imagetest holds fixtures shared by the pipeline tests.
package imagetest

import (
	"io"
	"testing"

	"github.com/senikm/trpx/greytif"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// Gradient builds a deterministic detector-like frame: a diagonal ramp with
// a few hot pixels, the kind of dynamics the codec sees in practice.
func Gradient(rows, cols int) []uint16 {
	pixels := make([]uint16, rows*cols)
	for i := range pixels {
		r, c := i/cols, i%cols
		pixels[i] = uint16((r + c) % 97)
	}
	for i := 0; i < len(pixels); i += 8191 {
		pixels[i] = 0xFFF0
	}
	return pixels
}

// TiffStream renders a single-frame TIFF and returns it as an in-memory
// seekable stream, standing in for a detector file on disk.
func TiffStream(t *testing.T, pixels []uint16, rows, cols int) io.ReadWriteSeeker {
	t.Helper()

	tif := greytif.New()
	require.NoError(t, tif.PushBack(pixels, rows, cols))
	return bytesextra.NewReadWriteSeeker(tif.Bytes())
}
