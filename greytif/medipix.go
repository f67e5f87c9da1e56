package greytif

import (
	"fmt"
	"io"

	"github.com/senikm/trpx/errors"
)

// ReadMedipix loads the common single-frame detector file: one unsigned
// 16-bit greyscale image, typically 512x512 for a Medipix quad. It returns
// the pixel values and dimensions directly, saving callers the container
// walk.
func ReadMedipix(r io.Reader) ([]uint16, int, int, error) {
	t, err := Read(r)
	if err != nil {
		return nil, 0, 0, err
	}
	if t.Len() != 1 {
		return nil, 0, 0, errors.NewWithMessage(errors.UnsupportedTiff,
			fmt.Sprintf("detector file holds %d images, want exactly 1", t.Len()))
	}
	im := t.Image(0)
	if im.Type() != Uint16 {
		return nil, 0, 0, errors.NewWithMessage(errors.UnsupportedTiff,
			fmt.Sprintf("detector file holds %s pixels, want uint16", im.Type()))
	}
	rows, cols := im.Dim()
	return im.Uint16s(), rows, cols, nil
}
