// Package trpx converts between greyscale TIFF stacks and Terse-compressed
// .trpx files. It glues the container layer ([greytif]) to the codec
// ([terse]): each TIFF frame becomes one Terse frame record carrying the
// pixel type, block size, dimensions and bit payload, and decompression
// rebuilds a baseline TIFF with the original pixels.
package trpx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/senikm/trpx/errors"
	"github.com/senikm/trpx/greytif"
	"github.com/senikm/trpx/terse"
)

// TrpxExt is the extension of compressed files.
const TrpxExt = ".trpx"

// Options control the file pipelines.
type Options struct {
	// Block is the codec block size; 0 selects the codec default.
	Block int
	// Keep prevents CompressFile/DecompressFile from deleting the source
	// file after a successful rewrite.
	Keep bool
}

func (o Options) block() int {
	if o.Block > 0 {
		return o.Block
	}
	return terse.DefaultBlock
}

// CompressTiff reads a TIFF stream and writes the equivalent .trpx stream.
func CompressTiff(r io.Reader, w io.Writer, opts Options) (FileStats, error) {
	var stats FileStats

	tif, err := greytif.Read(r)
	if err != nil {
		return stats, err
	}

	stack := &terse.Stack{}
	for i := 0; i < tif.Len(); i++ {
		frame, err := packImage(tif.Image(i), opts.block())
		if err != nil {
			return stats, err
		}
		stack.PushBack(frame)
		im := tif.Image(i)
		stats.RawBytes += int64(im.Count() * im.Type().Size)
	}

	n, err := stack.WriteTo(w)
	if err != nil {
		return stats, err
	}
	stats.Frames = stack.Len()
	stats.TerseBytes = n
	if stats.RawBytes > 0 {
		stats.Ratio = float64(stats.TerseBytes) / float64(stats.RawBytes)
	}
	return stats, nil
}

// packImage dispatches on the frame's runtime pixel type. Floating-point
// frames enter the integral codec by truncation to int32; diffraction data
// in float containers holds integral counts, so nothing is lost.
func packImage(im greytif.Image, block int) (*terse.Frame, error) {
	rows, cols := im.Dim()
	opts := []terse.Option{terse.WithBlock(block), terse.WithDim(rows, cols)}

	switch im.Type() {
	case greytif.Uint8:
		return terse.Pack(im.Uint8s(), opts...), nil
	case greytif.Int8:
		return terse.Pack(im.Int8s(), opts...), nil
	case greytif.Uint16:
		return terse.Pack(im.Uint16s(), opts...), nil
	case greytif.Int16:
		return terse.Pack(im.Int16s(), opts...), nil
	case greytif.Uint32:
		return terse.Pack(im.Uint32s(), opts...), nil
	case greytif.Int32:
		return terse.Pack(im.Int32s(), opts...), nil
	case greytif.Float32:
		src := im.Float32s()
		vals := make([]int32, len(src))
		for i, v := range src {
			vals[i] = int32(v)
		}
		return terse.Pack(vals, opts...), nil
	case greytif.Float64:
		src := im.Float64s()
		vals := make([]int32, len(src))
		for i, v := range src {
			vals[i] = int32(v)
		}
		return terse.Pack(vals, opts...), nil
	}
	return nil, errors.NewWithMessage(errors.UnsupportedTarget,
		fmt.Sprintf("cannot compress %s pixels", im.Type()))
}

// DecompressTrpx reads a .trpx stream and writes the equivalent TIFF.
func DecompressTrpx(r io.Reader, w io.Writer) (FileStats, error) {
	var stats FileStats

	stack, err := terse.ReadStack(r)
	if err != nil {
		return stats, err
	}
	if stack.Len() == 0 {
		return stats, errors.NewWithMessage(errors.CorruptStream, "stream holds no frames")
	}

	tif := greytif.New()
	for i := 0; i < stack.Len(); i++ {
		frame := stack.Frame(i)
		rows, cols := frame.Dim()
		if rows*cols != frame.Count() {
			// Legacy streams without dimensions decompress as a single row.
			rows, cols = 1, frame.Count()
		}
		vals, err := frame.Unpack()
		if err != nil {
			return stats, err
		}
		if err := tif.PushBack(vals, rows, cols); err != nil {
			return stats, err
		}
		stats.RawBytes += int64(frame.Count() * frame.BitsPerValue() / 8)
		stats.TerseBytes += int64(frame.TerseSize())
	}

	if _, err := tif.WriteTo(w); err != nil {
		return stats, err
	}
	stats.Frames = stack.Len()
	if stats.RawBytes > 0 {
		stats.Ratio = float64(stats.TerseBytes) / float64(stats.RawBytes)
	}
	return stats, nil
}

// TrpxPath maps a TIFF path to its compressed counterpart.
func TrpxPath(path string) (string, error) {
	ext := filepath.Ext(path)
	lower := strings.ToLower(ext)
	if lower != ".tif" && lower != ".tiff" {
		return "", fmt.Errorf("%s does not carry a TIFF extension", path)
	}
	return strings.TrimSuffix(path, ext) + TrpxExt, nil
}

// TiffPath maps a compressed path back to a TIFF path.
func TiffPath(path string) (string, error) {
	ext := filepath.Ext(path)
	if strings.ToLower(ext) != TrpxExt {
		return "", fmt.Errorf("%s does not carry a %s extension", path, TrpxExt)
	}
	return strings.TrimSuffix(path, ext) + ".tif", nil
}

// CompressFile rewrites one TIFF file as .trpx, removing the original on
// success unless Options.Keep is set.
func CompressFile(path string, opts Options) (FileStats, error) {
	target, err := TrpxPath(path)
	if err != nil {
		return FileStats{}, err
	}
	stats, err := rewriteFile(path, target, func(r io.Reader, w io.Writer) (FileStats, error) {
		return CompressTiff(r, w, opts)
	})
	if err != nil {
		return stats, err
	}
	if !opts.Keep {
		if err := os.Remove(path); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// DecompressFile rewrites one .trpx file as TIFF, removing the original on
// success unless Options.Keep is set.
func DecompressFile(path string, opts Options) (FileStats, error) {
	target, err := TiffPath(path)
	if err != nil {
		return FileStats{}, err
	}
	stats, err := rewriteFile(path, target, DecompressTrpx)
	if err != nil {
		return stats, err
	}
	if !opts.Keep {
		if err := os.Remove(path); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// rewriteFile runs a stream transform from one path to another. The target
// is only created once the transform has succeeded in memory, so a failed
// conversion never leaves a partial file behind.
func rewriteFile(
	source, target string,
	transform func(io.Reader, io.Writer) (FileStats, error),
) (FileStats, error) {
	input, err := os.ReadFile(source)
	if err != nil {
		return FileStats{}, err
	}

	var output bytes.Buffer
	stats, err := transform(bytes.NewReader(input), &output)
	if err != nil {
		return stats, err
	}
	stats.Input = source
	stats.Output = target

	if err := os.WriteFile(target, output.Bytes(), 0o644); err != nil {
		return stats, err
	}
	return stats, nil
}

// ProcessBatch applies `process` to every path, collecting per-file failures
// instead of aborting: one broken frame must not sink a night's worth of
// detector output. The returned error aggregates all failures, nil when
// everything succeeded.
func ProcessBatch(paths []string, process func(string) error) error {
	var result *multierror.Error
	for _, path := range paths {
		if err := process(path); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
		}
	}
	return result.ErrorOrNil()
}
