// Package greytif reads and writes the narrow slice of baseline TIFF that
// scientific greyscale detectors produce: stacks of two-dimensional
// single-sample images with 8-, 16-, 32- or 64-bit pixels, stored
// uncompressed in one strip per image.
//
// DISCLAIMER: this is not a general-purpose TIFF library. Compressed data,
// colour, bilevel images, tiles, planar layouts and fragmented strips are
// all rejected, and per the promotion of the original reader's warnings,
// rejected hard rather than parsed into garbage.
//
// A [Tif] owns one contiguous byte buffer holding the complete file image.
// On load the buffer is normalized: a big-endian ('MM') file has its header,
// the IFD fields the parser interprets, and every pixel strip swapped in
// place, after which the buffer is canonical little-endian ('II') and all
// access goes through explicit little-endian accessors. Emitted files are
// therefore identical on every host.
//
// Frames are described by an index of {offset, dimensions, pixel type}
// entries; [Tif.Image] materializes a view on demand. Views borrow the
// backing buffer: any call that can grow or replace it ([Tif.PushBack],
// [Regularize], [Tif.Clear], [Tif.Swap]) invalidates previously obtained
// views, while the typed
// extractors return fresh slices that stay valid forever.
package greytif
