// Package terse implements a variable-width run-length codec for integral
// greyscale image data.
//
// Electron-diffraction frames are mostly background: a 16- or 32-bit pixel
// usually holds a value a handful of bits wide, with occasional bright
// reflections. The codec exploits this by cutting the value sequence into
// fixed-size blocks (12 values by default) and storing each block with just
// enough bits per value to represent its largest member. A block of values
// 3, 4, 2 needs 3 bits each and is stored as 011 100 010; the signed block
// -3, 4, 2 keeps one sign bit per value and becomes 1101 0100 0010. Data
// that is known to be non-negative should be packed unsigned, which saves
// one bit per value.
//
// Every block is preceded by a small header describing its width s:
//
//	1               reuse s from the previous block
//	0 xxx           s = xxx            (0-6)
//	0 111 yy        s = 7 + yy         (7-9)
//	0 111 11 zzzzzz s = 10 + zzzzzz    (10-73)
//
// Multi-bit header fields are packed least-significant-bit first, the same
// way payload values are. The first block always carries a full header; a
// stream whose first header bit is the reuse marker is corrupt. A width of
// zero means the block's values are all zero and it has no payload bits.
//
// A packed [Frame] serializes to a descriptor element followed by the bit
// payload as little-endian bytes, so files written on big- and little-endian
// hosts are identical. [Stack] concatenates frame records for multi-image
// files; readers scan records sequentially.
package terse
