// Package bitvec provides random-access bit-level reads and writes over a
// slice of 64-bit words.
//
// Diffraction frames compress well because most pixel values need far fewer
// bits than the 16 or 32 their container reserves for them. Squeezing them
// means writing, say, 5-bit integers back to back with no padding, so a value
// regularly straddles the boundary between two backing words. This package
// supplies the primitive for that: a [Cursor] addresses an arbitrary bit in a
// []uint64, and a [Range] pairs a cursor with a width so whole runs of
// integers can be deposited and extracted without the caller ever thinking
// about word boundaries.
//
// Bit 0 of word k is that word's least-significant bit, and bit 64*k+b of the
// sequence is bit b of word k. A multi-bit field occupies ascending bit
// indices starting with its own least-significant bit, so the packed form is
// independent of host byte order; serializing the words little-endian (the
// container layers do this) yields one canonical byte stream on every
// machine.
//
// None of the operations bounds-check. The codec sizes its buffers up front
// and a cursor is just a coordinate; callers that walk a cursor outside the
// backing slice get the usual slice panic. Writes of an N-bit value touch
// only the one or two words overlapping the range.
package bitvec
