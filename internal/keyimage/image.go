package keyimage

import (
	"fmt"
	"math"

	"github.com/spaolacci/murmur3"
	"golang.org/x/exp/constraints"
)

// murmurSeed is the seed value the server's hash basis uses for every
// Murmur3 computation in this module (string columns, routing hash).
const murmurSeed = 10

// Image is a mutable, fixed-width byte buffer under construction. Build one
// per key per record: call New with the key schema's total width, issue one
// Append* call per key column in schema order, then call Finalize.
//
// Image is not safe for concurrent use; it is meant to be built and
// finalized by a single goroutine before being handed off.
type Image struct {
	buf   []byte
	off   int
	valid bool
}

// New allocates an Image with a zero-filled buffer of exactly width bytes.
func New(width int) *Image {
	return &Image{buf: make([]byte, width), valid: true}
}

// Result is the outcome of Finalize: the completed buffer plus its validity
// flag and the two hash values derived from it.
type Result struct {
	Bytes []byte
	// Valid is false if any appended value was malformed; the buffer still
	// holds a complete, hashable image (zeros in place of the bad value).
	Valid bool
	// RoutingHash is the low 64 bits of Murmur3 x64 (128-bit, seed 10) over
	// Bytes — what package routing hashes through the shard map.
	RoutingHash uint64
	// HashCode is RoutingHash XOR (RoutingHash >> 32), used by package queue
	// for primary-key deduplication.
	HashCode uint64
}

// Finalize computes the image's hashes and returns the result. It panics if
// the buffer was not completely filled by the Append* calls — a half-built
// image is never hashed (§3 invariant); this is a construction bug, not a
// data error, and keyschema guarantees it cannot happen for correctly wired
// schemas.
func (img *Image) Finalize() *Result {
	if img.off != len(img.buf) {
		panic(fmt.Sprintf("keyimage: image built with %d/%d bytes written", img.off, len(img.buf)))
	}
	lo, _ := murmur3.Sum128WithSeed(img.buf, murmurSeed)
	return &Result{
		Bytes:       img.buf,
		Valid:       img.valid,
		RoutingHash: lo,
		HashCode:    lo ^ (lo >> 32),
	}
}

// take reserves the next n bytes of the buffer for the caller to fill,
// advancing the write cursor. It panics on overrun: every Append* call's
// width must match exactly what the owning key schema allocated for it.
func (img *Image) take(n int) []byte {
	if img.off+n > len(img.buf) {
		panic(fmt.Sprintf("keyimage: buffer overrun, have %d bytes remaining, need %d", len(img.buf)-img.off, n))
	}
	dst := img.buf[img.off : img.off+n]
	img.off += n
	return dst
}

// invalidate marks the image as carrying at least one malformed value. The
// width already reserved via take is left zero-filled by the caller.
func (img *Image) invalidate() {
	img.valid = false
}

// Invalidate marks the image as carrying at least one malformed value. It
// is the exported form of invalidate, for callers outside this package that
// reject a value before it ever reaches an Append* call — package
// keyschema uses it to flag a null value on a non-nullable key column.
func (img *Image) Invalidate() {
	img.invalidate()
}

// appendLE writes v's two's-complement representation into dst,
// little-endian, using exactly len(dst) bytes. A single generic helper
// replaces the source's one hand-written method per integer width.
func appendLE[T constraints.Integer](dst []byte, v T) {
	uv := uint64(v)
	for i := range dst {
		dst[i] = byte(uv >> (8 * uint(i)))
	}
}

// AppendInt8 appends a 1-byte little-endian integer. Null values are
// encoded as the all-zero bit pattern.
func (img *Image) AppendInt8(v int8, isNull bool) {
	dst := img.take(1)
	if isNull {
		return
	}
	appendLE(dst, v)
}

// AppendInt16 appends a 2-byte little-endian integer.
func (img *Image) AppendInt16(v int16, isNull bool) {
	dst := img.take(2)
	if isNull {
		return
	}
	appendLE(dst, v)
}

// AppendInt appends a 4-byte little-endian integer (the "int" primitive
// type, distinct from "long").
func (img *Image) AppendInt(v int32, isNull bool) {
	dst := img.take(4)
	if isNull {
		return
	}
	appendLE(dst, v)
}

// AppendLong appends an 8-byte little-endian integer.
func (img *Image) AppendLong(v int64, isNull bool) {
	dst := img.take(8)
	if isNull {
		return
	}
	appendLE(dst, v)
}

// AppendFloat appends a 4-byte IEEE-754 little-endian float.
func (img *Image) AppendFloat(v float32, isNull bool) {
	dst := img.take(4)
	if isNull {
		return
	}
	appendLE(dst, math.Float32bits(v))
}

// AppendDouble appends an 8-byte IEEE-754 little-endian double.
func (img *Image) AppendDouble(v float64, isNull bool) {
	dst := img.take(8)
	if isNull {
		return
	}
	appendLE(dst, math.Float64bits(v))
}

// AppendChar appends a charN column: the UTF-8 bytes of s, reversed, and
// right-padded (i.e. leading) with NUL up to width bytes. A null value is
// encoded as width NUL bytes. If the UTF-8 encoding of s exceeds width
// bytes, the value is malformed: the image is marked invalid and width NUL
// bytes are written (§4.A: "this reversed, right-padded layout is a
// load-bearing compatibility requirement with the server's hash basis").
func (img *Image) AppendChar(width int, s string, isNull bool) {
	dst := img.take(width)
	if isNull {
		return
	}
	b := []byte(s)
	if len(b) > width {
		img.invalidate()
		return
	}
	pad := width - len(b)
	for i, c := range b {
		dst[pad+(len(b)-1-i)] = c
	}
}

// AppendString appends a variable-length string column: the low 64 bits of
// Murmur3 x64 (128-bit, seed 10) over the UTF-8 bytes of s, little-endian.
// A null value is encoded as 8 zero bytes.
func (img *Image) AppendString(s string, isNull bool) {
	dst := img.take(8)
	if isNull {
		return
	}
	lo, _ := murmur3.Sum128WithSeed([]byte(s), murmurSeed)
	appendLE(dst, lo)
}
