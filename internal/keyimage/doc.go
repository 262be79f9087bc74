// Package keyimage builds the byte-exact canonical key image for a single
// record's key columns — [MODULE A] in the component table.
//
// # Overview
//
// An Image is a fixed-width byte buffer built by a sequence of per-column
// Append* calls, one per key column, issued in the order the owning
// keyschema.Schema lists them. Every Append* method:
//
//   - never writes outside the buffer (an attempt panics — that indicates a
//     schema/width mismatch, a programmer error, not a data error);
//   - writes exactly the column's declared width, even on malformed input;
//   - on malformed input, writes the all-zero pattern for that width and
//     clears the image's validity flag, rather than returning a Go error.
//
// The invalid-value sentinel is a boolean, not an exception, by design: a
// record with one malformed key column still flows through ingestion (the
// remote database decides its fate), it just skips client-side primary-key
// deduplication (see package queue).
//
// # Hashing
//
// Finalize computes the routing hash and hash code described in spec §4.C
// from the completed buffer using a single Murmur3 x64 (128-bit) seed-10
// implementation (github.com/spaolacci/murmur3), replacing the source's
// native-binding-with-pure-fallback duality (§9 Design Notes).
package keyimage
