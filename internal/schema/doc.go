// Package schema defines the record type model that the rest of this module
// reads from: columns, their primitive types, nullability, and the free-form
// property tags that mark a column as part of a primary or shard key or that
// narrow its physical encoding.
//
// # Overview
//
// A RecordType is an ordered list of Columns. Order matters: key schemas
// (package keyschema) walk columns in declaration order to build a stable,
// reproducible key image layout. Two properties carry routing semantics —
// PropertyPrimaryKey and PropertyShardKey — and a further closed set of
// properties narrows a column's encoded width without changing its
// declared PrimitiveType (for example a column declared String but tagged
// "char8" is encoded as a fixed 8-byte field, not hashed).
//
// # Primitive types
//
// The primitive type set is closed and fixed-width; see PrimitiveType.Width.
// Narrowing properties (NarrowingProperties) may replace a column's base
// type for encoding purposes only — the declared PrimitiveType on the
// Column itself never changes.
package schema
