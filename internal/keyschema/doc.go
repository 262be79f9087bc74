// Package keyschema implements the Key Schema Analyzer — [MODULE B] in the
// component table. It turns a schema.RecordType plus a role (primary key or
// shard key) into a Schema: an ordered list of key columns, each with its
// encoded (possibly narrowed) type, a total image width, and a stable
// fingerprint two analyzers can compare to detect "this is the same key".
//
// # Column selection and narrowing
//
// A column belongs to the key if its property set contains the role's tag
// (schema.PropertyPrimaryKey or schema.PropertyShardKey). A selected
// column's declared type is replaced for encoding purposes by at most one
// width-narrowing property present on it (schema.NarrowingProperties);
// carrying more than one is a fatal construction error, matching the
// source's "more than one narrowing property" schema error.
//
// # Track-type fallback
//
// A record type with no explicit shard key but carrying the TRACKID/
// TIMESTAMP/x/y column signature gets an implicit single-column shard key
// on TRACKID, using TRACKID's own declared name and type — not the name and
// type of whichever column the source happened to iterate last, which the
// source's synthesis logic is known to get wrong (see the Open Question
// resolution this corrects). A track-type table with an explicit shard key
// naming anything other than TRACKID alone is a fatal schema error.
//
// # Fingerprint
//
// Two Schemas that select the same columns, in the same order, with the
// same encoded types, produce the same fingerprint. package ingest uses
// this to recognize "the primary key and the shard key are the same
// columns" and build one key image per record instead of two.
package keyschema
