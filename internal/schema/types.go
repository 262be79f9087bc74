package schema

import "fmt"

// PrimitiveType is one of the closed set of physical column types this
// module knows how to encode into a key image. The set is exhaustive by
// design (§3 of the specification): adding a type means adding both a
// PrimitiveType constant and an appender in package keyimage.
type PrimitiveType int

// The closed set of primitive types, in the order they appear in the data
// model table. Char1..Char256 are nine distinct fixed widths, not one
// parameterized type, because a property tag such as "char8" selects one of
// them by name.
const (
	Int8 PrimitiveType = iota
	Int16
	Int
	Long
	Float
	Double
	Char1
	Char2
	Char4
	Char8
	Char16
	Char32
	Char64
	Char128
	Char256
	String
	Date
	DateTime
	Time
	Timestamp
	Decimal
	IPv4
)

// charWidths maps the Char* constants to their encoded byte width.
var charWidths = map[PrimitiveType]int{
	Char1: 1, Char2: 2, Char4: 4, Char8: 8, Char16: 16,
	Char32: 32, Char64: 64, Char128: 128, Char256: 256,
}

// widths holds the encoded byte width for every non-char primitive type.
var widths = map[PrimitiveType]int{
	Int8: 1, Int16: 2, Int: 4, Long: 8,
	Float: 4, Double: 8,
	String: 8,
	Date:   4, DateTime: 8, Time: 4, Timestamp: 8,
	Decimal: 8, IPv4: 4,
}

// Width returns the number of bytes this type occupies in a key image.
// Panics on an unrecognized type — the set is closed and any caller holding
// a PrimitiveType value must have gotten it from this package.
func (t PrimitiveType) Width() int {
	if w, ok := charWidths[t]; ok {
		return w
	}
	if w, ok := widths[t]; ok {
		return w
	}
	panic(fmt.Sprintf("schema: unknown primitive type %d", int(t)))
}

// IsChar reports whether t is one of the Char1..Char256 family.
func (t PrimitiveType) IsChar() bool {
	_, ok := charWidths[t]
	return ok
}

func (t PrimitiveType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	case Date:
		return "date"
	case DateTime:
		return "datetime"
	case Time:
		return "time"
	case Timestamp:
		return "timestamp"
	case Decimal:
		return "decimal"
	case IPv4:
		return "ipv4"
	default:
		if w, ok := charWidths[t]; ok {
			return fmt.Sprintf("char%d", w)
		}
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Property name constants recognized by this module (§6: "Record-type
// property tags the core recognizes").
const (
	PropertyPrimaryKey = "primary_key"
	PropertyShardKey   = "shard_key"
	// PropertyNullable marks a column as accepting a null value. A key
	// column that receives a null value without carrying this tag is
	// treated as malformed data when building a key image (§7 kind 3),
	// the same as any other unparseable value.
	PropertyNullable = "nullable"
)

// NarrowingProperties maps the width-narrowing property tag strings to the
// PrimitiveType they select. A column carrying one of these tags is encoded
// using that type's width and appender instead of its declared base type
// (§4.B point 2). At most one of these may be present on a single column.
var NarrowingProperties = map[string]PrimitiveType{
	"char1": Char1, "char2": Char2, "char4": Char4, "char8": Char8,
	"char16": Char16, "char32": Char32, "char64": Char64,
	"char128": Char128, "char256": Char256,
	"date": Date, "datetime": DateTime, "decimal": Decimal, "ipv4": IPv4,
	"int8": Int8, "int16": Int16, "time": Time, "timestamp": Timestamp,
}

// PropertySet is a small, order-independent set of free-form string tags
// attached to a column. The zero value is an empty set.
type PropertySet map[string]struct{}

// NewPropertySet builds a PropertySet from a list of tags.
func NewPropertySet(tags ...string) PropertySet {
	s := make(PropertySet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether tag is present in the set.
func (s PropertySet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Column describes a single field of a RecordType: its name, declared
// primitive type, and property tags.
type Column struct {
	Name       string
	Type       PrimitiveType
	Properties PropertySet
}

// IsPrimaryKey reports whether this column is tagged as (part of) the
// record's primary key.
func (c Column) IsPrimaryKey() bool { return c.Properties.Has(PropertyPrimaryKey) }

// IsShardKey reports whether this column is tagged as (part of) the
// record's shard key.
func (c Column) IsShardKey() bool { return c.Properties.Has(PropertyShardKey) }

// IsNullable reports whether this column is tagged as accepting a null
// value, the same way IsPrimaryKey/IsShardKey read their own tags.
func (c Column) IsNullable() bool { return c.Properties.Has(PropertyNullable) }

// RecordType is an ordered list of columns. Column order is significant:
// key schemas preserve declaration order when composing a key image.
type RecordType struct {
	Name    string
	Columns []Column
}

// ColumnIndex returns the index of the column named name, or -1 if no such
// column exists.
func (r RecordType) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
