package schema

// Value is a tagged column value: the caller fills in only the fields that
// apply to the target column's PrimitiveType (after any width-narrowing
// substitution), leaving the rest zero. This is the boundary type between a
// caller's in-memory record representation and the key-image encoders —
// record encoding itself is out of scope (§1 Non-goals: "Record encoding is
// an external collaborator concern").
//
// Date, DateTime, and Time values are carried in Str in the same wire
// grammar their appenders parse ("YYYY-MM-DD", "YYYY-MM-DD HH:MM:SS.mmm",
// "HH:MM:SS.mmm"): a malformed string is a data error the appender must
// catch (§7 kind 3), the same as a malformed Decimal or IPv4 string, not
// something this type can pre-validate by construction.
type Value struct {
	Null bool

	Int64   int64
	Float64 float64
	Str     string // char*N, string, decimal, ipv4, date, datetime, time

	TimestampMillis int64
}
