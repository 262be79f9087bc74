package retrieve

import (
	"fmt"
	"strings"

	"github.com/dreamware/shardrouter/internal/keyimage"
	"github.com/dreamware/shardrouter/internal/schema"
)

// buildExpression implements §4.G point 3: an "and"-joined equality
// expression, one clause per key column, using the column's real name from
// rt and its encoded type from shardSchema to decide how to render the
// value.
func buildExpression(rt schema.RecordType, colIndex []int, encType []schema.PrimitiveType, vals []schema.Value) string {
	clauses := make([]string, len(vals))
	for i, v := range vals {
		name := rt.Columns[colIndex[i]].Name
		switch {
		case v.Null:
			clauses[i] = fmt.Sprintf("is_null(%s)", name)
		case isStringLike(encType[i]):
			clauses[i] = fmt.Sprintf(`(%s = "%s")`, name, literalString(encType[i], v))
		default:
			clauses[i] = fmt.Sprintf("(%s = %s)", name, literalScalar(encType[i], v))
		}
	}
	return strings.Join(clauses, " and ")
}

// isStringLike reports whether t's values are rendered as a quoted string
// literal in a filter expression rather than a bare number (§4.G point 3).
func isStringLike(t schema.PrimitiveType) bool {
	switch t {
	case schema.String, schema.IPv4, schema.Decimal, schema.Date, schema.DateTime, schema.Time, schema.Timestamp:
		return true
	default:
		return t.IsChar()
	}
}

func literalString(t schema.PrimitiveType, v schema.Value) string {
	switch t {
	case schema.Timestamp:
		p := keyimage.DecomposeTimestamp(v.TimestampMillis)
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%03d", p.Year, p.Month, p.Day, p.Hour, p.Minute, p.Second, p.Millis)
	default:
		// Date, DateTime, and Time are already carried in the same
		// "YYYY-MM-DD[ HH:MM:SS[.mmm]]" / "HH:MM:SS[.mmm]" grammar the
		// appenders parse, so the raw string doubles as the filter literal.
		return v.Str
	}
}

func literalScalar(t schema.PrimitiveType, v schema.Value) string {
	switch t {
	case schema.Float, schema.Double:
		return fmt.Sprintf("%v", v.Float64)
	default:
		return fmt.Sprintf("%d", v.Int64)
	}
}
