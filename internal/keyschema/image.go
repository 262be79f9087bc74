package keyschema

import (
	"fmt"

	"github.com/dreamware/shardrouter/internal/keyimage"
	"github.com/dreamware/shardrouter/internal/schema"
)

// BuildImage constructs the key image for this schema from vals, one value
// per key column in the schema's column order. It panics if len(vals) !=
// len(s.ColumnIndex): a caller passing the wrong number of key values for a
// fixed schema is a programming error (§7 kind 4), not a data error.
func (s *Schema) BuildImage(vals []schema.Value) *keyimage.Result {
	if len(vals) != len(s.ColumnIndex) {
		panic(fmt.Sprintf("keyschema: got %d key values, schema has %d key columns", len(vals), len(s.ColumnIndex)))
	}
	img := keyimage.New(s.Width)
	for i, v := range vals {
		appendValue(img, s.EncodedType[i], v)
		if v.Null && !s.Nullable[i] {
			// A null value on a column not tagged nullable is malformed
			// data (§7 kind 3), the same treatment as any other
			// unparseable value; appendValue already wrote the all-zero
			// encoding for it above.
			img.Invalidate()
		}
	}
	return img.Finalize()
}

func appendValue(img *keyimage.Image, t schema.PrimitiveType, v schema.Value) {
	switch {
	case t.IsChar():
		img.AppendChar(t.Width(), v.Str, v.Null)
	case t == schema.String:
		img.AppendString(v.Str, v.Null)
	case t == schema.Int8:
		img.AppendInt8(int8(v.Int64), v.Null)
	case t == schema.Int16:
		img.AppendInt16(int16(v.Int64), v.Null)
	case t == schema.Int:
		img.AppendInt(int32(v.Int64), v.Null)
	case t == schema.Long:
		img.AppendLong(v.Int64, v.Null)
	case t == schema.Float:
		img.AppendFloat(float32(v.Float64), v.Null)
	case t == schema.Double:
		img.AppendDouble(v.Float64, v.Null)
	case t == schema.Date:
		img.AppendDate(v.Str, v.Null)
	case t == schema.DateTime:
		img.AppendDateTime(v.Str, v.Null)
	case t == schema.Time:
		img.AppendTime(v.Str, v.Null)
	case t == schema.Timestamp:
		img.AppendTimestamp(v.TimestampMillis, v.Null)
	case t == schema.Decimal:
		img.AppendDecimal(v.Str, v.Null)
	case t == schema.IPv4:
		img.AppendIPv4(v.Str, v.Null)
	default:
		panic(fmt.Sprintf("keyschema: unreachable primitive type %v", t))
	}
}
