package keyschema

import (
	"hash/fnv"

	"github.com/pkg/errors"

	"github.com/dreamware/shardrouter/internal/schema"
)

// Role selects which property tag a column must carry to belong to the key
// this analyzer builds.
type Role int

const (
	PrimaryKeyRole Role = iota
	ShardKeyRole
)

func (r Role) tag() string {
	if r == PrimaryKeyRole {
		return schema.PropertyPrimaryKey
	}
	return schema.PropertyShardKey
}

// Schema is the result of analyzing a record type for one role: the ordered
// key columns, their encoded types, the total image width, and a
// fingerprint for comparing two Schemas.
type Schema struct {
	Role Role

	// ColumnIndex[i] is the index into the record type's Columns slice for
	// the i-th key column.
	ColumnIndex []int
	// EncodedType[i] is the type used to encode the i-th key column — the
	// column's declared type, or its narrowed type if one applies.
	EncodedType []schema.PrimitiveType
	Nullable    []bool

	Width       int
	Fingerprint uint64
}

// Empty reports whether this schema selects no columns at all — a legal
// state meaning "random routing" (§4.B).
func (s *Schema) Empty() bool {
	return len(s.ColumnIndex) == 0
}

// Analyze builds a Schema for rt under role. It returns an error only for
// the two fatal schema-error kinds in §7: more than one narrowing property
// on a single key column, and a non-TRACKID shard key on a track-type
// table.
func Analyze(rt schema.RecordType, role Role) (*Schema, error) {
	s := &Schema{Role: role}
	tag := role.tag()

	for i, col := range rt.Columns {
		if !col.Properties.Has(tag) {
			continue
		}
		encType, err := resolveEncodedType(col)
		if err != nil {
			return nil, errors.Wrapf(err, "keyschema: column %q", col.Name)
		}
		s.ColumnIndex = append(s.ColumnIndex, i)
		s.EncodedType = append(s.EncodedType, encType)
		s.Nullable = append(s.Nullable, col.IsNullable())
		s.Width += encType.Width()
	}

	isTrack := rt.IsTrackType()
	if role == ShardKeyRole && isTrack {
		if len(s.ColumnIndex) == 0 {
			idx := rt.ColumnIndex(schema.TrackIDColumn)
			col := rt.Columns[idx]
			encType, err := resolveEncodedType(col)
			if err != nil {
				return nil, errors.Wrapf(err, "keyschema: column %q", col.Name)
			}
			s.ColumnIndex = []int{idx}
			s.EncodedType = []schema.PrimitiveType{encType}
			s.Nullable = []bool{col.IsNullable()}
			s.Width = encType.Width()
		} else if len(s.ColumnIndex) != 1 || rt.Columns[s.ColumnIndex[0]].Name != schema.TrackIDColumn {
			return nil, errors.Errorf("keyschema: track-type table %q has a shard key other than TRACKID alone", rt.Name)
		}
	}

	s.Fingerprint = fingerprint(s)
	return s, nil
}

// resolveEncodedType applies §4.B point 2: intersect the column's property
// set with the narrowing-property tags, requiring at most one match.
func resolveEncodedType(col schema.Column) (schema.PrimitiveType, error) {
	var resolved schema.PrimitiveType
	found := false
	for tag, t := range schema.NarrowingProperties {
		if !col.Properties.Has(tag) {
			continue
		}
		if found {
			return 0, errors.Errorf("more than one width-narrowing property present")
		}
		resolved = t
		found = true
	}
	if found {
		return resolved, nil
	}
	return col.Type, nil
}

// fingerprint computes an FNV-1a hash over the ordered (column index,
// encoded type) pairs so two Schemas that select the same columns in the
// same order with the same encoded types compare equal.
func fingerprint(s *Schema) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 0, 8)
	for i, idx := range s.ColumnIndex {
		buf = buf[:0]
		buf = append(buf, byte(idx), byte(idx>>8), byte(idx>>16), byte(idx>>24))
		buf = append(buf, byte(s.EncodedType[i]))
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}
