package schema

// Track-type tables carry this fixed column-name signature (§3, §9
// "Track-type detection"). The check is a heuristic on column names, not a
// declared table kind, because the upstream schema language has no explicit
// "track table" marker.
var trackTypeColumns = []string{"TRACKID", "TIMESTAMP", "x", "y"}

// TrackIDColumn is the column name implicitly used as the shard key on a
// track-type table when no column is explicitly tagged shard_key.
const TrackIDColumn = "TRACKID"

// IsTrackType reports whether r carries every column in the track-type
// signature, regardless of their relative order or the presence of other
// columns.
func (r RecordType) IsTrackType() bool {
	for _, name := range trackTypeColumns {
		if r.ColumnIndex(name) < 0 {
			return false
		}
	}
	return true
}
