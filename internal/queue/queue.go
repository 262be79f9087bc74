package queue

// PKHash describes the primary-key image built for a record about to be
// inserted, if the target table has a primary key at all.
type PKHash struct {
	// Present is false when the table has no primary key; dedup is skipped
	// entirely and Code/Valid are ignored.
	Present bool
	// Valid is false when the key image was built from unparseable data
	// (§7 kind 3). An invalid image bypasses the index unconditionally and
	// the server decides the record's fate.
	Valid bool
	Code  uint64
}

// Queue is a bounded FIFO of encoded records awaiting a flush to one
// worker, with an optional secondary index over primary-key hash codes.
type Queue struct {
	capacity           int
	updateOnExistingPK bool
	records            [][]byte
	index              map[uint64]int
}

// New builds an empty Queue with the given capacity. updateOnExistingPK
// mirrors the insert_records option of the same name (§6): when set, a
// record sharing a pk-hash with a resident record overwrites it instead of
// being dropped as a duplicate.
func New(capacity int, updateOnExistingPK bool) *Queue {
	return &Queue{
		capacity:           capacity,
		updateOnExistingPK: updateOnExistingPK,
		index:              make(map[uint64]int),
	}
}

// Len reports the number of records currently buffered.
func (q *Queue) Len() int {
	return len(q.records)
}

// Insert appends encoded to the queue, applying primary-key dedup per pk
// (§4.E). It returns (batch, false) with a non-nil batch if appending just
// reached capacity, in which case the queue is reset to empty; it returns
// (nil, true) if the record was a duplicate and was dropped rather than
// appended. Otherwise it returns (nil, false).
func (q *Queue) Insert(encoded []byte, pk PKHash) (batch [][]byte, duplicate bool) {
	if pk.Present && pk.Valid {
		if idx, exists := q.index[pk.Code]; exists {
			if !q.updateOnExistingPK {
				return nil, true
			}
			q.records[idx] = encoded
			return nil, false
		}
		q.index[pk.Code] = len(q.records)
	}
	q.records = append(q.records, encoded)

	if len(q.records) >= q.capacity {
		return q.Flush(), false
	}
	return nil, false
}

// Flush returns the queue's current contents and resets it to empty,
// including clearing the pk-hash index.
func (q *Queue) Flush() [][]byte {
	batch := q.records
	q.records = nil
	q.index = make(map[uint64]int)
	return batch
}
