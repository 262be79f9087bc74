package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(s string) []byte { return []byte(s) }

func TestInsert_NoPrimaryKeyNeverDedupes(t *testing.T) {
	q := New(10, false)
	for i := 0; i < 3; i++ {
		batch, dup := q.Insert(rec("r"), PKHash{})
		assert.Nil(t, batch)
		assert.False(t, dup)
	}
	assert.Equal(t, 3, q.Len())
}

func TestInsert_DuplicatePKDroppedWithoutUpdateFlag(t *testing.T) {
	q := New(10, false)
	_, dup := q.Insert(rec("first"), PKHash{Present: true, Valid: true, Code: 42})
	require.False(t, dup)
	batch, dup := q.Insert(rec("second"), PKHash{Present: true, Valid: true, Code: 42})
	assert.Nil(t, batch)
	assert.True(t, dup)
	assert.Equal(t, 1, q.Len())
}

func TestInsert_UpdateOnExistingPKOverwrites(t *testing.T) {
	q := New(10, true)
	_, dup := q.Insert(rec("first"), PKHash{Present: true, Valid: true, Code: 42})
	require.False(t, dup)
	batch, dup := q.Insert(rec("second"), PKHash{Present: true, Valid: true, Code: 42})
	assert.Nil(t, batch)
	assert.False(t, dup)
	assert.Equal(t, 1, q.Len())

	full := q.Flush()
	require.Len(t, full, 1)
	assert.Equal(t, rec("second"), full[0])
}

func TestInsert_InvalidPKImageBypassesIndex(t *testing.T) {
	q := New(10, false)
	_, dup1 := q.Insert(rec("a"), PKHash{Present: true, Valid: false, Code: 99})
	_, dup2 := q.Insert(rec("b"), PKHash{Present: true, Valid: false, Code: 99})
	assert.False(t, dup1)
	assert.False(t, dup2)
	assert.Equal(t, 2, q.Len())
}

func TestInsert_CapacityTriggersFlushAndResetsIndex(t *testing.T) {
	q := New(2, false)
	batch, dup := q.Insert(rec("a"), PKHash{Present: true, Valid: true, Code: 1})
	assert.Nil(t, batch)
	assert.False(t, dup)

	batch, dup = q.Insert(rec("b"), PKHash{Present: true, Valid: true, Code: 2})
	require.NotNil(t, batch)
	assert.False(t, dup)
	assert.Equal(t, [][]byte{rec("a"), rec("b")}, batch)
	assert.Equal(t, 0, q.Len())

	// The index reset along with capacity: code 1 is insertable again as a
	// fresh record, not a duplicate of the flushed batch.
	_, dup = q.Insert(rec("c"), PKHash{Present: true, Valid: true, Code: 1})
	assert.False(t, dup)
}

func TestFlush_ReturnsContentsAndResets(t *testing.T) {
	q := New(10, false)
	q.Insert(rec("a"), PKHash{})
	q.Insert(rec("b"), PKHash{})
	batch := q.Flush()
	assert.Equal(t, [][]byte{rec("a"), rec("b")}, batch)
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Flush())
}

func TestQueue_NeverExceedsCapacity(t *testing.T) {
	q := New(3, false)
	for i := 0; i < 100; i++ {
		q.Insert(rec("x"), PKHash{})
		assert.LessOrEqual(t, q.Len(), 3)
	}
}
