package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_SpecScenario6(t *testing.T) {
	r := New([]int{0, 1, 0, 1})
	assert.Equal(t, 1, r.Route(0x8000000000000001))
}

func TestRoute_EmptyShardMapReturnsZero(t *testing.T) {
	r := New(nil)
	assert.Equal(t, 0, r.Route(0xFFFFFFFFFFFFFFFF))
}

func TestAbsRoutingHash_MinInt64(t *testing.T) {
	assert.Equal(t, uint64(0), AbsRoutingHash(0x8000000000000000))
}

func TestAbsRoutingHash_PositiveUnaffected(t *testing.T) {
	assert.Equal(t, uint64(42), AbsRoutingHash(42))
}

func TestRoute_EveryIndexInDomain(t *testing.T) {
	r := New([]int{2, 0, 1, 2, 1})
	for _, h := range []uint64{0, 1, 0x7FFFFFFFFFFFFFFF, 0x8000000000000000, 0xFFFFFFFFFFFFFFFF} {
		idx := r.Route(h)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 3)
	}
}
