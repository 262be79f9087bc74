package routing

// signBit is the bit cleared by AbsRoutingHash: bit 63 of the two's
// complement 64-bit value.
const signBit = uint64(1) << 63

// AbsRoutingHash implements the "two's-complement absolute value with the
// sign bit masked" convention from §4.C: clearing bit 63 directly, rather
// than negating a negative value, which is what makes the INT64_MIN case
// well-defined (negation would overflow back to INT64_MIN) and what
// produces the exact worker index the spec's worked routing example
// expects for 0x8000000000000001.
func AbsRoutingHash(h uint64) uint64 {
	return h &^ signBit
}

// Router maps a key image's routing hash to a worker index through a shard
// map obtained from worker discovery.
type Router struct {
	shardMap []int
}

// New builds a Router over shardMap. The slice is copied; callers may reuse
// or discard their own copy afterward.
func New(shardMap []int) *Router {
	r := &Router{shardMap: make([]int, len(shardMap))}
	copy(r.shardMap, shardMap)
	return r
}

// Route returns the worker index owning routingHash: shardMap[abs(hash) mod
// len(shardMap)], or 0 if the shard map is empty (multi-head disabled, a
// replicated table, or a keyless record type — §4.C).
func (r *Router) Route(routingHash uint64) int {
	if len(r.shardMap) == 0 {
		return 0
	}
	idx := AbsRoutingHash(routingHash) % uint64(len(r.shardMap))
	return r.shardMap[idx]
}

// NumShards reports the size of the shard map.
func (r *Router) NumShards() int {
	return len(r.shardMap)
}
