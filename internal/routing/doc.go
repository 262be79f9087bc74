// Package routing implements the Shard Router — [MODULE C] in the
// component table. Given a key image's precomputed routing hash, it maps
// the hash through a shard map to a worker index:
//
//	shardMap[ abs(routingHash) mod len(shardMap) ]
//
// abs is computed by masking off the sign bit (bit 63) of every hash, not by
// negating negative values, so INT64_MIN is well defined (-INT64_MIN
// overflows back to INT64_MIN in two's complement arithmetic). An empty
// shard map (multi-head disabled, a
// replicated table, or a keyless record type) always routes to worker 0.
package routing
