package ingest

import "github.com/dreamware/shardrouter/internal/schema"

// Record is one row to insert. PKValues and ShardValues line up
// positionally with the Ingestor's primary and shard key schemas; a
// schema with no key columns means the corresponding slice is unused.
// Payload is the record already encoded in whatever wire format the
// target table expects — this module routes and buffers bytes, it does
// not know how to serialize a row (§1 Non-goals: the database client that
// performs the actual RPCs, including record encoding, is out of scope).
type Record struct {
	PKValues    []schema.Value
	ShardValues []schema.Value
	Payload     []byte
}
