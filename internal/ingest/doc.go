// Package ingest implements the Ingestor — [MODULE F]. It ties together
// key schema analysis (package keyschema), shard routing (package
// routing), and per-worker buffering (package queue) into the single
// entry point an application calls to insert records: build the primary
// and shard key images, choose a worker, buffer the already-encoded
// record, and flush full batches through a caller-supplied dbapi.Client.
//
// The ingestor is a single-producer façade (§5): InsertRecord,
// InsertRecords, and Flush are not safe for concurrent use on the same
// instance. Internally, Flush fans out across workers in parallel with
// golang.org/x/sync/errgroup, adapted from the teacher's
// checkAllNodes concurrent-health-check shape — here fanning out
// insert_records calls instead of health pings, and aggregating every
// worker's failure instead of just the first.
package ingest
