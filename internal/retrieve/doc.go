// Package retrieve implements the Retriever — [MODULE G]: given a shard
// key's values, build the same key image the ingestor would have built for
// a matching record, route it to the owning worker exactly as package
// ingest does, and fetch the matching rows from that worker with an
// equality filter expression instead of a full scan.
package retrieve
