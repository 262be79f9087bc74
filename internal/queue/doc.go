// Package queue holds the per-worker buffer an ingestor appends encoded
// records to before shipping them in a batch (§4.E). Each worker gets its
// own Queue; when the target table has a primary key, the queue also
// tracks a pk-hash index so duplicate or updated primary keys are resolved
// locally instead of round-tripping to the collaborator.
//
// A Queue carries no internal locking. The ingestor is documented as a
// single-producer façade (§5): callers serialize their own access, so a
// mutex here would only protect against a race the contract already
// forbids.
package queue
