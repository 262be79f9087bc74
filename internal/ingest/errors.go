package ingest

import (
	"fmt"
	"strings"
)

// InsertError reports an insert_records failure for a single worker's
// batch. FailedBatch holds every record in that batch; if the failure
// occurred partway through an InsertRecords call, Pending holds the
// records from the caller's list that had not yet been processed at all.
// The union of FailedBatch, Pending, and whatever the Ingestor's counters
// already report as inserted/updated accounts for every record the
// caller submitted (§8 "Lossless failure").
type InsertError struct {
	Cause       error
	Worker      int
	FailedBatch [][]byte
	Pending     []Record
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("ingest: worker %d: flush of %d record(s) failed: %v", e.Worker, len(e.FailedBatch), e.Cause)
}

func (e *InsertError) Unwrap() error {
	return e.Cause
}

// FlushError aggregates every worker's InsertError from a single Flush
// call. A parallel flush must not let one worker's failure hide another's
// (§5): every failing worker's batch is represented here.
type FlushError struct {
	Failures []*InsertError
}

func (e *FlushError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("ingest: flush failed on %d worker(s): %s", len(e.Failures), strings.Join(parts, "; "))
}
