package ingest

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/shardrouter/internal/dbapi"
	"github.com/dreamware/shardrouter/internal/discovery"
	"github.com/dreamware/shardrouter/internal/keyimage"
	"github.com/dreamware/shardrouter/internal/keyschema"
	"github.com/dreamware/shardrouter/internal/queue"
	"github.com/dreamware/shardrouter/internal/routing"
	"github.com/dreamware/shardrouter/internal/schema"
)

// AnalyzeKeys runs both key-schema analyzers over rt and applies the
// primary/shard aliasing rule from §4.F: when a table's shard key selects
// the exact same columns and encoded types as its primary key, the two
// analyzers are unified into a single Schema so a record only has to
// build one key image, not two identical ones.
func AnalyzeKeys(rt schema.RecordType) (pk, shard *keyschema.Schema, err error) {
	pk, err = keyschema.Analyze(rt, keyschema.PrimaryKeyRole)
	if err != nil {
		return nil, nil, err
	}
	shard, err = keyschema.Analyze(rt, keyschema.ShardKeyRole)
	if err != nil {
		return nil, nil, err
	}
	if !pk.Empty() && pk.Fingerprint == shard.Fingerprint {
		shard = pk
	}
	return pk, shard, nil
}

// Options configures New. PKSchema, ShardSchema, Topology, and Clients are
// expected to already be resolved — by AnalyzeKeys and package discovery —
// so this constructor only wires queues and routing over them.
type Options struct {
	Table string

	PKSchema    *keyschema.Schema
	ShardSchema *keyschema.Schema
	Topology    *discovery.Topology

	// Clients holds one dbapi.Client per worker, aligned with
	// Topology.Workers.
	Clients []dbapi.Client

	QueueCapacity int

	// InsertOptions is forwarded unchanged to every insert_records call.
	// The constructor reads update_on_existing_pk out of it to configure
	// queue dedup behavior (§6); every other key is opaque to this module.
	InsertOptions map[string]string

	Logger *zap.Logger
}

// Ingestor is the single entry point for inserting records into a sharded
// table: it builds key images, routes to a worker, buffers the encoded
// record, and flushes full batches (§4.F).
//
// An Ingestor is a single-producer façade (§5): InsertRecord,
// InsertRecords, and Flush must not be called concurrently on the same
// instance.
type Ingestor struct {
	table string

	pkSchema    *keyschema.Schema
	shardSchema *keyschema.Schema
	router      *routing.Router

	clients       []dbapi.Client
	queues        []*queue.Queue
	insertOptions map[string]string

	rnd    *rand.Rand
	logger *zap.Logger

	countInserted atomic.Int64
	countUpdated  atomic.Int64
}

// New builds an Ingestor. It returns an error only if Clients and
// Topology.Workers disagree in length — every other precondition is
// enforced by the caller of AnalyzeKeys and discovery.Resolve already
// having run successfully.
func New(opts Options) (*Ingestor, error) {
	if len(opts.Clients) != opts.Topology.NumWorkers() {
		return nil, errors.Errorf("ingest: %d clients but topology has %d workers", len(opts.Clients), opts.Topology.NumWorkers())
	}
	capacity := opts.QueueCapacity
	if capacity <= 0 {
		capacity = 1
	}
	updateOnExisting := opts.InsertOptions["update_on_existing_pk"] == "true"

	queues := make([]*queue.Queue, len(opts.Clients))
	for i := range queues {
		queues[i] = queue.New(capacity, updateOnExisting)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ingestor{
		table:         opts.Table,
		pkSchema:      opts.PKSchema,
		shardSchema:   opts.ShardSchema,
		router:        routing.New(opts.Topology.ShardMap),
		clients:       opts.Clients,
		queues:        queues,
		insertOptions: opts.InsertOptions,
		rnd:           newSeededRand(),
		logger:        logger,
	}, nil
}

// CountInserted reports the number of records the collaborator has
// confirmed inserted across every flush so far.
func (ing *Ingestor) CountInserted() int64 { return ing.countInserted.Load() }

// CountUpdated reports the number of records the collaborator has
// confirmed updated (via update_on_existing_pk) across every flush so far.
func (ing *Ingestor) CountUpdated() int64 { return ing.countUpdated.Load() }

// InsertRecord runs the insertRecord steps of §4.F for a single record.
func (ing *Ingestor) InsertRecord(ctx context.Context, rec Record) error {
	return ing.insertOne(ctx, rec)
}

// InsertRecords inserts every record in recs in order. On failure, the
// returned *InsertError's Pending field holds every record from recs that
// had not yet been processed when the failure occurred, so the union of
// FailedBatch, Pending, and the counters already reported as
// inserted/updated accounts for all of recs (§8 "Lossless failure").
func (ing *Ingestor) InsertRecords(ctx context.Context, recs []Record) error {
	for i, rec := range recs {
		if err := ing.insertOne(ctx, rec); err != nil {
			if ierr, ok := err.(*InsertError); ok {
				ierr.Pending = recs[i+1:]
			}
			return err
		}
	}
	return nil
}

func (ing *Ingestor) insertOne(ctx context.Context, rec Record) error {
	// When AnalyzeKeys aliased the shard schema to the primary key schema
	// (same column set, same encoded types), routing and dedup both key off
	// the exact same image: build it once instead of twice (§4.B point 5).
	var shardImage *keyimage.Result
	if ing.pkSchema == ing.shardSchema && !ing.pkSchema.Empty() {
		shardImage = ing.pkSchema.BuildImage(rec.PKValues)
	}

	pk := ing.buildPKHash(rec, shardImage)
	worker := ing.chooseWorker(rec, shardImage)

	batch, duplicate := ing.queues[worker].Insert(rec.Payload, pk)
	if duplicate {
		return nil
	}
	if batch == nil {
		return nil
	}
	return ing.shipBatch(ctx, worker, batch)
}

// buildPKHash returns the primary-key dedup hash for rec, reusing shared if
// the caller already built the shared pk/shard image for this record.
func (ing *Ingestor) buildPKHash(rec Record, shared *keyimage.Result) queue.PKHash {
	if ing.pkSchema.Empty() {
		return queue.PKHash{}
	}
	result := shared
	if result == nil {
		result = ing.pkSchema.BuildImage(rec.PKValues)
	}
	return queue.PKHash{Present: true, Valid: result.Valid, Code: result.HashCode}
}

// chooseWorker returns the worker index to route rec to, reusing shared if
// the caller already built the shared pk/shard image for this record.
func (ing *Ingestor) chooseWorker(rec Record, shared *keyimage.Result) int {
	if ing.shardSchema.Empty() {
		return ing.rnd.IntN(len(ing.queues))
	}
	result := shared
	if result == nil {
		result = ing.shardSchema.BuildImage(rec.ShardValues)
	}
	return ing.router.Route(result.RoutingHash)
}

// Flush drains every worker's queue and ships each non-empty batch,
// fanning out across workers in parallel with errgroup. Every worker's
// result is collected before Flush returns: one worker's insert_records
// failure never prevents another worker's batch from being shipped or
// its failure from being reported (§5).
func (ing *Ingestor) Flush(ctx context.Context) error {
	var mu sync.Mutex
	var failures []*InsertError

	var g errgroup.Group
	for i, q := range ing.queues {
		i, batch := i, q.Flush()
		if len(batch) == 0 {
			continue
		}
		g.Go(func() error {
			if err := ing.shipBatch(ctx, i, batch); err != nil {
				mu.Lock()
				failures = append(failures, err.(*InsertError))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		return &FlushError{Failures: failures}
	}
	return nil
}

// shipBatch is the single-shot RPC of §4.F's "__flush": it calls
// insert_records against worker's client, raising an *InsertError that
// carries batch on any non-OK status or transport error, and otherwise
// accumulating the reply's counts.
func (ing *Ingestor) shipBatch(ctx context.Context, worker int, batch [][]byte) error {
	resp, err := ing.clients[worker].InsertRecords(ctx, ing.table, batch, ing.insertOptions)
	if err != nil {
		ing.logger.Warn("insert_records transport error", zap.Int("worker", worker), zap.Error(err))
		return &InsertError{Cause: err, Worker: worker, FailedBatch: batch}
	}
	if !resp.StatusInfo.OK() {
		ing.logger.Warn("insert_records returned non-OK status",
			zap.Int("worker", worker), zap.String("message", resp.StatusInfo.Message))
		return &InsertError{Cause: errors.New(resp.StatusInfo.Message), Worker: worker, FailedBatch: batch}
	}
	ing.countInserted.Add(resp.CountInserted)
	ing.countUpdated.Add(resp.CountUpdated)
	return nil
}

// newSeededRand builds a math/rand/v2 source seeded from crypto/rand, used
// only for keyless records where §4.C calls for uniform random worker
// selection rather than a routing hash.
func newSeededRand() *rand.Rand {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("ingest: failed to seed random source: " + err.Error())
	}
	s1 := binary.LittleEndian.Uint64(seed[:8])
	s2 := binary.LittleEndian.Uint64(seed[8:])
	return rand.New(rand.NewPCG(s1, s2))
}
