package retrieve

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dreamware/shardrouter/internal/dbapi"
	"github.com/dreamware/shardrouter/internal/discovery"
	"github.com/dreamware/shardrouter/internal/keyschema"
	"github.com/dreamware/shardrouter/internal/routing"
	"github.com/dreamware/shardrouter/internal/schema"
)

// noLimit is passed to dbapi.Client.GetRecords to request every matching
// row rather than a bounded page (§4.G point 4: "no limit").
const noLimit = -1

// KeyValues is the shard key value vector a caller supplies to
// GetRecordsByKey, either as a positional list matching the shard schema's
// column order or as a map keyed by column name (§4.G).
type KeyValues struct {
	Ordered []schema.Value
	ByName  map[string]schema.Value
}

// resolve validates kv against rt/shardSchema and returns the values in
// shard-schema column order.
func (kv KeyValues) resolve(rt schema.RecordType, shardSchema *keyschema.Schema) ([]schema.Value, error) {
	n := len(shardSchema.ColumnIndex)

	if kv.ByName != nil {
		if len(kv.ByName) != n {
			return nil, errors.Errorf("retrieve: got %d named key values, shard key has %d columns", len(kv.ByName), n)
		}
		ordered := make([]schema.Value, n)
		for i, colIdx := range shardSchema.ColumnIndex {
			name := rt.Columns[colIdx].Name
			v, ok := kv.ByName[name]
			if !ok {
				return nil, errors.Errorf("retrieve: missing key value for column %q", name)
			}
			ordered[i] = v
		}
		return ordered, nil
	}

	if len(kv.Ordered) != n {
		return nil, errors.Errorf("retrieve: got %d positional key values, shard key has %d columns", len(kv.Ordered), n)
	}
	return kv.Ordered, nil
}

// Retriever looks up records by their shard key (§4.G). It shares its key
// schema and routing logic with package ingest so a record inserted for a
// given key and a lookup by that same key always agree on the owning
// worker.
type Retriever struct {
	table       string
	rt          schema.RecordType
	shardSchema *keyschema.Schema
	router      *routing.Router
	clients     []dbapi.Client
	logger      *zap.Logger
}

// Options configures New.
type Options struct {
	Table       string
	RecordType  schema.RecordType
	ShardSchema *keyschema.Schema
	Topology    *discovery.Topology
	// Clients holds one dbapi.Client per worker, aligned with
	// Topology.Workers.
	Clients []dbapi.Client
	Logger  *zap.Logger
}

// New builds a Retriever.
func New(opts Options) (*Retriever, error) {
	if len(opts.Clients) != opts.Topology.NumWorkers() {
		return nil, errors.Errorf("retrieve: %d clients but topology has %d workers", len(opts.Clients), opts.Topology.NumWorkers())
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		table:       opts.Table,
		rt:          opts.RecordType,
		shardSchema: opts.ShardSchema,
		router:      routing.New(opts.Topology.ShardMap),
		clients:     opts.Clients,
		logger:      logger,
	}, nil
}

// GetRecordsByKey implements §4.G: validate kv, route to the owning
// worker, build the equality filter expression (ANDing in extraExpression
// if non-empty), and call get_records with fast_index_lookup enabled.
func (r *Retriever) GetRecordsByKey(ctx context.Context, kv KeyValues, extraExpression string) (*dbapi.GetRecordsResponse, error) {
	ordered, err := kv.resolve(r.rt, r.shardSchema)
	if err != nil {
		return nil, err
	}

	image := r.shardSchema.BuildImage(ordered)
	worker := r.router.Route(image.RoutingHash)

	expr := buildExpression(r.rt, r.shardSchema.ColumnIndex, r.shardSchema.EncodedType, ordered)
	if extraExpression != "" {
		expr = expr + " and (" + extraExpression + ")"
	}

	options := map[string]string{
		"expression":        expr,
		"fast_index_lookup": "true",
	}

	resp, err := r.clients[worker].GetRecords(ctx, r.table, noLimit, options)
	if err != nil {
		r.logger.Warn("get_records transport error", zap.Int("worker", worker), zap.Error(err))
		return nil, errors.Wrap(err, "retrieve: get_records")
	}
	if !resp.StatusInfo.OK() {
		return nil, errors.Errorf("retrieve: get_records: %s", resp.StatusInfo.Message)
	}
	return resp, nil
}
