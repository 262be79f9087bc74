package discovery

import (
	"context"
	"regexp"

	"github.com/pkg/errors"

	"github.com/dreamware/shardrouter/internal/dbapi"
)

// Topology is the resolved worker set and, when fetched, the shard map that
// routes a shard index to a worker index within that set.
type Topology struct {
	// Workers holds one endpoint per worker, Workers[0] always the head.
	Workers []string
	// MultiHead reports whether more than the head was discovered.
	MultiHead bool
	// ShardMap, when non-nil, maps shard index to worker index. It is nil
	// when multi-head is disabled, the table is replicated, or the caller
	// declined to fetch it (no key exists to route on).
	ShardMap []int
}

// NumWorkers reports len(Workers).
func (t *Topology) NumWorkers() int {
	return len(t.Workers)
}

// Options configures Resolve.
type Options struct {
	// HeadHost is the endpoint already used to reach the collaborator's
	// head node; it becomes Workers[0] regardless of multi-head status.
	HeadHost string
	// Scheme is used both to synthesize ip/port URLs and as the head's own
	// scheme per §4.D ("using the head client's scheme").
	Scheme string
	// Replicated tells Resolve the target table is replicated: the worker
	// set collapses to {head} and the shard map is never fetched (§4.D).
	Replicated bool
	// FetchShardMap requests admin_show_shards once the worker set is
	// resolved. Ignored when multi-head is disabled or Replicated is set.
	// Callers (package ingest) set this when the record type has at least
	// one key to route on (§4.F).
	FetchShardMap bool
	// IPRegexPattern restricts which address alternative is selected for
	// each rank (§4.D). Empty matches any address.
	IPRegexPattern string
}

// Resolve contacts the head node's show_system_properties and, when
// applicable, admin_show_shards, producing the Topology an ingestor or
// retriever routes against. Every failure is fatal configuration error
// territory (§7 kind 1).
func Resolve(ctx context.Context, head dbapi.Client, opts Options) (*Topology, error) {
	props, err := head.ShowSystemProperties(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "discovery: show_system_properties")
	}
	if !props.StatusInfo.OK() {
		return nil, errors.Errorf("discovery: show_system_properties: %s", props.StatusInfo.Message)
	}

	if opts.Replicated {
		return &Topology{Workers: []string{opts.HeadHost}, MultiHead: false}, nil
	}
	if !multiHeadEnabled(props.PropertyMap) {
		return &Topology{Workers: []string{opts.HeadHost}, MultiHead: false}, nil
	}

	var ipRegex *regexp.Regexp
	if opts.IPRegexPattern != "" {
		ipRegex, err = regexp.Compile(opts.IPRegexPattern)
		if err != nil {
			return nil, errors.Wrap(err, "discovery: invalid IP regex")
		}
	}

	rest, err := resolveWorkerURLs(props.PropertyMap, opts.Scheme, ipRegex)
	if err != nil {
		return nil, err
	}

	topo := &Topology{
		Workers:   append([]string{opts.HeadHost}, rest...),
		MultiHead: len(rest) > 0,
	}

	if opts.FetchShardMap {
		shardMap, err := fetchShardMap(ctx, head, topo.NumWorkers())
		if err != nil {
			return nil, err
		}
		topo.ShardMap = shardMap
	}
	return topo, nil
}

// fetchShardMap calls admin_show_shards and decrements each 1-based rank to
// the 0-based worker index space (§4.D). An entry that would address a
// worker outside the resolved set is a fatal configuration error.
func fetchShardMap(ctx context.Context, head dbapi.Client, numWorkers int) ([]int, error) {
	resp, err := head.AdminShowShards(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "discovery: admin_show_shards")
	}
	if !resp.StatusInfo.OK() {
		return nil, errors.Errorf("discovery: admin_show_shards: %s", resp.StatusInfo.Message)
	}

	shardMap := make([]int, len(resp.Rank))
	for i, rank := range resp.Rank {
		worker := rank - 1
		if worker < 0 || worker >= numWorkers {
			return nil, errors.Errorf("discovery: shard %d owner rank %d is out of range for %d workers", i, rank, numWorkers)
		}
		shardMap[i] = worker
	}
	return shardMap, nil
}
