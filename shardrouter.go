package shardrouter

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dreamware/shardrouter/internal/dbapi"
	"github.com/dreamware/shardrouter/internal/discovery"
	"github.com/dreamware/shardrouter/internal/ingest"
	"github.com/dreamware/shardrouter/internal/keyschema"
	"github.com/dreamware/shardrouter/internal/retrieve"
	"github.com/dreamware/shardrouter/internal/schema"
)

// Config holds the connection parameters shared by NewIngestor and
// NewRetriever: how to reach the collaborator's head node and, if the
// worker set turns out to be multi-head, how to reach every worker too.
type Config struct {
	// Dialer constructs a dbapi.Client for any worker endpoint discovery
	// resolves, including the head itself.
	Dialer dbapi.Dialer
	// Host is the head node endpoint, used both to dial the head client
	// and as Workers[0] of the resolved topology. Scheme, not Host, is the
	// scheme used for ip/port worker synthesis (§4.D).
	Host     string
	Scheme   string
	Username string
	Password string
	// Replicated declares the target table replicated: the worker set
	// collapses to {head} and the shard map is never fetched (§4.D).
	Replicated bool
	// IPRegexPattern restricts which address alternative discovery picks
	// per rank when a rank offers more than one (§4.D). Empty matches any.
	IPRegexPattern string
	// ProbeWorkers runs a one-shot concurrent reachability check
	// (discovery.ProbeWorkers) against the resolved worker set once
	// discovery completes. An unreachable worker is logged, not fatal:
	// nothing in this module's scope redistributes shards in response to a
	// down worker, the same as discovery.ProbeWorkers itself documents.
	ProbeWorkers bool
	Logger       *zap.Logger
}

// dialOptions always skips the constructor's startup contact: discovery's
// own show_system_properties call, issued immediately after dialing the
// head, already serves as the reachability check.
func (c Config) dialOptions() dbapi.DialOptions {
	return dbapi.DialOptions{Scheme: c.Scheme, Username: c.Username, Password: c.Password, SkipStartupContact: true}
}

// IngestorConfig configures NewIngestor.
type IngestorConfig struct {
	Config
	Table         string
	QueueCapacity int
	// InsertOptions is forwarded unchanged to every insert_records call;
	// update_on_existing_pk is read out of it (§6).
	InsertOptions map[string]string
}

// NewIngestor resolves worker topology, analyzes rt's primary and shard
// key schemas, dials one client per worker, and wires the result into an
// Ingestor (§4.F).
func NewIngestor(ctx context.Context, rt schema.RecordType, cfg IngestorConfig) (*ingest.Ingestor, error) {
	head, err := cfg.Dialer.Dial(cfg.Host, cfg.dialOptions())
	if err != nil {
		return nil, errors.Wrap(err, "shardrouter: dial head")
	}

	pk, shard, err := ingest.AnalyzeKeys(rt)
	if err != nil {
		return nil, err
	}
	hasKey := !pk.Empty() || !shard.Empty()

	topo, err := discovery.Resolve(ctx, head, discovery.Options{
		HeadHost:       cfg.Host,
		Scheme:         cfg.Scheme,
		Replicated:     cfg.Replicated,
		FetchShardMap:  hasKey && !cfg.Replicated,
		IPRegexPattern: cfg.IPRegexPattern,
	})
	if err != nil {
		return nil, err
	}

	probeWorkersIfRequested(ctx, cfg.Config, topo)

	clients, err := dialWorkers(cfg.Dialer, topo, cfg.Config)
	if err != nil {
		return nil, err
	}

	return ingest.New(ingest.Options{
		Table:         cfg.Table,
		PKSchema:      pk,
		ShardSchema:   shard,
		Topology:      topo,
		Clients:       clients,
		QueueCapacity: cfg.QueueCapacity,
		InsertOptions: cfg.InsertOptions,
		Logger:        cfg.Logger,
	})
}

// RetrieverConfig configures NewRetriever.
type RetrieverConfig struct {
	Config
	Table string
}

// NewRetriever resolves worker topology, analyzes rt's shard key schema,
// dials one client per worker, and wires the result into a Retriever
// (§4.G).
func NewRetriever(ctx context.Context, rt schema.RecordType, cfg RetrieverConfig) (*retrieve.Retriever, error) {
	head, err := cfg.Dialer.Dial(cfg.Host, cfg.dialOptions())
	if err != nil {
		return nil, errors.Wrap(err, "shardrouter: dial head")
	}

	shard, err := keyschema.Analyze(rt, keyschema.ShardKeyRole)
	if err != nil {
		return nil, err
	}

	topo, err := discovery.Resolve(ctx, head, discovery.Options{
		HeadHost:       cfg.Host,
		Scheme:         cfg.Scheme,
		Replicated:     cfg.Replicated,
		FetchShardMap:  !shard.Empty() && !cfg.Replicated,
		IPRegexPattern: cfg.IPRegexPattern,
	})
	if err != nil {
		return nil, err
	}

	probeWorkersIfRequested(ctx, cfg.Config, topo)

	clients, err := dialWorkers(cfg.Dialer, topo, cfg.Config)
	if err != nil {
		return nil, err
	}

	return retrieve.New(retrieve.Options{
		Table:       cfg.Table,
		RecordType:  rt,
		ShardSchema: shard,
		Topology:    topo,
		Clients:     clients,
		Logger:      cfg.Logger,
	})
}

// probeWorkersIfRequested runs the one-shot reachability check cfg opted
// into and logs a warning per unreachable worker. It never fails
// construction: an unreachable worker surfaces for real the first time a
// flush or lookup is actually routed to it.
func probeWorkersIfRequested(ctx context.Context, cfg Config, topo *discovery.Topology) {
	if !cfg.ProbeWorkers {
		return
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, status := range discovery.ProbeWorkers(ctx, cfg.Dialer, topo, logger) {
		if !status.Reachable {
			logger.Warn("worker unreachable at construction time",
				zap.Int("worker", status.Index), zap.String("host", status.Host))
		}
	}
}

func dialWorkers(dialer dbapi.Dialer, topo *discovery.Topology, cfg Config) ([]dbapi.Client, error) {
	clients := make([]dbapi.Client, len(topo.Workers))
	opts := cfg.dialOptions()
	opts.SkipStartupContact = true
	for i, host := range topo.Workers {
		c, err := dialer.Dial(host, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "shardrouter: dial worker %d (%s)", i, host)
		}
		clients[i] = c
	}
	return clients, nil
}
