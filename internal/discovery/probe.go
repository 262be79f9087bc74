package discovery

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dreamware/shardrouter/internal/dbapi"
)

// WorkerStatus is the outcome of probing a single worker endpoint.
type WorkerStatus struct {
	Index     int
	Host      string
	Reachable bool
	Err       error
}

// ProbeWorkers dials and pings every worker in topo concurrently, one
// show_system_properties call per worker, and returns a status per worker
// in Workers order. Unlike a background health monitor, this is a one-shot
// fan-out run once at construction time: there is no ticker, no
// consecutive-failure threshold, and no unhealthy callback, since nothing
// in this module's scope redistributes shards in response to a down
// worker — the collaborator owns that decision.
func ProbeWorkers(ctx context.Context, dialer dbapi.Dialer, topo *Topology, logger *zap.Logger) []WorkerStatus {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]WorkerStatus, len(topo.Workers))

	var wg sync.WaitGroup
	for i, host := range topo.Workers {
		wg.Add(1)
		go func(i int, host string) {
			defer wg.Done()
			results[i] = probeOne(ctx, dialer, i, host, logger)
		}(i, host)
	}
	wg.Wait()

	return results
}

func probeOne(ctx context.Context, dialer dbapi.Dialer, index int, host string, logger *zap.Logger) WorkerStatus {
	client, err := dialer.Dial(host, dbapi.DialOptions{SkipStartupContact: true})
	if err != nil {
		logger.Warn("worker dial failed", zap.Int("worker", index), zap.String("host", host), zap.Error(err))
		return WorkerStatus{Index: index, Host: host, Reachable: false, Err: err}
	}

	resp, err := client.ShowSystemProperties(ctx)
	if err != nil {
		logger.Warn("worker probe failed", zap.Int("worker", index), zap.String("host", host), zap.Error(err))
		return WorkerStatus{Index: index, Host: host, Reachable: false, Err: err}
	}
	if !resp.StatusInfo.OK() {
		logger.Warn("worker probe returned non-OK status",
			zap.Int("worker", index), zap.String("host", host), zap.String("message", resp.StatusInfo.Message))
		return WorkerStatus{Index: index, Host: host, Reachable: false}
	}
	return WorkerStatus{Index: index, Host: host, Reachable: true}
}
