package shardrouter

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/shardrouter/internal/dbapi"
	"github.com/dreamware/shardrouter/internal/ingest"
	"github.com/dreamware/shardrouter/internal/retrieve"
	"github.com/dreamware/shardrouter/internal/schema"
)

func ok() dbapi.StatusInfo { return dbapi.StatusInfo{Status: "OK"} }

// fakeClient is an in-memory stand-in for a single collaborator node: it
// remembers every inserted batch for a table and, for a lookup, returns
// everything it holds regardless of the filter expression — enough to
// exercise worker agreement between insert and retrieve without
// implementing the real expression grammar.
type fakeClient struct {
	mu       sync.Mutex
	rows     [][]byte
	props    *dbapi.SystemPropertiesResponse
	shards   *dbapi.AdminShowShardsResponse
	probeErr error
}

func (c *fakeClient) ShowSystemProperties(ctx context.Context) (*dbapi.SystemPropertiesResponse, error) {
	if c.probeErr != nil {
		return nil, c.probeErr
	}
	return c.props, nil
}
func (c *fakeClient) AdminShowShards(ctx context.Context) (*dbapi.AdminShowShardsResponse, error) {
	return c.shards, nil
}
func (c *fakeClient) InsertRecords(ctx context.Context, table string, data [][]byte, options map[string]string) (*dbapi.InsertRecordsResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, data...)
	return &dbapi.InsertRecordsResponse{CountInserted: int64(len(data)), StatusInfo: ok()}, nil
}
func (c *fakeClient) GetRecords(ctx context.Context, table string, limit int, options map[string]string) (*dbapi.GetRecordsResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([][]byte, len(c.rows))
	copy(cp, c.rows)
	return &dbapi.GetRecordsResponse{RecordsBinary: cp, StatusInfo: ok()}, nil
}

type fakeDialer struct {
	mu      sync.Mutex
	clients map[string]*fakeClient
}

func (d *fakeDialer) Dial(host string, opts dbapi.DialOptions) (dbapi.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.clients[host]; ok {
		return c, nil
	}
	c := &fakeClient{props: &dbapi.SystemPropertiesResponse{StatusInfo: ok()}}
	d.clients[host] = c
	return c, nil
}

func eventsRecordType() schema.RecordType {
	return schema.RecordType{
		Name: "events",
		Columns: []schema.Column{
			{Name: "id", Type: schema.Long, Properties: schema.NewPropertySet(schema.PropertyPrimaryKey, schema.PropertyShardKey)},
			{Name: "payload", Type: schema.String},
		},
	}
}

func TestIngestThenRetrieve_RoutingAgreement(t *testing.T) {
	const head = "http://head:9191"
	props := map[string]string{
		"conf.enable_worker_http_servers": "TRUE",
		"conf.worker_http_server_urls":    "http://head:9191;http://w1:9192;http://w2:9192",
	}
	headClient := &fakeClient{
		props:  &dbapi.SystemPropertiesResponse{PropertyMap: props, StatusInfo: ok()},
		shards: &dbapi.AdminShowShardsResponse{Rank: []int{1, 2, 3, 1, 2, 3, 1, 2}, StatusInfo: ok()},
	}
	dialer := &fakeDialer{clients: map[string]*fakeClient{head: headClient}}

	rt := eventsRecordType()
	ctx := context.Background()

	ing, err := NewIngestor(ctx, rt, IngestorConfig{
		Config:        Config{Dialer: dialer, Host: head, Scheme: "http"},
		Table:         "events",
		QueueCapacity: 100,
	})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		rec := ingest.Record{
			PKValues:    []schema.Value{{Int64: int64(i)}},
			ShardValues: []schema.Value{{Int64: int64(i)}},
			Payload:     []byte(fmt.Sprintf("row-%d", i)),
		}
		require.NoError(t, ing.InsertRecord(ctx, rec))
	}
	require.NoError(t, ing.Flush(ctx))
	assert.Equal(t, int64(20), ing.CountInserted())

	ret, err := NewRetriever(ctx, rt, RetrieverConfig{
		Config: Config{Dialer: dialer, Host: head, Scheme: "http"},
		Table:  "events",
	})
	require.NoError(t, err)

	resp, err := ret.GetRecordsByKey(ctx, retrieve.KeyValues{Ordered: []schema.Value{{Int64: 5}}}, "")
	require.NoError(t, err)

	found := false
	for _, rec := range resp.RecordsBinary {
		if string(rec) == "row-5" {
			found = true
		}
	}
	assert.True(t, found, "expected retrieve to land on the worker holding id=5, via the same routing the ingestor used")
}

func TestNewIngestor_ProbeWorkersLogsUnreachableButDoesNotFail(t *testing.T) {
	const head = "http://head:9191"
	props := map[string]string{
		"conf.enable_worker_http_servers": "TRUE",
		"conf.worker_http_server_urls":    "http://head:9191;http://w1:9192",
	}
	headClient := &fakeClient{
		props:  &dbapi.SystemPropertiesResponse{PropertyMap: props, StatusInfo: ok()},
		shards: &dbapi.AdminShowShardsResponse{Rank: []int{1, 2}, StatusInfo: ok()},
	}
	dialer := &fakeDialer{clients: map[string]*fakeClient{head: headClient}}

	rt := eventsRecordType()
	ctx := context.Background()

	ing, err := NewIngestor(ctx, rt, IngestorConfig{
		Config:        Config{Dialer: dialer, Host: head, Scheme: "http", ProbeWorkers: true},
		Table:         "events",
		QueueCapacity: 10,
	})
	require.NoError(t, err)
	require.NotNil(t, ing)

	// The worker dialed by the probe is the same fakeClient dialWorkers
	// later reuses (fakeDialer memoizes per host), so marking it
	// unreachable here only exercises the probe path, not construction.
	dialer.mu.Lock()
	dialer.clients["http://w1:9192"].probeErr = fmt.Errorf("connection refused")
	dialer.mu.Unlock()

	// A second construction with the same unreachable worker must still
	// succeed: ProbeWorkers logs, it never fails NewIngestor.
	ing2, err := NewIngestor(ctx, rt, IngestorConfig{
		Config:        Config{Dialer: dialer, Host: head, Scheme: "http", ProbeWorkers: true},
		Table:         "events",
		QueueCapacity: 10,
	})
	require.NoError(t, err)
	require.NotNil(t, ing2)
}

func TestIngestThenRetrieve_SingleHeadNoMultiHead(t *testing.T) {
	const head = "http://head:9191"
	headClient := &fakeClient{
		props: &dbapi.SystemPropertiesResponse{
			PropertyMap: map[string]string{"conf.enable_worker_http_servers": "FALSE"},
			StatusInfo:  ok(),
		},
	}
	dialer := &fakeDialer{clients: map[string]*fakeClient{head: headClient}}
	rt := eventsRecordType()
	ctx := context.Background()

	ing, err := NewIngestor(ctx, rt, IngestorConfig{
		Config:        Config{Dialer: dialer, Host: head, Scheme: "http"},
		Table:         "events",
		QueueCapacity: 10,
	})
	require.NoError(t, err)

	require.NoError(t, ing.InsertRecord(ctx, ingest.Record{
		PKValues: []schema.Value{{Int64: 1}}, ShardValues: []schema.Value{{Int64: 1}}, Payload: []byte("only"),
	}))
	require.NoError(t, ing.Flush(ctx))
	assert.Equal(t, []byte("only"), headClient.rows[0])
}
