package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/shardrouter/internal/dbapi"
)

type fakeClient struct {
	props   *dbapi.SystemPropertiesResponse
	shards  *dbapi.AdminShowShardsResponse
	propErr error
	shardsErr error
}

func (f *fakeClient) ShowSystemProperties(ctx context.Context) (*dbapi.SystemPropertiesResponse, error) {
	return f.props, f.propErr
}
func (f *fakeClient) AdminShowShards(ctx context.Context) (*dbapi.AdminShowShardsResponse, error) {
	return f.shards, f.shardsErr
}
func (f *fakeClient) InsertRecords(ctx context.Context, table string, data [][]byte, options map[string]string) (*dbapi.InsertRecordsResponse, error) {
	panic("unused")
}
func (f *fakeClient) GetRecords(ctx context.Context, table string, limit int, options map[string]string) (*dbapi.GetRecordsResponse, error) {
	panic("unused")
}

func ok() dbapi.StatusInfo { return dbapi.StatusInfo{Status: "OK"} }

func TestResolve_MultiHeadDisabled(t *testing.T) {
	head := &fakeClient{props: &dbapi.SystemPropertiesResponse{
		PropertyMap: map[string]string{"conf.enable_worker_http_servers": "FALSE"},
		StatusInfo:  ok(),
	}}
	topo, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191"})
	require.NoError(t, err)
	assert.False(t, topo.MultiHead)
	assert.Equal(t, []string{"head:9191"}, topo.Workers)
	assert.Nil(t, topo.ShardMap)
}

func TestResolve_Replicated(t *testing.T) {
	head := &fakeClient{props: &dbapi.SystemPropertiesResponse{
		PropertyMap: map[string]string{
			"conf.enable_worker_http_servers": "TRUE",
			"conf.worker_http_server_urls":    "http://head:9191;http://w1:9192;http://w2:9192",
		},
		StatusInfo: ok(),
	}}
	topo, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191", Replicated: true, FetchShardMap: true})
	require.NoError(t, err)
	assert.False(t, topo.MultiHead)
	assert.Equal(t, []string{"head:9191"}, topo.Workers)
	assert.Nil(t, topo.ShardMap)
}

func TestResolve_URLList(t *testing.T) {
	head := &fakeClient{props: &dbapi.SystemPropertiesResponse{
		PropertyMap: map[string]string{
			"conf.enable_worker_http_servers": "TRUE",
			"conf.worker_http_server_urls":    "http://head:9191;http://w1a:9192,http://w1b:9192;http://w2:9192",
		},
		StatusInfo: ok(),
	}}
	topo, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191"})
	require.NoError(t, err)
	assert.True(t, topo.MultiHead)
	assert.Equal(t, []string{"head:9191", "http://w1a:9192", "http://w2:9192"}, topo.Workers)
}

func TestResolve_URLList_IPRegexSelectsAlternative(t *testing.T) {
	head := &fakeClient{props: &dbapi.SystemPropertiesResponse{
		PropertyMap: map[string]string{
			"conf.enable_worker_http_servers": "TRUE",
			"conf.worker_http_server_urls":    "http://head:9191;http://10.0.0.1:9192,http://10.0.1.1:9192",
		},
		StatusInfo: ok(),
	}}
	topo, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191", IPRegexPattern: `^10\.0\.1\.`})
	require.NoError(t, err)
	assert.Equal(t, []string{"head:9191", "http://10.0.1.1:9192"}, topo.Workers)
}

func TestResolve_URLList_NoRegexMatchFails(t *testing.T) {
	head := &fakeClient{props: &dbapi.SystemPropertiesResponse{
		PropertyMap: map[string]string{
			"conf.enable_worker_http_servers": "TRUE",
			"conf.worker_http_server_urls":    "http://head:9191;http://10.0.0.1:9192",
		},
		StatusInfo: ok(),
	}}
	_, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191", IPRegexPattern: `^10\.0\.1\.`})
	assert.Error(t, err)
}

func TestResolve_IPPortPairs(t *testing.T) {
	head := &fakeClient{props: &dbapi.SystemPropertiesResponse{
		PropertyMap: map[string]string{
			"conf.enable_worker_http_servers": "TRUE",
			"conf.worker_http_server_ips":     "10.0.0.1;10.0.0.2",
			"conf.worker_http_server_ports":   "9192;9192",
		},
		StatusInfo: ok(),
	}}
	topo, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191", Scheme: "http"})
	require.NoError(t, err)
	assert.Equal(t, []string{"head:9191", "http://10.0.0.2:9192"}, topo.Workers)
}

func TestResolve_IPPortCountMismatch(t *testing.T) {
	head := &fakeClient{props: &dbapi.SystemPropertiesResponse{
		PropertyMap: map[string]string{
			"conf.enable_worker_http_servers": "TRUE",
			"conf.worker_http_server_ips":     "10.0.0.1;10.0.0.2",
			"conf.worker_http_server_ports":   "9192",
		},
		StatusInfo: ok(),
	}}
	_, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191", Scheme: "http"})
	assert.Error(t, err)
}

func TestResolve_MissingWorkerKeys(t *testing.T) {
	head := &fakeClient{props: &dbapi.SystemPropertiesResponse{
		PropertyMap: map[string]string{"conf.enable_worker_http_servers": "TRUE"},
		StatusInfo:  ok(),
	}}
	_, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191"})
	assert.Error(t, err)
}

func TestResolve_FetchShardMap(t *testing.T) {
	head := &fakeClient{
		props: &dbapi.SystemPropertiesResponse{
			PropertyMap: map[string]string{
				"conf.enable_worker_http_servers": "TRUE",
				"conf.worker_http_server_urls":    "http://head:9191;http://w1:9192;http://w2:9192",
			},
			StatusInfo: ok(),
		},
		shards: &dbapi.AdminShowShardsResponse{Rank: []int{1, 2, 3, 1}, StatusInfo: ok()},
	}
	topo, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191", FetchShardMap: true})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 0}, topo.ShardMap)
}

func TestResolve_ShardMapOutOfRangeIsFatal(t *testing.T) {
	head := &fakeClient{
		props: &dbapi.SystemPropertiesResponse{
			PropertyMap: map[string]string{
				"conf.enable_worker_http_servers": "TRUE",
				"conf.worker_http_server_urls":    "http://head:9191;http://w1:9192",
			},
			StatusInfo: ok(),
		},
		shards: &dbapi.AdminShowShardsResponse{Rank: []int{1, 5}, StatusInfo: ok()},
	}
	_, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191", FetchShardMap: true})
	assert.Error(t, err)
}

func TestResolve_StatusErrorPropagates(t *testing.T) {
	head := &fakeClient{props: &dbapi.SystemPropertiesResponse{StatusInfo: dbapi.StatusInfo{Status: "ERROR", Message: "nope"}}}
	_, err := Resolve(context.Background(), head, Options{HeadHost: "head:9191"})
	assert.Error(t, err)
}
