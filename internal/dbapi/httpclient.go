package dbapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// HTTPDialer is a reference Dialer that speaks a JSON/HTTP wire protocol
// approximating the collaborator's REST surface, adapted from the
// teacher's cluster.PostJSON helper: one shared *http.Client per dialer,
// context-aware requests, status-code and JSON-decode error handling.
type HTTPDialer struct {
	logger *zap.Logger
	http   *http.Client
}

// NewHTTPDialer builds an HTTPDialer. A nil logger discards log output.
func NewHTTPDialer(logger *zap.Logger) *HTTPDialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPDialer{
		logger: logger,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Dial builds a Client targeting host under the given options.
// SkipStartupContact is honored literally: when false, Dial immediately
// issues a ShowSystemProperties call to fail fast on an unreachable host,
// mirroring the collaborator constructor's default startup contact.
func (d *HTTPDialer) Dial(host string, opts DialOptions) (Client, error) {
	scheme := opts.Scheme
	if scheme == "" {
		scheme = "http"
	}
	c := &httpClient{
		baseURL: fmt.Sprintf("%s://%s", scheme, host),
		dialer:  d,
	}
	if !opts.SkipStartupContact {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := c.ShowSystemProperties(ctx); err != nil {
			return nil, errors.Wrapf(err, "dbapi: startup contact with %s failed", host)
		}
	}
	return c, nil
}

type httpClient struct {
	baseURL string
	dialer  *HTTPDialer
}

type wireStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (w wireStatus) toStatusInfo() StatusInfo {
	return StatusInfo{Status: w.Status, Message: w.Message}
}

func (c *httpClient) postJSON(ctx context.Context, path string, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "dbapi: encoding request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return errors.Wrap(err, "dbapi: building request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.dialer.http.Do(req)
	if err != nil {
		c.dialer.logger.Warn("dbapi request failed", zap.String("url", c.baseURL+path), zap.Error(err))
		return errors.Wrapf(err, "dbapi: %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Errorf("dbapi: %s: http %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "dbapi: decoding response")
}

func (c *httpClient) ShowSystemProperties(ctx context.Context) (*SystemPropertiesResponse, error) {
	var wire struct {
		PropertyMap map[string]string `json:"property_map"`
		Status      wireStatus        `json:"status_info"`
	}
	if err := c.postJSON(ctx, "/show_system_properties", struct{}{}, &wire); err != nil {
		return nil, err
	}
	return &SystemPropertiesResponse{PropertyMap: wire.PropertyMap, StatusInfo: wire.Status.toStatusInfo()}, nil
}

func (c *httpClient) AdminShowShards(ctx context.Context) (*AdminShowShardsResponse, error) {
	var wire struct {
		Rank   []int      `json:"rank"`
		Status wireStatus `json:"status_info"`
	}
	if err := c.postJSON(ctx, "/admin_show_shards", struct{}{}, &wire); err != nil {
		return nil, err
	}
	return &AdminShowShardsResponse{Rank: wire.Rank, StatusInfo: wire.Status.toStatusInfo()}, nil
}

func (c *httpClient) InsertRecords(ctx context.Context, table string, data [][]byte, options map[string]string) (*InsertRecordsResponse, error) {
	req := struct {
		TableName string            `json:"table_name"`
		Data      [][]byte          `json:"data"`
		Options   map[string]string `json:"options"`
	}{TableName: table, Data: data, Options: options}

	var wire struct {
		CountInserted int64      `json:"count_inserted"`
		CountUpdated  int64      `json:"count_updated"`
		Status        wireStatus `json:"status_info"`
	}
	if err := c.postJSON(ctx, "/insert/records", req, &wire); err != nil {
		return nil, err
	}
	return &InsertRecordsResponse{CountInserted: wire.CountInserted, CountUpdated: wire.CountUpdated, StatusInfo: wire.Status.toStatusInfo()}, nil
}

func (c *httpClient) GetRecords(ctx context.Context, table string, limit int, options map[string]string) (*GetRecordsResponse, error) {
	req := struct {
		TableName string            `json:"table_name"`
		Limit     int               `json:"limit"`
		Options   map[string]string `json:"options"`
	}{TableName: table, Limit: limit, Options: options}

	var wire struct {
		RecordsBinary [][]byte   `json:"records_binary"`
		TypeSchema    string     `json:"type_schema"`
		Status        wireStatus `json:"status_info"`
	}
	if err := c.postJSON(ctx, "/get/records", req, &wire); err != nil {
		return nil, err
	}
	return &GetRecordsResponse{RecordsBinary: wire.RecordsBinary, TypeSchema: wire.TypeSchema, StatusInfo: wire.Status.toStatusInfo()}, nil
}
