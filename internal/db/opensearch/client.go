package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// Compile-time check: Engine implements db.Engine.
var _ db.Engine = (*Engine)(nil)

// Config holds connection parameters for an OpenSearch cluster.
type Config struct {
	Addresses          []string
	Username           string
	Password           string
	Index              string
	InsecureSkipVerify bool
}

// Engine implements db.Engine on the OpenSearch REST API.
type Engine struct {
	client *opensearch.Client
	index  string
}

// NewEngine creates an OpenSearch engine client. No request is made.
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}

	osCfg := opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.InsecureSkipVerify {
		osCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in for local clusters
		}
	}
	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Engine{client: client, index: cfg.Index}, nil
}

// Ping checks connectivity.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := opensearchapi.PingRequest{}.Do(ctx, e.client)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return &db.Error{Op: db.OpPing, Err: decodeError(res.StatusCode, res.Body)}
	}
	return nil
}

// Close is a no-op: the REST client holds only pooled connections.
func (e *Engine) Close() {}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (e *Engine) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search engine: %w", ctx.Err())
		case <-ticker.C:
			if err := e.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Search runs one search against the works index.
func (e *Engine) Search(ctx context.Context, s *dsl.Search) (*db.SearchResult, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	res, err := opensearchapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, e.client)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: %w", domain.ErrSearchEngine, err)}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, &db.Error{Op: db.OpSearch, Err: decodeError(res.StatusCode, res.Body)}
	}

	var sr searchResponse
	if err := decode(res.Body, &sr); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return sr.result(), nil
}

// MultiSearch runs every search in one _msearch round trip. Any failed
// search fails the whole call.
func (e *Engine) MultiSearch(ctx context.Context, ss []*dsl.Search) ([]*db.SearchResult, error) {
	if len(ss) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	header := []byte("{}\n")
	for i, s := range ss {
		body, err := json.Marshal(s)
		if err != nil {
			return nil, &db.Error{Op: db.OpMultiSearch, Err: fmt.Errorf("search %d: %w", i, err)}
		}
		buf.Write(header)
		buf.Write(body)
		buf.WriteByte('\n')
	}

	res, err := opensearchapi.MsearchRequest{
		Index: []string{e.index},
		Body:  &buf,
	}.Do(ctx, e.client)
	if err != nil {
		return nil, &db.Error{Op: db.OpMultiSearch, Err: fmt.Errorf("%w: %w", domain.ErrSearchEngine, err)}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, &db.Error{Op: db.OpMultiSearch, Err: decodeError(res.StatusCode, res.Body)}
	}

	var mr multiSearchResponse
	if err := decode(res.Body, &mr); err != nil {
		return nil, &db.Error{Op: db.OpMultiSearch, Err: err}
	}
	if len(mr.Responses) != len(ss) {
		return nil, &db.Error{Op: db.OpMultiSearch, Err: fmt.Errorf(
			"%w: %d responses for %d searches", domain.ErrSearchEngine, len(mr.Responses), len(ss))}
	}

	out := make([]*db.SearchResult, 0, len(mr.Responses))
	for i, r := range mr.Responses {
		if r.Error != nil {
			return nil, &db.Error{Op: db.OpMultiSearch, Err: fmt.Errorf("search %d: %w", i, r.Error.asError(r.Status))}
		}
		out = append(out, r.result())
	}
	return out, nil
}

// decode keeps numbers as json.Number so that sort values such as
// Long.MAX_VALUE survive a round trip through search_after.
func decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed response: %w", domain.ErrSearchEngine, err)
	}
	return nil
}
