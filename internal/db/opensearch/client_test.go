package opensearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

func newTestEngine(t *testing.T, h http.HandlerFunc) *Engine {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	e, err := NewEngine(Config{Addresses: []string{srv.URL}, Index: "works"})
	require.NoError(t, err)
	return e
}

const twoHits = `{
	"took": 7,
	"hits": {
		"total": {"value": 42, "relation": "eq"},
		"hits": [
			{"_id": "1", "_score": 12.5, "_source": {"work_id": 1}},
			{"_id": "2", "_score": null, "_source": {"work_id": 2},
			 "sort": ["butler, octavia", 9223372036854775807],
			 "fields": {"last_update": [1700000000]}}
		]
	}
}`

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(Config{Index: "works"})
	assert.Error(t, err)
	_, err = NewEngine(Config{Addresses: []string{"http://localhost:9200"}})
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, twoHits)
	})

	res, err := e.Search(context.Background(), &dsl.Search{
		Query:  dsl.Term{Field: "presentation_ready", Value: true},
		Size:   dsl.Int(2),
		Source: []string{"work_id"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/works/_search", gotPath)
	assert.Equal(t, map[string]any{"term": map[string]any{"presentation_ready": true}}, gotBody["query"])

	assert.Equal(t, int64(42), res.Total)
	assert.Equal(t, 7*time.Millisecond, res.Took)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "1", res.Entries[0].ID)
	assert.InDelta(t, 12.5, res.Entries[0].Score, 1e-9)
	assert.Zero(t, res.Entries[1].Score, "sorted hits have no score")
	assert.Equal(t, json.Number("1700000000"), res.Entries[1].Fields["last_update"][0])

	// Sort values survive a round trip unchanged.
	b, err := json.Marshal(res.Entries[1].Sort)
	require.NoError(t, err)
	assert.JSONEq(t, `["butler, octavia",9223372036854775807]`, string(b))
	assert.Contains(t, string(b), "9223372036854775807")
}

func TestSearch_EngineError(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"root_cause":[{"type":"parsing_exception","reason":"unknown query [termz]"}],
			"type":"parsing_exception","reason":"unknown query [termz]"},"status":400}`)
	})

	_, err := e.Search(context.Background(), &dsl.Search{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearchEngine)

	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "parsing_exception", re.Type)

	var dbErr *db.Error
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, db.OpSearch, dbErr.Op)
}

func TestSearch_NonJSONError(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	})

	_, err := e.Search(context.Background(), &dsl.Search{})
	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "upstream down", re.Reason)
}

func TestMultiSearch(t *testing.T) {
	var lines []string
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works/_msearch", r.URL.Path)
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		lines = strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
		_, _ = io.WriteString(w, `{"took":3,"responses":[`+twoHits+`,
			{"took":1,"hits":{"total":{"value":0},"hits":[]},"status":200}]}`)
	})

	res, err := e.MultiSearch(context.Background(), []*dsl.Search{
		{Query: dsl.MatchAll{}},
		{Query: dsl.MatchNone{}},
	})
	require.NoError(t, err)

	require.Len(t, lines, 4, "a header and a body per search")
	assert.JSONEq(t, `{}`, lines[0])
	assert.JSONEq(t, `{"query":{"match_none":{}}}`, lines[3])

	require.Len(t, res, 2)
	assert.Len(t, res[0].Entries, 2)
	assert.Empty(t, res[1].Entries)
}

func TestMultiSearch_ItemError(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"took":3,"responses":[`+twoHits+`,
			{"error":{"type":"search_phase_execution_exception","reason":"all shards failed"},"status":500}]}`)
	})

	_, err := e.MultiSearch(context.Background(), []*dsl.Search{{}, {}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearchEngine)
	assert.Contains(t, err.Error(), "search 1")
}

func TestMultiSearch_CountMismatch(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"took":3,"responses":[`+twoHits+`]}`)
	})

	_, err := e.MultiSearch(context.Background(), []*dsl.Search{{}, {}})
	assert.ErrorIs(t, err, domain.ErrSearchEngine)
}

func TestMultiSearch_Empty(t *testing.T) {
	e := newTestEngine(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})
	res, err := e.MultiSearch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestPing(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, e.Ping(context.Background()))
}

func TestPing_Unavailable(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.ErrorIs(t, e.Ping(context.Background()), domain.ErrSearchEngine)
}
