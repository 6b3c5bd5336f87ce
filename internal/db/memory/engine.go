// Package memory is an in-process search engine over JSON work documents.
// It evaluates the same compiled searches the cluster runs, with a
// simplified scoring model, and backs local development and tests.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// Compile-time check: Engine implements db.Engine.
var _ db.Engine = (*Engine)(nil)

// DefaultSize is the engine's page size when a search sets none.
const DefaultSize = 10

type document struct {
	id     string
	source map[string]any
}

// Engine holds work documents in memory.
type Engine struct {
	mu   sync.RWMutex
	docs []document
	now  func() time.Time
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Index adds or replaces documents. Every document needs a numeric work_id.
func (e *Engine) Index(docs ...map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Searches hold the previous slice without a lock.
	next := slices.Clone(e.docs)
	for i, src := range docs {
		id, ok := number(first(src["work_id"]))
		if !ok {
			return fmt.Errorf("document %d: missing work_id", i)
		}
		d := document{id: strconv.FormatInt(int64(id), 10), source: src}
		if j := slices.IndexFunc(next, func(o document) bool { return o.id == d.id }); j >= 0 {
			next[j] = d
			continue
		}
		next = append(next, d)
	}
	e.docs = next
	return nil
}

// Load indexes documents from a JSON array or from one JSON object per line.
func (e *Engine) Load(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read documents: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var docs []map[string]any
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := dec.Decode(&docs); err != nil {
			return fmt.Errorf("decode documents: %w", err)
		}
		return e.Index(docs...)
	}
	for {
		var d map[string]any
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode document %d: %w", len(docs), err)
		}
		docs = append(docs, d)
	}
	return e.Index(docs...)
}

// LoadFile indexes the documents in a fixture file.
func (e *Engine) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return e.Load(f)
}

// Len returns the number of indexed documents.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Ping always succeeds.
func (e *Engine) Ping(context.Context) error { return nil }

// Close is a no-op.
func (e *Engine) Close() {}

// Search evaluates one search.
func (e *Engine) Search(ctx context.Context, s *dsl.Search) (*db.SearchResult, error) {
	res, err := e.search(ctx, s)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return res, nil
}

// MultiSearch evaluates every search in order. Any failed search fails
// the whole call.
func (e *Engine) MultiSearch(ctx context.Context, ss []*dsl.Search) ([]*db.SearchResult, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]*db.SearchResult, 0, len(ss))
	for i, s := range ss {
		res, err := e.search(ctx, s)
		if err != nil {
			return nil, &db.Error{Op: db.OpMultiSearch, Err: fmt.Errorf("search %d: %w", i, err)}
		}
		out = append(out, res)
	}
	return out, nil
}

type match struct {
	doc   document
	score float64
	sort  []any
}

func (e *Engine) search(ctx context.Context, s *dsl.Search) (*db.SearchResult, error) {
	start := e.now()
	if err := checkScripts(s); err != nil {
		return nil, err
	}

	e.mu.RLock()
	docs := e.docs
	e.mu.RUnlock()

	var matches []match
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, score := eval(s.Query, scope{obj: d.source, root: d.source})
		if !ok {
			continue
		}
		if s.MinScore != nil && score < *s.MinScore {
			continue
		}
		matches = append(matches, match{doc: d, score: score})
	}
	total := int64(len(matches))

	order(matches, s.Sort)
	if len(s.SearchAfter) > 0 && len(s.Sort) > 0 {
		matches = after(matches, s.Sort, s.SearchAfter)
	}
	matches = window(matches, s.From, s.Size)

	sorted := len(s.Sort) > 0 && !slices.ContainsFunc(s.Sort, func(so dsl.Sort) bool {
		_, ok := so.(dsl.ScoreSort)
		return ok
	})
	out := &db.SearchResult{Total: total, Entries: make([]db.SearchEntry, 0, len(matches))}
	for _, m := range matches {
		entry := db.SearchEntry{
			ID:     m.doc.id,
			Score:  m.score,
			Source: project(m.doc.source, s.Source),
			Sort:   m.sort,
		}
		if sorted {
			// The cluster does not score hits sorted by field.
			entry.Score = 0
		}
		if len(s.ScriptFields) > 0 {
			entry.Fields = make(map[string][]any, len(s.ScriptFields))
			for name, f := range s.ScriptFields {
				entry.Fields[name] = []any{runScript(f.Script, m.doc.source)}
			}
		}
		if s.Explain {
			entry.Explanation = explain(m.score)
		}
		out.Entries = append(out.Entries, entry)
	}
	out.Took = e.now().Sub(start)
	return out, nil
}

func window(ms []match, from, size *int) []match {
	start, n := 0, DefaultSize
	if from != nil {
		start = *from
	}
	if size != nil {
		n = *size
	}
	if start >= len(ms) {
		return nil
	}
	end := min(start+n, len(ms))
	return ms[start:end]
}

// project keeps only the requested top-level fields. No list keeps everything.
func project(src map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return src
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := src[f]; ok {
			out[f] = v
		}
	}
	return out
}

func explain(score float64) json.RawMessage {
	b, _ := json.Marshal(map[string]any{
		"value":       score,
		"description": "sum of matching hypotheses",
		"details":     []any{},
	})
	return b
}

// unsupported reports DSL the memory engine does not evaluate.
func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", domain.ErrSearchEngine, domain.ErrNotImplemented, fmt.Sprintf(format, args...))
}
