package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, s *dsl.Search) (*db.SearchResult, error)
	MultiSearch(ctx context.Context, ss []*dsl.Search) ([]*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Search runs one compiled search.
func (r *Repo) Search(ctx context.Context, s *dsl.Search) (*result.Set, error) {
	sr, err := r.store.Search(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("search works: %w", err)
	}
	return parseResult(sr)
}

// MultiSearch runs compiled searches in one round trip. Results keep the
// order of the searches.
func (r *Repo) MultiSearch(ctx context.Context, ss []*dsl.Search) ([]*result.Set, error) {
	srs, err := r.store.MultiSearch(ctx, ss)
	if err != nil {
		return nil, fmt.Errorf("multi search works: %w", err)
	}
	if len(srs) != len(ss) {
		return nil, fmt.Errorf("%w: %d responses for %d searches", domain.ErrSearchEngine, len(srs), len(ss))
	}
	out := make([]*result.Set, len(srs))
	for i, sr := range srs {
		res, err := parseResult(sr)
		if err != nil {
			return nil, fmt.Errorf("search %d: %w", i, err)
		}
		out[i] = res
	}
	return out, nil
}

// parseResult converts db.SearchResult into hits.
func parseResult(sr *db.SearchResult) (*result.Set, error) {
	if sr == nil {
		return &result.Set{}, nil
	}
	res := &result.Set{
		Total: sr.Total,
		Took:  sr.Took,
		Hits:  make([]result.Hit, 0, len(sr.Entries)),
	}
	for _, entry := range sr.Entries {
		hit, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		res.Hits = append(res.Hits, hit)
	}
	return res, nil
}

// parseEntry builds a hit from one engine entry.
func parseEntry(entry db.SearchEntry) (result.Hit, error) {
	id, err := workID(entry)
	if err != nil {
		return result.Hit{}, err
	}

	var fields map[string]any
	for name, values := range entry.Fields {
		if len(values) == 0 {
			continue
		}
		if fields == nil {
			fields = make(map[string]any, len(entry.Fields))
		}
		if len(values) == 1 {
			fields[name] = values[0]
		} else {
			fields[name] = values
		}
	}

	return result.New(id, entry.Score, entry.Sort, fields, entry.Explanation), nil
}

// workID prefers the source's work_id and falls back to the document ID.
func workID(entry db.SearchEntry) (int64, error) {
	switch v := entry.Source["work_id"].(type) {
	case json.Number:
		if id, err := v.Int64(); err == nil {
			return id, nil
		}
	case float64:
		if v == math.Trunc(v) {
			return int64(v), nil
		}
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	}
	id, err := strconv.ParseInt(entry.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: hit %q has no work id", domain.ErrSearchEngine, entry.ID)
	}
	return id, nil
}
