package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/mode"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/pagination"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/parser"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/query"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/request"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
	"github.com/kailas-cloud/shelfdex/internal/logger"
	"github.com/kailas-cloud/shelfdex/internal/metrics"
)

// Search kinds, used as the kind label of search metrics.
const (
	KindText   = "text"
	KindJSON   = "json"
	KindBrowse = "browse"
	KindLane   = "lane"
)

const (
	statusOK    = "ok"
	statusEmpty = "empty"
	statusError = "error"
)

// Config tunes compiled searches.
type Config struct {
	// ScriptRevision selects the stored script revision; zero uses the default.
	ScriptRevision int
	// Seed drives the random part of featured scoring.
	Seed filter.RandomSeed
}

// Compiled is a search ready for the engine.
type Compiled struct {
	Kind   string
	Search *dsl.Search
	// MatchNothing searches never reach the engine.
	MatchNothing bool
	// Hypotheses counts the competing relevance hypotheses of a text search.
	Hypotheses int
	// Intents is what the query parser recognized, nil when it did not run.
	Intents    *parser.Intents
	Pagination pagination.Pagination
}

// Service compiles catalog searches and runs them.
type Service struct {
	repo     Repository
	catalog  CatalogReader
	analyzer *query.Analyzer
	cfg      Config
}

// New creates a search service. cat may be nil, in which case
// library and lane scoped searches fail with domain.ErrNotFound.
func New(repo Repository, cat CatalogReader, analyzer *query.Analyzer, cfg Config) *Service {
	if analyzer == nil {
		analyzer = query.NewAnalyzer()
	}
	return &Service{repo: repo, catalog: cat, analyzer: analyzer, cfg: cfg}
}

// Search runs one search and returns its page.
func (s *Service) Search(ctx context.Context, req *request.Request) (*result.Page, error) {
	c, err := s.Explain(ctx, req)
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues(kindOf(req), statusError).Inc()
		return nil, err
	}
	if c.MatchNothing {
		return s.page(ctx, c, &result.Set{}), nil
	}

	set, err := s.repo.Search(ctx, c.Search)
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues(c.Kind, statusError).Inc()
		return nil, fmt.Errorf("run search: %w", err)
	}
	return s.page(ctx, c, set), nil
}

// MultiSearch runs a batch of searches in one engine round trip. Pages
// keep the order of the requests; one failed search fails the batch.
func (s *Service) MultiSearch(ctx context.Context, m *request.Multi) ([]*result.Page, error) {
	reqs := m.Requests()
	compiled := make([]*Compiled, len(reqs))
	var (
		pending []*dsl.Search
		slots   []int
	)
	for i := range reqs {
		c, err := s.Explain(ctx, &reqs[i])
		if err != nil {
			metrics.SearchQueriesTotal.WithLabelValues(kindOf(&reqs[i]), statusError).Inc()
			return nil, fmt.Errorf("search %d: %w", i, err)
		}
		compiled[i] = c
		if !c.MatchNothing {
			pending = append(pending, c.Search)
			slots = append(slots, i)
		}
	}

	sets := make([]*result.Set, len(reqs))
	if len(pending) > 0 {
		got, err := s.repo.MultiSearch(ctx, pending)
		if err != nil {
			for _, i := range slots {
				metrics.SearchQueriesTotal.WithLabelValues(compiled[i].Kind, statusError).Inc()
			}
			return nil, fmt.Errorf("run multi search: %w", err)
		}
		for j, i := range slots {
			sets[i] = got[j]
		}
	}

	pages := make([]*result.Page, len(reqs))
	for i, c := range compiled {
		set := sets[i]
		if set == nil {
			set = &result.Set{}
		}
		pages[i] = s.page(ctx, c, set)
	}
	return pages, nil
}

// Explain compiles a search without running it.
func (s *Service) Explain(ctx context.Context, req *request.Request) (*Compiled, error) {
	lib, err := s.library(ctx, req.Library())
	if err != nil {
		return nil, err
	}
	chain, err := req.FacetChain(lib, s.cfg.Seed)
	if err != nil {
		return nil, err
	}

	var f *filter.Filter
	if id := req.LaneID(); id != nil {
		f, err = s.laneFilter(ctx, *id, lib, chain)
	} else {
		f, err = s.requestFilter(req, lib, chain)
	}
	if err != nil {
		return nil, err
	}

	p, err := req.Pagination()
	if err != nil {
		return nil, err
	}
	built, err := s.analyzer.For(req.Query(), f).Build(p)
	if err != nil {
		return nil, err
	}
	if req.Explain() {
		built.Explain = true
	}

	c := &Compiled{
		Kind:         kindOf(req),
		Search:       built,
		MatchNothing: f.MatchNothing(),
		Pagination:   p,
	}
	if req.Mode() == mode.Text && req.Query() != "" {
		c.Hypotheses = hypothesisCount(built)
		if pr := s.analyzer.Parser(); pr != nil {
			intents := pr.Parse(req.Query()).Intents
			c.Intents = &intents
		}
	}

	logger.FromContext(ctx).Debug("search_compiled",
		zap.String("kind", c.Kind),
		zap.Int("hypotheses", c.Hypotheses),
		zap.Int("filters", filterCount(built)),
		zap.Strings("sort", sortKeys(built)),
		zap.Bool("match_nothing", c.MatchNothing),
	)
	return c, nil
}

// library loads the library a search is scoped to, nil for none.
func (s *Service) library(ctx context.Context, shortName string) (*catalog.Library, error) {
	if shortName == "" {
		return nil, nil
	}
	if s.catalog == nil {
		return nil, fmt.Errorf("library %s: %w", shortName, domain.ErrNotFound)
	}
	lib, err := s.catalog.Library(ctx, shortName)
	if err != nil {
		return nil, fmt.Errorf("get library: %w", err)
	}
	return lib, nil
}

// laneFilter builds the filter of a lane in lib.
func (s *Service) laneFilter(
	ctx context.Context, id int64, lib *catalog.Library, chain filter.Facets,
) (*filter.Filter, error) {
	if s.catalog == nil || lib == nil {
		return nil, fmt.Errorf("lane %d: %w", id, domain.ErrNotFound)
	}
	lanes, err := s.catalog.LaneChain(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lane: %w", err)
	}
	if len(lanes) == 0 || lanes[len(lanes)-1].LibraryID != lib.ID {
		return nil, fmt.Errorf("lane %d in library %s: %w", id, lib.ShortName, domain.ErrNotFound)
	}
	return filter.FromLane(lanes, lib, chain, s.cfg.ScriptRevision)
}

// requestFilter builds the filter of a plain search. A library scope
// defaults the collections and holds policy to the library's own.
func (s *Service) requestFilter(
	req *request.Request, lib *catalog.Library, chain filter.Facets,
) (*filter.Filter, error) {
	opts := req.Options()
	opts.Facets = chain
	opts.Suppressed = req.Suppressed()
	if opts.ScriptRevision == 0 {
		opts.ScriptRevision = s.cfg.ScriptRevision
	}
	if lib != nil {
		if opts.Library == nil {
			opts.Library = lib
		}
		if opts.Collections == nil {
			opts.Collections = normalize.LibraryCollections(lib)
		}
		if opts.AllowHolds == nil {
			allowHolds := lib.AllowHolds
			opts.AllowHolds = &allowHolds
		}
	}
	return filter.New(opts)
}

// page feeds the loaded hits back to the pagination and reports the
// search.
func (s *Service) page(ctx context.Context, c *Compiled, set *result.Set) *result.Page {
	c.Pagination.PageLoaded(set.Hits)
	page := &result.Page{
		SearchID: uuid.NewString(),
		Hits:     set.Hits,
		Total:    set.Total,
		Took:     set.Took,
	}
	if next := c.Pagination.Next(); next != nil {
		cursor := next.Cursor()
		page.Next = &cursor
	}

	status := statusOK
	if len(set.Hits) == 0 {
		status = statusEmpty
	}
	metrics.SearchQueriesTotal.WithLabelValues(c.Kind, status).Inc()
	if c.Hypotheses > 0 {
		metrics.SearchHypotheses.Observe(float64(c.Hypotheses))
	}
	if c.Intents != nil {
		observeIntents(c.Intents)
	}

	ctx = logger.With(ctx, zap.String("search_id", page.SearchID))
	logger.FromContext(ctx).Info("search_executed",
		zap.String("kind", c.Kind),
		zap.Int64("took_ms", set.Took.Milliseconds()),
		zap.Int("hits", len(set.Hits)),
		zap.Int64("total", set.Total),
		zap.Bool("has_next", page.Next != nil),
	)
	return page
}

func kindOf(req *request.Request) string {
	switch {
	case req.LaneID() != nil:
		return KindLane
	case req.Mode() == mode.JSON:
		return KindJSON
	case req.Query() != "":
		return KindText
	}
	return KindBrowse
}

func observeIntents(in *parser.Intents) {
	if in.Genre != "" {
		metrics.SearchParsedIntentsTotal.WithLabelValues("genre").Inc()
	}
	if in.Audience != "" {
		metrics.SearchParsedIntentsTotal.WithLabelValues("audience").Inc()
	}
	if in.Fiction != "" {
		metrics.SearchParsedIntentsTotal.WithLabelValues("fiction").Inc()
	}
	if in.TargetAge != nil {
		metrics.SearchParsedIntentsTotal.WithLabelValues("target_age").Inc()
	}
}

// hypothesisCount counts the dis_max branches of the scoring query.
func hypothesisCount(s *dsl.Search) int {
	root, ok := s.Query.(dsl.Bool)
	if !ok || len(root.Must) == 0 {
		return 0
	}
	switch q := root.Must[0].(type) {
	case dsl.DisMax:
		return len(q.Queries)
	case dsl.MatchAll:
		return 0
	}
	return 1
}

func filterCount(s *dsl.Search) int {
	if root, ok := s.Query.(dsl.Bool); ok {
		return len(root.Filter)
	}
	return 0
}

func sortKeys(s *dsl.Search) []string {
	keys := make([]string, 0, len(s.Sort))
	for _, sort := range s.Sort {
		keys = append(keys, sort.Key()+":"+sort.Direction())
	}
	return keys
}
