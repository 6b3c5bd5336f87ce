package shelfdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfdex/internal/app"
	"github.com/kailas-cloud/shelfdex/internal/config"
	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/request"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/shelfdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/shelfdex/internal/usecase/search"
)

const defaultReadinessTimeout = 30 // seconds

// searchUseCase is the internal interface for the search service.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (*result.Page, error)
	MultiSearch(ctx context.Context, m *request.Multi) ([]*result.Page, error)
	Explain(ctx context.Context, req *request.Request) (*searchuc.Compiled, error)
}

// Client is the shelfdex SDK entry point.
type Client struct {
	engine    db.Engine
	catalog   *app.Catalog
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the search engine and, when
// configured, the catalog store. The provided context is used for the
// initial readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.engine == "" {
		return nil, errors.New("shelfdex: search engine required (use WithOpenSearch or WithMemoryEngine)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	// The internal layers log with zap; SDK callers get slog through the observer.
	nop := zap.NewNop()

	engine, err := app.NewEngine(ctx, cfg.engineConfig(), nop)
	if err != nil {
		return nil, wrapErr(err)
	}
	cat, err := app.NewCatalog(ctx, cfg.catalogConfig(), nop)
	if err != nil {
		engine.Close()
		return nil, wrapErr(err)
	}
	searchCfg := cfg.searchConfig()
	analyzer, err := app.NewAnalyzer(ctx, searchCfg, cat)
	if err != nil {
		cat.Close()
		engine.Close()
		return nil, wrapErr(err)
	}

	var catalogPinger healthuc.Pinger
	if cat != nil {
		catalogPinger = cat.Store
	}
	return &Client{
		engine:    engine,
		catalog:   cat,
		searchSvc: app.NewSearchService(engine, cat, analyzer, app.SearchConfig(searchCfg, time.Now), nop),
		healthSvc: healthuc.New(engine, catalogPinger),
		obs:       obs,
	}, nil
}

func (c *clientConfig) engineConfig() config.EngineConfig {
	return config.EngineConfig{
		Driver:           c.engine,
		Addresses:        c.addresses,
		Username:         c.username,
		Password:         c.password,
		Index:            c.index,
		FixturesPath:     c.fixtures,
		ReadinessTimeout: defaultReadinessTimeout,
	}
}

func (c *clientConfig) catalogConfig() config.CatalogConfig {
	if c.catalogAddr == "" {
		return config.CatalogConfig{Driver: config.CatalogNone}
	}
	return config.CatalogConfig{
		Driver:           config.CatalogRedis,
		Addrs:            []string{c.catalogAddr},
		Password:         c.catalogPassword,
		KeyPrefix:        c.catalogPrefix,
		ReadinessTimeout: defaultReadinessTimeout,
	}
}

func (c *clientConfig) searchConfig() config.SearchConfig {
	sc := config.SearchConfig{
		ScriptRevision: c.scriptRevision,
		DictionaryPath: c.dictionaryPath,
		VocabularyPath: c.vocabularyPath,
		Deterministic:  c.randomSeed == nil,
	}
	if c.randomSeed != nil {
		sc.FeaturedSeed = *c.randomSeed
	}
	return sc
}

// Close releases the engine and catalog connections.
func (c *Client) Close() {
	c.catalog.Close()
	if c.engine != nil {
		c.engine.Close()
	}
}

// Ping checks the search engine.
func (c *Client) Ping(ctx context.Context) error {
	return c.engine.Ping(ctx)
}

// Search runs one search and returns a page of works.
func (c *Client) Search(ctx context.Context, req SearchRequest) (_ *Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, "library", req.Library) }()

	r, err := request.New(req.params())
	if err != nil {
		return nil, err
	}
	page, err := c.searchSvc.Search(ctx, &r)
	if err != nil {
		return nil, err
	}
	return pageFromResult(page), nil
}

// MultiSearch runs several searches in one engine round trip. Pages keep
// the order of reqs; one bad request fails the batch.
func (c *Client) MultiSearch(ctx context.Context, reqs ...SearchRequest) (_ []*Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("multi_search", start, err, "searches", len(reqs)) }()

	params := make([]request.Params, len(reqs))
	for i := range reqs {
		params[i] = reqs[i].params()
	}
	m, err := request.NewMulti(params)
	if err != nil {
		return nil, err
	}
	results, err := c.searchSvc.MultiSearch(ctx, &m)
	if err != nil {
		return nil, err
	}
	pages := make([]*Page, len(results))
	for i, p := range results {
		pages[i] = pageFromResult(p)
	}
	return pages, nil
}

// Explain compiles a search without running it.
func (c *Client) Explain(ctx context.Context, req SearchRequest) (_ *Explanation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("explain", start, err) }()

	r, err := request.New(req.params())
	if err != nil {
		return nil, err
	}
	compiled, err := c.searchSvc.Explain(ctx, &r)
	if err != nil {
		return nil, err
	}
	return explanationFromCompiled(compiled)
}

// wrapErr prefixes setup errors with the package name.
func wrapErr(err error) error {
	return fmt.Errorf("shelfdex: %w", err)
}
