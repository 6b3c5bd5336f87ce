// Package app assembles backends and query resources from configuration.
// Both binaries share it.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfdex/internal/config"
	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/db/memory"
	dbOpenSearch "github.com/kailas-cloud/shelfdex/internal/db/opensearch"
	dbRedis "github.com/kailas-cloud/shelfdex/internal/db/redis"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/parser"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/query"
	catalogrepo "github.com/kailas-cloud/shelfdex/internal/repository/catalog"
	searchrepo "github.com/kailas-cloud/shelfdex/internal/repository/search"
	searchuc "github.com/kailas-cloud/shelfdex/internal/usecase/search"
)

// NewEngine connects the configured search engine and waits for it.
func NewEngine(ctx context.Context, cfg config.EngineConfig, logger *zap.Logger) (db.Engine, error) {
	switch cfg.Driver {
	case config.EngineMemory:
		e := memory.NewEngine()
		if err := e.LoadFile(cfg.FixturesPath); err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		logger.Info("Memory engine loaded",
			zap.String("fixtures", cfg.FixturesPath), zap.Int("works", e.Len()))
		return e, nil
	case config.EngineOpenSearch:
		e, err := dbOpenSearch.NewEngine(dbOpenSearch.Config{
			Addresses:          cfg.Addresses,
			Username:           cfg.Username,
			Password:           cfg.Password,
			Index:              cfg.Index,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		})
		if err != nil {
			return nil, fmt.Errorf("create opensearch engine: %w", err)
		}
		if err := e.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			return nil, fmt.Errorf("search engine not ready: %w", err)
		}
		logger.Info("Connected to search engine",
			zap.Strings("addresses", cfg.Addresses), zap.String("index", cfg.Index))
		return e, nil
	default:
		return nil, fmt.Errorf("unknown engine driver %q", cfg.Driver)
	}
}

// Catalog is a connected catalog store with its repository.
type Catalog struct {
	Store db.CatalogStore
	Repo  *catalogrepo.Repo
}

// Close releases the store connection.
func (c *Catalog) Close() {
	if c != nil && c.Store != nil {
		c.Store.Close()
	}
}

// NewCatalog connects the catalog store. The none driver returns nil.
func NewCatalog(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (*Catalog, error) {
	if cfg.Driver == config.CatalogNone {
		logger.Warn("No catalog store configured; library and lane searches will fail")
		return nil, nil
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create catalog store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("catalog store not ready: %w", err)
	}
	logger.Info("Connected to catalog store", zap.Strings("addrs", cfg.Addrs))
	return &Catalog{Store: store, Repo: catalogrepo.New(store, cfg.KeyPrefix)}, nil
}

// NewAnalyzer loads the spelling dictionary and genre vocabulary named
// in cfg, falling back to the built-in ones. Data source names are read
// once from the catalog.
func NewAnalyzer(ctx context.Context, cfg config.SearchConfig, cat *Catalog) (*query.Analyzer, error) {
	var opts []query.Option
	if cfg.DictionaryPath != "" {
		d, err := query.LoadDictionaryFile(cfg.DictionaryPath)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		opts = append(opts, query.WithDictionary(d))
	}
	if cfg.VocabularyPath != "" {
		f, err := os.Open(filepath.Clean(cfg.VocabularyPath))
		if err != nil {
			return nil, fmt.Errorf("open vocabulary: %w", err)
		}
		defer f.Close()
		v, err := parser.LoadVocabulary(f)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		opts = append(opts, query.WithVocabulary(v))
	}
	if cat != nil {
		sources, err := cat.Repo.DataSources(ctx)
		if err != nil {
			return nil, fmt.Errorf("load data sources: %w", err)
		}
		opts = append(opts, query.WithDataSources(func(name string) (int64, bool) {
			id, ok := sources[name]
			return id, ok
		}))
	}
	return query.NewAnalyzer(opts...), nil
}

// SearchConfig converts the search settings for the use case.
func SearchConfig(cfg config.SearchConfig, now func() time.Time) searchuc.Config {
	seed := filter.Deterministic
	if !cfg.Deterministic {
		v := cfg.FeaturedSeed
		if v == 0 {
			v = now().UnixNano()
		}
		seed = filter.Seed(v)
	}
	return searchuc.Config{ScriptRevision: cfg.ScriptRevision, Seed: seed}
}

// NewSearchService wires the engine, catalog and analyzer into the search use case.
func NewSearchService(
	engine db.Searcher, cat *Catalog, analyzer *query.Analyzer, cfg searchuc.Config, logger *zap.Logger,
) *searchuc.Service {
	repo := searchuc.NewInstrumentedRepository(searchrepo.New(engine), logger)
	// A nil *Repo must not become a non-nil interface.
	var reader searchuc.CatalogReader
	if cat != nil {
		reader = cat.Repo
	}
	return searchuc.New(repo, reader, analyzer, cfg)
}
