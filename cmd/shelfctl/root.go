package main

import (
	"context"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfdex/internal/app"
	"github.com/kailas-cloud/shelfdex/internal/config"
	logpkg "github.com/kailas-cloud/shelfdex/internal/logger"
	searchuc "github.com/kailas-cloud/shelfdex/internal/usecase/search"
	"github.com/kailas-cloud/shelfdex/internal/version"
)

// globals are the flags every command shares.
type globals struct {
	env string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:   "shelfctl",
		Short: "Inspect catalog searches and seed catalog facts",
		Long: heredoc.Doc(`
			shelfctl compiles searches the way the shelfdex server does and
			prints what it would send to the search engine. It also loads
			libraries, lanes and data sources into the catalog store.

			Configuration is read from config/<env>.yaml.
		`),
		Version:      version.String(),
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&g.env, "env", config.GetEnv(), "configuration environment")

	cmd.AddCommand(
		newExplainCmd(g),
		newSearchCmd(g),
		newParseCmd(g),
		newSeedCmd(g),
	)
	return cmd
}

// env is a loaded configuration with its logger.
type env struct {
	cfg    config.Config
	logger *zap.Logger
}

func (g *globals) load() (*env, error) {
	cfg, err := config.Load(g.env)
	if err != nil {
		return nil, err
	}
	// Commands print to stdout; keep the log quiet unless asked.
	level := cfg.Logging.Level
	if level == "" || level == "debug" || level == "info" {
		level = "warn"
	}
	logger, err := logpkg.NewLogger(g.env, level)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// service builds a search service. The engine is only connected when
// withEngine is set; explain never calls it.
func (e *env) service(ctx context.Context, withEngine bool) (*searchuc.Service, func(), error) {
	cat, err := app.NewCatalog(ctx, e.cfg.Catalog, e.logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { cat.Close() }

	analyzer, err := app.NewAnalyzer(ctx, e.cfg.Search, cat)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	searchCfg := app.SearchConfig(e.cfg.Search, nowFunc)

	if !withEngine {
		return app.NewSearchService(nil, cat, analyzer, searchCfg, e.logger), cleanup, nil
	}
	engine, err := app.NewEngine(ctx, e.cfg.Engine, e.logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return app.NewSearchService(engine, cat, analyzer, searchCfg, e.logger), func() {
		engine.Close()
		cleanup()
	}, nil
}
