package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/shelfdex/internal/app"
	"github.com/kailas-cloud/shelfdex/internal/config"
	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
)

// seedFile is the YAML layout read by the seed command.
type seedFile struct {
	DataSources []seedDataSource  `yaml:"data_sources"`
	Libraries   []catalog.Library `yaml:"libraries"`
	Lanes       []catalog.Lane    `yaml:"lanes"`
}

type seedDataSource struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// seeder writes catalog facts.
type seeder interface {
	SaveDataSource(ctx context.Context, id int64, name string) error
	SaveLibrary(ctx context.Context, lib catalog.Library) error
	SaveLanes(ctx context.Context, lanes []catalog.Lane) error
}

func newSeedCmd(g *globals) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load libraries, lanes and data sources into the catalog store",
		Long: heredoc.Doc(`
			Read catalog facts from a YAML file and write them to the
			catalog store. Existing entries with the same keys are
			replaced. Lanes are checked against the libraries and lanes
			in the same file.
		`),
		Example: heredoc.Doc(`
			$ shelfctl seed catalog.yaml
			$ shelfctl seed --dry-run catalog.yaml
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return err
			}
			defer f.Close()

			seed, err := readSeed(f)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %s\n", args[0], seed.summary())
				return nil
			}

			e, err := g.load()
			if err != nil {
				return err
			}
			if e.cfg.Catalog.Driver == config.CatalogNone {
				return fmt.Errorf("env %s has no catalog store", g.env)
			}
			cat, err := app.NewCatalog(cmd.Context(), e.cfg.Catalog, e.logger)
			if err != nil {
				return err
			}
			defer cat.Close()

			if err := seed.apply(cmd.Context(), cat.Repo); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", seed.summary())
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	return cmd
}

func readSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s seedFile
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *seedFile) validate() error {
	libraries := make(map[int64]bool, len(s.Libraries))
	for _, lib := range s.Libraries {
		if lib.ShortName == "" {
			return fmt.Errorf("library %d: short_name is required", lib.ID)
		}
		libraries[lib.ID] = true
	}
	lanes := make(map[int64]catalog.Lane, len(s.Lanes))
	for _, lane := range s.Lanes {
		if _, dup := lanes[lane.ID]; dup {
			return fmt.Errorf("lane %d: duplicate id", lane.ID)
		}
		lanes[lane.ID] = lane
	}
	for _, lane := range s.Lanes {
		if !libraries[lane.LibraryID] {
			return fmt.Errorf("lane %d: unknown library %d", lane.ID, lane.LibraryID)
		}
		if lane.ParentID == nil {
			continue
		}
		parent, ok := lanes[*lane.ParentID]
		if !ok {
			return fmt.Errorf("lane %d: unknown parent %d", lane.ID, *lane.ParentID)
		}
		if parent.LibraryID != lane.LibraryID {
			return fmt.Errorf("lane %d: parent %d belongs to another library", lane.ID, parent.ID)
		}
	}
	for _, ds := range s.DataSources {
		if ds.Name == "" {
			return fmt.Errorf("data source %d: name is required", ds.ID)
		}
	}
	return nil
}

func (s *seedFile) apply(ctx context.Context, dst seeder) error {
	for _, ds := range s.DataSources {
		if err := dst.SaveDataSource(ctx, ds.ID, ds.Name); err != nil {
			return fmt.Errorf("data source %s: %w", ds.Name, err)
		}
	}
	for _, lib := range s.Libraries {
		if err := dst.SaveLibrary(ctx, lib); err != nil {
			return fmt.Errorf("library %s: %w", lib.ShortName, err)
		}
	}
	if len(s.Lanes) == 0 {
		return nil
	}
	if err := dst.SaveLanes(ctx, s.Lanes); err != nil {
		return fmt.Errorf("lanes: %w", err)
	}
	return nil
}

func (s *seedFile) summary() string {
	return fmt.Sprintf("%d data sources, %d libraries, %d lanes",
		len(s.DataSources), len(s.Libraries), len(s.Lanes))
}
