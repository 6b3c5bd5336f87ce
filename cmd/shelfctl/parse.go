package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/shelfdex/internal/app"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/parser"
)

// parsed is the printed form of a parser result.
type parsed struct {
	Original  string   `yaml:"original"`
	Remaining string   `yaml:"remaining"`
	Genre     string   `yaml:"genre,omitempty"`
	Audience  string   `yaml:"audience,omitempty"`
	Fiction   string   `yaml:"fiction,omitempty"`
	TargetAge string   `yaml:"target_age,omitempty"`
	Filters   []string `yaml:"filters,omitempty"`
}

func newParseCmd(g *globals) *cobra.Command {
	var builtin bool
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Show the intents a query parser finds",
		Long: heredoc.Doc(`
			Run the query parser alone. It prints the genre, audience,
			fiction and target age it recognized, the filters they become
			and the words left for relevance scoring.
		`),
		Example: heredoc.Doc(`
			$ shelfctl parse "science fiction for young adults"
			$ shelfctl parse --builtin "books for ages 5-10"
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := parser.New(nil, nil)
			if !builtin {
				e, err := g.load()
				if err != nil {
					return err
				}
				a, err := app.NewAnalyzer(cmd.Context(), e.cfg.Search, nil)
				if err != nil {
					return err
				}
				if a.Parser() != nil {
					p = a.Parser()
				}
			}
			return writeParsed(cmd.OutOrStdout(), p.Parse(args[0]))
		},
	}
	cmd.Flags().BoolVar(&builtin, "builtin", false, "use the built-in vocabulary without loading configuration")
	return cmd
}

func writeParsed(w io.Writer, r *parser.Result) error {
	out := parsed{
		Original:  r.OriginalQueryString,
		Remaining: r.FinalQueryString,
		Genre:     r.Intents.Genre,
		Audience:  r.Intents.Audience,
		Fiction:   r.Intents.Fiction,
	}
	if ages := r.Intents.TargetAge; ages != nil {
		out.TargetAge = formatAges(ages.Lower, ages.Upper)
	}
	for _, f := range r.Filters {
		b, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encode filter: %w", err)
		}
		out.Filters = append(out.Filters, string(b))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func formatAges(lower, upper *int) string {
	switch {
	case lower != nil && upper != nil:
		return fmt.Sprintf("%d-%d", *lower, *upper)
	case lower != nil:
		return fmt.Sprintf("%d+", *lower)
	case upper != nil:
		return fmt.Sprintf("up to %d", *upper)
	}
	return ""
}
