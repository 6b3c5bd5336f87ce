package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/mode"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/parser"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/request"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/shelfdex/internal/usecase/search"
)

var nowFunc = time.Now

// searchFlags mirror the fields of an HTTP search request.
type searchFlags struct {
	mode         string
	library      string
	lane         int64
	order        string
	descending   bool
	availability string
	collection   string
	entryPoint   string
	featured     bool
	media        []string
	languages    []string
	filter       string
	key          string
	offset       int
	size         int
}

func (f *searchFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.mode, "mode", "", "search mode: default, json")
	fs.StringVar(&f.library, "library", "", "library short name")
	fs.Int64Var(&f.lane, "lane", 0, "lane ID (needs --library)")
	fs.StringVar(&f.order, "order", "", "sort order: title, author, last_update, added_to_collection, series_position, work_id, random")
	fs.BoolVar(&f.descending, "desc", false, "sort descending")
	fs.StringVar(&f.availability, "availability", "", "availability facet: all, now, always, not_now")
	fs.StringVar(&f.collection, "collection", "", "collection facet: full, featured")
	fs.StringVar(&f.entryPoint, "entrypoint", "", "entry point facet: All, Book, Audio")
	fs.BoolVar(&f.featured, "featured", false, "order by featurability")
	fs.StringSliceVar(&f.media, "media", nil, "search facet media")
	fs.StringSliceVar(&f.languages, "language", nil, "search facet languages")
	fs.StringVar(&f.filter, "filter", "", "filter options as a JSON object")
	fs.StringVar(&f.key, "key", "", "sort key of the previous page")
	fs.IntVar(&f.offset, "offset", 0, "offset of the first hit")
	fs.IntVar(&f.size, "size", 0, "page size")
}

func (f *searchFlags) request(q string) (*request.Request, error) {
	p := request.Params{
		Query:   q,
		Mode:    mode.Mode(f.mode),
		Library: f.library,
		Key:     f.key,
		Offset:  f.offset,
		Size:    f.size,
		Facets: request.Facets{
			Order:        f.order,
			Availability: f.availability,
			Collection:   f.collection,
			EntryPoint:   f.entryPoint,
			Featured:     f.featured,
			Media:        f.media,
			Languages:    f.languages,
		},
	}
	if f.descending {
		asc := false
		p.Facets.Ascending = &asc
	}
	if f.lane != 0 {
		p.LaneID = &f.lane
	}
	if f.filter != "" {
		if err := json.Unmarshal([]byte(f.filter), &p.Filter); err != nil {
			return nil, fmt.Errorf("--filter: %w", err)
		}
	}
	req, err := request.New(p)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// explanation is the printed form of a compiled search.
type explanation struct {
	Kind         string          `json:"kind"`
	MatchNothing bool            `json:"match_nothing,omitempty"`
	Hypotheses   int             `json:"hypotheses,omitempty"`
	Intents      *parser.Intents `json:"intents,omitempty"`
	Cursor       result.Cursor   `json:"cursor"`
	Request      any             `json:"request"`
}

func newExplainCmd(g *globals) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "explain [query]",
		Short: "Print the engine request a search compiles to",
		Long: heredoc.Doc(`
			Compile a search without running it and print the request body
			the server would send to the search engine.

			The catalog store is consulted for --library and --lane.
		`),
		Example: heredoc.Doc(`
			$ shelfctl explain "science fiction for teens"
			$ shelfctl explain --library nypl --order title --size 10
			$ shelfctl explain --mode json '{"query":{"key":"author","value":"Octavia Butler"}}'
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(firstArg(args))
			if err != nil {
				return err
			}
			e, err := g.load()
			if err != nil {
				return err
			}
			svc, cleanup, err := e.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := svc.Explain(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeExplanation(cmd.OutOrStdout(), c)
		},
	}
	flags.register(cmd)
	return cmd
}

func writeExplanation(w io.Writer, c *searchuc.Compiled) error {
	out := explanation{
		Kind:         c.Kind,
		MatchNothing: c.MatchNothing,
		Hypotheses:   c.Hypotheses,
		Intents:      c.Intents,
		Cursor:       c.Pagination.Cursor(),
		Request:      c.Search,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newSearchCmd(g *globals) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a search and print the hits",
		Example: heredoc.Doc(`
			$ ENV=test shelfctl search "moby dick"
			$ shelfctl search --library nypl --featured --size 5
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(firstArg(args))
			if err != nil {
				return err
			}
			e, err := g.load()
			if err != nil {
				return err
			}
			svc, cleanup, err := e.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			page, err := svc.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writePage(cmd.OutOrStdout(), page)
		},
	}
	flags.register(cmd)
	return cmd
}

func writePage(w io.Writer, page *result.Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORK\tSCORE\tSORT")
	for i := range page.Hits {
		h := &page.Hits[i]
		sort := make([]string, len(h.Sort()))
		for j, v := range h.Sort() {
			sort[j] = fmt.Sprint(v)
		}
		fmt.Fprintf(tw, "%d\t%.3f\t%s\n", h.WorkID(), h.Score(), strings.Join(sort, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d of %d in %s (search %s)\n", len(page.Hits), page.Total, page.Took, page.SearchID)
	if page.Next != nil {
		next, err := json.Marshal(page.Next)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "next: %s\n", next)
	}
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
