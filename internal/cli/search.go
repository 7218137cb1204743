package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typedb/internal/search"
	"github.com/mvp-joe/typedb/internal/typedb"
)

var (
	searchIndexed bool
	searchRegex   bool
	searchMembers bool
	searchKinds   []string
	searchLimit   int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find symbols and members by name",
	Long: `Search builds the database and looks up names.

By default the query is a case-insensitive substring matched against classes,
enums, aliases and global functions. With --index the query runs against a
ranked name index supporting prefix, fuzzy and wildcard (* ?) matching.

Examples:
  typedb search actor
  typedb search --regex '^U[A-Z]'
  typedb search --members owner
  typedb search --index --kind Class,Alias 'a*comp*'`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVarP(&searchIndexed, "index", "i", false, "Use the ranked name index")
	searchCmd.Flags().BoolVarP(&searchRegex, "regex", "r", false, "Treat the query as a regular expression")
	searchCmd.Flags().BoolVarP(&searchMembers, "members", "m", false, "Also search properties, methods and parameters")
	searchCmd.Flags().StringSliceVarP(&searchKinds, "kind", "k", nil, "Index mode: restrict to these kinds")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum results (default from search.max_results)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	p, err := openProject(globalProjectOptions(true))
	if err != nil {
		return err
	}
	defer p.Close()

	db, err := p.build(cmd.Context())
	if err != nil {
		return err
	}

	limit := searchLimit
	if limit <= 0 {
		limit = p.cfg.Search.MaxResults
	}

	out := cmd.OutOrStdout()
	if searchIndexed {
		fuzziness := p.cfg.Search.Fuzziness
		if fuzziness == 0 {
			fuzziness = -1
		}
		return indexedSearch(cmd.Context(), out, db, &search.Query{
			Text:      args[0],
			Kinds:     searchKinds,
			Limit:     limit,
			Fuzziness: fuzziness,
		})
	}

	filters := search.DefaultFilters()
	filters.Regex = searchRegex
	if searchMembers {
		filters.Properties = true
		filters.Methods = true
		filters.Parameters = true
	}
	results, err := search.Filter(db, args[0], filters)
	if err != nil {
		return err
	}
	printFilterResults(out, db, results, limit)
	return nil
}

func indexedSearch(ctx context.Context, w io.Writer, db *typedb.Database, q *search.Query) error {
	index, err := search.NewIndex(ctx, db)
	if err != nil {
		return err
	}
	defer index.Close()

	hits, err := index.Search(ctx, q)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(w, "No matches")
		return nil
	}
	for _, h := range hits {
		name := h.Name
		if h.Owner != "" {
			name = h.Owner + "." + h.Name
		}
		fmt.Fprintf(w, "%-14s %-40s %s:%d  (%.2f)\n", h.Kind, name, db.FileName(h.File), h.Line, h.Score)
	}
	return nil
}

// printFilterResults writes each non-empty group, at most limit lines per group.
func printFilterResults(w io.Writer, db *typedb.Database, r *search.Results, limit int) {
	if r.Total() == 0 {
		fmt.Fprintln(w, "No matches")
		return
	}

	printed := 0
	section := func(title string, n int) bool {
		if n == 0 {
			return false
		}
		if printed > 0 {
			fmt.Fprintln(w)
		}
		printed++
		fmt.Fprintf(w, "%s (%d):\n", title, n)
		return true
	}

	if section("Symbols", len(r.Entities)) {
		for _, sym := range truncate(r.Entities, limit) {
			fmt.Fprintf(w, "  %-14s %-40s %s:%d\n", sym.Kind, sym.Name, db.FileName(sym.File), sym.LineStart)
		}
	}
	if section("Properties", len(r.Properties)) {
		for _, prop := range truncate(r.Properties, limit) {
			fmt.Fprintf(w, "  %-40s %-24s %s:%d\n", ownerName(db, prop.SymbolID)+"."+prop.Name, prop.Type, db.FileName(prop.File), prop.Line)
		}
	}
	if section("Methods", len(r.Methods)) {
		for _, m := range truncate(r.Methods, limit) {
			sep := ":"
			if m.Static {
				sep = "."
			}
			fmt.Fprintf(w, "  %-40s %-24s %s:%d\n", ownerName(db, m.ClassID)+sep+m.Name, m.Return.Raw, db.FileName(m.File), m.Line)
		}
	}
	if section("Parameters", len(r.Parameters)) {
		for _, param := range truncate(r.Parameters, limit) {
			fmt.Fprintf(w, "  %-40s %-24s %s:%d\n", ownerName(db, param.SymbolID)+"("+param.Name+")", param.Type, db.FileName(param.File), param.Line)
		}
	}
}

func ownerName(db *typedb.Database, id int) string {
	if sym, ok := db.Symbol(id); ok {
		return sym.Name
	}
	return "?"
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
