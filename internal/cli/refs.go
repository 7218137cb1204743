package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typedb/internal/graph"
)

var (
	refsDepth      int
	refsMaxResults int
	refsContext    bool
	refsJSON       bool
)

// refsCmd represents the refs command
var refsCmd = &cobra.Command{
	Use:   "refs <operation> <target> [to]",
	Short: "Query relationships between types",
	Long: `Refs answers graph queries over the symbol database.

Operations:
  references    symbols whose fields, parameters, returns or alias values mention target
  dependencies  symbols that target's members mention
  ancestors     parent classes of target
  descendants   subclasses of target
  path          shortest dependency chain from target to [to]

Examples:
  typedb refs references AActor
  typedb refs dependencies APawn --depth 3
  typedb refs path SpawnActor UObject`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runRefs,
}

func init() {
	rootCmd.AddCommand(refsCmd)
	refsCmd.Flags().IntVar(&refsDepth, "depth", 0, "Traversal depth (default: 1, hierarchy queries: 10)")
	refsCmd.Flags().IntVar(&refsMaxResults, "max", 0, "Maximum results (default: 100)")
	refsCmd.Flags().BoolVar(&refsContext, "context", false, "Include declaration lines")
	refsCmd.Flags().BoolVar(&refsJSON, "json", false, "Output as JSON")
}

func runRefs(cmd *cobra.Command, args []string) error {
	req := &graph.QueryRequest{
		Operation:      graph.QueryOperation(args[0]),
		Target:         args[1],
		IncludeContext: refsContext,
		Depth:          refsDepth,
		MaxResults:     refsMaxResults,
	}
	if len(args) == 3 {
		req.To = args[2]
	}
	if req.Operation == graph.OperationPath && req.To == "" {
		return fmt.Errorf("path requires a destination symbol")
	}

	p, err := openProject(globalProjectOptions(true))
	if err != nil {
		return err
	}
	defer p.Close()

	db, err := p.build(cmd.Context())
	if err != nil {
		return err
	}

	searcher, err := graph.NewSearcher(db, graph.WithLogger(p.logger))
	if err != nil {
		return err
	}
	defer searcher.Close()

	resp, err := searcher.Query(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if refsJSON {
		jsonBytes, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonBytes))
		return nil
	}

	printQueryResponse(out, resp)
	return nil
}

// printQueryResponse writes one line per result, indented by depth.
func printQueryResponse(w io.Writer, resp *graph.QueryResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintf(w, "No %s found for %s\n", resp.Operation, resp.Target)
		return
	}

	for _, r := range resp.Results {
		indent := strings.Repeat("  ", max(r.Depth-1, 0))
		line := fmt.Sprintf("%s%s %s (%s:%d)", indent, r.Node.Kind, r.Node.Name, r.Node.FileName, r.Node.LineStart)
		if len(r.Via) > 0 {
			via := make([]string, len(r.Via))
			for i, v := range r.Via {
				via[i] = string(v)
			}
			line += " via " + strings.Join(via, ", ")
		}
		fmt.Fprintln(w, line)
		if r.Context != "" {
			for _, ctxLine := range strings.Split(strings.TrimRight(r.Context, "\n"), "\n") {
				fmt.Fprintf(w, "%s    %s\n", indent, ctxLine)
			}
		}
	}

	if resp.Truncated {
		fmt.Fprintf(w, "(showing %d of %d)\n", resp.TotalReturned, resp.TotalFound)
	}
}
