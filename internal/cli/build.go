package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typedb/internal/indexer"
	"github.com/mvp-joe/typedb/internal/typedb"
)

var (
	buildDiagnostics bool
	buildJSON        bool
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Parse the declaration files and report what was found",
	Long: `Build discovers the declaration files selected by the configuration,
parses them into a symbol database and prints a summary: symbol and member
counts, unresolved type names, kind conflicts and diagnostics.

Examples:
  # Summarize the current directory
  typedb build

  # List every diagnostic
  typedb build --diagnostics

  # Machine-readable statistics
  typedb build --json --quiet`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVarP(&buildDiagnostics, "diagnostics", "d", false, "List every diagnostic")
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "Output build statistics as JSON")
}

func runBuild(cmd *cobra.Command, args []string) error {
	p, err := openProject(globalProjectOptions(quietFlag || buildJSON))
	if err != nil {
		return err
	}
	defer p.Close()

	db, err := p.build(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if buildJSON {
		jsonBytes, err := json.MarshalIndent(p.indexer.LastStats(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonBytes))
		return nil
	}

	printBuildSummary(out, db, p.indexer.LastStats(), buildDiagnostics)
	return nil
}

// printBuildSummary writes a human-readable report of one build.
func printBuildSummary(w io.Writer, db *typedb.Database, stats *indexer.Stats, listDiagnostics bool) {
	s := db.Stats()

	fmt.Fprintf(w, "Build %s\n", db.BuildID())
	fmt.Fprintf(w, "  Files:            %s\n", formatNumber(s.Files))
	fmt.Fprintf(w, "  Classes:          %s\n", formatNumber(s.Classes))
	fmt.Fprintf(w, "  Enums:            %s\n", formatNumber(s.Enums))
	fmt.Fprintf(w, "  Aliases:          %s\n", formatNumber(s.Aliases))
	fmt.Fprintf(w, "  Global functions: %s\n", formatNumber(s.GlobalFunctions))
	fmt.Fprintf(w, "  Properties:       %s\n", formatNumber(s.Properties))
	fmt.Fprintf(w, "  Methods:          %s\n", formatNumber(s.Methods))
	fmt.Fprintf(w, "  Parameters:       %s\n", formatNumber(s.Parameters))
	fmt.Fprintf(w, "  References:       %s\n", formatNumber(s.References))
	if stats != nil {
		fmt.Fprintf(w, "  Cache:            %d hits, %d misses\n", stats.CacheHits, stats.CacheMisses)
	}

	if unknowns := db.Unknowns(); len(unknowns) > 0 {
		fmt.Fprintf(w, "\nUnresolved types (%d):\n", len(unknowns))
		for _, sym := range unknowns {
			fmt.Fprintf(w, "  %s (%d references)\n", sym.Name, len(sym.References))
		}
	}

	if conflicts := db.Conflicts(); len(conflicts) > 0 {
		fmt.Fprintf(w, "\nKind conflicts (%d):\n", len(conflicts))
		for _, c := range conflicts {
			fmt.Fprintf(w, "  %s: %s redeclared as %s at %s:%d\n",
				c.Name, c.ExistingKind, c.DeclaredKind, db.FileName(c.File), c.Line)
		}
	}

	diags := db.Diagnostics()
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(w, "\nDiagnostics: %d\n", len(diags))
	if !listDiagnostics {
		return
	}
	for _, d := range diags {
		fmt.Fprintf(w, "  %s:%d: %s: %s\n", db.FileName(d.File), d.Line, d.Severity, d.Message)
	}
}
