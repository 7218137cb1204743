package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typedb/internal/graph"
	"github.com/mvp-joe/typedb/internal/typedb"
)

var (
	exportOutput string
	exportGraph  bool
	exportIndent bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the symbol database as JSON",
	Long: `Export builds the database and writes it as a JSON document: every symbol
with its members and references, unresolved names, diagnostics and conflicts.
With --graph the node and edge lists of the reference graph are written instead.

Examples:
  typedb export -o typedb.json
  typedb export --graph --indent | jq '.edges | length'`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportGraph, "graph", false, "Export the reference graph")
	exportCmd.Flags().BoolVar(&exportIndent, "indent", false, "Indent the JSON output")
}

func runExport(cmd *cobra.Command, args []string) error {
	// Progress only when stdout carries a file, not the document
	p, err := openProject(globalProjectOptions(quietFlag || exportOutput == ""))
	if err != nil {
		return err
	}
	defer p.Close()

	db, err := p.build(cmd.Context())
	if err != nil {
		return err
	}

	if exportOutput == "" {
		return writeExport(cmd.OutOrStdout(), db, exportGraph, exportIndent)
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeExport(f, db, exportGraph, exportIndent); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if !quietFlag {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", exportOutput)
	}
	return nil
}

// writeExport encodes db, or its graph, to w.
func writeExport(w io.Writer, db *typedb.Database, asGraph, indent bool) error {
	var value interface{} = db
	if asGraph {
		value = graph.BuildData(db)
	}

	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}
