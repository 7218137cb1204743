package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typedb/internal/mcp"
)

var serveWatch bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for type lookups",
	Long: `Start the Model Context Protocol (MCP) server that lets coding assistants
query the declared Lua types.

The MCP server:
- Builds the symbol database for the project root
- Provides typedb_search, typedb_symbol and typedb_graph tools
- Rebuilds when declaration files change (disable with --watch=false)
- Communicates via stdio (standard MCP transport)

Example:
  typedb serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", true, "Rebuild on file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// stdout carries the protocol, so progress is suppressed
	p, err := openProject(globalProjectOptions(true))
	if err != nil {
		return err
	}
	defer p.Close()

	db, err := p.build(ctx)
	if err != nil {
		return err
	}

	snap, err := mcp.NewSnapshot(ctx, db, p.logger)
	if err != nil {
		return fmt.Errorf("failed to index snapshot: %w", err)
	}

	opts := []mcp.ServerOption{mcp.WithServerLogger(p.logger)}
	if serveWatch {
		coordinator, err := newWatchCoordinator(p, snap.Publish)
		if err != nil {
			snap.Close()
			return err
		}
		opts = append(opts, mcp.WithWatcher(coordinator))
	}

	server, err := mcp.NewMCPServer(p.cfg, snap, opts...)
	if err != nil {
		snap.Close()
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if !quietFlag {
		s := db.Stats()
		fmt.Fprintf(os.Stderr, "typedb MCP server\n")
		fmt.Fprintf(os.Stderr, "Root:    %s\n", p.root)
		fmt.Fprintf(os.Stderr, "Symbols: %s from %s files\n\n", formatNumber(s.Symbols), formatNumber(s.Files))
	}

	return server.Serve(ctx)
}
