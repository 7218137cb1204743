package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typedb/internal/typedb"
	"github.com/mvp-joe/typedb/internal/watcher"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the database whenever declaration files change",
	Long: `Watch builds the database, then watches the project root and rebuilds after
every batch of changes to matching files. Each rebuild prints a one-line
summary. Stop with Ctrl+C.

Example:
  typedb watch`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Handle interrupt signals gracefully
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := openProject(globalProjectOptions(quietFlag))
	if err != nil {
		return err
	}
	defer p.Close()

	db, err := p.build(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printRebuild(out, db)

	coordinator, err := newWatchCoordinator(p, func(db *typedb.Database) { printRebuild(out, db) })
	if err != nil {
		return err
	}

	if !quietFlag {
		fmt.Fprintf(os.Stderr, "Watching %s for changes...\n", p.root)
	}
	if err := coordinator.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// newWatchCoordinator watches the project root and rebuilds through its indexer.
func newWatchCoordinator(p *project, publish watcher.PublishFunc) (*watcher.WatchCoordinator, error) {
	debounce := time.Duration(p.cfg.Watch.DebounceMS) * time.Millisecond

	files, err := watcher.NewFileWatcher([]string{p.root}, p.indexer.Matches,
		watcher.WithDebounce(debounce),
		watcher.WithLogger(p.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return watcher.NewWatchCoordinator(files, p.indexer, publish, p.logger), nil
}

func printRebuild(w io.Writer, db *typedb.Database) {
	s := db.Stats()
	fmt.Fprintf(w, "[%s] build %s: %d files, %d symbols, %d unresolved, %d diagnostics\n",
		time.Now().Format("15:04:05"), db.BuildID(), s.Files, s.Symbols, s.Unknowns, s.Diagnostics)
}
