package watcher

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// WatchCoordinator routes file changes to a Builder and publishes the
// resulting snapshots.
type WatchCoordinator struct {
	files   FileWatcher
	builder Builder
	publish PublishFunc
	logger  *slog.Logger

	buildMu sync.Mutex // One rebuild at a time
}

// NewWatchCoordinator creates a new watch coordinator. A nil logger discards
// output.
func NewWatchCoordinator(files FileWatcher, builder Builder, publish PublishFunc, logger *slog.Logger) *WatchCoordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WatchCoordinator{
		files:   files,
		builder: builder,
		publish: publish,
		logger:  logger,
	}
}

// Start begins routing file changes to the builder.
// Blocks until context is cancelled.
func (c *WatchCoordinator) Start(ctx context.Context) error {
	filesErr := make(chan error, 1)

	go func() {
		if err := c.files.Start(ctx, c.handleFileChange); err != nil {
			filesErr <- err
		}
	}()

	select {
	case err := <-filesErr:
		c.cleanup()
		return err
	case <-ctx.Done():
		c.cleanup()
		return ctx.Err()
	}
}

// cleanup stops the file watcher.
func (c *WatchCoordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		c.logger.Warn("file watcher stop failed", slog.Any("error", err))
	}
}

// RebuildNow runs a full rebuild outside the watch loop, e.g. after a
// configuration change. File events arriving meanwhile are held back and
// delivered once it finishes.
func (c *WatchCoordinator) RebuildNow(ctx context.Context) error {
	c.files.Pause()
	defer c.files.Resume()

	return c.rebuild(ctx, nil)
}

// handleFileChange processes file change events from the file watcher.
func (c *WatchCoordinator) handleFileChange(files []string) {
	if len(files) == 0 {
		return
	}

	c.logger.Info("processing file changes", slog.Int("files", len(files)))

	// File change processing needs its own context
	if err := c.rebuild(context.Background(), files); err != nil {
		c.logger.Error("rebuild failed", slog.Any("error", err))
	}
}

func (c *WatchCoordinator) rebuild(ctx context.Context, changed []string) error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	db, err := c.builder.Rebuild(ctx, changed)
	if err != nil {
		return err
	}

	stats := db.Stats()
	c.logger.Info("rebuilt typedb",
		slog.String("build_id", db.BuildID()),
		slog.Int("files", stats.Files),
		slog.Int("symbols", stats.Symbols),
		slog.Int("diagnostics", stats.Diagnostics),
	)

	if c.publish != nil {
		c.publish(db)
	}
	return nil
}
