package watcher

import (
	"context"

	"github.com/mvp-joe/typedb/internal/typedb"
)

// FileWatcher monitors source files for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching source directories, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// Builder produces a new snapshot after files changed.
type Builder interface {
	// Rebuild re-reads changed (absolute paths) and rebuilds the whole database.
	Rebuild(ctx context.Context, changed []string) (*typedb.Database, error)
}

// PublishFunc receives every successfully rebuilt snapshot.
type PublishFunc func(db *typedb.Database)
