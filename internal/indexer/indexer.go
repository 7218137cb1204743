// Package indexer turns a project directory into typedb snapshots: it
// discovers declaration files, loads them through the content cache and
// runs the build.
package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mvp-joe/typedb/internal/config"
	"github.com/mvp-joe/typedb/internal/source"
	"github.com/mvp-joe/typedb/internal/typedb"
)

// Stats describes one build.
type Stats struct {
	BuildID     string        `json:"build_id"`
	Files       []string      `json:"files"` // Relative to the root, in build order
	Database    typedb.Stats  `json:"database"`
	CacheHits   int64         `json:"cache_hits"`
	CacheMisses int64         `json:"cache_misses"`
	Duration    time.Duration `json:"duration"`
}

// Indexer builds snapshots for one project root.
type Indexer struct {
	rootDir   string
	cfg       *config.Config
	discovery *source.Discovery
	loader    *source.Loader
	logger    *slog.Logger
	progress  ProgressReporter
	explicit  map[string]bool // Absolute paths listed in sources.files

	mu        sync.Mutex // Serializes builds
	lastStats *Stats
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the structured logger passed to builds.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) Option {
	return func(ix *Indexer) {
		ix.progress = progress
	}
}

// New creates an indexer for rootDir. cfg must be validated.
func New(rootDir string, cfg *config.Config, opts ...Option) (*Indexer, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	discovery, err := source.NewDiscovery(root, cfg.Sources.Include, cfg.Sources.Ignore)
	if err != nil {
		return nil, err
	}

	loader, err := source.NewLoader(cfg.Cache.MaxFiles)
	if err != nil {
		return nil, err
	}

	ix := &Indexer{
		rootDir:   root,
		cfg:       cfg,
		discovery: discovery,
		loader:    loader,
		explicit:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.logger == nil {
		ix.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if ix.progress == nil {
		ix.progress = &NoOpProgressReporter{}
	}

	for _, f := range cfg.Sources.Files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(root, f)
		}
		ix.explicit[filepath.Clean(f)] = true
	}

	return ix, nil
}

// RootDir returns the absolute project root.
func (ix *Indexer) RootDir() string { return ix.rootDir }

// Build discovers, loads and parses every source file.
func (ix *Indexer) Build(ctx context.Context) (*typedb.Database, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	startTime := time.Now()

	ix.progress.OnDiscoveryStart()
	paths, err := source.Resolve(ix.discovery, ix.cfg.Sources.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	ix.progress.OnDiscoveryComplete(len(paths))

	hitsBefore, missesBefore := ix.loader.Stats()

	ix.progress.OnFileLoadingStart(len(paths))
	files, err := ix.loader.Load(ctx, paths, ix.progress.OnFileLoaded)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = ix.relPath(f.Path)
	}

	db := typedb.Build(source.Texts(files),
		typedb.WithLogger(ix.logger),
		typedb.WithPrimitives(ix.cfg.Build.ExtraPrimitives...),
		typedb.WithFileNames(names),
	)

	hits, misses := ix.loader.Stats()
	stats := &Stats{
		BuildID:     db.BuildID(),
		Files:       names,
		Database:    db.Stats(),
		CacheHits:   hits - hitsBefore,
		CacheMisses: misses - missesBefore,
		Duration:    time.Since(startTime),
	}
	ix.lastStats = stats
	ix.progress.OnComplete(stats)

	return db, nil
}

// Rebuild drops changed paths from the content cache and builds again.
// It satisfies watcher.Builder.
func (ix *Indexer) Rebuild(ctx context.Context, changed []string) (*typedb.Database, error) {
	for _, path := range changed {
		ix.loader.Invalidate(filepath.Clean(path))
	}
	return ix.Build(ctx)
}

// Matches reports whether an absolute path is a build input.
func (ix *Indexer) Matches(path string) bool {
	path = filepath.Clean(path)
	if ix.explicit[path] {
		return true
	}
	rel := ix.relPath(path)
	if strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
		return false
	}
	return ix.discovery.Matches(rel)
}

// LastStats returns the statistics of the most recent build, or nil.
func (ix *Indexer) LastStats() *Stats {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.lastStats
}

// Close releases the content cache.
func (ix *Indexer) Close() error {
	ix.loader.Close()
	return nil
}

func (ix *Indexer) relPath(path string) string {
	rel, err := filepath.Rel(ix.rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
