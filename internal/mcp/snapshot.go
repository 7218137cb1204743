package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mvp-joe/typedb/internal/graph"
	"github.com/mvp-joe/typedb/internal/search"
	"github.com/mvp-joe/typedb/internal/typedb"
)

// Snapshot holds the database currently served by the tools together with
// the graph searcher and name index derived from it. Publish swaps all three.
type Snapshot struct {
	logger *slog.Logger

	mu    sync.RWMutex // Protects db
	db    *typedb.Database
	graph graph.Searcher
	index search.Index

	publishMu sync.Mutex // Serializes Reload
}

// NewSnapshot indexes db for serving. A nil logger discards output.
func NewSnapshot(ctx context.Context, db *typedb.Database, logger *slog.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	g, err := graph.NewSearcher(db, graph.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create graph searcher: %w", err)
	}

	index, err := search.NewIndex(ctx, db)
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	return &Snapshot{
		logger: logger,
		db:     db,
		graph:  g,
		index:  index,
	}, nil
}

// Database returns the current snapshot.
func (s *Snapshot) Database() *typedb.Database {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Graph returns the graph searcher over the current snapshot.
func (s *Snapshot) Graph() graph.Searcher { return s.graph }

// Index returns the name index over the current snapshot.
func (s *Snapshot) Index() search.Index { return s.index }

// Reload reindexes db and makes it the current snapshot. On error the
// previous database stays current.
func (s *Snapshot) Reload(ctx context.Context, db *typedb.Database) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if err := s.graph.Reload(db); err != nil {
		return fmt.Errorf("failed to reload graph: %w", err)
	}
	if err := s.index.Reload(ctx, db); err != nil {
		// Keep the graph consistent with the database still served
		if rerr := s.graph.Reload(s.Database()); rerr != nil {
			s.logger.Error("failed to restore graph", slog.Any("error", rerr))
		}
		return fmt.Errorf("failed to reload search index: %w", err)
	}

	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
	return nil
}

// Publish is Reload for callers without a context or error path, such as
// the watch coordinator.
func (s *Snapshot) Publish(db *typedb.Database) {
	if err := s.Reload(context.Background(), db); err != nil {
		s.logger.Error("failed to publish snapshot", slog.Any("error", err))
		return
	}
	s.logger.Info("published snapshot", slog.String("build_id", db.BuildID()))
}

// Close releases the graph and index.
func (s *Snapshot) Close() error {
	gerr := s.graph.Close()
	if err := s.index.Close(); err != nil {
		return err
	}
	return gerr
}
