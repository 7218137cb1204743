package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mvp-joe/typedb/internal/config"
	"github.com/mvp-joe/typedb/internal/indexer"
	"github.com/mvp-joe/typedb/internal/typedb"
)

// project bundles the configuration and indexer for one root directory.
type project struct {
	root    string
	cfg     *config.Config
	logger  *slog.Logger
	indexer *indexer.Indexer
}

// projectOptions control how a command opens its project.
type projectOptions struct {
	root       string
	configFile string
	verbose    bool
	progress   indexer.ProgressReporter
	logOutput  io.Writer
}

// globalProjectOptions reads the persistent flags. Progress goes to stderr.
func globalProjectOptions(quiet bool) projectOptions {
	return projectOptions{
		root:       rootDir,
		configFile: cfgFile,
		verbose:    verbose,
		progress:   NewCLIProgressReporter(os.Stderr, quiet),
		logOutput:  os.Stderr,
	}
}

// openProject loads configuration for opts.root and creates its indexer.
func openProject(opts projectOptions) (*project, error) {
	root := opts.root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}

	var loader config.Loader
	if opts.configFile != "" {
		loader = config.NewFileLoader(root, opts.configFile)
	} else {
		loader = config.NewLoader(root)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.SlogLevel()
	if opts.verbose {
		level = slog.LevelDebug
	}
	logOutput := opts.logOutput
	if logOutput == nil {
		logOutput = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level}))

	progress := opts.progress
	if progress == nil {
		progress = &indexer.NoOpProgressReporter{}
	}

	ix, err := indexer.New(root, cfg, indexer.WithLogger(logger), indexer.WithProgress(progress))
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}

	return &project{
		root:    root,
		cfg:     cfg,
		logger:  logger,
		indexer: ix,
	}, nil
}

// build runs a full build of the project.
func (p *project) build(ctx context.Context) (*typedb.Database, error) {
	db, err := p.indexer.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build typedb: %w", err)
	}
	return db, nil
}

func (p *project) Close() error {
	return p.indexer.Close()
}
