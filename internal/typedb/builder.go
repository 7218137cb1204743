package typedb

import (
	"io"
	"log/slog"
	"time"
)

// Options configures a build.
type Options struct {
	// Logger receives diagnostics and the closing statistics line.
	// Default: a logger that discards everything.
	Logger *slog.Logger

	// ExtraPrimitives are treated as primitive types in addition to the
	// built-in vocabulary.
	ExtraPrimitives []string

	// FileNames labels the input texts by index. May be shorter than the
	// input or nil.
	FileNames []string
}

// Option is a functional option for configuring Build.
type Option func(*Options)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithPrimitives adds names to the primitive vocabulary.
func WithPrimitives(names ...string) Option {
	return func(o *Options) {
		o.ExtraPrimitives = append(o.ExtraPrimitives, names...)
	}
}

// WithFileNames labels input texts by index.
func WithFileNames(names []string) Option {
	return func(o *Options) {
		o.FileNames = names
	}
}

// build is the mutable state of a single Build call.
type build struct {
	reg   *registry
	diags *diagnostics
	sigs  *signatureParser
	refs  *tracker

	// Properties, parameters, methods and enum values share one id space.
	nextMember int
	properties []*Property
	params     []*Parameter
	methods    []*Method
	enumValues []*EnumValue

	// Global function symbols whose body has already been parsed.
	defined map[int]bool
}

func newBuild(opts Options) *build {
	diags := newDiagnostics(opts.Logger)
	reg := newRegistry(diags)
	return &build{
		reg:     reg,
		diags:   diags,
		sigs:    newSignatureParser(reg, diags, opts.ExtraPrimitives),
		refs:    &tracker{reg: reg},
		defined: make(map[int]bool),

		properties: []*Property{},
		params:     []*Parameter{},
		methods:    []*Method{},
		enumValues: []*EnumValue{},
	}
}

func (b *build) memberID() int {
	id := b.nextMember
	b.nextMember++
	return id
}

// Build parses texts, one per source file in the given order, and returns
// the assembled database. It never fails; anomalies are reported through
// Database.Diagnostics. An empty input yields an empty database.
//
// Example:
//
//	db := typedb.Build(texts,
//	    typedb.WithLogger(logger),
//	    typedb.WithPrimitives("FVector"),
//	)
func Build(texts []string, opts ...Option) *Database {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	start := time.Now()
	b := newBuild(options)

	fileLines := make([][]string, len(texts))
	for file, text := range texts {
		fileLines[file] = splitLines(text)
		newFileScan(b, file, fileLines[file]).run()
	}

	db := assemble(b, fileLines, options.FileNames)

	stats := db.Stats()
	options.Logger.Info("typedb build complete",
		slog.String("build_id", db.BuildID()),
		slog.Int("files", stats.Files),
		slog.Int("classes", stats.Classes),
		slog.Int("enums", stats.Enums),
		slog.Int("aliases", stats.Aliases),
		slog.Int("functions", stats.GlobalFunctions),
		slog.Int("unknown", stats.Unknowns),
		slog.Int("properties", stats.Properties),
		slog.Int("methods", stats.Methods),
		slog.Int("parameters", stats.Parameters),
		slog.Int("references", stats.References),
		slog.Int("diagnostics", stats.Diagnostics),
		slog.Duration("duration", time.Since(start)),
	)
	return db
}
