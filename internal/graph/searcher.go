package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/mvp-joe/typedb/internal/typedb"
)

// QueryOperation represents the type of graph query to perform.
type QueryOperation string

const (
	OperationReferences   QueryOperation = "references"   // Symbols whose members mention the target
	OperationDependencies QueryOperation = "dependencies" // Symbols the target's members mention
	OperationAncestors    QueryOperation = "ancestors"
	OperationDescendants  QueryOperation = "descendants"
	OperationPath         QueryOperation = "path"
)

// Query defaults and limits
const (
	DefaultDepth        = 1
	DefaultMaxResults   = 100
	DefaultContextLines = 3
	MaxDepth            = 10
	MaxContextLines     = 20
)

var (
	// ErrSymbolNotFound indicates a query target that names no symbol
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrUnsupportedOperation indicates an unknown query operation
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrNoPath indicates that the destination is not reachable from the target
	ErrNoPath = errors.New("no path between symbols")
)

// QueryRequest represents a graph query request.
type QueryRequest struct {
	Operation      QueryOperation // Type of query
	Target         string         // Symbol name to query
	To             string         // For path operation: destination symbol
	IncludeContext bool           // Whether to include declaration lines
	ContextLines   int            // Number of context lines around the declaration (default: 3)
	Depth          int            // Traversal depth (default: 1, hierarchy queries: 10)
	MaxResults     int            // Maximum number of results (default: 100)
}

// QueryResponse represents the response to a graph query.
type QueryResponse struct {
	Operation     string        `json:"operation"`
	Target        string        `json:"target"`
	To            string        `json:"to,omitempty"`
	Results       []QueryResult `json:"results"`
	TotalFound    int           `json:"total_found"`
	TotalReturned int           `json:"total_returned"`
	Truncated     bool          `json:"truncated"`
	Metadata      ResponseMeta  `json:"metadata"`
}

// QueryResult represents a single result from a graph query.
type QueryResult struct {
	Node    *Node      `json:"node"`
	Via     []EdgeKind `json:"via,omitempty"`     // Edge kinds linking the result to the previous hop
	Context string     `json:"context,omitempty"` // Declaration lines if IncludeContext=true
	Depth   int        `json:"depth,omitempty"`   // Depth in traversal, or position in a path
}

// ResponseMeta contains metadata about the query execution.
type ResponseMeta struct {
	TookMs  int    `json:"took_ms"`
	Source  string `json:"source"` // Always "graph"
	BuildID string `json:"build_id"`
}

// Searcher provides graph query capabilities with reverse indexes.
type Searcher interface {
	// Query executes a graph query and returns results.
	Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error)

	// Reload rebuilds the graph from a new database snapshot.
	Reload(db *typedb.Database) error

	// Data returns the graph data of the current snapshot.
	Data() *GraphData

	// Close releases resources.
	Close() error
}

// SearcherOption configures a Searcher.
type SearcherOption func(*searcher)

// WithLogger sets the logger used for reload events.
func WithLogger(logger *slog.Logger) SearcherOption {
	return func(s *searcher) {
		s.logger = logger
	}
}

type pair struct{ from, to int }

// searcher implements Searcher with an in-memory graph and reverse indexes.
type searcher struct {
	logger *slog.Logger
	mu     sync.RWMutex // Protects everything below

	db    *typedb.Database
	data  *GraphData
	graph graph.Graph[int, *Node]

	// Reverse indexes for O(1) lookups, sorted by id, self edges excluded
	references   map[int][]int // symbol -> [referencing symbols]
	dependencies map[int][]int // symbol -> [referenced symbols]
	edgeKinds    map[pair][]EdgeKind
}

// resultWithDepth is an internal type for tracking depth in traversal.
type resultWithDepth struct {
	id    int
	depth int
	via   []EdgeKind
}

// NewSearcher creates a new graph searcher over db.
func NewSearcher(db *typedb.Database, opts ...SearcherOption) (Searcher, error) {
	s := &searcher{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := s.Reload(db); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rebuilds the graph and indexes, then swaps them in.
func (s *searcher) Reload(db *typedb.Database) error {
	if db == nil {
		return fmt.Errorf("failed to reload graph: nil database")
	}

	data := buildData(db, s.logger)
	g := graph.New(func(n *Node) int { return n.ID }, graph.Directed())

	for i := range data.Nodes {
		if err := g.AddVertex(&data.Nodes[i]); err != nil {
			return fmt.Errorf("failed to add node %d: %w", data.Nodes[i].ID, err)
		}
	}

	edgeKinds := make(map[pair][]EdgeKind)
	for _, edge := range data.Edges {
		key := pair{edge.From, edge.To}
		if !containsKind(edgeKinds[key], edge.Kind) {
			edgeKinds[key] = append(edgeKinds[key], edge.Kind)
		}
		if edge.From == edge.To {
			continue
		}
		err := g.AddEdge(edge.From, edge.To, graph.EdgeAttribute("kind", string(edge.Kind)))
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return fmt.Errorf("failed to add edge %d -> %d: %w", edge.From, edge.To, err)
		}
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return fmt.Errorf("failed to compute adjacency: %w", err)
	}
	predecessors, err := g.PredecessorMap()
	if err != nil {
		return fmt.Errorf("failed to compute predecessors: %w", err)
	}

	s.mu.Lock()
	s.db = db
	s.data = data
	s.graph = g
	s.dependencies = sortedNeighbors(adjacency)
	s.references = sortedNeighbors(predecessors)
	s.edgeKinds = edgeKinds
	s.mu.Unlock()

	s.logger.Info("graph loaded",
		slog.String("build_id", db.BuildID()),
		slog.Int("nodes", len(data.Nodes)),
		slog.Int("edges", len(data.Edges)),
	)
	return nil
}

// Data returns the graph data of the current snapshot.
func (s *searcher) Data() *GraphData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Query executes a graph query.
func (s *searcher) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	normalizeRequest(req)

	target, err := s.resolve(req.Target)
	if err != nil {
		return nil, err
	}

	var resultWithDepths []resultWithDepth

	switch req.Operation {
	case OperationReferences:
		resultWithDepths = s.walk(target.ID, req.Depth, func(id int) []int { return s.references[id] },
			func(from, to int) []EdgeKind { return s.edgeKinds[pair{to, from}] })
	case OperationDependencies:
		resultWithDepths = s.walk(target.ID, req.Depth, func(id int) []int { return s.dependencies[id] },
			func(from, to int) []EdgeKind { return s.edgeKinds[pair{from, to}] })
	case OperationAncestors:
		resultWithDepths = s.walk(target.ID, req.Depth, s.parentOf, inherits)
	case OperationDescendants:
		resultWithDepths = s.walk(target.ID, req.Depth, s.childrenOf, inherits)
	case OperationPath:
		resultWithDepths, err = s.queryPath(target, req.To)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, req.Operation)
	}

	if err != nil {
		return nil, err
	}

	// Build results
	results := []QueryResult{}
	for _, rd := range resultWithDepths {
		if len(results) >= req.MaxResults {
			break
		}

		node, err := s.graph.Vertex(rd.id)
		if err != nil {
			continue
		}

		result := QueryResult{
			Node:  node,
			Via:   rd.via,
			Depth: rd.depth,
		}
		if req.IncludeContext {
			result.Context = s.extractContext(node, req.ContextLines)
		}
		results = append(results, result)
	}

	return &QueryResponse{
		Operation:     string(req.Operation),
		Target:        req.Target,
		To:            req.To,
		Results:       results,
		TotalFound:    len(resultWithDepths),
		TotalReturned: len(results),
		Truncated:     len(results) < len(resultWithDepths),
		Metadata: ResponseMeta{
			TookMs:  int(time.Since(startTime).Milliseconds()),
			Source:  "graph",
			BuildID: s.db.BuildID(),
		},
	}, nil
}

func normalizeRequest(req *QueryRequest) {
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.Depth <= 0 {
		req.Depth = DefaultDepth
		if req.Operation == OperationAncestors || req.Operation == OperationDescendants {
			req.Depth = MaxDepth
		}
	}
	if req.Depth > MaxDepth {
		req.Depth = MaxDepth
	}
	if req.ContextLines <= 0 {
		req.ContextLines = DefaultContextLines
	}
	if req.ContextLines > MaxContextLines {
		req.ContextLines = MaxContextLines
	}
}

// resolve maps a name to its declared symbol, falling back to an unresolved
// placeholder of the same name.
func (s *searcher) resolve(name string) (*typedb.Symbol, error) {
	syms := s.db.Lookup(name)
	if len(syms) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	for _, sym := range syms {
		if sym.Kind != typedb.KindUnknown {
			return sym, nil
		}
	}
	return syms[0], nil
}

// walk runs a breadth-first traversal up to depth. Each level is ordered by
// name then id.
func (s *searcher) walk(start, depth int, next func(int) []int, via func(from, to int) []EdgeKind) []resultWithDepth {
	results := []resultWithDepth{}
	visited := map[int]bool{start: true}
	frontier := []int{start}

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var found []resultWithDepth
		for _, id := range frontier {
			for _, n := range next(id) {
				if visited[n] {
					continue
				}
				visited[n] = true
				found = append(found, resultWithDepth{id: n, depth: level, via: via(id, n)})
			}
		}

		sort.SliceStable(found, func(i, j int) bool {
			return s.less(found[i].id, found[j].id)
		})

		frontier = frontier[:0]
		for _, rd := range found {
			frontier = append(frontier, rd.id)
		}
		results = append(results, found...)
	}

	return results
}

func (s *searcher) queryPath(from *typedb.Symbol, to string) ([]resultWithDepth, error) {
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("path operation requires a destination symbol")
	}
	dest, err := s.resolve(to)
	if err != nil {
		return nil, err
	}

	path, err := graph.ShortestPath(s.graph, from.ID, dest.ID)
	if err != nil {
		if errors.Is(err, graph.ErrTargetNotReachable) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrNoPath, from.Name, dest.Name)
		}
		return nil, fmt.Errorf("failed to find path: %w", err)
	}

	results := make([]resultWithDepth, 0, len(path))
	for i, id := range path {
		rd := resultWithDepth{id: id, depth: i}
		if i > 0 {
			rd.via = s.edgeKinds[pair{path[i-1], id}]
		}
		results = append(results, rd)
	}
	return results, nil
}

func (s *searcher) parentOf(id int) []int {
	sym, ok := s.db.Symbol(id)
	if !ok || sym.Class == nil || sym.Class.ParentID == nil {
		return nil
	}
	return []int{*sym.Class.ParentID}
}

func (s *searcher) childrenOf(id int) []int {
	sym, ok := s.db.Symbol(id)
	if !ok || sym.Class == nil {
		return nil
	}
	return sym.Class.Children
}

func (s *searcher) less(a, b int) bool {
	symA, _ := s.db.Symbol(a)
	symB, _ := s.db.Symbol(b)
	if symA == nil || symB == nil || symA.Name == symB.Name {
		return a < b
	}
	return symA.Name < symB.Name
}

// extractContext renders the declaration lines of node with padding.
func (s *searcher) extractContext(node *Node, contextLines int) string {
	lines := s.db.FileLines(node.File)
	if len(lines) == 0 || node.LineStart <= 0 {
		return ""
	}

	endLine := max(node.LineEnd, node.LineStart)
	from := max(0, node.LineStart-contextLines-1)
	to := min(len(lines), endLine+contextLines)
	if from >= to {
		return ""
	}

	prefix := fmt.Sprintf("-- Lines %d-%d\n", from+1, to)
	return prefix + strings.Join(lines[from:to], "\n")
}

// Close releases resources.
func (s *searcher) Close() error {
	return nil
}

func inherits(from, to int) []EdgeKind {
	return []EdgeKind{EdgeInherits}
}

func sortedNeighbors(m map[int]map[int]graph.Edge[int]) map[int][]int {
	out := make(map[int][]int, len(m))
	for id, neighbors := range m {
		if len(neighbors) == 0 {
			continue
		}
		ids := make([]int, 0, len(neighbors))
		for n := range neighbors {
			ids = append(ids, n)
		}
		sort.Ints(ids)
		out[id] = ids
	}
	return out
}

func containsKind(kinds []EdgeKind, kind EdgeKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
