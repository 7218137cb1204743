package graph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/typedb/internal/typedb"
)

// Test Plan for GraphSearcher:
// - BuildData turns reference edges into owner -> target edges with members
// - Query references returns referencing symbols with edge kinds
// - Query dependencies returns transitive dependencies at depth > 1
// - Query ancestors and descendants follow the class hierarchy
// - Query path returns the shortest chain and ErrNoPath when unreachable
// - Unknown targets and operations return sentinel errors
// - MaxResults truncates, IncludeContext injects declaration lines
// - Reload swaps in a new snapshot

var hierarchy = strings.Join([]string{
	"---@class UObject",                // 1
	"---@field Outer UObject?",         // 2
	"",                                 // 3
	"---@class AActor : UObject",       // 4
	"---@field Owner APawn",            // 5
	"",                                 // 6
	"---@class APawn : AActor",         // 7
	"---@field Controller AController", // 8
	"",                                 // 9
	"---@alias Mode",                   // 10
	"---| `AActor`",                    // 11
	"",                                 // 12
	"---@param target AActor",          // 13
	"---@return Widget",                // 14
	"function Spawn(target) end",       // 15
}, "\n")

func buildDB(texts ...string) *typedb.Database {
	return typedb.Build(texts, typedb.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func setupSearcher(t *testing.T) (Searcher, *typedb.Database) {
	t.Helper()

	db := buildDB(hierarchy)
	s, err := NewSearcher(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, db
}

func names(resp *QueryResponse) []string {
	out := []string{}
	for _, r := range resp.Results {
		out = append(out, r.Node.Name)
	}
	return out
}

func symbolID(t *testing.T, db *typedb.Database, name string) int {
	t.Helper()
	syms := db.Lookup(name)
	require.NotEmpty(t, syms, "symbol %s not found", name)
	return syms[0].ID
}

func TestBuildData(t *testing.T) {
	t.Parallel()

	db := buildDB(hierarchy)
	data := BuildData(db)

	assert.Equal(t, db.BuildID(), data.BuildID)
	assert.Len(t, data.Nodes, len(db.Symbols()))

	object := symbolID(t, db, "UObject")
	actor := symbolID(t, db, "AActor")
	pawn := symbolID(t, db, "APawn")

	assert.Contains(t, data.Edges, Edge{From: actor, To: pawn, Kind: EdgeProperty, Member: "Owner", Line: 5})
	assert.Contains(t, data.Edges, Edge{From: object, To: object, Kind: EdgeProperty, Member: "Outer", Line: 2})
	assert.Contains(t, data.Edges, Edge{From: pawn, To: actor, Kind: EdgeInherits, Line: 7})
	assert.Contains(t, data.Edges, Edge{From: actor, To: object, Kind: EdgeInherits, Line: 4})
}

func TestQuery_References(t *testing.T) {
	t.Parallel()

	s, _ := setupSearcher(t)

	resp, err := s.Query(context.Background(), &QueryRequest{
		Operation: OperationReferences,
		Target:    "AActor",
	})
	require.NoError(t, err)

	assert.Equal(t, "references", resp.Operation)
	assert.Equal(t, []string{"APawn", "Mode", "Spawn"}, names(resp))
	assert.Equal(t, []EdgeKind{EdgeInherits}, resp.Results[0].Via)
	assert.Equal(t, []EdgeKind{EdgeAlias}, resp.Results[1].Via)
	assert.Equal(t, []EdgeKind{EdgeParameter}, resp.Results[2].Via)
	assert.Equal(t, 3, resp.TotalFound)
	assert.False(t, resp.Truncated)
	assert.Equal(t, "graph", resp.Metadata.Source)
}

func TestQuery_ReferencesOfUnknown(t *testing.T) {
	t.Parallel()

	s, _ := setupSearcher(t)

	resp, err := s.Query(context.Background(), &QueryRequest{
		Operation: OperationReferences,
		Target:    "Widget",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Spawn", resp.Results[0].Node.Name)
	assert.Equal(t, []EdgeKind{EdgeGlobalFunction}, resp.Results[0].Via)
}

func TestQuery_Dependencies(t *testing.T) {
	t.Parallel()

	s, _ := setupSearcher(t)

	resp, err := s.Query(context.Background(), &QueryRequest{
		Operation: OperationDependencies,
		Target:    "AActor",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"APawn", "UObject"}, names(resp))

	resp, err = s.Query(context.Background(), &QueryRequest{
		Operation: OperationDependencies,
		Target:    "AActor",
		Depth:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"APawn", "UObject", "AController"}, names(resp))
	assert.Equal(t, 2, resp.Results[2].Depth)
}

func TestQuery_Hierarchy(t *testing.T) {
	t.Parallel()

	s, _ := setupSearcher(t)
	ctx := context.Background()

	resp, err := s.Query(ctx, &QueryRequest{Operation: OperationAncestors, Target: "APawn"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AActor", "UObject"}, names(resp))
	assert.Equal(t, 1, resp.Results[0].Depth)
	assert.Equal(t, 2, resp.Results[1].Depth)

	resp, err = s.Query(ctx, &QueryRequest{Operation: OperationDescendants, Target: "UObject"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AActor", "APawn"}, names(resp))

	resp, err = s.Query(ctx, &QueryRequest{Operation: OperationDescendants, Target: "UObject", Depth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"AActor"}, names(resp))

	resp, err = s.Query(ctx, &QueryRequest{Operation: OperationAncestors, Target: "Spawn"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestQuery_Path(t *testing.T) {
	t.Parallel()

	s, _ := setupSearcher(t)
	ctx := context.Background()

	resp, err := s.Query(ctx, &QueryRequest{Operation: OperationPath, Target: "Spawn", To: "UObject"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Spawn", "AActor", "UObject"}, names(resp))
	assert.Empty(t, resp.Results[0].Via)
	assert.Equal(t, []EdgeKind{EdgeParameter}, resp.Results[1].Via)
	assert.Equal(t, []EdgeKind{EdgeInherits}, resp.Results[2].Via)

	_, err = s.Query(ctx, &QueryRequest{Operation: OperationPath, Target: "UObject", To: "Spawn"})
	assert.True(t, errors.Is(err, ErrNoPath), "got %v", err)

	_, err = s.Query(ctx, &QueryRequest{Operation: OperationPath, Target: "Spawn"})
	assert.Error(t, err)

	_, err = s.Query(ctx, &QueryRequest{Operation: OperationPath, Target: "Spawn", To: "Nowhere"})
	assert.True(t, errors.Is(err, ErrSymbolNotFound))
}

func TestQuery_Errors(t *testing.T) {
	t.Parallel()

	s, _ := setupSearcher(t)

	_, err := s.Query(context.Background(), &QueryRequest{Operation: OperationReferences, Target: "Missing"})
	assert.True(t, errors.Is(err, ErrSymbolNotFound))

	_, err = s.Query(context.Background(), &QueryRequest{Operation: "callers", Target: "AActor"})
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Query(ctx, &QueryRequest{Operation: OperationReferences, Target: "AActor"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestQuery_MaxResults(t *testing.T) {
	t.Parallel()

	s, _ := setupSearcher(t)

	resp, err := s.Query(context.Background(), &QueryRequest{
		Operation:  OperationReferences,
		Target:     "AActor",
		MaxResults: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalReturned)
	assert.Equal(t, 3, resp.TotalFound)
	assert.True(t, resp.Truncated)
}

func TestQuery_IncludeContext(t *testing.T) {
	t.Parallel()

	s, _ := setupSearcher(t)

	resp, err := s.Query(context.Background(), &QueryRequest{
		Operation:      OperationAncestors,
		Target:         "APawn",
		Depth:          1,
		IncludeContext: true,
		ContextLines:   1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	snippet := resp.Results[0].Context
	assert.True(t, strings.HasPrefix(snippet, "-- Lines 3-7\n"), snippet)
	assert.Contains(t, snippet, "---@class AActor : UObject")
	assert.Contains(t, snippet, "---@field Owner APawn")
}

func TestReload_SwapsSnapshot(t *testing.T) {
	t.Parallel()

	s, db := setupSearcher(t)
	assert.Equal(t, db.BuildID(), s.Data().BuildID)

	next := buildDB(hierarchy, "---@class AController : AActor")
	require.NoError(t, s.Reload(next))
	assert.Equal(t, next.BuildID(), s.Data().BuildID)

	resp, err := s.Query(context.Background(), &QueryRequest{Operation: OperationDescendants, Target: "AActor", Depth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"AController", "APawn"}, names(resp))

	assert.Error(t, s.Reload(nil))
}
