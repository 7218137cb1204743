package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/typedb/internal/graph"
)

// GraphToolRequest represents the typedb_graph parameters.
type GraphToolRequest struct {
	Operation      string `json:"operation"`       // "references", "dependencies", "ancestors", "descendants", "path"
	Target         string `json:"target"`          // Symbol name to query
	To             string `json:"to"`              // Destination for "path"
	IncludeContext *bool  `json:"include_context"` // Whether to include declaration lines
	ContextLines   int    `json:"context_lines"`   // Number of context lines (default: 3)
	Depth          int    `json:"depth"`           // Traversal depth (default: 1)
	MaxResults     int    `json:"max_results"`     // Maximum results (default: 100)
}

var validOperations = map[string]graph.QueryOperation{
	"references":   graph.OperationReferences,
	"dependencies": graph.OperationDependencies,
	"ancestors":    graph.OperationAncestors,
	"descendants":  graph.OperationDescendants,
	"path":         graph.OperationPath,
}

// AddTypeDBGraphTool registers the typedb_graph tool with an MCP server.
func AddTypeDBGraphTool(s *server.MCPServer, snap *Snapshot) {
	tool := mcp.NewTool(
		"typedb_graph",
		mcp.WithDescription("Query relationships between declared Lua types for impact analysis. Supports operations: references (which types use this one in fields, parameters, returns or alias values), dependencies (which types this one uses), ancestors (parent classes), descendants (subclasses), path (shortest reference chain from target to 'to')."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("Type of query: 'references', 'dependencies', 'ancestors', 'descendants' or 'path'")),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Target symbol name (e.g., 'AActor', 'SpawnActor')")),
		mcp.WithString("to",
			mcp.Description("Destination symbol name, required for 'path'")),
		mcp.WithBoolean("include_context",
			mcp.Description("Include declaration lines in results (default: true)")),
		mcp.WithNumber("context_lines",
			mcp.Description(fmt.Sprintf("Number of declaration lines per result (default: %d, max: %d)", graph.DefaultContextLines, graph.MaxContextLines))),
		mcp.WithNumber("depth",
			mcp.Description(fmt.Sprintf("Traversal depth for recursive queries (default: %d, max: %d)", graph.DefaultDepth, graph.MaxDepth))),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 100, max: 500)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createTypeDBGraphHandler(snap.Graph()))
}

// createTypeDBGraphHandler creates the handler function for typedb_graph tool.
func createTypeDBGraphHandler(querier graph.Searcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GraphToolRequest
		if err := CoerceBindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		if args.Operation == "" {
			return mcp.NewToolResultError("operation parameter is required"), nil
		}
		graphOp, valid := validOperations[args.Operation]
		if !valid {
			return mcp.NewToolResultError(fmt.Sprintf("invalid operation: %s (must be one of: references, dependencies, ancestors, descendants, path)", args.Operation)), nil
		}
		if args.Target == "" {
			return mcp.NewToolResultError("target parameter is required"), nil
		}
		if graphOp == graph.OperationPath && args.To == "" {
			return mcp.NewToolResultError("to parameter is required for path"), nil
		}

		req := &graph.QueryRequest{
			Operation:      graphOp,
			Target:         args.Target,
			To:             args.To,
			IncludeContext: boolOr(args.IncludeContext, true),
			ContextLines:   clamp(args.ContextLines, 0, graph.MaxContextLines),
			Depth:          clamp(args.Depth, 0, graph.MaxDepth),
			MaxResults:     clamp(args.MaxResults, 0, 500),
		}

		response, err := querier.Query(ctx, req)
		switch {
		case errors.Is(err, graph.ErrSymbolNotFound), errors.Is(err, graph.ErrNoPath):
			return mcp.NewToolResultError(err.Error()), nil
		case err != nil:
			return nil, fmt.Errorf("graph query failed: %w", err)
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// clamp bounds v to [lo, hi]. Zero stays zero so the searcher applies its default.
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
