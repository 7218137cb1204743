package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/typedb/internal/config"
	"github.com/mvp-joe/typedb/internal/search"
)

// Search modes accepted by typedb_search.
const (
	SearchModeFilter = "filter" // Substring or regex scan, grouped by collection
	SearchModeIndex  = "index"  // Ranked name index with prefix, fuzzy and wildcard matching
)

// SearchToolRequest represents the typedb_search parameters.
type SearchToolRequest struct {
	Query                  string   `json:"query"`
	Mode                   string   `json:"mode,omitempty"`
	Kinds                  []string `json:"kinds,omitempty"` // index mode
	Limit                  int      `json:"limit,omitempty"`
	Fuzziness              *int     `json:"fuzziness,omitempty"` // index mode
	IncludeClasses         *bool    `json:"include_classes,omitempty"`
	IncludeEnums           *bool    `json:"include_enums,omitempty"`
	IncludeAliases         *bool    `json:"include_aliases,omitempty"`
	IncludeGlobalFunctions *bool    `json:"include_global_functions,omitempty"`
	IncludeProperties      bool     `json:"include_properties,omitempty"`
	IncludeMethods         bool     `json:"include_methods,omitempty"`
	IncludeParameters      bool     `json:"include_parameters,omitempty"`
	IsRegex                bool     `json:"is_regex,omitempty"`
}

// FilterSearchResponse is returned in filter mode. Each group holds at most
// limit entries; Total counts matches before truncation.
type FilterSearchResponse struct {
	Mode      string          `json:"mode"`
	Query     string          `json:"query"`
	Results   *search.Results `json:"results"`
	Total     int             `json:"total"`
	Truncated bool            `json:"truncated"`
	BuildID   string          `json:"build_id"`
}

// IndexSearchResponse is returned in index mode.
type IndexSearchResponse struct {
	Mode    string        `json:"mode"`
	Query   string        `json:"query"`
	Hits    []*search.Hit `json:"hits"`
	Total   int           `json:"total"`
	BuildID string        `json:"build_id"`
}

// AddTypeDBSearchTool registers the typedb_search tool with an MCP server.
func AddTypeDBSearchTool(s *server.MCPServer, snap *Snapshot, cfg config.SearchConfig) {
	tool := mcp.NewTool(
		"typedb_search",
		mcp.WithDescription("Search the declared Lua types by name. 'filter' mode scans classes, enums, aliases and global functions (optionally properties, methods and parameters) by case-insensitive substring or regex. 'index' mode ranks names with exact, prefix, fuzzy and wildcard (* ?) matching."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Name, substring, regex (filter mode with is_regex) or wildcard pattern (index mode)")),
		mcp.WithString("mode",
			mcp.Description("'filter' (default) or 'index'")),
		mcp.WithArray("kinds",
			mcp.Description("Index mode: restrict to kinds Class, Enum, Alias, GlobalFunction, Unknown, Property, Method, Parameter, EnumValue")),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum results (default: %d, max: %d)", cfg.MaxResults, search.MaxLimit))),
		mcp.WithNumber("fuzziness",
			mcp.Description("Index mode: edit distance for fuzzy matching, 0-2; negative disables")),
		mcp.WithBoolean("include_classes", mcp.Description("Filter mode: search classes (default: true)")),
		mcp.WithBoolean("include_enums", mcp.Description("Filter mode: search enums (default: true)")),
		mcp.WithBoolean("include_aliases", mcp.Description("Filter mode: search aliases (default: true)")),
		mcp.WithBoolean("include_global_functions", mcp.Description("Filter mode: search global functions (default: true)")),
		mcp.WithBoolean("include_properties", mcp.Description("Filter mode: search class fields")),
		mcp.WithBoolean("include_methods", mcp.Description("Filter mode: search class methods")),
		mcp.WithBoolean("include_parameters", mcp.Description("Filter mode: search parameters")),
		mcp.WithBoolean("is_regex", mcp.Description("Filter mode: treat query as a regular expression")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createTypeDBSearchHandler(snap, cfg))
}

// createTypeDBSearchHandler creates the handler function for typedb_search tool.
func createTypeDBSearchHandler(snap *Snapshot, cfg config.SearchConfig) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req SearchToolRequest
		if err := CoerceBindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if req.Query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		limit := req.Limit
		if limit <= 0 {
			limit = cfg.MaxResults
		}
		if limit <= 0 {
			limit = search.DefaultLimit
		}
		if limit > search.MaxLimit {
			limit = search.MaxLimit
		}

		var response interface{}
		switch req.Mode {
		case "", SearchModeFilter:
			resp, err := filterSearch(snap, &req, limit)
			if errors.Is(err, search.ErrInvalidPattern) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err != nil {
				return nil, fmt.Errorf("filter search failed: %w", err)
			}
			response = resp

		case SearchModeIndex:
			resp, err := indexSearch(ctx, snap, &req, limit, cfg.Fuzziness)
			if err != nil {
				return nil, fmt.Errorf("index search failed: %w", err)
			}
			response = resp

		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid mode: %s (must be one of: filter, index)", req.Mode)), nil
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

func filterSearch(snap *Snapshot, req *SearchToolRequest, limit int) (*FilterSearchResponse, error) {
	filters := search.Filters{
		Classes:         boolOr(req.IncludeClasses, true),
		Enums:           boolOr(req.IncludeEnums, true),
		Aliases:         boolOr(req.IncludeAliases, true),
		GlobalFunctions: boolOr(req.IncludeGlobalFunctions, true),
		Properties:      req.IncludeProperties,
		Methods:         req.IncludeMethods,
		Parameters:      req.IncludeParameters,
		Regex:           req.IsRegex,
	}

	db := snap.Database()
	results, err := search.Filter(db, req.Query, filters)
	if err != nil {
		return nil, err
	}

	total := results.Total()
	truncated := len(results.Entities) > limit || len(results.Properties) > limit ||
		len(results.Methods) > limit || len(results.Parameters) > limit
	results.Entities = truncate(results.Entities, limit)
	results.Properties = truncate(results.Properties, limit)
	results.Methods = truncate(results.Methods, limit)
	results.Parameters = truncate(results.Parameters, limit)

	return &FilterSearchResponse{
		Mode:      SearchModeFilter,
		Query:     req.Query,
		Results:   results,
		Total:     total,
		Truncated: truncated,
		BuildID:   db.BuildID(),
	}, nil
}

func indexSearch(ctx context.Context, snap *Snapshot, req *SearchToolRequest, limit, defaultFuzziness int) (*IndexSearchResponse, error) {
	// The index treats 0 as its own default
	fuzziness := defaultFuzziness
	if fuzziness == 0 {
		fuzziness = -1
	}
	if req.Fuzziness != nil {
		fuzziness = *req.Fuzziness
		if fuzziness == 0 {
			fuzziness = -1
		}
	}

	hits, err := snap.Index().Search(ctx, &search.Query{
		Text:      req.Query,
		Kinds:     req.Kinds,
		Limit:     limit,
		Fuzziness: fuzziness,
	})
	if err != nil {
		return nil, err
	}

	return &IndexSearchResponse{
		Mode:    SearchModeIndex,
		Query:   req.Query,
		Hits:    hits,
		Total:   len(hits),
		BuildID: snap.Database().BuildID(),
	}, nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
