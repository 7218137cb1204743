package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/typedb/internal/typedb"
)

// SymbolToolRequest represents the typedb_symbol parameters. Either Name or
// ID selects the symbol.
type SymbolToolRequest struct {
	Name              string `json:"name,omitempty"`
	ID                *int   `json:"id,omitempty"`
	Kind              string `json:"kind,omitempty"`
	IncludeReferences *bool  `json:"include_references,omitempty"` // default: true
	IncludeSource     bool   `json:"include_source,omitempty"`
}

// SymbolDetail is a symbol with its members, resolved referencers and
// optionally its declaration source.
type SymbolDetail struct {
	*typedb.Symbol
	FileName     string            `json:"file_name"`
	Parent       string            `json:"parent_name,omitempty"`
	ReferencedBy []ReferenceDetail `json:"referenced_by,omitempty"`
	Source       string            `json:"source,omitempty"`
}

// ReferenceDetail names the symbol and member behind one reference edge.
type ReferenceDetail struct {
	Kind     typedb.ReferenceKind `json:"kind"`
	SymbolID int                  `json:"symbol_id"`
	Symbol   string               `json:"symbol"`
	Member   string               `json:"member,omitempty"`
	File     int                  `json:"file"`
	Line     int                  `json:"line"`
}

// SymbolToolResponse lists every symbol matching the request.
type SymbolToolResponse struct {
	Symbols []SymbolDetail `json:"symbols"`
	BuildID string         `json:"build_id"`
}

// AddTypeDBSymbolTool registers the typedb_symbol tool with an MCP server.
func AddTypeDBSymbolTool(s *server.MCPServer, snap *Snapshot) {
	tool := mcp.NewTool(
		"typedb_symbol",
		mcp.WithDescription("Describe a declared Lua type: class fields, methods and hierarchy, enum values, alias options, or function parameters and returns, plus every symbol that references it. Undeclared but referenced names are reported with kind Unknown."),
		mcp.WithString("name",
			mcp.Description("Exact symbol name (e.g., 'AActor', 'EMode')")),
		mcp.WithNumber("id",
			mcp.Description("Symbol id, used instead of name")),
		mcp.WithString("kind",
			mcp.Description("Restrict to one kind: Class, Enum, Alias, GlobalFunction or Unknown")),
		mcp.WithBoolean("include_references",
			mcp.Description("Resolve referencing symbols and members (default: true)")),
		mcp.WithBoolean("include_source",
			mcp.Description("Include the declaration lines (default: false)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createTypeDBSymbolHandler(snap))
}

// createTypeDBSymbolHandler creates the handler function for typedb_symbol tool.
func createTypeDBSymbolHandler(snap *Snapshot) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req SymbolToolRequest
		if err := CoerceBindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if req.Name == "" && req.ID == nil {
			return mcp.NewToolResultError("name or id parameter is required"), nil
		}

		db := snap.Database()
		symbols := findSymbols(db, &req)
		if len(symbols) == 0 {
			target := req.Name
			if req.ID != nil {
				target = fmt.Sprintf("id %d", *req.ID)
			}
			return mcp.NewToolResultError(fmt.Sprintf("symbol not found: %s", target)), nil
		}

		includeRefs := boolOr(req.IncludeReferences, true)
		response := SymbolToolResponse{
			Symbols: make([]SymbolDetail, 0, len(symbols)),
			BuildID: db.BuildID(),
		}
		for _, sym := range symbols {
			response.Symbols = append(response.Symbols, describeSymbol(db, sym, includeRefs, req.IncludeSource))
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

func findSymbols(db *typedb.Database, req *SymbolToolRequest) []*typedb.Symbol {
	var candidates []*typedb.Symbol
	if req.ID != nil {
		if sym, ok := db.Symbol(*req.ID); ok {
			candidates = append(candidates, sym)
		}
	} else {
		candidates = db.Lookup(req.Name)
	}

	if req.Kind == "" {
		return candidates
	}
	var filtered []*typedb.Symbol
	for _, sym := range candidates {
		if strings.EqualFold(string(sym.Kind), req.Kind) {
			filtered = append(filtered, sym)
		}
	}
	return filtered
}

func describeSymbol(db *typedb.Database, sym *typedb.Symbol, includeRefs, includeSource bool) SymbolDetail {
	detail := SymbolDetail{
		Symbol:   sym,
		FileName: db.FileName(sym.File),
	}

	if sym.Kind == typedb.KindClass && sym.Class.ParentID != nil {
		if parent, ok := db.Symbol(*sym.Class.ParentID); ok {
			detail.Parent = parent.Name
		}
	}

	if includeRefs {
		detail.ReferencedBy = make([]ReferenceDetail, 0, len(sym.References))
		for _, ref := range sym.References {
			if rd, ok := describeReference(db, ref); ok {
				detail.ReferencedBy = append(detail.ReferencedBy, rd)
			}
		}
	}

	if includeSource && sym.Kind != typedb.KindUnknown {
		detail.Source = sourceLines(db, sym)
	}
	return detail
}

func describeReference(db *typedb.Database, ref typedb.Reference) (ReferenceDetail, bool) {
	owner, ok := db.Referencer(ref)
	if !ok {
		return ReferenceDetail{}, false
	}

	rd := ReferenceDetail{
		Kind:     ref.Kind,
		SymbolID: owner.ID,
		Symbol:   owner.Name,
		File:     owner.File,
		Line:     owner.LineStart,
	}
	switch ref.Kind {
	case typedb.RefProperty:
		if p, ok := db.Property(ref.ReferencerID); ok {
			rd.Member, rd.File, rd.Line = p.Name, p.File, p.Line
		}
	case typedb.RefParameter:
		if p, ok := db.Parameter(ref.ReferencerID); ok {
			rd.Member, rd.File, rd.Line = p.Name, p.File, p.Line
		}
	case typedb.RefMethod:
		if m, ok := db.Method(ref.ReferencerID); ok {
			rd.Member, rd.File, rd.Line = m.Name, m.File, m.Line
		}
	}
	return rd, true
}

// sourceLines renders the declaration span with line numbers.
func sourceLines(db *typedb.Database, sym *typedb.Symbol) string {
	lines := db.FileLines(sym.File)
	start, end := sym.LineStart, sym.LineEnd
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%4d  %s\n", i, lines[i-1])
	}
	return b.String()
}
