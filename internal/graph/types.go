// Package graph answers relationship queries over a typedb snapshot: who
// references a symbol, what a symbol depends on, the class hierarchy in both
// directions, and the shortest dependency path between two symbols.
package graph

import "github.com/mvp-joe/typedb/internal/typedb"

// EdgeKind represents the type of relationship between two symbols.
type EdgeKind string

const (
	EdgeProperty       EdgeKind = EdgeKind(typedb.RefProperty)
	EdgeParameter      EdgeKind = EdgeKind(typedb.RefParameter)
	EdgeMethod         EdgeKind = EdgeKind(typedb.RefMethod)
	EdgeGlobalFunction EdgeKind = EdgeKind(typedb.RefGlobalFunction)
	EdgeAlias          EdgeKind = EdgeKind(typedb.RefAlias)
	EdgeInherits       EdgeKind = "inherits" // Child class to parent class
)

// Node represents a symbol in the graph.
type Node struct {
	ID        int               `json:"id"`
	Name      string            `json:"name"`
	Kind      typedb.SymbolKind `json:"kind"`
	File      int               `json:"file"`
	FileName  string            `json:"file_name,omitempty"`
	LineStart int               `json:"line_start"`
	LineEnd   int               `json:"line_end"`
}

// Edge is a directed dependency from the symbol owning a member to the
// symbol its type mentions.
type Edge struct {
	From   int      `json:"from"`
	To     int      `json:"to"`
	Kind   EdgeKind `json:"kind"`
	Member string   `json:"member,omitempty"` // Property, parameter or method name
	Line   int      `json:"line,omitempty"`
}

// GraphData is the complete graph structure derived from one database.
type GraphData struct {
	BuildID string `json:"build_id"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}
