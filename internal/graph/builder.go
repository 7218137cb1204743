package graph

import (
	"io"
	"log/slog"
	"time"

	"github.com/mvp-joe/typedb/internal/typedb"
)

// BuildData derives graph data from a database. Every reference edge of a
// symbol becomes a dependency edge from the symbol owning the referencing
// member, and every class with a parent gets an inherits edge.
func BuildData(db *typedb.Database) *GraphData {
	return buildData(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func buildData(db *typedb.Database, logger *slog.Logger) *GraphData {
	startTime := time.Now()

	data := &GraphData{
		BuildID: db.BuildID(),
		Nodes:   make([]Node, 0, len(db.Symbols())),
		Edges:   []Edge{},
	}

	for _, sym := range db.Symbols() {
		data.Nodes = append(data.Nodes, nodeFor(db, sym))
	}

	dropped := 0
	for _, target := range db.Symbols() {
		for _, ref := range target.References {
			edge, ok := edgeFor(db, target, ref)
			if !ok {
				dropped++
				continue
			}
			data.Edges = append(data.Edges, edge)
		}
	}

	for _, class := range db.Classes() {
		if class.Class == nil || class.Class.ParentID == nil {
			continue
		}
		data.Edges = append(data.Edges, Edge{
			From: class.ID,
			To:   *class.Class.ParentID,
			Kind: EdgeInherits,
			Line: class.LineStart,
		})
	}

	if dropped > 0 {
		logger.Warn("references without an owning symbol", slog.Int("count", dropped))
	}
	logger.Debug("graph data built",
		slog.Int("nodes", len(data.Nodes)),
		slog.Int("edges", len(data.Edges)),
		slog.Duration("duration", time.Since(startTime)),
	)

	return data
}

func nodeFor(db *typedb.Database, sym *typedb.Symbol) Node {
	return Node{
		ID:        sym.ID,
		Name:      sym.Name,
		Kind:      sym.Kind,
		File:      sym.File,
		FileName:  db.FileName(sym.File),
		LineStart: sym.LineStart,
		LineEnd:   sym.LineEnd,
	}
}

func edgeFor(db *typedb.Database, target *typedb.Symbol, ref typedb.Reference) (Edge, bool) {
	owner, ok := db.Referencer(ref)
	if !ok {
		return Edge{}, false
	}

	edge := Edge{From: owner.ID, To: target.ID, Kind: EdgeKind(ref.Kind)}
	switch ref.Kind {
	case typedb.RefProperty:
		if p, ok := db.Property(ref.ReferencerID); ok {
			edge.Member, edge.Line = p.Name, p.Line
		}
	case typedb.RefParameter:
		if p, ok := db.Parameter(ref.ReferencerID); ok {
			edge.Member, edge.Line = p.Name, p.Line
		}
	case typedb.RefMethod:
		if m, ok := db.Method(ref.ReferencerID); ok {
			edge.Member, edge.Line = m.Name, m.Line
		}
	default:
		edge.Line = owner.LineStart
	}
	return edge, true
}
