package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/mvp-joe/typedb/internal/typedb"
)

// Document kinds beyond the symbol kinds
const (
	KindProperty  = "Property"
	KindMethod    = "Method"
	KindParameter = "Parameter"
	KindEnumValue = "EnumValue"
)

// Defaults and limits for indexed queries
const (
	DefaultLimit     = 50
	MaxLimit         = 500
	DefaultFuzziness = 1
	MaxFuzziness     = 2
)

// Query is an indexed name query.
type Query struct {
	Text      string   `json:"query" mapstructure:"query"`          // Name, prefix or wildcard pattern; empty matches all
	Kinds     []string `json:"kinds" mapstructure:"kinds"`          // Restrict to these document kinds
	Limit     int      `json:"limit" mapstructure:"limit"`          // Default: 50
	Fuzziness int      `json:"fuzziness" mapstructure:"fuzziness"` // Edit distance, 0-2; negative disables fuzzy matching
}

// Hit is one indexed search result.
type Hit struct {
	Kind  string  `json:"kind"`
	ID    int     `json:"id"` // Symbol id or member id, by Kind
	Name  string  `json:"name"`
	Owner string  `json:"owner,omitempty"` // Owning symbol name for members
	File  int     `json:"file"`
	Line  int     `json:"line"`
	Score float64 `json:"score"`
}

// Index defines the interface for indexed name search.
type Index interface {
	// Search executes a name query. Hits are ordered by score, then name.
	Search(ctx context.Context, q *Query) ([]*Hit, error)

	// Reload replaces the indexed documents with those of db.
	Reload(ctx context.Context, db *typedb.Database) error

	// Count returns the number of indexed documents.
	Count() (uint64, error)

	// Close releases resources held by the index.
	Close() error
}

// nameIndex implements Index using an in-memory bleve index.
type nameIndex struct {
	index bleve.Index
	mu    sync.RWMutex // Protects index during reloads
}

// NewIndex creates an in-memory name index over db.
func NewIndex(ctx context.Context, db *typedb.Database) (Index, error) {
	index, err := buildIndex(ctx, db)
	if err != nil {
		return nil, err
	}
	return &nameIndex{index: index}, nil
}

func buildIndex(ctx context.Context, db *typedb.Database) (bleve.Index, error) {
	index, err := bleve.NewMemOnly(buildBleveMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	if err := indexDocuments(ctx, index, documentsFor(db)); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to index documents: %w", err)
	}
	return index, nil
}

// buildBleveMapping creates the index mapping for name documents. Names are
// indexed lower-cased as a single keyword term; display fields are stored only.
func buildBleveMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	keyword := func(index bool) *mapping.FieldMapping {
		m := bleve.NewTextFieldMapping()
		m.Analyzer = "keyword"
		m.Store = true
		m.Index = index
		return m
	}

	numeric := bleve.NewNumericFieldMapping()
	numeric.Store = true
	numeric.Index = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("key", keyword(true))
	docMapping.AddFieldMappingsAt("kind", keyword(true))
	docMapping.AddFieldMappingsAt("name", keyword(false))
	docMapping.AddFieldMappingsAt("owner", keyword(false))
	docMapping.AddFieldMappingsAt("ref", numeric)
	docMapping.AddFieldMappingsAt("file", numeric)
	docMapping.AddFieldMappingsAt("line", numeric)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

type document struct {
	id     string
	fields map[string]interface{}
}

func newDocument(kind string, id int, name, owner string, file, line int) document {
	return document{
		id: fmt.Sprintf("%s:%d", strings.ToLower(kind), id),
		fields: map[string]interface{}{
			"key":   strings.ToLower(name),
			"kind":  kind,
			"name":  name,
			"owner": owner,
			"ref":   float64(id),
			"file":  float64(file),
			"line":  float64(line),
		},
	}
}

// documentsFor flattens symbols and members into documents. Unresolved
// placeholders are indexed too so forward references can be found by name.
func documentsFor(db *typedb.Database) []document {
	if db == nil {
		return nil
	}

	docs := make([]document, 0, len(db.Symbols())+len(db.Properties())+len(db.Methods()))
	ownerName := func(id int) string {
		if sym, ok := db.Symbol(id); ok {
			return sym.Name
		}
		return ""
	}

	for _, sym := range db.Symbols() {
		docs = append(docs, newDocument(string(sym.Kind), sym.ID, sym.Name, "", sym.File, sym.LineStart))
	}
	for _, p := range db.Properties() {
		docs = append(docs, newDocument(KindProperty, p.ID, p.Name, ownerName(p.SymbolID), p.File, p.Line))
	}
	for _, m := range db.Methods() {
		docs = append(docs, newDocument(KindMethod, m.ID, m.Name, ownerName(m.ClassID), m.File, m.Line))
	}
	for _, p := range db.Parameters() {
		docs = append(docs, newDocument(KindParameter, p.ID, p.Name, ownerName(p.SymbolID), p.File, p.Line))
	}
	for _, v := range db.EnumValues() {
		docs = append(docs, newDocument(KindEnumValue, v.ID, v.Name, ownerName(v.SymbolID), v.File, v.Line))
	}
	return docs
}

// indexDocuments adds documents to the bleve index in batches.
func indexDocuments(ctx context.Context, index bleve.Index, docs []document) error {
	const batchSize = 1000

	batch := index.NewBatch()
	for i, doc := range docs {
		// Check cancellation periodically
		if i%batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		if err := batch.Index(doc.id, doc.fields); err != nil {
			return fmt.Errorf("failed to add document %s to batch: %w", doc.id, err)
		}

		if batch.Size() >= batchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}

	return nil
}

// Search combines exact, prefix, fuzzy and substring matches on the
// lower-cased name. Text containing * or ? is used as a wildcard pattern only.
func (n *nameIndex) Search(ctx context.Context, q *Query) ([]*Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q == nil {
		q = &Query{}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	finalQuery := buildQuery(q)
	searchRequest := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	searchRequest.Fields = []string{"kind", "name", "owner", "ref", "file", "line"}
	searchRequest.SortBy([]string{"-_score", "key", "_id"})

	n.mu.RLock()
	defer n.mu.RUnlock()

	searchResult, err := n.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]*Hit, 0, len(searchResult.Hits))
	for _, h := range searchResult.Hits {
		kind, _ := h.Fields["kind"].(string)
		name, _ := h.Fields["name"].(string)
		owner, _ := h.Fields["owner"].(string)
		ref, _ := h.Fields["ref"].(float64)
		file, _ := h.Fields["file"].(float64)
		line, _ := h.Fields["line"].(float64)

		hits = append(hits, &Hit{
			Kind:  kind,
			ID:    int(ref),
			Name:  name,
			Owner: owner,
			File:  int(file),
			Line:  int(line),
			Score: h.Score,
		})
	}
	return hits, nil
}

func buildQuery(q *Query) query.Query {
	var nameQuery query.Query
	text := strings.ToLower(strings.TrimSpace(q.Text))

	switch {
	case text == "":
		nameQuery = bleve.NewMatchAllQuery()
	case strings.ContainsAny(text, "*?"):
		wildcard := bleve.NewWildcardQuery(text)
		wildcard.SetField("key")
		nameQuery = wildcard
	default:
		exact := bleve.NewTermQuery(text)
		exact.SetField("key")
		exact.SetBoost(4)

		prefix := bleve.NewPrefixQuery(text)
		prefix.SetField("key")
		prefix.SetBoost(2)

		substring := bleve.NewWildcardQuery("*" + text + "*")
		substring.SetField("key")
		substring.SetBoost(0.5)

		queries := []query.Query{exact, prefix, substring}

		fuzziness := q.Fuzziness
		if fuzziness == 0 {
			fuzziness = DefaultFuzziness
		}
		if fuzziness > MaxFuzziness {
			fuzziness = MaxFuzziness
		}
		if fuzziness > 0 {
			fuzzy := bleve.NewFuzzyQuery(text)
			fuzzy.SetField("key")
			fuzzy.SetFuzziness(fuzziness)
			queries = append(queries, fuzzy)
		}

		nameQuery = bleve.NewDisjunctionQuery(queries...)
	}

	if len(q.Kinds) == 0 {
		return nameQuery
	}

	kindQueries := make([]query.Query, 0, len(q.Kinds))
	for _, kind := range q.Kinds {
		term := bleve.NewTermQuery(kind)
		term.SetField("kind")
		kindQueries = append(kindQueries, term)
	}
	return bleve.NewConjunctionQuery(nameQuery, bleve.NewDisjunctionQuery(kindQueries...))
}

// Reload builds a fresh index for db and swaps it in.
func (n *nameIndex) Reload(ctx context.Context, db *typedb.Database) error {
	index, err := buildIndex(ctx, db)
	if err != nil {
		return err
	}

	n.mu.Lock()
	old := n.index
	n.index = index
	n.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// Count returns the number of indexed documents.
func (n *nameIndex) Count() (uint64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.index.DocCount()
}

// Close releases resources held by the index.
func (n *nameIndex) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.index != nil {
		return n.index.Close()
	}
	return nil
}
