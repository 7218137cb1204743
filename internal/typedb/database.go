package typedb

import (
	"encoding/json"
	"sort"
	"strings"
)

// Database is the immutable result of a build. It is safe for concurrent
// readers. Slices returned by accessors are shared and must not be modified.
type Database struct {
	buildID string

	symbols  []*Symbol // Indexed by id
	byKind   map[SymbolKind][]*Symbol
	byKindID map[SymbolKind]map[int]*Symbol
	byName   map[string][]*Symbol

	// Lower-cased, name-sorted. The "" key indexes every kind.
	nameIndex map[SymbolKind][]NameID

	properties    []*Property
	propertyByID  map[int]*Property
	propertyIndex []NameID

	methods     []*Method
	methodByID  map[int]*Method
	methodIndex []NameID

	params     []*Parameter
	paramByID  map[int]*Parameter
	paramIndex []NameID

	enumValues []*EnumValue

	fileLines [][]string
	fileNames []string

	diags     []Diagnostic
	conflicts []Conflict
}

// Stats summarizes a database.
type Stats struct {
	Files           int `json:"files"`
	Symbols         int `json:"symbols"`
	Classes         int `json:"classes"`
	Enums           int `json:"enums"`
	Aliases         int `json:"aliases"`
	GlobalFunctions int `json:"global_functions"`
	Unknowns        int `json:"unknowns"`
	Properties      int `json:"properties"`
	Methods         int `json:"methods"`
	Parameters      int `json:"parameters"`
	EnumValues      int `json:"enum_values"`
	References      int `json:"references"`
	Diagnostics     int `json:"diagnostics"`
	Conflicts       int `json:"conflicts"`
}

// BuildID uniquely identifies this snapshot.
func (db *Database) BuildID() string { return db.buildID }

// Symbols returns every symbol ordered by id.
func (db *Database) Symbols() []*Symbol { return db.symbols }

// SymbolsOfKind returns the symbols of one kind ordered by id.
func (db *Database) SymbolsOfKind(kind SymbolKind) []*Symbol { return db.byKind[kind] }

func (db *Database) Classes() []*Symbol         { return db.byKind[KindClass] }
func (db *Database) Enums() []*Symbol           { return db.byKind[KindEnum] }
func (db *Database) Aliases() []*Symbol         { return db.byKind[KindAlias] }
func (db *Database) GlobalFunctions() []*Symbol { return db.byKind[KindGlobalFunction] }

// Unknowns returns the symbols that were referenced but never declared.
func (db *Database) Unknowns() []*Symbol { return db.byKind[KindUnknown] }

// Symbol returns the symbol with the given id.
func (db *Database) Symbol(id int) (*Symbol, bool) {
	if id < 0 || id >= len(db.symbols) {
		return nil, false
	}
	return db.symbols[id], true
}

// SymbolOfKind returns the symbol with the given id only if it has kind.
func (db *Database) SymbolOfKind(kind SymbolKind, id int) (*Symbol, bool) {
	sym, ok := db.byKindID[kind][id]
	return sym, ok
}

// Lookup returns every symbol named exactly name. More than one result
// means the name was declared under conflicting kinds.
func (db *Database) Lookup(name string) []*Symbol { return db.byName[name] }

// LookupKind returns the symbol declared as (name, kind).
func (db *Database) LookupKind(name string, kind SymbolKind) (*Symbol, bool) {
	for _, sym := range db.byName[name] {
		if sym.Kind == kind {
			return sym, true
		}
	}
	return nil, false
}

// NameIndex returns the name-sorted index of one kind, or of all kinds
// when kind is empty.
func (db *Database) NameIndex(kind SymbolKind) []NameID { return db.nameIndex[kind] }

// LookupPrefix returns index entries whose lower-cased name starts with
// prefix, ignoring case. An empty kind searches every kind.
func (db *Database) LookupPrefix(kind SymbolKind, prefix string) []NameID {
	return prefixRange(db.nameIndex[kind], strings.ToLower(prefix))
}

// LookupSubstring returns index entries whose name contains s, ignoring case.
// An empty kind searches every kind.
func (db *Database) LookupSubstring(kind SymbolKind, s string) []NameID {
	return substringMatches(db.nameIndex[kind], strings.ToLower(s))
}

// Properties returns every property ordered by id.
func (db *Database) Properties() []*Property { return db.properties }

// Methods returns every method ordered by id.
func (db *Database) Methods() []*Method { return db.methods }

// Parameters returns every parameter ordered by id.
func (db *Database) Parameters() []*Parameter { return db.params }

// EnumValues returns every enum value ordered by id.
func (db *Database) EnumValues() []*EnumValue { return db.enumValues }

func (db *Database) PropertyIndex() []NameID  { return db.propertyIndex }
func (db *Database) MethodIndex() []NameID    { return db.methodIndex }
func (db *Database) ParameterIndex() []NameID { return db.paramIndex }

func (db *Database) Property(id int) (*Property, bool) {
	p, ok := db.propertyByID[id]
	return p, ok
}

func (db *Database) Method(id int) (*Method, bool) {
	m, ok := db.methodByID[id]
	return m, ok
}

func (db *Database) Parameter(id int) (*Parameter, bool) {
	p, ok := db.paramByID[id]
	return p, ok
}

// Referencer returns the symbol that owns the referencing side of ref: the
// class of a property or method, the class or function of a parameter, and
// the symbol itself for function and alias edges.
func (db *Database) Referencer(ref Reference) (*Symbol, bool) {
	switch ref.Kind {
	case RefProperty:
		if p, ok := db.propertyByID[ref.ReferencerID]; ok {
			return db.Symbol(p.SymbolID)
		}
	case RefParameter:
		if p, ok := db.paramByID[ref.ReferencerID]; ok {
			return db.Symbol(p.SymbolID)
		}
	case RefMethod:
		if m, ok := db.methodByID[ref.ReferencerID]; ok {
			return db.Symbol(m.ClassID)
		}
	case RefGlobalFunction, RefAlias:
		return db.Symbol(ref.ReferencerID)
	}
	return nil, false
}

// FileCount returns the number of input files.
func (db *Database) FileCount() int { return len(db.fileLines) }

// FileLines returns the lines of one input file, without terminators.
func (db *Database) FileLines(file int) []string {
	if file < 0 || file >= len(db.fileLines) {
		return nil
	}
	return db.fileLines[file]
}

// FileName returns the label given to a file at build time, if any.
func (db *Database) FileName(file int) string {
	if file < 0 || file >= len(db.fileNames) {
		return ""
	}
	return db.fileNames[file]
}

// Diagnostics returns the anomalies reported during the build in order.
func (db *Database) Diagnostics() []Diagnostic { return db.diags }

// Conflicts returns the names declared under more than one kind.
func (db *Database) Conflicts() []Conflict { return db.conflicts }

// Stats counts the contents of the database.
func (db *Database) Stats() Stats {
	refs := 0
	for _, sym := range db.symbols {
		refs += len(sym.References)
	}
	return Stats{
		Files:           len(db.fileLines),
		Symbols:         len(db.symbols),
		Classes:         len(db.byKind[KindClass]),
		Enums:           len(db.byKind[KindEnum]),
		Aliases:         len(db.byKind[KindAlias]),
		GlobalFunctions: len(db.byKind[KindGlobalFunction]),
		Unknowns:        len(db.byKind[KindUnknown]),
		Properties:      len(db.properties),
		Methods:         len(db.methods),
		Parameters:      len(db.params),
		EnumValues:      len(db.enumValues),
		References:      refs,
		Diagnostics:     len(db.diags),
		Conflicts:       len(db.conflicts),
	}
}

type snapshot struct {
	BuildID     string       `json:"build_id"`
	Files       []string     `json:"files"`
	Stats       Stats        `json:"stats"`
	Symbols     []*Symbol    `json:"symbols"`
	Unknowns    []NameID     `json:"unknowns"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Conflicts   []Conflict   `json:"conflicts"`
}

// MarshalJSON encodes the symbols with their members, the unresolved names,
// diagnostics and conflicts. File contents are omitted.
func (db *Database) MarshalJSON() ([]byte, error) {
	files := make([]string, len(db.fileLines))
	for i := range files {
		files[i] = db.FileName(i)
	}
	return json.Marshal(snapshot{
		BuildID:     db.buildID,
		Files:       files,
		Stats:       db.Stats(),
		Symbols:     db.symbols,
		Unknowns:    db.nameIndex[KindUnknown],
		Diagnostics: db.diags,
		Conflicts:   db.conflicts,
	})
}

// prefixRange binary-searches a sorted index for entries starting with prefix.
func prefixRange(index []NameID, prefix string) []NameID {
	start := sort.Search(len(index), func(i int) bool { return index[i].Name >= prefix })
	end := start
	for end < len(index) && strings.HasPrefix(index[end].Name, prefix) {
		end++
	}
	return index[start:end]
}

func substringMatches(index []NameID, s string) []NameID {
	var out []NameID
	for _, e := range index {
		if strings.Contains(e.Name, s) {
			out = append(out, e)
		}
	}
	return out
}
