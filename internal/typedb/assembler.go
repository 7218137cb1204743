package typedb

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Kinds in the order the database partitions them.
var symbolKinds = []SymbolKind{KindClass, KindEnum, KindAlias, KindGlobalFunction, KindUnknown}

// assemble freezes the build state into a Database. It only reads b.
func assemble(b *build, fileLines [][]string, fileNames []string) *Database {
	db := &Database{
		buildID:    uuid.New().String(),
		symbols:    b.reg.symbols,
		byKind:     make(map[SymbolKind][]*Symbol, len(symbolKinds)),
		byKindID:   make(map[SymbolKind]map[int]*Symbol, len(symbolKinds)),
		byName:     make(map[string][]*Symbol, len(b.reg.byName)),
		nameIndex:  make(map[SymbolKind][]NameID, len(symbolKinds)+1),
		properties: b.properties,
		params:     b.params,
		methods:    b.methods,
		enumValues: b.enumValues,
		fileLines:  fileLines,
		fileNames:  fileNames,
		conflicts:  b.reg.conflicts,
		diags:      b.diags.list,
	}
	if db.symbols == nil {
		db.symbols = []*Symbol{}
	}

	for _, kind := range symbolKinds {
		db.byKind[kind] = []*Symbol{}
		db.byKindID[kind] = make(map[int]*Symbol)
	}

	all := make([]NameID, 0, len(db.symbols))
	for _, sym := range db.symbols {
		db.byKind[sym.Kind] = append(db.byKind[sym.Kind], sym)
		db.byKindID[sym.Kind][sym.ID] = sym
		db.byName[sym.Name] = append(db.byName[sym.Name], sym)

		entry := NameID{ID: sym.ID, Name: strings.ToLower(sym.Name), Kind: sym.Kind}
		db.nameIndex[sym.Kind] = append(db.nameIndex[sym.Kind], entry)
		all = append(all, entry)
	}
	db.nameIndex[""] = all

	for kind := range db.nameIndex {
		sortNameIDs(db.nameIndex[kind])
	}
	for _, kind := range symbolKinds {
		if db.nameIndex[kind] == nil {
			db.nameIndex[kind] = []NameID{}
		}
	}

	db.propertyByID = make(map[int]*Property, len(db.properties))
	db.propertyIndex = make([]NameID, 0, len(db.properties))
	for _, p := range db.properties {
		db.propertyByID[p.ID] = p
		db.propertyIndex = append(db.propertyIndex, NameID{ID: p.ID, Name: strings.ToLower(p.Name)})
	}
	sortNameIDs(db.propertyIndex)

	db.methodByID = make(map[int]*Method, len(db.methods))
	db.methodIndex = make([]NameID, 0, len(db.methods))
	for _, m := range db.methods {
		db.methodByID[m.ID] = m
		db.methodIndex = append(db.methodIndex, NameID{ID: m.ID, Name: strings.ToLower(m.Name)})
	}
	sortNameIDs(db.methodIndex)

	db.paramByID = make(map[int]*Parameter, len(db.params))
	db.paramIndex = make([]NameID, 0, len(db.params))
	for _, p := range db.params {
		db.paramByID[p.ID] = p
		db.paramIndex = append(db.paramIndex, NameID{ID: p.ID, Name: strings.ToLower(p.Name)})
	}
	sortNameIDs(db.paramIndex)

	return db
}

func sortNameIDs(ids []NameID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Name != ids[j].Name {
			return ids[i].Name < ids[j].Name
		}
		return ids[i].ID < ids[j].ID
	})
}
