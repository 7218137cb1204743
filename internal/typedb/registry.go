package typedb

// symbolKey is the composite (name, kind) identity of a symbol.
type symbolKey struct {
	name string
	kind SymbolKind
}

// edgeKey identifies one reference edge for deduplication.
type edgeKey struct {
	target     int
	referencer int
	kind       ReferenceKind
}

// registry owns symbol identity for a single build. It is never shared
// between builds and is discarded once the database is assembled.
type registry struct {
	symbols []*Symbol
	byKey   map[symbolKey]*Symbol
	byName  map[string][]*Symbol // Declaration order

	// Children linked while the parent was not (yet) a class.
	pendingChildren map[int][]int

	edges     map[edgeKey]struct{}
	conflicts []Conflict
	diags     *diagnostics
}

func newRegistry(diags *diagnostics) *registry {
	return &registry{
		byKey:           make(map[symbolKey]*Symbol),
		byName:          make(map[string][]*Symbol),
		pendingChildren: make(map[int][]int),
		edges:           make(map[edgeKey]struct{}),
		conflicts:       []Conflict{},
		diags:           diags,
	}
}

// getOrCreate returns the symbol for (name, kind), promoting an Unknown
// placeholder or creating a new symbol when needed. When kind is Unknown the
// request is a type reference and any existing symbol with that name is
// returned. referencedBy, when non-nil, is recorded as an edge on the result.
func (r *registry) getOrCreate(kind SymbolKind, name string, line, file int, referencedBy *Reference) *Symbol {
	sym := r.resolve(kind, name, line, file)
	if referencedBy != nil {
		r.addReference(sym, *referencedBy)
	}
	return sym
}

func (r *registry) resolve(kind SymbolKind, name string, line, file int) *Symbol {
	if kind == KindUnknown {
		if existing := r.byName[name]; len(existing) > 0 {
			return existing[0]
		}
		return r.create(KindUnknown, name, line, file)
	}

	if sym, ok := r.byKey[symbolKey{name, kind}]; ok {
		return sym
	}

	if placeholder, ok := r.byKey[symbolKey{name, KindUnknown}]; ok {
		r.promote(placeholder, kind, line, file)
		return placeholder
	}

	sym := r.create(kind, name, line, file)
	if existing := r.byName[name]; len(existing) > 1 {
		first := existing[0]
		r.conflicts = append(r.conflicts, Conflict{
			Name:         name,
			ExistingID:   first.ID,
			ExistingKind: first.Kind,
			DeclaredID:   sym.ID,
			DeclaredKind: kind,
			File:         file,
			Line:         line,
		})
		r.diags.warn(file, line, "%s declared as %s but already declared as %s", name, kind, first.Kind)
	}
	return sym
}

// lookup returns the symbol registered under exactly (name, kind).
func (r *registry) lookup(kind SymbolKind, name string) (*Symbol, bool) {
	sym, ok := r.byKey[symbolKey{name, kind}]
	return sym, ok
}

func (r *registry) create(kind SymbolKind, name string, line, file int) *Symbol {
	sym := &Symbol{
		ID:         len(r.symbols),
		Name:       name,
		Kind:       kind,
		File:       file,
		LineStart:  line,
		LineEnd:    line,
		References: []Reference{},
	}
	initPayload(sym)

	r.symbols = append(r.symbols, sym)
	r.byKey[symbolKey{name, kind}] = sym
	r.byName[name] = append(r.byName[name], sym)
	return sym
}

// promote upgrades a placeholder in place. The id and every edge recorded
// while it was Unknown are kept; the location moves to the declaration.
func (r *registry) promote(sym *Symbol, kind SymbolKind, line, file int) {
	delete(r.byKey, symbolKey{sym.Name, KindUnknown})

	sym.Kind = kind
	sym.File = file
	sym.LineStart = line
	sym.LineEnd = line
	initPayload(sym)
	r.byKey[symbolKey{sym.Name, kind}] = sym

	if kind == KindClass {
		if pending, ok := r.pendingChildren[sym.ID]; ok {
			sym.Class.Children = append(sym.Class.Children, pending...)
			delete(r.pendingChildren, sym.ID)
		}
	}
}

// linkChild records parent -> child inheritance.
func (r *registry) linkChild(parent, child *Symbol) {
	if child.Class != nil {
		id := parent.ID
		child.Class.ParentID = &id
		child.Class.HasParent = true
	}

	if parent.Class != nil {
		if !containsID(parent.Class.Children, child.ID) {
			parent.Class.Children = append(parent.Class.Children, child.ID)
		}
		return
	}
	if !containsID(r.pendingChildren[parent.ID], child.ID) {
		r.pendingChildren[parent.ID] = append(r.pendingChildren[parent.ID], child.ID)
	}
}

// addReference appends ref to target unless the same edge already exists.
func (r *registry) addReference(target *Symbol, ref Reference) bool {
	key := edgeKey{target: target.ID, referencer: ref.ReferencerID, kind: ref.Kind}
	if _, ok := r.edges[key]; ok {
		return false
	}
	r.edges[key] = struct{}{}
	target.References = append(target.References, ref)
	return true
}

// initPayload gives sym the empty containers of its kind.
func initPayload(sym *Symbol) {
	sym.Class, sym.Enum, sym.Alias, sym.Function = nil, nil, nil, nil

	switch sym.Kind {
	case KindClass:
		sym.Class = &ClassInfo{
			Children:   []int{},
			Properties: []*Property{},
			Methods:    []*Method{},
		}
	case KindEnum:
		sym.Enum = &EnumInfo{Values: []*EnumValue{}}
	case KindAlias:
		sym.Alias = &AliasInfo{Values: []*AliasValue{}}
	case KindGlobalFunction:
		sym.Function = &FunctionInfo{
			Params: []*Parameter{},
			Return: voidSignature(),
		}
	}
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
