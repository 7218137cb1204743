package typedb

import "strings"

// parseClass handles ---@class Name [: Parent] and its fields and methods.
// The block ends on the line before the next class, enum, alias or global
// function marker, or on the last line of the file.
func (s *fileScan) parseClass(i int, m []string) int {
	name, parentName := m[1], m[2]

	var parent *Symbol
	if parentName != "" {
		parent = s.b.reg.getOrCreate(KindUnknown, parentName, i+1, s.file, nil)
	}

	class := s.b.reg.getOrCreate(KindClass, name, i+1, s.file, nil)
	if class.LineStart != i+1 || class.File != s.file {
		// Redeclared class: members accumulate on the first declaration.
		s.b.diags.info(s.file, i+1, "class %s already declared at file %d line %d", name, class.File, class.LineStart)
	}

	if parent != nil {
		if parent.ID == class.ID {
			s.b.diags.warn(s.file, i+1, "class %s cannot inherit from itself", name)
		} else {
			s.b.reg.linkChild(parent, class)
		}
	}

	last := len(s.lines) - 1
	for j := i + 1; j < len(s.lines); j++ {
		line := s.lines[j]
		if endsBlock(line) {
			last = j - 1
			break
		}

		if fm := fieldPattern.FindStringSubmatch(line); fm != nil {
			s.addProperty(class, j, fm)
			continue
		}
		if mm := methodPattern.FindStringSubmatch(line); mm != nil {
			s.addMethod(j, mm)
		}
	}

	if class.LineStart == i+1 && class.File == s.file {
		class.LineEnd = last + 1
	}
	return last
}

// addProperty records a ---@field line on class.
func (s *fileScan) addProperty(class *Symbol, j int, fm []string) {
	scope, name := fm[1], fm[2]
	typ, _ := extractType(fm[3])

	optional := false
	if strings.HasSuffix(name, "?") {
		name = strings.TrimSuffix(name, "?")
		optional = true
	}

	if typ == "" {
		s.b.diags.warn(s.file, j+1, "field %s.%s has no type", class.Name, name)
	}

	sig := s.b.sigs.parse(typ, s.ctx(j))
	prop := &Property{
		ID:        s.b.memberID(),
		SymbolID:  class.ID,
		Name:      name,
		Type:      typ,
		Signature: sig,
		Optional:  optional || sig.IsOptional,
		Scope:     scope,
		File:      s.file,
		Line:      j + 1,
	}
	s.b.refs.track(RefProperty, prop.ID, sig)

	if class.Class != nil {
		class.Class.Properties = append(class.Class.Properties, prop)
	}
	s.b.properties = append(s.b.properties, prop)
}

// addMethod records the method declared on line j on its owner class.
// Owners that are not declared classes drop the method with a diagnostic.
func (s *fileScan) addMethod(j int, mm []string) {
	ownerName, sep, name, declared := mm[1], mm[2], mm[3], mm[4]

	owner, ok := s.b.reg.lookup(KindClass, ownerName)
	if !ok {
		s.b.diags.warn(s.file, j+1, "method %s%s%s declared on unknown class %s", ownerName, sep, name, ownerName)
		return
	}

	ann := s.scanAnnotations(j)
	method := &Method{
		ID:        s.b.memberID(),
		ClassID:   owner.ID,
		Name:      name,
		Static:    sep == ".",
		Modifiers: ann.modifiers,
		File:      s.file,
		Line:      j + 1,
	}
	methodID := method.ID

	method.Params = s.buildParams(ann, declared, j, owner.ID, &methodID)
	method.Return, method.Returns = s.buildReturns(ann, j)
	for _, r := range method.Returns {
		s.b.refs.track(RefMethod, method.ID, r.Signature)
	}

	owner.Class.Methods = append(owner.Class.Methods, method)
	s.b.methods = append(s.b.methods, method)
}

// parseTopLevelMethod handles method declarations outside any class block.
func (s *fileScan) parseTopLevelMethod(i int, m []string) int {
	s.addMethod(i, m)
	return i
}
