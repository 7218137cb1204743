package typedb

import "strings"

type paramAnnotation struct {
	name     string
	typ      string
	optional bool
	line     int
}

type returnAnnotation struct {
	name string
	typ  string
	line int
}

// annotations are the marker lines directly above a function declaration,
// in file order.
type annotations struct {
	params     []paramAnnotation
	returns    []returnAnnotation
	modifiers  []string
	typeParams map[string]struct{}
}

// scanAnnotations walks upward from the line above decl while lines are
// param, return or modifier markers, then restores file order.
func (s *fileScan) scanAnnotations(decl int) annotations {
	var ann annotations

	first := decl
	for k := decl - 1; k >= 0; k-- {
		line := s.lines[k]
		if !paramPattern.MatchString(line) && !returnPattern.MatchString(line) && !modifierPattern.MatchString(line) {
			break
		}
		first = k
	}

	for k := first; k < decl; k++ {
		line := s.lines[k]
		switch {
		case paramPattern.MatchString(line):
			pm := paramPattern.FindStringSubmatch(line)
			typ, _ := extractType(pm[2])
			name := pm[1]
			optional := strings.HasSuffix(name, "?")
			ann.params = append(ann.params, paramAnnotation{
				name:     strings.TrimSuffix(name, "?"),
				typ:      typ,
				optional: optional,
				line:     k,
			})
		case returnPattern.MatchString(line):
			rm := returnPattern.FindStringSubmatch(line)
			typ, rest := extractType(rm[1])
			ann.returns = append(ann.returns, returnAnnotation{
				name: returnName(rest),
				typ:  typ,
				line: k,
			})
		default:
			mm := modifierPattern.FindStringSubmatch(line)
			tag := mm[1]
			if tag == "generic" {
				if ann.typeParams == nil {
					ann.typeParams = make(map[string]struct{})
				}
				for _, tp := range strings.Split(mm[2], ",") {
					if fields := strings.Fields(strings.SplitN(tp, ":", 2)[0]); len(fields) > 0 {
						ann.typeParams[fields[0]] = struct{}{}
					}
				}
			}
			if !containsString(ann.modifiers, tag) {
				ann.modifiers = append(ann.modifiers, tag)
			}
		}
	}
	return ann
}

// buildParams creates the parameters of one function or method: annotated
// ones in file order, then declared names left without annotation as any.
func (s *fileScan) buildParams(ann annotations, declared string, decl, ownerID int, methodID *int) []*Parameter {
	params := make([]*Parameter, 0, len(ann.params))
	seen := make(map[string]bool, len(ann.params))

	for _, pa := range ann.params {
		ctx := sigContext{file: s.file, line: pa.line + 1, typeParams: ann.typeParams}
		if pa.typ == "" {
			s.b.diags.warn(s.file, pa.line+1, "parameter %s has no type", pa.name)
		}
		sig := s.b.sigs.parse(pa.typ, ctx)

		param := &Parameter{
			ID:        s.b.memberID(),
			SymbolID:  ownerID,
			MethodID:  methodID,
			Name:      pa.name,
			Type:      pa.typ,
			Signature: sig,
			Optional:  pa.optional || sig.IsOptional,
			Annotated: true,
			File:      s.file,
			Line:      pa.line + 1,
		}
		s.b.refs.track(RefParameter, param.ID, sig)
		params = append(params, param)
		s.b.params = append(s.b.params, param)
		seen[pa.name] = true
	}

	for _, name := range strings.Split(declared, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		param := &Parameter{
			ID:        s.b.memberID(),
			SymbolID:  ownerID,
			MethodID:  methodID,
			Name:      name,
			Type:      "any",
			Signature: primitiveSignature("any"),
			File:      s.file,
			Line:      decl + 1,
		}
		params = append(params, param)
		s.b.params = append(s.b.params, param)
	}
	return params
}

// buildReturns parses every return annotation. The first one is the
// primary return; without any the return is void.
func (s *fileScan) buildReturns(ann annotations, decl int) (*TypeSignature, []*ReturnValue) {
	if len(ann.returns) == 0 {
		return voidSignature(), nil
	}

	returns := make([]*ReturnValue, 0, len(ann.returns))
	for _, ra := range ann.returns {
		ctx := sigContext{file: s.file, line: ra.line + 1, typeParams: ann.typeParams}
		if ra.typ == "" {
			s.b.diags.warn(s.file, ra.line+1, "return of function at line %d has no type", decl+1)
		}
		returns = append(returns, &ReturnValue{
			Name:      ra.name,
			Type:      ra.typ,
			Signature: s.b.sigs.parse(ra.typ, ctx),
			Line:      ra.line + 1,
		})
	}
	return returns[0].Signature, returns
}

// parseGlobalFunction handles function name(...) declarations.
func (s *fileScan) parseGlobalFunction(i int, m []string) int {
	name, declared := m[1], m[2]

	sym := s.b.reg.getOrCreate(KindGlobalFunction, name, i+1, s.file, nil)
	if s.b.defined[sym.ID] {
		s.b.diags.warn(s.file, i+1, "function %s already defined at file %d line %d", name, sym.File, sym.LineStart)
		return i
	}
	s.b.defined[sym.ID] = true

	ann := s.scanAnnotations(i)
	fn := sym.Function
	fn.Params = s.buildParams(ann, declared, i, sym.ID, nil)
	fn.Return, fn.Returns = s.buildReturns(ann, i)
	fn.Signature = s.lines[i]
	fn.Modifiers = ann.modifiers

	for _, r := range fn.Returns {
		s.b.refs.track(RefGlobalFunction, sym.ID, r.Signature)
	}
	return i
}

// returnName extracts the optional name following a return type:
// "---@return T name # description".
func returnName(rest string) string {
	if rest == "" || strings.HasPrefix(rest, "#") {
		return ""
	}
	name := strings.Fields(rest)[0]
	if !identifierPattern.MatchString(name) && name != "..." {
		return ""
	}
	return name
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
