package typedb

import (
	"regexp"
	"strings"
	"unicode"
)

// defaultPrimitives is the fixed primitive vocabulary. Any other token is a
// symbol reference.
var defaultPrimitives = []string{
	// Basic types
	"bool", "boolean", "integer", "int", "int8", "int16", "int32", "int64",
	"uint8", "uint16", "uint32", "uint64", "byte", "float", "double",
	"string", "char", "wchar", "void",

	// Container and meta names
	"TArray", "TMap", "TSet", "array", "map", "set", "function", "union",

	// Sized integers
	"int8_t", "int16_t", "int32_t", "int64_t",
	"uint8_t", "uint16_t", "uint32_t", "uint64_t", "size_t", "ssize_t",

	// Engine strings
	"FName", "FText", "FString",

	// Lua built-ins
	"any", "nil", "number", "table", "userdata", "lightuserdata", "thread",
	"unknown", "self", "true", "false",
}

// Generic container names by the kind they produce.
var containerKinds = map[string]SignatureKind{
	"TArray": SigArray,
	"array":  SigArray,
	"Array":  SigArray,
	"TMap":   SigMap,
	"map":    SigMap,
	"Map":    SigMap,
	"table":  SigMap,
	"TSet":   SigSet,
	"set":    SigSet,
	"Set":    SigSet,
}

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	numberPattern     = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
)

// sigContext carries the location and local type parameters of one parse.
type sigContext struct {
	file       int
	line       int
	typeParams map[string]struct{}
}

// signatureParser turns raw type strings into TypeSignatures, resolving every
// non-primitive token through the registry.
type signatureParser struct {
	reg        *registry
	diags      *diagnostics
	primitives map[string]struct{}
}

func newSignatureParser(reg *registry, diags *diagnostics, extra []string) *signatureParser {
	prims := make(map[string]struct{}, len(defaultPrimitives)+len(extra))
	for _, p := range defaultPrimitives {
		prims[p] = struct{}{}
	}
	for _, p := range extra {
		prims[p] = struct{}{}
	}
	return &signatureParser{reg: reg, diags: diags, primitives: prims}
}

func (p *signatureParser) isPrimitive(name string) bool {
	_, ok := p.primitives[name]
	return ok
}

// parse parses raw into a signature. It never fails; malformed input
// degrades and is reported as a diagnostic.
func (p *signatureParser) parse(raw string, ctx sigContext) *TypeSignature {
	sig := p.parseNormalized(normalizeType(raw), ctx)
	sig.Raw = strings.TrimSpace(raw)
	return sig
}

func (p *signatureParser) parseNormalized(t string, ctx sigContext) *TypeSignature {
	if t == "" {
		p.diags.warn(ctx.file, ctx.line, "missing type")
		return primitiveSignature("any")
	}

	if alternatives := splitTopLevel(t, '|'); len(alternatives) > 1 {
		return p.parseUnion(t, alternatives, ctx)
	}

	if len(t) > 1 && strings.HasSuffix(t, "?") {
		inner := p.parseNormalized(t[:len(t)-1], ctx)
		sig := newSignature(t, SigOptional)
		sig.IsOptional = true
		sig.Parts = []*TypeSignature{inner}
		mergeRefs(sig, inner)
		return sig
	}

	if t[0] == '(' && matchingClose(t, 0) == len(t)-1 {
		return p.parseNormalized(t[1:len(t)-1], ctx)
	}

	if len(t) > 2 && strings.HasSuffix(t, "[]") {
		inner := p.parseNormalized(t[:len(t)-2], ctx)
		sig := newSignature(t, SigArray)
		sig.Parts = []*TypeSignature{inner}
		mergeRefs(sig, inner)
		return sig
	}

	if strings.HasPrefix(t, "fun(") {
		return p.parseFunction(t, ctx)
	}

	if t[0] == '{' {
		return p.parseTableLiteral(t, ctx)
	}

	if idx := strings.IndexByte(t, '<'); idx > 0 {
		return p.parseGeneric(t, idx, ctx)
	}

	return p.parseIdentifier(t, ctx)
}

func (p *signatureParser) parseUnion(t string, alternatives []string, ctx sigContext) *TypeSignature {
	sig := newSignature(t, SigUnion)
	for _, alt := range alternatives {
		part := p.parseNormalized(alt, ctx)
		if part.IsOptional {
			sig.IsOptional = true
		}
		if part.Kind == SigOptional && len(part.Parts) == 1 {
			part = part.Parts[0]
		}
		if part.Kind == SigPrimitive && part.Raw == "nil" {
			sig.IsOptional = true
		}
		sig.Parts = append(sig.Parts, part)
		mergeRefs(sig, part)
	}
	return sig
}

func (p *signatureParser) parseGeneric(t string, open int, ctx sigContext) *TypeSignature {
	name := t[:open]
	kind, isContainer := containerKinds[name]

	degrade := func(reason string) *TypeSignature {
		p.diags.warn(ctx.file, ctx.line, "malformed generic %q: %s", t, reason)
		if isContainer {
			return newSignature(t, kind)
		}
		return p.symbolSignature(t, name, ctx)
	}

	closeIdx := matchingClose(t, open)
	if closeIdx == -1 {
		return degrade("unbalanced brackets")
	}
	if closeIdx != len(t)-1 {
		return degrade("unexpected text after closing bracket")
	}

	content := t[open+1 : closeIdx]
	if content == "" {
		return degrade("missing type arguments")
	}
	args := splitTopLevel(content, ',')
	for _, arg := range args {
		if arg == "" {
			return degrade("empty type argument")
		}
	}

	if isContainer {
		want := 1
		if kind == SigMap {
			want = 2
		}
		if len(args) != want {
			return degrade("wrong number of type arguments")
		}
	}

	var sig *TypeSignature
	if isContainer {
		sig = newSignature(t, kind)
	} else {
		sig = p.symbolSignature(t, name, ctx)
	}
	for _, arg := range args {
		part := p.parseNormalized(arg, ctx)
		sig.Parts = append(sig.Parts, part)
		mergeRefs(sig, part)
	}
	return sig
}

// parseFunction handles fun(a:T, b:U):R. Interior types are parsed only to
// collect their references; the text itself is kept verbatim.
func (p *signatureParser) parseFunction(t string, ctx sigContext) *TypeSignature {
	sig := newSignature(t, SigFunction)
	sig.Function = t

	closeIdx := matchingClose(t, 3)
	if closeIdx == -1 {
		p.diags.warn(ctx.file, ctx.line, "malformed function type %q: unbalanced parentheses", t)
		return sig
	}

	var types []string
	for _, param := range splitTopLevel(t[4:closeIdx], ',') {
		if i := indexTopLevel(param, ':'); i >= 0 {
			types = append(types, param[i+1:])
		}
	}
	rest := t[closeIdx+1:]
	if strings.HasPrefix(rest, ":") {
		types = append(types, splitTopLevel(rest[1:], ',')...)
	}

	for _, typ := range types {
		if typ == "" {
			continue
		}
		mergeRefs(sig, p.parseNormalized(typ, ctx))
	}
	return sig
}

// parseTableLiteral handles {[K]: V, name: T}. Only references are kept.
func (p *signatureParser) parseTableLiteral(t string, ctx sigContext) *TypeSignature {
	sig := newSignature(t, SigPrimitive)

	closeIdx := matchingClose(t, 0)
	if closeIdx != len(t)-1 {
		p.diags.warn(ctx.file, ctx.line, "malformed table type %q: unbalanced braces", t)
		return sig
	}

	for _, entry := range splitTopLevel(t[1:closeIdx], ',') {
		i := indexTopLevel(entry, ':')
		if i < 0 {
			continue
		}
		key, value := entry[:i], entry[i+1:]
		if strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]") && len(key) > 2 {
			mergeRefs(sig, p.parseNormalized(key[1:len(key)-1], ctx))
		}
		if value != "" {
			mergeRefs(sig, p.parseNormalized(value, ctx))
		}
	}
	return sig
}

func (p *signatureParser) parseIdentifier(t string, ctx sigContext) *TypeSignature {
	switch {
	case isQuoted(t) || numberPattern.MatchString(t):
		return newSignature(t, SigLiteral)
	case ctx.typeParams != nil && hasKey(ctx.typeParams, t):
		return newSignature(t, SigTypeParameter)
	case p.isPrimitive(t):
		return primitiveSignature(t)
	case identifierPattern.MatchString(t):
		return p.symbolSignature(t, t, ctx)
	}

	p.diags.warn(ctx.file, ctx.line, "unrecognized type %q", t)
	return primitiveSignature("any")
}

func (p *signatureParser) symbolSignature(raw, name string, ctx sigContext) *TypeSignature {
	sym := p.reg.getOrCreate(KindUnknown, name, ctx.line, ctx.file, nil)
	id := sym.ID
	sig := newSignature(raw, SigSymbol)
	sig.SymbolID = &id
	sig.Refs[name] = id
	return sig
}

func newSignature(raw string, kind SignatureKind) *TypeSignature {
	return &TypeSignature{Raw: raw, Kind: kind, Refs: map[string]int{}}
}

func primitiveSignature(name string) *TypeSignature {
	return newSignature(name, SigPrimitive)
}

func voidSignature() *TypeSignature {
	return primitiveSignature("void")
}

func mergeRefs(dst, src *TypeSignature) {
	for token, id := range src.Refs {
		dst.Refs[token] = id
	}
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

func isQuoted(t string) bool {
	if len(t) < 2 {
		return false
	}
	first, last := t[0], t[len(t)-1]
	return first == last && (first == '"' || first == '\'' || first == '`')
}

func isOpen(c byte) bool  { return c == '<' || c == '(' || c == '[' || c == '{' }
func isClose(c byte) bool { return c == '>' || c == ')' || c == ']' || c == '}' }

// matchingClose returns the index of the bracket closing the one at open,
// or -1 when the text is unbalanced. All bracket families share one depth
// counter.
func matchingClose(t string, open int) int {
	depth := 0
	for i := open; i < len(t); i++ {
		switch {
		case isOpen(t[i]):
			depth++
		case isClose(t[i]):
			depth--
			if depth == 0 {
				return i
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}

// splitTopLevel splits t on sep occurrences at bracket depth zero.
func splitTopLevel(t string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(t); i++ {
		switch c := t[i]; {
		case isOpen(c):
			depth++
		case isClose(c):
			depth--
		case c == sep && depth == 0:
			parts = append(parts, t[start:i])
			start = i + 1
		}
	}
	return append(parts, t[start:])
}

// indexTopLevel returns the first index of c at bracket depth zero, or -1.
func indexTopLevel(t string, c byte) int {
	depth := 0
	for i := 0; i < len(t); i++ {
		switch {
		case isOpen(t[i]):
			depth++
		case isClose(t[i]):
			depth--
		case t[i] == c && depth == 0:
			return i
		}
	}
	return -1
}

// normalizeType collapses whitespace and drops it next to punctuation, so
// "TMap < Key , Value >" becomes "TMap<Key,Value>".
func normalizeType(raw string) string {
	fields := strings.FieldsFunc(raw, unicode.IsSpace)
	var b strings.Builder
	for i, f := range fields {
		if i > 0 && !isTypePunct(f[0]) && !isTypePunct(fields[i-1][len(fields[i-1])-1]) {
			b.WriteByte(' ')
		}
		b.WriteString(f)
	}
	return b.String()
}

func isTypePunct(c byte) bool {
	return isOpen(c) || isClose(c) || strings.IndexByte("|,:?", c) >= 0
}

// extractType reads the type expression at the start of s and returns it
// with the remaining text (name or description). Whitespace ends the type
// only at bracket depth zero and not next to a joining token such as "|",
// "," or ":", so "A | B desc" yields "A | B".
func extractType(s string) (typ, rest string) {
	s = strings.TrimSpace(s)
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isOpen(c):
			depth++
		case isClose(c):
			depth--
		case depth <= 0 && (c == ' ' || c == '\t'):
			prev := s[i-1]
			j := i
			for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				j++
			}
			if j < len(s) && (strings.IndexByte("|,:", prev) >= 0 || s[j] == '|') {
				i = j - 1
				continue
			}
			return s[:i], strings.TrimSpace(s[i:])
		}
	}
	return s, ""
}
