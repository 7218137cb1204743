package typedb

import "strings"

// parseAlias handles both alias forms. A simple alias carries its type inline:
//
//	---@alias Handle integer
//
// A complex alias lists one option per following line:
//
//	---@alias Mode
//	---| "read"  # open for reading
//	---| "write"
func (s *fileScan) parseAlias(i int, m []string) int {
	alias := s.b.reg.getOrCreate(KindAlias, m[1], i+1, s.file, nil)
	fresh := alias.LineStart == i+1 && alias.File == s.file
	if !fresh {
		s.b.diags.info(s.file, i+1, "alias %s already declared at file %d line %d", alias.Name, alias.File, alias.LineStart)
	}

	if inline := strings.TrimSpace(m[2]); inline != "" {
		typ, rest := extractType(inline)
		s.addAliasValue(alias, i, typ, description(rest))
		return i
	}

	last := i
	for j := i + 1; j < len(s.lines); j++ {
		line := s.lines[j]
		if om := optionPattern.FindStringSubmatch(line); om != nil {
			s.addAliasOption(alias, j, om[1])
			last = j
			continue
		}
		if endsBlock(line) || isCode(line) {
			break
		}
	}

	if last == i {
		s.b.diags.warn(s.file, i+1, "alias %s has no options", alias.Name)
	}
	if fresh {
		alias.LineEnd = last + 1
	}
	return last
}

// addAliasOption parses the text after "---|". Backticks around the type and
// the ">" / "+" default markers are dropped.
func (s *fileScan) addAliasOption(alias *Symbol, j int, text string) {
	text = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(text), ">+"))
	typ, rest := extractType(text)
	typ = strings.Trim(typ, "`")
	if typ == "" {
		s.b.diags.warn(s.file, j+1, "alias %s: empty option", alias.Name)
		return
	}
	s.addAliasValue(alias, j, typ, description(rest))
}

func (s *fileScan) addAliasValue(alias *Symbol, j int, typ, desc string) {
	sig := s.b.sigs.parse(typ, s.ctx(j))
	alias.Alias.Values = append(alias.Alias.Values, &AliasValue{
		Type:        typ,
		Signature:   sig,
		Description: desc,
		Line:        j + 1,
	})
	s.b.refs.track(RefAlias, alias.ID, sig)
}

// description returns the text after a "#" marker, or rest itself.
func description(rest string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "#"))
}
