package typedb

import (
	"regexp"
	"strings"
)

var enumEntryPattern = regexp.MustCompile(`^\[?["']?([A-Za-z_][A-Za-z0-9_]*)["']?\]?\s*=\s*(.+)$`)

// parseEnum handles ---@enum Name followed by a table of name = value
// entries. The block ends on the line holding the closing brace.
func (s *fileScan) parseEnum(i int, m []string) int {
	enum := s.b.reg.getOrCreate(KindEnum, m[1], i+1, s.file, nil)
	fresh := enum.LineStart == i+1 && enum.File == s.file
	if !fresh {
		s.b.diags.info(s.file, i+1, "enum %s already declared at file %d line %d", enum.Name, enum.File, enum.LineStart)
	}

	last := s.scanEnumBody(enum, i)
	if fresh {
		enum.LineEnd = last + 1
	}
	return last
}

func (s *fileScan) scanEnumBody(enum *Symbol, i int) int {
	open := false
	for j := i + 1; j < len(s.lines); j++ {
		if endsBlock(s.lines[j]) {
			if !open {
				s.b.diags.warn(s.file, i+1, "enum %s has no table body", enum.Name)
			} else {
				s.b.diags.warn(s.file, i+1, "enum %s is missing its closing brace", enum.Name)
			}
			return j - 1
		}
		line := stripLineComment(s.lines[j])
		if line == "" {
			continue
		}

		if !open {
			idx := strings.IndexByte(line, '{')
			if idx == -1 {
				s.b.diags.warn(s.file, j+1, "enum %s has no table body", enum.Name)
				return j
			}
			open = true
			line = line[idx+1:]
		}

		body, closed := line, false
		if idx := strings.IndexByte(line, '}'); idx >= 0 {
			body, closed = line[:idx], true
		}
		s.addEnumEntries(enum, j, body)
		if closed {
			return j
		}
	}

	s.b.diags.warn(s.file, i+1, "enum %s is missing its closing brace", enum.Name)
	return len(s.lines) - 1
}

// addEnumEntries records every name = value pair in text, which may hold
// several comma-separated entries.
func (s *fileScan) addEnumEntries(enum *Symbol, j int, text string) {
	for _, entry := range strings.Split(text, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		em := enumEntryPattern.FindStringSubmatch(entry)
		if em == nil {
			s.b.diags.warn(s.file, j+1, "enum %s: unrecognized entry %q", enum.Name, entry)
			continue
		}
		value := &EnumValue{
			ID:       s.b.memberID(),
			SymbolID: enum.ID,
			Name:     em[1],
			Value:    strings.TrimSpace(em[2]),
			File:     s.file,
			Line:     j + 1,
		}
		enum.Enum.Values = append(enum.Enum.Values, value)
		s.b.enumValues = append(s.b.enumValues, value)
	}
}

// stripLineComment removes a trailing "--" comment from a code line.
// Comment-only lines become empty.
func stripLineComment(line string) string {
	if idx := strings.Index(line, "--"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}
