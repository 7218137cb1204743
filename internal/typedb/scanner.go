package typedb

import (
	"regexp"
	"strings"
)

// RuleName identifies a line pattern.
type RuleName string

const (
	RuleClass          RuleName = "class"
	RuleEnum           RuleName = "enum"
	RuleAlias          RuleName = "alias"
	RuleMethod         RuleName = "method"
	RuleGlobalFunction RuleName = "function"
	RuleField          RuleName = "field"
	RuleParam          RuleName = "param"
	RuleReturn         RuleName = "return"
)

var (
	classPattern  = regexp.MustCompile(`^---@class\s+(?:\(exact\)\s+)?([A-Za-z0-9_.]+)(?:\s*:\s*([A-Za-z0-9_.]+))?`)
	enumPattern   = regexp.MustCompile(`^---@enum\s+(?:\(key\)\s+)?([A-Za-z0-9_.]+)`)
	aliasPattern  = regexp.MustCompile(`^---@alias\s+([A-Za-z0-9_.]+)(?:\s+(\S.*))?$`)
	methodPattern = regexp.MustCompile(`^function\s+([A-Za-z0-9_.]+)([:.])([A-Za-z0-9_]+)\s*\(([^)]*)\)`)
	globalPattern = regexp.MustCompile(`^function\s+([A-Za-z0-9_]+)\s*\(([^)]*)\)`)

	fieldPattern  = regexp.MustCompile(`^---@field\s+(?:(public|private|protected|package)\s+)?([A-Za-z0-9_]+\??|\[[^\]]+\])(?:\s+(.*))?$`)
	paramPattern  = regexp.MustCompile(`^---@param\s+([A-Za-z0-9_]+\??|\.\.\.\??)(?:\s+(.*))?$`)
	returnPattern = regexp.MustCompile(`^---@return(?:\s+(.*))?$`)

	optionPattern   = regexp.MustCompile(`^---\|\s*(.*)$`)
	modifierPattern = regexp.MustCompile(`^---@(async|nodiscard|deprecated|overload|generic|private|protected|package|see)\b\s*(.*)$`)
)

// blockHandler consumes the block starting at line i and returns the index
// of the last line it consumed.
type blockHandler func(s *fileScan, i int, m []string) int

type lineRule struct {
	name    RuleName
	pattern *regexp.Regexp
	handler blockHandler
}

// topLevelRules is evaluated in order for every scanned line; the first
// match wins. method precedes function so Owner.name is never a global.
var topLevelRules = []lineRule{
	{RuleClass, classPattern, (*fileScan).parseClass},
	{RuleEnum, enumPattern, (*fileScan).parseEnum},
	{RuleAlias, aliasPattern, (*fileScan).parseAlias},
	{RuleMethod, methodPattern, (*fileScan).parseTopLevelMethod},
	{RuleGlobalFunction, globalPattern, (*fileScan).parseGlobalFunction},
}

// memberRules are only evaluated inside block sub-scans.
var memberRules = []lineRule{
	{name: RuleField, pattern: fieldPattern},
	{name: RuleParam, pattern: paramPattern},
	{name: RuleReturn, pattern: returnPattern},
}

// MatchTopLevel reports which top-level rule matches line, if any, with the
// submatches of its pattern.
func MatchTopLevel(line string) (RuleName, []string, bool) {
	rule, m := matchRules(topLevelRules, normalizeLine(line))
	if rule == nil {
		return "", nil, false
	}
	return rule.name, m, true
}

// MatchMember reports which member rule (field, param, return) matches line.
func MatchMember(line string) (RuleName, []string, bool) {
	rule, m := matchRules(memberRules, normalizeLine(line))
	if rule == nil {
		return "", nil, false
	}
	return rule.name, m, true
}

func matchRules(rules []lineRule, line string) (*lineRule, []string) {
	for i := range rules {
		if m := rules[i].pattern.FindStringSubmatch(line); m != nil {
			return &rules[i], m
		}
	}
	return nil, nil
}

// endsBlock reports whether line starts a new class, enum, alias or global
// function, all of which close an open block.
func endsBlock(line string) bool {
	return classPattern.MatchString(line) ||
		enumPattern.MatchString(line) ||
		aliasPattern.MatchString(line) ||
		globalPattern.MatchString(line)
}

// isCode reports whether line is non-blank and not a comment.
func isCode(line string) bool {
	return line != "" && !strings.HasPrefix(line, "--")
}

func normalizeLine(line string) string {
	return strings.TrimRight(strings.TrimLeft(line, " \t"), " \t\r")
}

// splitLines splits text on "\n" and drops a trailing "\r" from every line.
func splitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// fileScan walks one file. Line indexes are 0-based internally and reported
// 1-based.
type fileScan struct {
	b     *build
	file  int
	raw   []string
	lines []string // Leading whitespace trimmed
}

func newFileScan(b *build, file int, raw []string) *fileScan {
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = normalizeLine(l)
	}
	return &fileScan{b: b, file: file, raw: raw, lines: lines}
}

// run dispatches every line exactly once against the top-level rules.
func (s *fileScan) run() {
	for i := 0; i < len(s.lines); i++ {
		rule, m := matchRules(topLevelRules, s.lines[i])
		if rule == nil {
			continue
		}
		last := rule.handler(s, i, m)
		if last > i {
			i = last
		}
	}
}

func (s *fileScan) ctx(i int) sigContext {
	return sigContext{file: s.file, line: i + 1}
}
