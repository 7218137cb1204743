// Package search finds symbols and members of a typedb snapshot by name,
// either with a linear substring or regex filter or through a bleve index
// supporting prefix, fuzzy and wildcard queries.
package search

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mvp-joe/typedb/internal/typedb"
)

// ErrInvalidPattern indicates a regex filter that does not compile
var ErrInvalidPattern = errors.New("invalid search pattern")

// Filters selects which collections a filter search visits.
type Filters struct {
	Classes         bool `json:"include_classes" mapstructure:"include_classes"`
	Enums           bool `json:"include_enums" mapstructure:"include_enums"`
	Aliases         bool `json:"include_aliases" mapstructure:"include_aliases"`
	GlobalFunctions bool `json:"include_global_functions" mapstructure:"include_global_functions"`
	Properties      bool `json:"include_properties" mapstructure:"include_properties"`
	Methods         bool `json:"include_methods" mapstructure:"include_methods"`
	Parameters      bool `json:"include_parameters" mapstructure:"include_parameters"`
	Regex           bool `json:"is_regex" mapstructure:"is_regex"` // Treat the query as a regular expression
}

// DefaultFilters searches declared symbols only, by case-insensitive substring.
func DefaultFilters() Filters {
	return Filters{
		Classes:         true,
		Enums:           true,
		Aliases:         true,
		GlobalFunctions: true,
	}
}

// Results groups filter matches by collection. Each group is sorted by name.
type Results struct {
	Entities   []*typedb.Symbol    `json:"entities"`
	Properties []*typedb.Property  `json:"properties"`
	Methods    []*typedb.Method    `json:"methods"`
	Parameters []*typedb.Parameter `json:"parameters"`
}

// Total returns the number of matches across all groups.
func (r *Results) Total() int {
	return len(r.Entities) + len(r.Properties) + len(r.Methods) + len(r.Parameters)
}

func emptyResults() *Results {
	return &Results{
		Entities:   []*typedb.Symbol{},
		Properties: []*typedb.Property{},
		Methods:    []*typedb.Method{},
		Parameters: []*typedb.Parameter{},
	}
}

// Filter matches names in db against query. An empty query matches nothing.
func Filter(db *typedb.Database, query string, filters Filters) (*Results, error) {
	results := emptyResults()
	if db == nil || query == "" {
		return results, nil
	}

	match, err := newMatcher(query, filters.Regex)
	if err != nil {
		return nil, err
	}

	kinds := []struct {
		include bool
		kind    typedb.SymbolKind
	}{
		{filters.Classes, typedb.KindClass},
		{filters.Enums, typedb.KindEnum},
		{filters.Aliases, typedb.KindAlias},
		{filters.GlobalFunctions, typedb.KindGlobalFunction},
	}
	for _, k := range kinds {
		if !k.include {
			continue
		}
		for _, sym := range db.SymbolsOfKind(k.kind) {
			if match(sym.Name) {
				results.Entities = append(results.Entities, sym)
			}
		}
	}
	sort.SliceStable(results.Entities, func(i, j int) bool {
		return nameLess(results.Entities[i].Name, results.Entities[j].Name)
	})

	if filters.Properties {
		for _, p := range db.Properties() {
			if match(p.Name) {
				results.Properties = append(results.Properties, p)
			}
		}
		sort.SliceStable(results.Properties, func(i, j int) bool {
			return nameLess(results.Properties[i].Name, results.Properties[j].Name)
		})
	}

	if filters.Methods {
		for _, m := range db.Methods() {
			if match(m.Name) {
				results.Methods = append(results.Methods, m)
			}
		}
		sort.SliceStable(results.Methods, func(i, j int) bool {
			return nameLess(results.Methods[i].Name, results.Methods[j].Name)
		})
	}

	if filters.Parameters {
		for _, p := range db.Parameters() {
			if match(p.Name) {
				results.Parameters = append(results.Parameters, p)
			}
		}
		sort.SliceStable(results.Parameters, func(i, j int) bool {
			return nameLess(results.Parameters[i].Name, results.Parameters[j].Name)
		})
	}

	return results, nil
}

func newMatcher(query string, isRegex bool) (func(string) bool, error) {
	if isRegex {
		re, err := regexp.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		return re.MatchString, nil
	}

	lower := strings.ToLower(query)
	return func(s string) bool {
		return strings.Contains(strings.ToLower(s), lower)
	}, nil
}

// nameLess orders case-insensitively, falling back to byte order.
func nameLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
