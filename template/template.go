// Package template holds the library of named column templates that imports
// match against to inherit ontology and validation metadata.
package template

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// Template is a reusable column definition. Columns created from a template
// inherit its ontology type and behavior flags, and carry a reference back
// to it so later imports can recognize the schema family in use.
type Template struct {
	Name            string `csv:"name"`
	Category        string `csv:"category"`
	OntologyType    string `csv:"ontology_type"`
	OntologySources string `csv:"ontology_sources"` // semicolon-separated
	Schema          string `csv:"schema"`
	Hidden          bool   `csv:"hidden"`
	Mandatory       bool   `csv:"mandatory"`
	Readonly        bool   `csv:"readonly"`
	AutoGenerated   bool   `csv:"auto_generated"`
}

// Sources splits the semicolon-separated ontology source list.
func (t *Template) Sources() []string {
	if t.OntologySources == "" {
		return nil
	}
	parts := strings.Split(t.OntologySources, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Registry is a lookup of templates keyed by normalized column name. A nil
// Registry matches nothing, so callers can pass one through unconditionally.
type Registry struct {
	byName map[string][]*Template
	all    []*Template
}

// NewRegistry builds a registry over the given templates.
func NewRegistry(templates ...*Template) *Registry {
	r := &Registry{byName: make(map[string][]*Template)}
	for _, t := range templates {
		r.add(t)
	}
	return r
}

func (r *Registry) add(t *Template) {
	key := normalize(t.Name)
	r.byName[key] = append(r.byName[key], t)
	r.all = append(r.all, t)
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", " ")
}

// Match returns the template for the given column name, exact
// case-insensitive match only. Nil when there is no match.
func (r *Registry) Match(name string) *Template {
	if r == nil {
		return nil
	}
	candidates := r.byName[normalize(name)]
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// Templates returns every registered template.
func (r *Registry) Templates() []*Template {
	if r == nil {
		return nil
	}
	return r.all
}

// Narrow biases matching toward the schema family already in use. Given the
// templates referenced by a table's existing columns, it counts how many of
// each schema's templates appear in that set and returns a registry limited
// to the best-overlapping schema. With no overlap it returns r unchanged.
func (r *Registry) Narrow(existing []*Template) *Registry {
	if r == nil || len(existing) == 0 {
		return r
	}

	used := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		if t != nil {
			used[normalize(t.Name)] = struct{}{}
		}
	}

	counts := make(map[string]int)
	for _, t := range r.all {
		if t.Schema == "" {
			continue
		}
		if _, ok := used[normalize(t.Name)]; ok {
			counts[t.Schema]++
		}
	}

	bestSchema, bestCount := "", 0
	schemas := make([]string, 0, len(counts))
	for s := range counts {
		schemas = append(schemas, s)
	}
	sort.Strings(schemas)
	for _, s := range schemas {
		if counts[s] > bestCount {
			bestSchema, bestCount = s, counts[s]
		}
	}
	if bestCount == 0 {
		return r
	}

	narrowed := NewRegistry()
	for _, t := range r.all {
		if t.Schema == bestSchema {
			narrowed.add(t)
		}
	}
	return narrowed
}

// SchemaSections compiles the column ordering sections used for
// schema-driven reordering: section name to ordered column names, first
// occurrence wins across the requested schemas. When no schemas are named,
// every schema in the registry contributes.
func (r *Registry) SchemaSections(schemas ...string) map[string][]string {
	sections := map[string][]string{
		"source_name":     nil,
		"characteristics": nil,
		"special":         nil,
		"comment":         nil,
		"factor_value":    nil,
	}
	if r == nil {
		return sections
	}

	wanted := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		wanted[s] = true
	}

	seen := make(map[string]struct{})
	for _, t := range r.all {
		if len(schemas) > 0 && !wanted[t.Schema] {
			continue
		}
		name := normalize(t.Name)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		switch {
		case name == "source name":
			sections["source_name"] = append(sections["source_name"], name)
		case strings.HasPrefix(name, "characteristics["):
			sections["characteristics"] = append(sections["characteristics"], name)
		case strings.HasPrefix(name, "comment["):
			sections["comment"] = append(sections["comment"], name)
		case strings.HasPrefix(name, "factor value["):
			sections["factor_value"] = append(sections["factor_value"], name)
		default:
			sections["special"] = append(sections["special"], name)
		}
	}
	return sections
}

// LoadTSV reads a tab-separated template library into a Registry.
func LoadTSV(in io.Reader) (*Registry, error) {
	// Tell gocsv to use tab as the delimiter
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})

	var templates []*Template
	if err := gocsv.Unmarshal(in, &templates); err != nil {
		return nil, pfx.Err(err)
	}

	return NewRegistry(templates...), nil
}
