package metatable

import (
	"sort"
	"strings"

	"github.com/proteomehub/sdrftable/template"
)

// Reorder repositions every column. Schema ordering applies when any
// column carries a template reference tied to a known schema; otherwise
// columns fall back to basic section ordering. Positions only — values are
// never touched.
func (t *Table) Reorder(reg *template.Registry) {
	schemas := make(map[string]struct{})
	for _, c := range t.Columns {
		if c.Template != nil && c.Template.Schema != "" {
			schemas[c.Template.Schema] = struct{}{}
		}
	}

	if len(schemas) > 0 && reg != nil {
		names := make([]string, 0, len(schemas))
		for s := range schemas {
			names = append(names, s)
		}
		sort.Strings(names)
		t.ReorderBySchema(reg.SchemaSections(names...))
		return
	}

	t.BasicReorder()
}

// sectionOrder is the fixed SDRF section sequence for reordering.
var sectionOrder = []string{"source_name", "characteristics", "special", "comment", "factor_value"}

func sectionOf(name string) string {
	switch CategoryOf(name) {
	case CategorySourceName:
		return "source_name"
	case CategoryCharacteristics:
		return "characteristics"
	case CategoryComment:
		return "comment"
	case CategoryFactorValue:
		return "factor_value"
	}
	return "special"
}

// ReorderBySchema assigns positions section by section: schema-listed
// names first in schema order, then the section's remaining columns in
// their current relative order.
func (t *Table) ReorderBySchema(sections map[string][]string) {
	bySection := make(map[string][]*Column)
	for _, c := range t.SortedColumns() {
		s := sectionOf(c.Name)
		bySection[s] = append(bySection[s], c)
	}

	position := 0
	for _, section := range sectionOrder {
		remaining := bySection[section]
		placed := make(map[*Column]struct{})

		for _, schemaName := range sections[section] {
			for _, c := range remaining {
				if _, done := placed[c]; done {
					continue
				}
				if strings.EqualFold(c.Name, schemaName) {
					c.Position = position
					position++
					placed[c] = struct{}{}
				}
			}
		}

		for _, c := range remaining {
			if _, done := placed[c]; done {
				continue
			}
			c.Position = position
			position++
		}
	}
}

// BasicReorder repositions columns by SDRF section alone, preserving the
// current relative order inside each section.
func (t *Table) BasicReorder() {
	t.ReorderBySchema(map[string][]string{})
}
