package metatable

import "strings"

// isPooledSampleColumn reports whether a column is the reserved "pooled
// sample" column, matched by case-insensitive substring as the SDRF
// ecosystem spells it several ways.
func isPooledSampleColumn(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "pooled sample") || strings.Contains(lower, "pooled_sample")
}

func isSourceNameColumn(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "source name") || strings.Contains(lower, "source_name")
}

// DeriveValue computes the pool-level representative value for one column:
// the pool's SDRF encoding for the "pooled sample" column, the pool name
// for the "source name" column, and otherwise the most frequent resolved
// value among the pool's members, ties broken by first-seen order. A
// column no member holds a value for falls back per its not-applicable
// flag.
func (t *Table) DeriveValue(c *Column, p *Pool) string {
	switch {
	case isPooledSampleColumn(c.Name):
		if p.IsReference {
			return p.SDRFValue(t)
		}
		return "pooled"
	case isSourceNameColumn(c.Name):
		return p.Name
	}

	var values []string
	for _, sample := range p.AllSamples() {
		if v := c.resolveRaw(sample); v != "" {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		if c.NotApplicable {
			return NotApplicable
		}
		return NotAvailable
	}

	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best := values[0]
	for _, v := range values {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

// RefreshPool recomputes every derived column for the pool from the
// table's current columns and replaces the pool's stored snapshot.
// Idempotent: with no intervening table change, a second call produces an
// identical snapshot.
func (t *Table) RefreshPool(p *Pool) {
	cols := t.SortedColumns()
	derived := make([]*Column, 0, len(cols))
	for _, c := range cols {
		derived = append(derived, t.derivePoolColumn(c, p))
	}
	p.Columns = derived
}

// derivePoolColumn clones a table column into its flat pool-level form.
func (t *Table) derivePoolColumn(c *Column, p *Pool) *Column {
	return &Column{
		Name:          c.Name,
		Category:      c.Category,
		DefaultValue:  t.DeriveValue(c, p),
		NotApplicable: c.NotApplicable,
		Hidden:        c.Hidden,
		Mandatory:     c.Mandatory,
		Readonly:      c.Readonly,
		AutoGenerated: c.AutoGenerated,
		OntologyType:  c.OntologyType,
		Template:      c.Template,
		Position:      c.Position,
	}
}
