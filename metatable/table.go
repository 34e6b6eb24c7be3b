package metatable

import (
	"fmt"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/proteomehub/sdrftable/ontology"
	"github.com/proteomehub/sdrftable/samplerange"
	"github.com/proteomehub/sdrftable/template"
)

// Table is an ordered collection of columns over a fixed number of
// samples, plus the sample pools derived from it. Sample indices are
// 1-based and stable for the table's lifetime.
type Table struct {
	ID          int64
	Name        string
	SampleCount int
	Columns     []*Column
	Pools       []*Pool

	nextColumnID int64
	nextPoolID   int64
}

// New creates an empty table.
func New(name string, sampleCount int) *Table {
	return &Table{Name: name, SampleCount: sampleCount}
}

func (t *Table) allocColumnID() int64 {
	t.nextColumnID++
	return t.nextColumnID
}

func (t *Table) allocPoolID() int64 {
	t.nextPoolID++
	return t.nextPoolID
}

// SyncIDCounters moves the internal ID counters past every existing
// column and pool ID. Callers rebuilding a table from persisted state use
// this so later adds never reissue an ID.
func (t *Table) SyncIDCounters() {
	for _, c := range t.Columns {
		if c.ID > t.nextColumnID {
			t.nextColumnID = c.ID
		}
	}
	for _, p := range t.Pools {
		if p.ID > t.nextPoolID {
			t.nextPoolID = p.ID
		}
	}
}

// SortedColumns returns the columns ordered by position, name as the
// tiebreaker, matching the export ordering.
func (t *Table) SortedColumns() []*Column {
	out := append([]*Column(nil), t.Columns...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// VisibleColumns returns the sorted non-hidden columns.
func (t *Table) VisibleColumns() []*Column {
	var out []*Column
	for _, c := range t.SortedColumns() {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// ColumnByID finds a column by its ID, nil when absent.
func (t *Table) ColumnByID(id int64) *Column {
	for _, c := range t.Columns {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ColumnsByName returns every column with the given name,
// case-insensitive, ordered by position. The same name may legitimately
// appear several times (e.g. repeated comment[modification parameters]).
func (t *Table) ColumnsByName(name string) []*Column {
	var out []*Column
	for _, c := range t.SortedColumns() {
		if strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
	}
	return out
}

// ColumnByOccurrence returns the nth (1-based) column with the given name,
// nil when fewer occurrences exist.
func (t *Table) ColumnByOccurrence(name string, occurrence int) *Column {
	matches := t.ColumnsByName(name)
	if occurrence < 1 || occurrence > len(matches) {
		return nil
	}
	return matches[occurrence-1]
}

// TemplateRefs collects the template references carried by the table's
// columns, for schema-family narrowing during import.
func (t *Table) TemplateRefs() []*template.Template {
	var out []*template.Template
	for _, c := range t.Columns {
		if c.Template != nil {
			out = append(out, c.Template)
		}
	}
	return out
}

// ColumnSpec describes a column to add. Zero Position means append;
// Category is derived from the name when empty.
type ColumnSpec struct {
	Name          string
	Category      Category
	DefaultValue  string
	NotApplicable bool
	Hidden        bool
	Mandatory     bool
	Readonly      bool
	AutoGenerated bool
	OntologyType  string
	Position      *int
}

// AddColumn appends a column at the next free position (or inserts at
// spec.Position, shifting neighbors). When the registry matches the name,
// the new column inherits the template's classification metadata. The
// change propagates to every existing pool.
func (t *Table) AddColumn(spec ColumnSpec, reg *template.Registry) *Column {
	position := len(t.Columns)
	if spec.Position != nil {
		position = *spec.Position
		for _, c := range t.Columns {
			if c.Position >= position {
				c.Position++
			}
		}
	}

	category := spec.Category
	if category == "" {
		category = CategoryOf(spec.Name)
	}

	col := &Column{
		ID:            t.allocColumnID(),
		Name:          spec.Name,
		Category:      category,
		DefaultValue:  spec.DefaultValue,
		NotApplicable: spec.NotApplicable,
		Hidden:        spec.Hidden,
		Mandatory:     spec.Mandatory,
		Readonly:      spec.Readonly,
		AutoGenerated: spec.AutoGenerated,
		OntologyType:  spec.OntologyType,
		Position:      position,
	}

	if tpl := reg.Narrow(t.TemplateRefs()).Match(spec.Name); tpl != nil {
		col.Template = tpl
		if col.OntologyType == "" {
			col.OntologyType = tpl.OntologyType
		}
		col.Hidden = col.Hidden || tpl.Hidden
		col.Mandatory = col.Mandatory || tpl.Mandatory
		col.Readonly = col.Readonly || tpl.Readonly
		col.AutoGenerated = col.AutoGenerated || tpl.AutoGenerated
	} else if col.OntologyType == "" {
		col.OntologyType = ontology.DetectType(spec.Name)
	}

	t.Columns = append(t.Columns, col)
	t.syncColumnToPools(col, syncAdd)

	return col
}

// RemoveColumn deletes a column by ID, shifts later positions down, and
// removes the matching derived column from every pool.
func (t *Table) RemoveColumn(id int64) error {
	for i, c := range t.Columns {
		if c.ID != id {
			continue
		}

		t.syncColumnToPools(c, syncRemove)

		removedPosition := c.Position
		t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
		for _, other := range t.Columns {
			if other.Position > removedPosition {
				other.Position--
			}
		}
		return nil
	}
	return pfx.Err(fmt.Errorf("%w: column %d", ErrNotFound, id))
}

// MoveColumn repositions a column, shifting the columns between the old
// and new position by one.
func (t *Table) MoveColumn(id int64, newPosition int) error {
	col := t.ColumnByID(id)
	if col == nil {
		return pfx.Err(fmt.Errorf("%w: column %d", ErrNotFound, id))
	}

	if max := len(t.Columns) - 1; newPosition > max {
		newPosition = max
	}
	if newPosition < 0 {
		newPosition = 0
	}

	old := col.Position
	if old == newPosition {
		return nil
	}

	for _, c := range t.Columns {
		switch {
		case old < newPosition && c.Position > old && c.Position <= newPosition:
			c.Position--
		case old > newPosition && c.Position >= newPosition && c.Position < old:
			c.Position++
		}
	}
	col.Position = newPosition
	return nil
}

// NormalizePositions renumbers columns sequentially from 0 with no gaps.
func (t *Table) NormalizePositions() {
	for i, c := range t.SortedColumns() {
		c.Position = i
	}
}

// Cell pairs a column with the value one sample resolves to.
type Cell struct {
	Column *Column
	Value  string
}

// ResolveRow resolves the full row for one sample over the sorted columns.
func (t *Table) ResolveRow(sample int) []Cell {
	cols := t.SortedColumns()
	out := make([]Cell, 0, len(cols))
	for _, c := range cols {
		out = append(out, Cell{Column: c, Value: c.Resolve(sample)})
	}
	return out
}

// SampleRange describes the table's sample span as a range string.
func (t *Table) SampleRange() string {
	if t.SampleCount > 0 {
		return fmt.Sprintf("1-%d", t.SampleCount)
	}
	return "0"
}

// ChangeSampleIndex renumbers one sample, rewriting every modifier range
// and every pool membership that references it.
func (t *Table) ChangeSampleIndex(oldIndex, newIndex int) error {
	if oldIndex < 1 || newIndex < 1 {
		return pfx.Err(fmt.Errorf("%w: sample indices are 1-based", ErrValidationFailure))
	}
	if oldIndex > t.SampleCount || newIndex > t.SampleCount {
		return pfx.Err(fmt.Errorf("%w: index beyond sample count %d", ErrValidationFailure, t.SampleCount))
	}
	if oldIndex == newIndex {
		return nil
	}

	for _, c := range t.Columns {
		for i, m := range c.Modifiers {
			indices := samplerange.DecodeLenient(m.Samples)
			if !indices.Contains(oldIndex) {
				continue
			}
			replaced := make([]int, 0, len(indices))
			for _, v := range indices {
				if v == oldIndex {
					v = newIndex
				}
				replaced = append(replaced, v)
			}
			c.Modifiers[i].Samples = samplerange.Encode(replaced)
		}
	}

	for _, p := range t.Pools {
		p.PooledOnly = replaceIndex(p.PooledOnly, oldIndex, newIndex)
		p.PooledAndIndependent = replaceIndex(p.PooledAndIndependent, oldIndex, newIndex)
	}

	return nil
}

func replaceIndex(indices []int, oldIndex, newIndex int) []int {
	changed := false
	for i, v := range indices {
		if v == oldIndex {
			indices[i] = newIndex
			changed = true
		}
	}
	if changed {
		return samplerange.New(indices...)
	}
	return indices
}

// Clone deep-copies the table, its columns, and its pools.
func (t *Table) Clone() *Table {
	out := *t
	out.Columns = make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	out.Pools = make([]*Pool, len(t.Pools))
	for i, p := range t.Pools {
		out.Pools[i] = p.Clone()
	}
	return &out
}
