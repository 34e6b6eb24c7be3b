// Package workbook converts metadata tables to and from the multi-sheet
// spreadsheet template format: a styled "main" sheet with dropdowns and a
// trailing legend, a "hidden" sheet for non-visible columns, an
// "id_metadata_column_map" sheet tying column IDs to sheet positions, and
// when pools exist a parallel pool_* sheet complement with JSON-encoded
// member lists in "pool_object_map".
package workbook

import (
	"errors"
	"strings"

	"github.com/proteomehub/sdrftable/metatable"
	"github.com/proteomehub/sdrftable/ontology"
	"github.com/proteomehub/sdrftable/template"
)

const (
	sheetMain          = "main"
	sheetHidden        = "hidden"
	sheetIDMap         = "id_metadata_column_map"
	sheetPoolMain      = "pool_main"
	sheetPoolHidden    = "pool_hidden"
	sheetPoolIDMap     = "pool_id_metadata_column_map"
	sheetPoolObjectMap = "pool_object_map"
)

// ErrMissingRequiredSheet reports a workbook without the "main" or
// "id_metadata_column_map" sheet. Fatal for the whole import.
var ErrMissingRequiredSheet = errors.New("workbook: missing required sheet")

// legendMarkers introduce the presentation-only note block appended below
// the data rows on export. Rows at or after the first marker row never
// re-enter the matrix on import.
var legendMarkers = []string{"Note:", "[*]", "[**]", "[***]"}

var legendTexts = []string{
	"Note: Empty cells will be filled with 'not applicable' or 'not available' when submitted.",
	"[*] User-specific favourite options.",
	"[**] Lab group-recommended options.",
	"[***] Global recommendations.",
}

func isLegendRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.TrimSpace(row[0])
	for _, marker := range legendMarkers {
		if strings.HasPrefix(first, marker) {
			return true
		}
	}
	return false
}

// trimLegend drops every row at or after the first legend-marker row.
func trimLegend(rows [][]string) [][]string {
	for i, row := range rows {
		if isLegendRow(row) {
			return rows[:i]
		}
	}
	return rows
}

// requiredDropdownNames are the columns whose dropdown defaults to
// "not applicable"; every other column defaults to "not available".
var requiredDropdownNames = map[string]struct{}{
	"tissue":        {},
	"organism part": {},
	"disease":       {},
	"species":       {},
}

// bareName strips the type[name] wrapper from a column name.
func bareName(name string) string {
	open := strings.Index(name, "[")
	if open < 0 || !strings.HasSuffix(name, "]") {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return strings.ToLower(strings.TrimSpace(name[open+1 : len(name)-1]))
}

func isRequiredDropdown(name string) bool {
	_, ok := requiredDropdownNames[bareName(name)]
	return ok
}

// Options carries the collaborators shared by export and import.
type Options struct {
	// Actor and Gate, when set, guard the operation with a permission
	// check: view for export, edit for import.
	Actor string
	Gate  metatable.Gate

	// IncludePools adds the pool_* sheets on export when pools exist.
	IncludePools bool

	// Favourites feeds dropdown options on export and resolves marked
	// cell values on import. Optional.
	Favourites ontology.Favourites

	// Registry supplies column templates for classification inheritance
	// and schema-based reordering on import. Optional.
	Registry *template.Registry

	// Lookup rewrites free-text cell values into NT=/AC= ontology form
	// on import. Optional.
	Lookup ontology.Lookup

	// Replace drops every existing column and pool before importing.
	Replace bool
}

// Result summarizes one workbook import.
type Result struct {
	ColumnsCreated int
	ColumnsUpdated int
	SampleCount    int
	PoolsImported  int
	Warnings       []string
}

// idMapEntry is one row of an id_metadata_column_map sheet: a column's
// ID, its zero-based position within its sheet, and its classification.
type idMapEntry struct {
	ID     int64
	Column int
	Name   string
	Type   string
	Hidden bool
}

func normalizeCell(col *metatable.Column, cell string, opts Options) string {
	if opts.Favourites != nil {
		cell = ontology.ResolveMarked(col.Name, cell, opts.Favourites)
	}
	if opts.Lookup != nil && col.OntologyType != "" {
		cell = ontology.Normalize(col.Name, col.OntologyType, cell, opts.Lookup)
	}
	return cell
}
