package workbook

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/xuri/excelize/v2"

	"github.com/proteomehub/sdrftable/metatable"
	"github.com/proteomehub/sdrftable/ontology"
)

// Export writes the table as a spreadsheet template: visible columns on
// "main" with a lavender fill, per-column dropdowns, and the legend block,
// hidden columns on "hidden", the column-ID map, and the pool_* sheet
// complement when pools exist and opts.IncludePools is set.
func Export(w io.Writer, t *metatable.Table, opts Options) error {
	if err := metatable.CheckView(opts.Gate, opts.Actor, t.ID); err != nil {
		return pfx.Err(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetMain)
	f.NewSheet(sheetHidden)
	f.NewSheet(sheetIDMap)

	visible := t.VisibleColumns()
	var hidden []*metatable.Column
	for _, c := range t.SortedColumns() {
		if c.Hidden {
			hidden = append(hidden, c)
		}
	}

	if err := writeSampleSheet(f, sheetMain, visible, t, opts, true); err != nil {
		return err
	}
	if len(hidden) > 0 {
		if err := writeSampleSheet(f, sheetHidden, hidden, t, opts, false); err != nil {
			return err
		}
	}
	if err := writeIDMap(f, sheetIDMap, visible, hidden); err != nil {
		return err
	}

	if opts.IncludePools && len(t.Pools) > 0 {
		if err := writePoolSheets(f, t, visible, hidden, opts); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// writeSampleSheet emits one header row plus one row per sample, then
// styling, dropdown validation, and (on the main sheet) the legend block.
func writeSampleSheet(f *excelize.File, sheet string, cols []*metatable.Column, t *metatable.Table, opts Options, withLegend bool) error {
	if len(cols) == 0 {
		return nil
	}

	header := make([]interface{}, len(cols))
	widths := make([]int, len(cols))
	for i, c := range cols {
		header[i] = c.Name
		widths[i] = len(c.Name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return pfx.Err(err)
	}

	for sample := 1; sample <= t.SampleCount; sample++ {
		row := make([]interface{}, len(cols))
		for i, c := range cols {
			v := c.Resolve(sample)
			row[i] = v
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, sample+1)
		if err != nil {
			return pfx.Err(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return pfx.Err(err)
		}
	}

	if err := styleWorkArea(f, sheet, len(cols), t.SampleCount+1); err != nil {
		return err
	}
	for i, width := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return pfx.Err(err)
		}
		if err := f.SetColWidth(sheet, name, name, float64(width+2)); err != nil {
			return pfx.Err(err)
		}
	}

	if withLegend {
		if err := writeLegend(f, sheet, len(cols), t.SampleCount+2); err != nil {
			return err
		}
	}

	return addDropdowns(f, sheet, cols, t.SampleCount, opts.Favourites)
}

func styleWorkArea(f *excelize.File, sheet string, columns, rows int) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6FA"}},
		Border: []excelize.Border{
			{Type: "left", Style: 1, Color: "000000"},
			{Type: "right", Style: 1, Color: "000000"},
			{Type: "top", Style: 1, Color: "000000"},
			{Type: "bottom", Style: 1, Color: "000000"},
		},
	})
	if err != nil {
		return pfx.Err(err)
	}

	last, err := excelize.CoordinatesToCellName(columns, rows)
	if err != nil {
		return pfx.Err(err)
	}
	return pfx.Err(f.SetCellStyle(sheet, "A1", last, style))
}

func writeLegend(f *excelize.File, sheet string, columns, startRow int) error {
	for i, text := range legendTexts {
		row := startRow + i
		left, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return pfx.Err(err)
		}
		right, err := excelize.CoordinatesToCellName(columns, row)
		if err != nil {
			return pfx.Err(err)
		}
		if columns > 1 {
			if err := f.MergeCell(sheet, left, right); err != nil {
				return pfx.Err(err)
			}
		}
		if err := f.SetCellStr(sheet, left, text); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}

// addDropdowns attaches a list validation to every column: the
// empty-cell default first, then the tiered favourite choices.
func addDropdowns(f *excelize.File, sheet string, cols []*metatable.Column, rows int, favs ontology.Favourites) error {
	if rows < 1 {
		return nil
	}
	for i, c := range cols {
		options := []string{metatable.NotAvailable}
		if isRequiredDropdown(c.Name) {
			options = []string{metatable.NotApplicable}
		}
		if favs != nil {
			for _, opt := range favs.Options(bareName(c.Name)) {
				options = append(options, opt.Choice())
			}
		}

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return pfx.Err(err)
		}

		dv := excelize.NewDataValidation(true)
		dv.Sqref = fmt.Sprintf("%s2:%s%d", name, name, rows+1)
		if err := dv.SetDropList(options); err != nil {
			return pfx.Err(err)
		}
		if err := f.AddDataValidation(sheet, dv); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}

// writeIDMap emits the column-ID map: main-sheet entries first, then
// hidden-sheet entries, each with its zero-based sheet position.
func writeIDMap(f *excelize.File, sheet string, visible, hidden []*metatable.Column) error {
	rows := [][]interface{}{{"id", "column", "name", "type", "hidden"}}
	for i, c := range visible {
		rows = append(rows, []interface{}{c.ID, i, c.Name, string(c.Category), false})
	}
	for i, c := range hidden {
		rows = append(rows, []interface{}{c.ID, i, c.Name, string(c.Category), true})
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return pfx.Err(err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}

// writePoolSheets mirrors the sample sheets at pool granularity: one row
// per pool built from its derived column snapshot, plus the object map
// that records exact memberships as JSON arrays.
func writePoolSheets(f *excelize.File, t *metatable.Table, visible, hidden []*metatable.Column, opts Options) error {
	f.NewSheet(sheetPoolMain)
	f.NewSheet(sheetPoolHidden)
	f.NewSheet(sheetPoolIDMap)
	f.NewSheet(sheetPoolObjectMap)

	if err := writePoolDataSheet(f, sheetPoolMain, visible, t, opts.Favourites); err != nil {
		return err
	}
	if len(hidden) > 0 {
		if err := writePoolDataSheet(f, sheetPoolHidden, hidden, t, nil); err != nil {
			return err
		}
	}
	if err := writeIDMap(f, sheetPoolIDMap, visible, hidden); err != nil {
		return err
	}

	rows := [][]interface{}{{"pool_name", "pooled_only_samples", "pooled_and_independent_samples", "is_reference", "sdrf_value"}}
	for _, p := range t.Pools {
		only, err := json.Marshal(emptyAsList(p.PooledOnly))
		if err != nil {
			return pfx.Err(err)
		}
		both, err := json.Marshal(emptyAsList(p.PooledAndIndependent))
		if err != nil {
			return pfx.Err(err)
		}
		rows = append(rows, []interface{}{
			p.Name, string(only), string(both), strconv.FormatBool(p.IsReference), p.SDRFValue(t),
		})
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return pfx.Err(err)
		}
		if err := f.SetSheetRow(sheetPoolObjectMap, cell, &rows[i]); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}

func writePoolDataSheet(f *excelize.File, sheet string, cols []*metatable.Column, t *metatable.Table, favs ontology.Favourites) error {
	if len(cols) == 0 {
		return nil
	}

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return pfx.Err(err)
	}

	for k, p := range t.Pools {
		row := make([]interface{}, len(cols))
		for i, c := range cols {
			if pc := p.ColumnByName(c.Name); pc != nil && pc.DefaultValue != "" {
				row[i] = pc.DefaultValue
				continue
			}
			row[i] = t.DeriveValue(c, p)
		}
		cell, err := excelize.CoordinatesToCellName(1, k+2)
		if err != nil {
			return pfx.Err(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return pfx.Err(err)
		}
	}

	return addDropdowns(f, sheet, cols, len(t.Pools), favs)
}

func emptyAsList(indices []int) []int {
	if indices == nil {
		return []int{}
	}
	return indices
}
