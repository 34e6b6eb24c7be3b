package workbook

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/xuri/excelize/v2"

	"github.com/proteomehub/sdrftable/metatable"
)

// Import reads a workbook back into the table. Columns are reconstructed
// from the ID map (matched to existing columns by name, type, and
// occurrence), per-sample values from the main and hidden sheets are
// compacted, pools are rebuilt from pool_object_map with their derived
// rows from the pool sheets, and columns are reordered.
func Import(r io.Reader, t *metatable.Table, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	sheets := make(map[string][][]string)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, pfx.Err(err)
		}
		sheets[name] = rows
	}

	return importSheets(sheets, t, opts)
}

// importSheets is the format-independent half of the import, shared with
// the legacy .xls reader.
func importSheets(sheets map[string][][]string, t *metatable.Table, opts Options) (*Result, error) {
	if err := metatable.CheckEdit(opts.Gate, opts.Actor, t.ID); err != nil {
		return nil, pfx.Err(err)
	}

	mainRows, ok := sheets[sheetMain]
	if !ok {
		return nil, pfx.Err(fmt.Errorf("%w: %s", ErrMissingRequiredSheet, sheetMain))
	}
	idMapRows, ok := sheets[sheetIDMap]
	if !ok {
		return nil, pfx.Err(fmt.Errorf("%w: %s", ErrMissingRequiredSheet, sheetIDMap))
	}

	var mainHeaders []string
	var mainData [][]string
	if len(mainRows) > 0 {
		mainHeaders = mainRows[0]
		mainData = trimLegend(mainRows[1:])
	}

	var hiddenData [][]string
	if hiddenRows := sheets[sheetHidden]; len(hiddenRows) > 1 {
		hiddenData = trimLegend(hiddenRows[1:])
	}

	entries, err := parseIDMap(idMapRows)
	if err != nil {
		return nil, err
	}

	// Main and hidden rows pair up by sample; hidden columns index past
	// the main sheet's width in the combined row.
	hiddenOffset := len(mainHeaders)
	allData := combineRows(mainData, hiddenData, hiddenOffset)

	if len(allData) > 0 {
		t.SampleCount = len(allData)
	}

	if opts.Replace {
		t.Columns = nil
		t.Pools = nil
	}

	result := &Result{SampleCount: t.SampleCount}

	occurrence := make(map[string]int)
	for _, entry := range entries {
		category, name := metatable.ParseHeader(entry.Name)
		if entry.Type != "" {
			category = metatable.Category(entry.Type)
		}
		occurrence[name]++

		col := t.ColumnByOccurrence(name, occurrence[name])
		if col == nil {
			col = t.AddColumn(metatable.ColumnSpec{Name: name, Category: category, Hidden: entry.Hidden}, opts.Registry)
			result.ColumnsCreated++
		} else {
			col.Hidden = entry.Hidden
			result.ColumnsUpdated++
		}

		idx := entry.Column
		if entry.Hidden {
			idx += hiddenOffset
		}

		values := make(map[int]string, len(allData))
		for j, row := range allData {
			cell := cellAt(row, idx)
			if cell == "" {
				continue
			}
			if strings.EqualFold(cell, metatable.NotApplicable) {
				col.NotApplicable = true
				continue
			}
			values[j+1] = normalizeCell(col, cell, opts)
		}
		col.DefaultValue, col.Modifiers = metatable.Compact(values)
	}

	if specs, err := parsePoolSheets(sheets, t); err != nil {
		return nil, err
	} else if len(specs) > 0 {
		if err := t.SyncPoolsWithImport(specs); err != nil {
			return nil, pfx.Err(err)
		}
		result.PoolsImported = len(specs)
	}

	t.Reorder(opts.Registry)

	return result, nil
}

func parseIDMap(rows [][]string) ([]idMapEntry, error) {
	var entries []idMapEntry
	for i, row := range rows {
		if i == 0 || len(row) < 5 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("workbook: bad column id %q: %w", row[0], err))
		}
		column, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("workbook: bad column index %q: %w", row[1], err))
		}
		hidden, _ := strconv.ParseBool(strings.ToLower(strings.TrimSpace(row[4])))

		entries = append(entries, idMapEntry{
			ID:     id,
			Column: column,
			Name:   strings.TrimSpace(row[2]),
			Type:   strings.TrimSpace(row[3]),
			Hidden: hidden,
		})
	}
	return entries, nil
}

// combineRows concatenates paired main and hidden rows, padding every
// main row to mainWidth so hidden cells land at a stable offset.
func combineRows(main, hidden [][]string, mainWidth int) [][]string {
	n := len(main)
	if len(hidden) > n {
		n = len(hidden)
	}

	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, mainWidth)
		if i < len(main) {
			copy(row, main[i])
		}
		if i < len(hidden) {
			row = append(row, hidden[i]...)
		}
		out[i] = row
	}
	return out
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parsePoolSheets turns pool_object_map rows into sync specs. Pool data
// rows, when present, carry each pool's derived values; without them the
// pool sync falls back to whole-table aggregation.
func parsePoolSheets(sheets map[string][][]string, t *metatable.Table) ([]metatable.PoolSpec, error) {
	objectRows := sheets[sheetPoolObjectMap]
	if len(objectRows) < 2 {
		return nil, nil
	}

	var poolEntries []idMapEntry
	if rows := sheets[sheetPoolIDMap]; len(rows) > 1 {
		var err error
		poolEntries, err = parseIDMap(rows)
		if err != nil {
			return nil, err
		}
	}

	var poolMainData, poolHiddenData [][]string
	if rows := sheets[sheetPoolMain]; len(rows) > 1 {
		poolMainData = rows[1:]
	}
	var poolMainWidth int
	if rows := sheets[sheetPoolMain]; len(rows) > 0 {
		poolMainWidth = len(rows[0])
	}
	if rows := sheets[sheetPoolHidden]; len(rows) > 1 {
		poolHiddenData = rows[1:]
	}
	poolData := combineRows(poolMainData, poolHiddenData, poolMainWidth)

	var specs []metatable.PoolSpec
	for k, row := range objectRows[1:] {
		name := cellAt(row, 0)
		if name == "" {
			name = fmt.Sprintf("Pool %d", len(specs)+1)
		}

		only, err := parseIndexList(cellAt(row, 1))
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("workbook: pool %q pooled_only_samples: %w", name, err))
		}
		both, err := parseIndexList(cellAt(row, 2))
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("workbook: pool %q pooled_and_independent_samples: %w", name, err))
		}
		isReference, _ := strconv.ParseBool(strings.ToLower(cellAt(row, 3)))

		spec := metatable.PoolSpec{
			Name:                 name,
			PooledOnly:           only,
			PooledAndIndependent: both,
			IsReference:          isReference,
			SDRFValue:            cellAt(row, 4),
		}

		if k < len(poolData) && len(poolEntries) > 0 {
			spec.MetadataRow = alignPoolRow(t, poolEntries, poolData[k], poolMainWidth)
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

func parseIndexList(cell string) ([]int, error) {
	if cell == "" {
		return nil, nil
	}
	var out []int
	if err := json.Unmarshal([]byte(cell), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// alignPoolRow reindexes one pool data row from its sheet layout (main
// columns then hidden columns) into the table's sorted column order.
func alignPoolRow(t *metatable.Table, entries []idMapEntry, row []string, hiddenOffset int) []string {
	byName := make(map[string][]idMapEntry)
	for _, e := range entries {
		_, name := metatable.ParseHeader(e.Name)
		byName[name] = append(byName[name], e)
	}

	sorted := t.SortedColumns()
	out := make([]string, len(sorted))
	taken := make(map[string]int)

	for i, c := range sorted {
		_, name := metatable.ParseHeader(c.Name)
		candidates := byName[name]
		if taken[name] >= len(candidates) {
			continue
		}
		entry := candidates[taken[name]]
		taken[name]++

		idx := entry.Column
		if entry.Hidden {
			idx += hiddenOffset
		}
		out[i] = cellAt(row, idx)
	}
	return out
}
