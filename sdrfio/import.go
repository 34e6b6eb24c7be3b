package sdrfio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/proteomehub/sdrftable/metatable"
	"github.com/proteomehub/sdrftable/ontology"
	"github.com/proteomehub/sdrftable/template"
)

// ImportOptions controls SDRF ingestion.
type ImportOptions struct {
	// Actor and Gate, when set, guard the import with an edit check.
	Actor string
	Gate  metatable.Gate

	// Registry supplies column templates for classification inheritance
	// and schema-based reordering. Optional.
	Registry *template.Registry

	// Favourites resolves "[id] Display[*]" marked cell values back to
	// their stored form. Optional.
	Favourites ontology.Favourites

	// Lookup rewrites free-text cell values into NT=/AC= ontology form.
	// Optional; cells pass through untouched without it.
	Lookup ontology.Lookup

	// Replace drops every existing column and pool before importing.
	Replace bool

	// SkipPools leaves the table's pools untouched even when the input
	// carries pool rows.
	SkipPools bool
}

// ImportResult summarizes one import.
type ImportResult struct {
	ColumnsCreated int
	ColumnsUpdated int
	SampleCount    int
	PoolsImported  int
	Warnings       []string
}

// Import reads SDRF text into the table: columns are matched by name and
// occurrence (created when absent), per-sample values are compacted into
// the default/modifier encoding, pool rows are reconciled through the
// pool sync, and columns are reordered. The table's sample count wins
// over the row count; extra rows are truncated and missing rows padded.
func Import(r io.Reader, t *metatable.Table, opts ImportOptions) (*ImportResult, error) {
	if err := metatable.CheckEdit(opts.Gate, opts.Actor, t.ID); err != nil {
		return nil, pfx.Err(err)
	}

	headers, rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	pooledIdx, sourceIdx := -1, -1
	for i, h := range headers {
		if pooledIdx < 0 && isPooledSampleHeader(h) {
			pooledIdx = i
		}
		if sourceIdx < 0 && isSourceNameHeader(h) {
			sourceIdx = i
		}
	}

	// Explicit SN= rows leave the sample matrix entirely; rows marked
	// "pooled" stay in place and feed one inferred pool.
	var snRows [][]string
	var pooledRows []int
	kept := rows[:0]
	for _, row := range rows {
		cell := cellAt(row, pooledIdx)
		switch {
		case strings.HasPrefix(cell, "SN="):
			snRows = append(snRows, row)
		default:
			if strings.EqualFold(cell, "pooled") {
				pooledRows = append(pooledRows, len(kept))
			}
			kept = append(kept, row)
		}
	}

	if t.SampleCount == 0 {
		t.SampleCount = len(kept)
	}
	for len(kept) < t.SampleCount {
		kept = append(kept, make([]string, len(headers)))
	}
	if len(kept) > t.SampleCount {
		kept = kept[:t.SampleCount]
		trimmed := pooledRows[:0]
		for _, idx := range pooledRows {
			if idx < t.SampleCount {
				trimmed = append(trimmed, idx)
			}
		}
		pooledRows = trimmed
	}

	if opts.Replace {
		t.Columns = nil
		t.Pools = nil
	}

	result := &ImportResult{SampleCount: t.SampleCount}

	cols := make([]*metatable.Column, len(headers))
	occurrence := make(map[string]int, len(headers))
	for i, header := range headers {
		category, name := metatable.ParseHeader(header)
		occurrence[name]++

		if col := t.ColumnByOccurrence(name, occurrence[name]); col != nil {
			cols[i] = col
			continue
		}
		cols[i] = t.AddColumn(metatable.ColumnSpec{Name: name, Category: category}, opts.Registry)
		result.ColumnsCreated++
	}

	for i, col := range cols {
		values := make(map[int]string, len(kept))
		for j, row := range kept {
			cell := cellAt(row, i)
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
		result.ColumnsUpdated++
	}

	if !opts.SkipPools && pooledIdx >= 0 {
		specs := buildPoolSpecs(t, cols, kept, snRows, pooledRows, pooledIdx, sourceIdx, result)
		if len(specs) > 0 {
			if err := t.SyncPoolsWithImport(specs); err != nil {
				return nil, pfx.Err(err)
			}
			result.PoolsImported = len(specs)
		}
	}

	t.Reorder(opts.Registry)

	return result, nil
}

// readRows splits SDRF text into a header and data rows. SDRF is plain
// tab-separated text with no quoting, so a line scanner beats a CSV
// reader here.
func readRows(r io.Reader) (headers []string, rows [][]string, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if headers == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			headers = strings.Split(line, "\t")
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, pfx.Err(err)
	}
	if headers == nil {
		return nil, nil, pfx.Err(ErrEmptyDocument)
	}
	return headers, rows, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// normalizeCell runs a raw SDRF cell through favourite-marker resolution
// and ontology normalization, when the options carry the collaborators.
func normalizeCell(col *metatable.Column, cell string, opts ImportOptions) string {
	if opts.Favourites != nil {
		cell = ontology.ResolveMarked(col.Name, cell, opts.Favourites)
	}
	if opts.Lookup != nil && col.OntologyType != "" {
		cell = ontology.Normalize(col.Name, col.OntologyType, cell, opts.Lookup)
	}
	return cell
}

// buildPoolSpecs converts the partitioned pool rows into sync specs.
// Explicit SN= rows become reference pools whose members are recovered by
// matching the listed source names against the kept sample rows; with no
// SN= rows, the "pooled" rows form one inferred non-reference pool.
func buildPoolSpecs(t *metatable.Table, cols []*metatable.Column, kept [][]string, snRows [][]string, pooledRows []int, pooledIdx, sourceIdx int, result *ImportResult) []metatable.PoolSpec {
	if len(snRows) > 0 {
		specs := make([]metatable.PoolSpec, 0, len(snRows))
		for k, row := range snRows {
			sdrf := cellAt(row, pooledIdx)
			listed := strings.Split(strings.TrimPrefix(sdrf, "SN="), ",")
			wanted := make(map[string]bool, len(listed))
			for _, name := range listed {
				if name = strings.TrimSpace(name); name != "" {
					wanted[name] = false
				}
			}

			name := cellAt(row, sourceIdx)
			if name == "" {
				name = fmt.Sprintf("Pool %d", k+1)
			}

			var pooledOnly, pooledAndIndependent []int
			for j, sampleRow := range kept {
				source := cellAt(sampleRow, sourceIdx)
				if _, ok := wanted[source]; !ok {
					continue
				}
				wanted[source] = true

				// A member row that still claims independence keeps the
				// sample in the matrix alongside its pool membership.
				switch strings.ToLower(cellAt(sampleRow, pooledIdx)) {
				case "", "not pooled", "independent":
					pooledAndIndependent = append(pooledAndIndependent, j+1)
				default:
					pooledOnly = append(pooledOnly, j+1)
				}
			}

			for _, listedName := range listed {
				listedName = strings.TrimSpace(listedName)
				if listedName != "" && !wanted[listedName] {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("pool %q: source name %q not found among samples", name, listedName))
				}
			}

			specs = append(specs, metatable.PoolSpec{
				Name:                 name,
				PooledOnly:           pooledOnly,
				PooledAndIndependent: pooledAndIndependent,
				IsReference:          true,
				SDRFValue:            sdrf,
				MetadataRow:          alignRowToSortedColumns(t, cols, row),
			})
		}
		return specs
	}

	if len(pooledRows) == 0 {
		return nil
	}

	var sourceNames []string
	var members []int
	for _, idx := range pooledRows {
		if source := cellAt(kept[idx], sourceIdx); source != "" {
			sourceNames = append(sourceNames, source)
			members = append(members, idx+1)
		}
	}
	if len(members) == 0 {
		return nil
	}

	return []metatable.PoolSpec{{
		Name:        "Pool 1",
		PooledOnly:  members,
		SDRFValue:   "SN=" + strings.Join(sourceNames, ","),
		MetadataRow: alignRowToSortedColumns(t, cols, kept[pooledRows[0]]),
	}}
}

// alignRowToSortedColumns reindexes a header-ordered row into the table's
// sorted column order, which is how pool sync consumes metadata rows.
func alignRowToSortedColumns(t *metatable.Table, cols []*metatable.Column, row []string) []string {
	headerIndex := make(map[*metatable.Column]int, len(cols))
	for i, c := range cols {
		headerIndex[c] = i
	}

	sorted := t.SortedColumns()
	out := make([]string, len(sorted))
	for i, c := range sorted {
		if idx, ok := headerIndex[c]; ok {
			out[i] = cellAt(row, idx)
		}
	}
	return out
}
