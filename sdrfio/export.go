package sdrfio

import (
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/proteomehub/sdrftable/metatable"
)

// ExportOptions controls SDRF text generation. The zero value exports all
// visible columns without pool rows and without permission checks.
type ExportOptions struct {
	// IncludePools appends one trailing row per reference pool.
	IncludePools bool

	// Actor and Gate, when set, guard the export with a view check.
	Actor string
	Gate  metatable.Gate
}

// Export writes the table as SDRF text: a header of column names, one row
// per sample, and optionally one trailing row per reference pool. Hidden
// columns are excluded; the SDRF standard has no notion of them.
func Export(w io.Writer, t *metatable.Table, opts ExportOptions) error {
	if err := metatable.CheckView(opts.Gate, opts.Actor, t.ID); err != nil {
		return pfx.Err(err)
	}

	cols := t.VisibleColumns()

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	lines := make([]string, 0, t.SampleCount+2)
	lines = append(lines, strings.Join(names, "\t"))

	for sample := 1; sample <= t.SampleCount; sample++ {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = c.Resolve(sample)
		}
		lines = append(lines, strings.Join(row, "\t"))
	}

	if opts.IncludePools {
		for _, p := range t.Pools {
			if !p.IsReference {
				continue
			}
			sdrf := p.SDRFValue(t)
			if !strings.HasPrefix(sdrf, "SN=") {
				continue
			}
			lines = append(lines, strings.Join(poolRow(t, p, cols, sdrf), "\t"))
		}
	}

	if _, err := fmt.Fprintln(w, strings.Join(lines, "\n")); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// poolRow renders one reference pool as a trailing SDRF row: the SN= list
// in the pooled sample column, the pool name in the source name column,
// and the pool's derived value everywhere else.
func poolRow(t *metatable.Table, p *metatable.Pool, cols []*metatable.Column, sdrf string) []string {
	row := make([]string, len(cols))

	for i, c := range cols {
		switch {
		case isPooledSampleHeader(c.Name):
			row[i] = sdrf
		case isSourceNameHeader(c.Name):
			row[i] = p.Name
		}
	}

	for i, c := range cols {
		if row[i] != "" {
			continue
		}
		if pc := p.ColumnByName(c.Name); pc != nil && pc.DefaultValue != "" {
			row[i] = pc.DefaultValue
			continue
		}
		if c.DefaultValue != "" {
			row[i] = c.DefaultValue
			continue
		}
		if isRequiredColumn(c.Name) {
			row[i] = metatable.NotApplicable
			continue
		}
		row[i] = metatable.NotAvailable
	}

	return row
}
