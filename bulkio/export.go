package bulkio

import (
	"archive/zip"
	"bytes"
	"context"
	"io"

	"github.com/carbocation/pfx"

	"github.com/proteomehub/sdrftable/metatable"
	"github.com/proteomehub/sdrftable/ontology"
	"github.com/proteomehub/sdrftable/sdrfio"
	"github.com/proteomehub/sdrftable/workbook"
)

// Format selects the per-table file format inside the archive.
type Format int

const (
	FormatSDRF Format = iota
	FormatWorkbook
)

// ExportOptions controls bulk archive generation.
type ExportOptions struct {
	Format       Format
	IncludePools bool

	// Actor and Gate, when set, guard each table with a view check; a
	// denied table gets a manifest error entry, not an aborted archive.
	Actor string
	Gate  metatable.Gate

	// Favourites feeds workbook dropdowns. Optional.
	Favourites ontology.Favourites
}

// ExportZip writes one file per table into a zip archive, followed by a
// manifest entry per table. Cancellation is honored between tables, never
// mid-table. The returned manifest mirrors what was written.
func ExportZip(ctx context.Context, w io.Writer, tables []*metatable.Table, opts ExportOptions) ([]ManifestEntry, error) {
	zw := zip.NewWriter(w)

	entries := make([]ManifestEntry, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return entries, pfx.Err(err)
		}
		entries = append(entries, exportOne(zw, t, opts))
	}

	manifest, err := zw.Create(ManifestName)
	if err != nil {
		zw.Close()
		return entries, pfx.Err(err)
	}
	if err := WriteManifest(manifest, entries); err != nil {
		zw.Close()
		return entries, err
	}

	return entries, pfx.Err(zw.Close())
}

// exportOne renders a single table into the archive. Failures stay local:
// the entry records the error and the archive moves on.
func exportOne(zw *zip.Writer, t *metatable.Table, opts ExportOptions) ManifestEntry {
	entry := ManifestEntry{
		TableName:   t.Name,
		SampleCount: t.SampleCount,
		ColumnCount: len(t.Columns),
		PoolCount:   len(t.Pools),
	}

	var buf bytes.Buffer
	switch opts.Format {
	case FormatWorkbook:
		entry.Filename = SafeFilename(t.Name, SuffixWorkbook)
		if err := workbook.Export(&buf, t, workbook.Options{
			Actor:        opts.Actor,
			Gate:         opts.Gate,
			IncludePools: opts.IncludePools,
			Favourites:   opts.Favourites,
		}); err != nil {
			entry.Error = err.Error()
			return entry
		}
	default:
		entry.Filename = SafeFilename(t.Name, SuffixSDRF)
		if err := sdrfio.Export(&buf, t, sdrfio.ExportOptions{
			IncludePools: opts.IncludePools,
			Actor:        opts.Actor,
			Gate:         opts.Gate,
		}); err != nil {
			entry.Error = err.Error()
			return entry
		}
	}

	f, err := zw.Create(entry.Filename)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		entry.Error = err.Error()
	}
	return entry
}
