package bulkio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"

	"github.com/proteomehub/sdrftable/metatable"
	"github.com/proteomehub/sdrftable/ontology"
	"github.com/proteomehub/sdrftable/sdrfio"
	"github.com/proteomehub/sdrftable/template"
	"github.com/proteomehub/sdrftable/workbook"
)

// ImportOptions controls bulk archive ingestion.
type ImportOptions struct {
	// Registry, Favourites, and Lookup pass through to the per-file
	// importers. All optional.
	Registry   *template.Registry
	Favourites ontology.Favourites
	Lookup     ontology.Lookup
}

// ImportEntry is the outcome for one archive member.
type ImportEntry struct {
	Filename string
	Table    *metatable.Table
	Warnings []string
	Error    string
}

// ImportZip streams a zip archive and builds one fresh table per SDRF or
// spreadsheet entry, without buffering the whole archive. Unrecognized
// entries and the manifest are skipped; a failed file records its error
// and the stream moves on. Cancellation is honored between entries.
func ImportZip(ctx context.Context, r io.Reader, opts ImportOptions) ([]ImportEntry, error) {
	zr := zipstream.NewReader(r)

	var entries []ImportEntry
	for {
		if err := ctx.Err(); err != nil {
			return entries, pfx.Err(err)
		}

		header, err := zr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, pfx.Err(err)
		}

		name := path.Base(header.Name)
		switch {
		case strings.HasSuffix(name, SuffixSDRF):
			entries = append(entries, importSDRFEntry(name, zr, opts))
		case strings.HasSuffix(name, ".xlsx"):
			entries = append(entries, importWorkbookEntry(name, zr, opts))
		}
	}

	return entries, nil
}

func importSDRFEntry(name string, r io.Reader, opts ImportOptions) ImportEntry {
	entry := ImportEntry{Filename: name}

	t := metatable.New(tableName(name, SuffixSDRF), 0)
	res, err := sdrfio.Import(r, t, sdrfio.ImportOptions{
		Registry:   opts.Registry,
		Favourites: opts.Favourites,
		Lookup:     opts.Lookup,
	})
	if err != nil {
		entry.Error = err.Error()
		return entry
	}

	entry.Table = t
	entry.Warnings = res.Warnings
	return entry
}

func importWorkbookEntry(name string, r io.Reader, opts ImportOptions) ImportEntry {
	entry := ImportEntry{Filename: name}

	// The xlsx container needs random access; buffer this one entry.
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		entry.Error = err.Error()
		return entry
	}

	t := metatable.New(tableName(name, SuffixWorkbook), 0)
	res, err := workbook.Import(bytes.NewReader(buf.Bytes()), t, workbook.Options{
		Registry:   opts.Registry,
		Favourites: opts.Favourites,
		Lookup:     opts.Lookup,
	})
	if err != nil {
		entry.Error = err.Error()
		return entry
	}

	entry.Table = t
	entry.Warnings = res.Warnings
	return entry
}

// tableName recovers a readable table name from an archive filename.
func tableName(filename, suffix string) string {
	name := strings.TrimSuffix(filename, suffix)
	name = strings.TrimSuffix(name, ".xlsx")
	return strings.ReplaceAll(name, "_", " ")
}
