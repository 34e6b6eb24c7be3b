package bulkio

import (
	"encoding/csv"
	"io"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// ManifestEntry is one row of the archive manifest: where a table landed
// in the archive and what it contained, or why it was skipped.
type ManifestEntry struct {
	TableName   string `csv:"table_name"`
	Filename    string `csv:"filename"`
	SampleCount int    `csv:"sample_count"`
	ColumnCount int    `csv:"column_count"`
	PoolCount   int    `csv:"pool_count"`
	Error       string `csv:"error"`
}

// WriteManifest emits the manifest as tab-separated text.
func WriteManifest(w io.Writer, entries []ManifestEntry) error {
	gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		writer := csv.NewWriter(out)
		writer.Comma = '\t'
		return gocsv.NewSafeCSVWriter(writer)
	})

	return pfx.Err(gocsv.Marshal(&entries, w))
}

// ReadManifest parses a tab-separated manifest.
func ReadManifest(r io.Reader) ([]ManifestEntry, error) {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		reader := csv.NewReader(in)
		reader.Comma = '\t'
		reader.LazyQuotes = true
		return reader
	})

	var entries []ManifestEntry
	if err := gocsv.Unmarshal(r, &entries); err != nil {
		return nil, pfx.Err(err)
	}
	return entries, nil
}
