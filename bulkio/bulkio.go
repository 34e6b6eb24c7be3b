// Package bulkio moves whole sets of metadata tables in and out of zip
// archives, one SDRF or spreadsheet file per table plus a tab-separated
// manifest. Tables are processed independently: one bad table marks its
// manifest entry and never aborts the rest of the archive.
package bulkio

import (
	"strings"
	"unicode"
)

// maxFilenameLength bounds generated filenames, leaving room for suffix
// variations added by downstream storage.
const maxFilenameLength = 200

const (
	// SuffixSDRF marks per-table SDRF text entries.
	SuffixSDRF = ".sdrf.tsv"
	// SuffixWorkbook marks per-table spreadsheet entries.
	SuffixWorkbook = "_template.xlsx"
	// ManifestName is the archive's manifest entry.
	ManifestName = "manifest.tsv"
)

// SafeFilename builds a filesystem-safe filename from a table name:
// alphanumerics, spaces, dashes, and underscores survive, spaces become
// underscores, and the base truncates so base+extension fits the length
// budget.
func SafeFilename(base, extension string) string {
	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.ReplaceAll(strings.TrimRight(b.String(), " "), " ", "_")

	if available := maxFilenameLength - len(extension); len(safe) > available {
		safe = safe[:available]
	}
	return safe + extension
}
