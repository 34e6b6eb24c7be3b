// Package sdrfio converts metadata tables to and from SDRF, the
// tab-separated sample metadata format used across proteomics pipelines.
// Pool membership travels in a reserved "pooled sample" column, either as
// the literal value "pooled" or as an SN= list of member source names.
package sdrfio

import (
	"errors"
	"strings"
)

// ErrEmptyDocument reports SDRF input with no header line.
var ErrEmptyDocument = errors.New("sdrf: empty document")

func isPooledSampleHeader(header string) bool {
	lower := strings.ToLower(header)
	return strings.Contains(lower, "pooled sample") || strings.Contains(lower, "pooled_sample")
}

func isSourceNameHeader(header string) bool {
	lower := strings.ToLower(header)
	return strings.Contains(lower, "source name") || strings.Contains(lower, "source_name")
}

// requiredColumnNames are the SDRF fields that must never be left blank;
// pool rows fill them with "not applicable" instead of "not available".
var requiredColumnNames = map[string]struct{}{
	"organism":      {},
	"disease":       {},
	"organism part": {},
	"tissue":        {},
}

// innerName extracts the bracketed part of a type[name] column name, or
// returns the name unchanged when there are no brackets.
func innerName(name string) string {
	open := strings.Index(name, "[")
	if open < 0 || !strings.HasSuffix(name, "]") {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return strings.ToLower(strings.TrimSpace(name[open+1 : len(name)-1]))
}

func isRequiredColumn(name string) bool {
	_, ok := requiredColumnNames[innerName(name)]
	return ok
}
