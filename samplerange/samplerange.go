// Package samplerange encodes and decodes the compact sample-index range
// strings used in column modifiers, e.g. "1-3,5,7-9".
package samplerange

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedRange indicates a range string that cannot be parsed.
var ErrMalformedRange = errors.New("samplerange: malformed range")

// Set is an ordered, deduplicated set of positive 1-based sample indices.
type Set []int

// New builds a Set from arbitrary indices, sorting and deduplicating.
func New(indices ...int) Set {
	seen := make(map[int]struct{}, len(indices))
	out := make(Set, 0, len(indices))
	for _, i := range indices {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Contains reports whether idx is a member of the set.
func (s Set) Contains(idx int) bool {
	n := sort.SearchInts(s, idx)
	return n < len(s) && s[n] == idx
}

// Union returns a new Set holding the members of both sets.
func (s Set) Union(o Set) Set {
	return New(append(append([]int{}, s...), o...)...)
}

// Encode produces the canonical compact string form of the given indices.
// Runs of three or more consecutive indices collapse to "start-end"; a run
// of exactly two is emitted as two singletons ("1,2", never "1-2"). This
// asymmetry matches the historical on-disk format and must not be "fixed";
// Decode accepts both spellings.
func Encode(indices []int) string {
	if len(indices) == 0 {
		return ""
	}

	sorted := New(indices...)

	var parts []string
	i := 0
	for i < len(sorted) {
		start := sorted[i]
		end := start
		for i+1 < len(sorted) && sorted[i+1] == end+1 {
			i++
			end = sorted[i]
		}

		switch {
		case start == end:
			parts = append(parts, strconv.Itoa(start))
		case end-start == 1:
			parts = append(parts, strconv.Itoa(start), strconv.Itoa(end))
		default:
			parts = append(parts, fmt.Sprintf("%d-%d", start, end))
		}
		i++
	}

	return strings.Join(parts, ",")
}

// Decode parses a compact range string back into a Set. Each comma-separated
// token is a single integer or an inclusive "start-end" pair.
func Decode(s string) (Set, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrMalformedRange)
	}

	var indices []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrMalformedRange, part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrMalformedRange, part)
			}
			if start < 1 || end < start {
				return nil, fmt.Errorf("%w: %q", ErrMalformedRange, part)
			}
			for v := start; v <= end; v++ {
				indices = append(indices, v)
			}
			continue
		}

		v, err := strconv.Atoi(part)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRange, part)
		}
		indices = append(indices, v)
	}

	return New(indices...), nil
}

// DecodeLenient parses like Decode but skips unparseable tokens instead of
// failing. Used where the reference behavior tolerates dirty modifier
// strings rather than aborting a whole import.
func DecodeLenient(s string) Set {
	var indices []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err1 := strconv.Atoi(strings.TrimSpace(bounds[0]))
			end, err2 := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err1 != nil || err2 != nil {
				continue
			}
			for v := start; v <= end; v++ {
				indices = append(indices, v)
			}
			continue
		}
		if v, err := strconv.Atoi(part); err == nil {
			indices = append(indices, v)
		}
	}
	return New(indices...)
}
