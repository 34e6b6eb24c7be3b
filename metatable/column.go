package metatable

import (
	"sort"
	"strings"

	"github.com/proteomehub/sdrftable/samplerange"
	"github.com/proteomehub/sdrftable/template"
)

// Category classifies a column by its SDRF section, derived from the
// type[inner] header syntax or from fixed literal names.
type Category string

const (
	CategorySourceName      Category = "source_name"
	CategoryCharacteristics Category = "characteristics"
	CategoryComment         Category = "comment"
	CategoryFactorValue     Category = "factor_value"
	CategoryTechnologyType  Category = "technology_type"
	CategorySpecial         Category = "special"
)

// sectionRank orders categories for basic section reordering.
var sectionRank = map[Category]int{
	CategorySourceName:      0,
	CategoryCharacteristics: 1,
	CategoryTechnologyType:  2,
	CategorySpecial:         2,
	CategoryComment:         3,
	CategoryFactorValue:     4,
}

// ParseHeader derives the storage name and category from an SDRF header.
// Names are lowercased with underscores mapped to spaces; the category
// comes from the prefix before "[" or from the fixed literals.
func ParseHeader(header string) (Category, string) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), "_", " ")
	return CategoryOf(name), name
}

// CategoryOf classifies an already-normalized column name.
func CategoryOf(name string) Category {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case name == "source name":
		return CategorySourceName
	case name == "technology type":
		return CategoryTechnologyType
	case strings.HasPrefix(name, "characteristics["):
		return CategoryCharacteristics
	case strings.HasPrefix(name, "comment["):
		return CategoryComment
	case strings.HasPrefix(name, "factor value["):
		return CategoryFactorValue
	}
	return CategorySpecial
}

// Modifier is a per-column exception: every sample index in Samples takes
// Value instead of the column default. Samples is a samplerange string.
type Modifier struct {
	Samples string `json:"samples"`
	Value   string `json:"value"`
}

// Column is one metadata field across all samples of a table: a default
// value plus range-scoped exceptions. Pool-level derived columns reuse the
// type with a flat DefaultValue and no modifiers.
type Column struct {
	ID            int64
	Name          string
	Category      Category
	DefaultValue  string
	Modifiers     []Modifier
	NotApplicable bool
	Hidden        bool
	Mandatory     bool
	Readonly      bool
	AutoGenerated bool
	OntologyType  string
	Template      *template.Template
	Position      int
}

// resolveRaw returns the stored value for a sample without the
// not-available fallback: the covering modifier's value, else the default.
func (c *Column) resolveRaw(sample int) string {
	for _, m := range c.Modifiers {
		if samplerange.DecodeLenient(m.Samples).Contains(sample) {
			return m.Value
		}
	}
	return c.DefaultValue
}

// Resolve returns the single value a sample holds in this column. Samples
// covered by no modifier and no default render as "not applicable" when the
// column is flagged, else "not available".
func (c *Column) Resolve(sample int) string {
	if v := c.resolveRaw(sample); v != "" {
		return v
	}
	if c.NotApplicable {
		return NotApplicable
	}
	return NotAvailable
}

// Compact derives the canonical (default, modifiers) encoding from a full
// per-sample value map. The value with the largest group becomes the
// default, ties broken by the value first seen in ascending sample order;
// every other group becomes one modifier. Deterministic for equal input.
func Compact(values map[int]string) (string, []Modifier) {
	if len(values) == 0 {
		return "", nil
	}

	samples := make([]int, 0, len(values))
	for s := range values {
		samples = append(samples, s)
	}
	sort.Ints(samples)

	// order records each distinct value at its first appearance, so a
	// count tie resolves to the value seen first in sample order.
	groups := make(map[string][]int)
	var order []string
	for _, s := range samples {
		v := values[s]
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], s)
	}

	def := order[0]
	for _, v := range order[1:] {
		if len(groups[v]) > len(groups[def]) {
			def = v
		}
	}

	var modifiers []Modifier
	for _, v := range order {
		if v == def {
			continue
		}
		modifiers = append(modifiers, Modifier{
			Samples: samplerange.Encode(groups[v]),
			Value:   v,
		})
	}

	return def, modifiers
}

// SetValueForSamples updates the column so the given samples resolve to
// value, re-compacting the default/modifier split. Empty indices set the
// default for every sample and drop all modifiers.
func (c *Column) SetValueForSamples(value string, indices []int, sampleCount int) {
	if len(indices) == 0 {
		c.DefaultValue = value
		c.Modifiers = nil
		return
	}

	current := make(map[int]string)
	for s := 1; s <= sampleCount; s++ {
		if v := c.resolveRaw(s); v != "" {
			current[s] = v
		}
	}
	for _, s := range indices {
		if s >= 1 && s <= sampleCount {
			current[s] = value
		}
	}

	c.DefaultValue, c.Modifiers = Compact(current)
}

// Clone deep-copies the column. The template pointer is shared; templates
// are immutable after registry construction.
func (c *Column) Clone() *Column {
	out := *c
	out.Modifiers = append([]Modifier(nil), c.Modifiers...)
	return &out
}
