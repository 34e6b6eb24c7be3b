// Package ontology is the boundary to the read-only ontology and favourites
// collaborators. The matrix core stores raw strings; all interpretation of
// NT=/AC= key-value values and dropdown markers happens here.
package ontology

import (
	"fmt"
	"strings"
)

// Term is one normalized ontology entry returned by a Lookup.
type Term struct {
	Accession    string
	Identifier   string
	Name         string
	OfficialName string
}

// Lookup supplies exact-match term resolution for one ontology type. A nil
// Lookup disables normalization and raw values pass through unchanged.
type Lookup interface {
	Exact(ontologyType, query string) (Term, bool)
}

// Tier distinguishes the three favourite-option sources.
type Tier int

const (
	TierUser Tier = iota
	TierLabGroup
	TierGlobal
)

func (t Tier) marker() string {
	switch t {
	case TierUser:
		return "[*]"
	case TierLabGroup:
		return "[**]"
	default:
		return "[***]"
	}
}

// Option is one favourite dropdown value for a column name.
type Option struct {
	ID           int64
	Value        string
	DisplayValue string
	Tier         Tier
}

// Choice renders the bracketed-id dropdown string, e.g. "[12] Human[*]".
func (o Option) Choice() string {
	display := o.DisplayValue
	if display == "" {
		display = o.Value
	}
	return fmt.Sprintf("[%d] %s%s", o.ID, display, o.Tier.marker())
}

// Favourites supplies dropdown candidates per column name, lowest tier
// first. Consumed read-only during export and import.
type Favourites interface {
	Options(columnName string) []Option
}

// StripMarker undoes the Choice rendering: "[123] Human[*]" becomes
// "Human". Values without the bracketed-id prefix only lose a trailing
// tier marker; anything else passes through untouched.
func StripMarker(value string) string {
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, "[") {
		if _, rest, found := strings.Cut(value, "] "); found {
			value = rest
		}
	}

	for _, marker := range []string{"[***]", "[**]", "[*]"} {
		if strings.HasSuffix(value, marker) {
			return strings.TrimSuffix(value, marker)
		}
	}
	return value
}

// ResolveMarked maps a marked display value back to its stored favourite
// value, e.g. "Human[*]" to "homo sapiens" when the user favourite carries
// that mapping. Unmarked values and unknown favourites return the stripped
// display text.
func ResolveMarked(columnName, value string, favs Favourites) string {
	trimmed := strings.TrimSpace(value)
	marked := false
	for _, marker := range []string{"[***]", "[**]", "[*]", "[****]"} {
		if strings.HasSuffix(trimmed, marker) {
			marked = true
			break
		}
	}
	stripped := StripMarker(trimmed)
	if !marked || favs == nil {
		return stripped
	}

	for _, opt := range favs.Options(strings.ToLower(columnName)) {
		display := opt.DisplayValue
		if display == "" {
			display = opt.Value
		}
		if display == stripped {
			return opt.Value
		}
	}
	return stripped
}

// DetectType classifies a column name into an ontology type, empty when
// nothing matches.
func DetectType(columnName string) string {
	name := strings.ToLower(strings.TrimSpace(columnName))

	patterns := []struct {
		ontology string
		needles  []string
	}{
		{"species", []string{"organism", "species", "taxonomy", "taxon", "ncbi taxid", "ncbitaxid"}},
		{"tissue", []string{"tissue", "organ", "organism part", "body part", "anatomical part", "cell type", "sample type"}},
		{"human_disease", []string{"disease", "disorder", "condition", "pathology", "phenotype", "clinical finding"}},
		{"subcellular_location", []string{"subcellular location", "cellular component", "organelle", "compartment", "localization"}},
		{"ms_unique_vocabularies", []string{"instrument", "mass spectrometer", "ionization", "fragmentation", "analyzer", "detector", "scan type", "mass accuracy"}},
		{"unimod", []string{"modification parameters", "ptm", "post-translational modification", "chemical modification", "protein modification", "unimod"}},
	}

	for _, p := range patterns {
		for _, needle := range p.needles {
			if strings.Contains(name, needle) {
				return p.ontology
			}
		}
	}
	return ""
}

// Normalize converts an SDRF cell value into its internal storage form for
// the given column, using the ontology lookup where one applies. Values
// that resolve to no term come back unchanged.
func Normalize(columnName, ontologyType, value string, lu Lookup) string {
	value = strings.TrimSpace(value)
	if value == "" || lu == nil {
		return value
	}

	fields, order := parseKeyValues(value)
	hasKeyValue := strings.Contains(value, "=")

	var term Term
	var found bool
	if ac, ok := fields["AC"]; ok {
		term, found = lu.Exact(ontologyType, ac)
	} else if nt, ok := fields["NT"]; ok {
		term, found = lu.Exact(ontologyType, nt)
	} else {
		term, found = lu.Exact(ontologyType, value)
	}
	if !found {
		return value
	}

	name := strings.ToLower(columnName)
	switch {
	case ontologyType == "species":
		return strings.TrimSpace(term.OfficialName)

	case strings.Contains(name, "[label]"),
		strings.Contains(name, "[instrument]"),
		strings.Contains(name, "[cleavage agent details]"),
		strings.Contains(name, "[dissociation method]"):
		var parts []string
		if hasKeyValue {
			if nt, ok := fields["NT"]; ok {
				parts = append(parts, "NT="+nt)
			}
		} else {
			parts = append(parts, "NT="+value)
		}
		parts = append(parts, "AC="+strings.TrimSpace(term.Accession))
		return strings.Join(parts, ";")

	case ontologyType == "unimod":
		if hasKeyValue {
			fields["AC"] = strings.TrimSpace(term.Accession)
			return joinKeyValues(fields, order)
		}
		return "AC=" + strings.TrimSpace(term.Accession) + ";NT=" + value

	case ontologyType == "tissue" || ontologyType == "human_disease":
		var parts []string
		if ac, ok := fields["AC"]; ok && hasKeyValue {
			parts = append(parts, "AC="+strings.TrimSpace(ac))
		}
		parts = append(parts, "NT="+strings.TrimSpace(term.Identifier))
		return strings.Join(parts, ";")
	}

	return value
}

func parseKeyValues(value string) (map[string]string, []string) {
	fields := make(map[string]string)
	var order []string
	for _, field := range strings.Split(value, ";") {
		parts := strings.SplitN(field, "=", 2)
		key := strings.TrimSpace(parts[0])
		if len(parts) == 2 {
			fields[key] = strings.TrimSpace(parts[1])
		} else {
			fields[key] = ""
		}
		order = append(order, key)
	}
	return fields, order
}

func joinKeyValues(fields map[string]string, order []string) string {
	var parts []string
	seen := make(map[string]struct{})
	for _, key := range order {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		parts = append(parts, key+"="+fields[key])
	}
	// Keys added after parsing (e.g. AC) go last.
	for key := range fields {
		if _, ok := seen[key]; !ok {
			parts = append(parts, key+"="+fields[key])
		}
	}
	return strings.Join(parts, ";")
}
