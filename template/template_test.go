package template

import (
	"strings"
	"testing"
)

func proteomicsTemplates() []*Template {
	return []*Template{
		{Name: "source name", Category: "source_name", Schema: "minimum"},
		{Name: "characteristics[organism]", Category: "characteristics", OntologyType: "species", Schema: "minimum"},
		{Name: "characteristics[disease]", Category: "characteristics", OntologyType: "human_disease", Schema: "minimum"},
		{Name: "comment[instrument]", Category: "comment", OntologyType: "ms_unique_vocabularies", Schema: "minimum"},
		{Name: "characteristics[cell line]", Category: "characteristics", OntologyType: "tissue", Schema: "cell-lines"},
		{Name: "characteristics[cell type]", Category: "characteristics", OntologyType: "tissue", Schema: "cell-lines"},
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	r := NewRegistry(proteomicsTemplates()...)

	if got := r.Match("Characteristics[Organism]"); got == nil || got.OntologyType != "species" {
		t.Errorf("Match(Characteristics[Organism]) = %+v", got)
	}
	if got := r.Match("characteristics_organism"); got != nil {
		t.Errorf("fuzzy name unexpectedly matched: %+v", got)
	}
	if got := r.Match("source_name"); got == nil {
		t.Error("underscore normalization should match 'source name'")
	}
}

func TestNilRegistryMatchesNothing(t *testing.T) {
	var r *Registry
	if r.Match("source name") != nil {
		t.Error("nil registry matched")
	}
}

func TestNarrowPrefersOverlappingSchema(t *testing.T) {
	r := NewRegistry(proteomicsTemplates()...)

	existing := []*Template{
		{Name: "characteristics[cell line]", Schema: "cell-lines"},
	}
	narrowed := r.Narrow(existing)

	if narrowed.Match("characteristics[cell type]") == nil {
		t.Error("narrowed registry lost its own schema's template")
	}
	if narrowed.Match("characteristics[organism]") != nil {
		t.Error("narrowed registry still matches the other schema family")
	}

	// No overlap: the full registry comes back.
	if r.Narrow([]*Template{{Name: "comment[unknown]"}}).Match("characteristics[organism]") == nil {
		t.Error("no-overlap narrow should return the full registry")
	}
}

func TestSchemaSections(t *testing.T) {
	r := NewRegistry(proteomicsTemplates()...)
	sections := r.SchemaSections("minimum")

	if len(sections["source_name"]) != 1 || sections["source_name"][0] != "source name" {
		t.Errorf("source_name section = %v", sections["source_name"])
	}
	if len(sections["characteristics"]) != 2 {
		t.Errorf("characteristics section = %v", sections["characteristics"])
	}
	if len(sections["comment"]) != 1 {
		t.Errorf("comment section = %v", sections["comment"])
	}
}

func TestLoadTSV(t *testing.T) {
	tsv := "name\tcategory\tontology_type\tontology_sources\tschema\thidden\tmandatory\treadonly\tauto_generated\n" +
		"characteristics[organism]\tcharacteristics\tspecies\tncbitaxon;efo\tminimum\tfalse\ttrue\tfalse\tfalse\n" +
		"comment[instrument]\tcomment\tms_unique_vocabularies\tms\tminimum\tfalse\tfalse\tfalse\tfalse\n"

	r, err := LoadTSV(strings.NewReader(tsv))
	if err != nil {
		t.Fatal(err)
	}

	tpl := r.Match("characteristics[organism]")
	if tpl == nil {
		t.Fatal("template not loaded")
	}
	if !tpl.Mandatory || tpl.OntologyType != "species" {
		t.Errorf("loaded template = %+v", tpl)
	}
	if got := tpl.Sources(); len(got) != 2 || got[0] != "ncbitaxon" {
		t.Errorf("Sources() = %v", got)
	}
}
