package metatable

import (
	"errors"
	"testing"

	"github.com/proteomehub/sdrftable/template"
)

func columnNames(t *Table) []string {
	cols := t.SortedColumns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddColumnPositions(t *testing.T) {
	table := New("t", 4)
	table.AddColumn(ColumnSpec{Name: "source name"}, nil)
	table.AddColumn(ColumnSpec{Name: "organism"}, nil)

	pos := 1
	inserted := table.AddColumn(ColumnSpec{Name: "organism part", Position: &pos}, nil)
	if inserted.Position != 1 {
		t.Errorf("inserted position = %d", inserted.Position)
	}

	want := []string{"source name", "organism part", "organism"}
	if got := columnNames(table); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestAddColumnTemplateInheritance(t *testing.T) {
	reg := template.NewRegistry(
		&template.Template{Name: "organism", OntologyType: "species", Schema: "minimum", Mandatory: true},
	)

	table := New("t", 2)
	col := table.AddColumn(ColumnSpec{Name: "Organism"}, reg)
	if col.Template == nil {
		t.Fatal("template not matched")
	}
	if col.OntologyType != "species" || !col.Mandatory {
		t.Errorf("inherited metadata = %q / mandatory=%v", col.OntologyType, col.Mandatory)
	}

	// With no registry match, the name-pattern fallback still applies.
	free := table.AddColumn(ColumnSpec{Name: "disease"}, reg)
	if free.Template != nil {
		t.Error("unexpected template match for disease")
	}
	if free.OntologyType != "human_disease" {
		t.Errorf("fallback ontology type = %q", free.OntologyType)
	}
}

func TestRemoveColumn(t *testing.T) {
	table := New("t", 2)
	a := table.AddColumn(ColumnSpec{Name: "a"}, nil)
	b := table.AddColumn(ColumnSpec{Name: "b"}, nil)

	if err := table.RemoveColumn(a.ID); err != nil {
		t.Fatal(err)
	}
	if b.Position != 0 {
		t.Errorf("position after removal = %d", b.Position)
	}
	if err := table.RemoveColumn(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double removal err = %v", err)
	}
}

func TestMoveColumn(t *testing.T) {
	table := New("t", 2)
	a := table.AddColumn(ColumnSpec{Name: "a"}, nil)
	table.AddColumn(ColumnSpec{Name: "b"}, nil)
	table.AddColumn(ColumnSpec{Name: "c"}, nil)

	if err := table.MoveColumn(a.ID, 2); err != nil {
		t.Fatal(err)
	}
	want := []string{"b", "c", "a"}
	if got := columnNames(table); !equalStrings(got, want) {
		t.Errorf("after move = %v, want %v", got, want)
	}

	// Out-of-range targets clamp instead of failing.
	if err := table.MoveColumn(a.ID, 99); err != nil {
		t.Fatal(err)
	}
	if a.Position != 2 {
		t.Errorf("clamped position = %d", a.Position)
	}

	if err := table.MoveColumn(12345, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing column err = %v", err)
	}
}

func TestColumnByOccurrence(t *testing.T) {
	table := New("t", 2)
	first := table.AddColumn(ColumnSpec{Name: "modification parameters"}, nil)
	second := table.AddColumn(ColumnSpec{Name: "Modification Parameters"}, nil)

	if got := table.ColumnByOccurrence("modification parameters", 1); got != first {
		t.Error("occurrence 1 mismatch")
	}
	if got := table.ColumnByOccurrence("modification parameters", 2); got != second {
		t.Error("occurrence 2 mismatch")
	}
	if got := table.ColumnByOccurrence("modification parameters", 3); got != nil {
		t.Error("occurrence beyond count should be nil")
	}
}

func TestChangeSampleIndex(t *testing.T) {
	table := New("t", 5)
	col := table.AddColumn(ColumnSpec{Name: "phenotype"}, nil)
	col.DefaultValue = "wt"
	col.Modifiers = []Modifier{{Samples: "2,3", Value: "ko"}}

	p, _ := NewPool("p", []int{2}, []int{4})
	if err := table.AddPool(p); err != nil {
		t.Fatal(err)
	}

	if err := table.ChangeSampleIndex(2, 5); err != nil {
		t.Fatal(err)
	}
	if got := col.Modifiers[0].Samples; got != "3,5" {
		t.Errorf("rewritten range = %q", got)
	}
	if got := p.SampleStatus(5); got != "pooled_only" {
		t.Errorf("pool membership after renumber = %q", got)
	}
	if got := p.SampleStatus(2); got != "not_in_pool" {
		t.Errorf("old index still pooled: %q", got)
	}

	if err := table.ChangeSampleIndex(0, 1); !errors.Is(err, ErrValidationFailure) {
		t.Errorf("zero index err = %v", err)
	}
	if err := table.ChangeSampleIndex(1, 6); !errors.Is(err, ErrValidationFailure) {
		t.Errorf("out-of-range err = %v", err)
	}
}

func TestBasicReorder(t *testing.T) {
	table := New("t", 2)
	table.AddColumn(ColumnSpec{Name: "instrument", Category: CategoryComment}, nil)
	table.AddColumn(ColumnSpec{Name: "phenotype", Category: CategoryFactorValue}, nil)
	table.AddColumn(ColumnSpec{Name: "organism", Category: CategoryCharacteristics}, nil)
	table.AddColumn(ColumnSpec{Name: "source name", Category: CategorySourceName}, nil)

	table.BasicReorder()

	want := []string{"source name", "organism", "instrument", "phenotype"}
	if got := columnNames(table); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestReorderBySchema(t *testing.T) {
	table := New("t", 2)
	table.AddColumn(ColumnSpec{Name: "disease", Category: CategoryCharacteristics}, nil)
	table.AddColumn(ColumnSpec{Name: "organism", Category: CategoryCharacteristics}, nil)
	table.AddColumn(ColumnSpec{Name: "strain", Category: CategoryCharacteristics}, nil)
	table.AddColumn(ColumnSpec{Name: "source name", Category: CategorySourceName}, nil)

	table.ReorderBySchema(map[string][]string{
		"characteristics": {"organism", "disease"},
	})

	// Schema-listed names lead, the rest keep their relative order.
	want := []string{"source name", "organism", "disease", "strain"}
	if got := columnNames(table); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestCombineColumnwise(t *testing.T) {
	left := New("left", 3)
	left.AddColumn(ColumnSpec{Name: "source name", DefaultValue: "S"}, nil)
	right := New("right", 3)
	right.AddColumn(ColumnSpec{Name: "organism", DefaultValue: "homo sapiens"}, nil)

	combined, err := CombineColumnwise("both", left, right)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"source name", "organism"}
	if got := columnNames(combined); !equalStrings(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
	if combined.SampleCount != 3 {
		t.Errorf("sample count = %d", combined.SampleCount)
	}

	short := New("short", 2)
	if _, err := CombineColumnwise("bad", left, short); !errors.Is(err, ErrValidationFailure) {
		t.Errorf("mismatched sample count err = %v", err)
	}
}

func TestCombineRowwise(t *testing.T) {
	a := New("a", 2)
	ca := a.AddColumn(ColumnSpec{Name: "organism"}, nil)
	ca.DefaultValue = "homo sapiens"

	b := New("b", 3)
	cb := b.AddColumn(ColumnSpec{Name: "organism"}, nil)
	cb.DefaultValue = "mus musculus"

	combined, err := CombineRowwise("ab", a, b)
	if err != nil {
		t.Fatal(err)
	}
	if combined.SampleCount != 5 {
		t.Fatalf("sample count = %d", combined.SampleCount)
	}

	col := combined.ColumnByOccurrence("organism", 0)
	if col == nil {
		t.Fatal("merged column missing")
	}
	for sample, want := range map[int]string{1: "homo sapiens", 2: "homo sapiens", 3: "mus musculus", 5: "mus musculus"} {
		if got := col.Resolve(sample); got != want {
			t.Errorf("sample %d = %q, want %q", sample, got, want)
		}
	}
}
