package metatable

import (
	"errors"
	"testing"
)

// Every pool's derived column name set must track the table's column name
// set through any add/remove sequence.
func TestPoolColumnSync(t *testing.T) {
	table := New("t", 3)
	table.AddColumn(ColumnSpec{Name: "source name", DefaultValue: "S"}, nil)
	org := table.AddColumn(ColumnSpec{Name: "organism"}, nil)

	p, _ := NewPool("p", []int{1, 2}, nil)
	if err := table.AddPool(p); err != nil {
		t.Fatal(err)
	}

	check := func(step string) {
		t.Helper()
		want := columnNames(table)
		got := make([]string, len(p.Columns))
		for i, pc := range p.Columns {
			got[i] = pc.Name
		}
		if len(got) != len(want) {
			t.Fatalf("%s: pool has %d columns, table has %d", step, len(got), len(want))
		}
		seen := make(map[string]bool, len(got))
		for _, name := range got {
			seen[name] = true
		}
		for _, name := range want {
			if !seen[name] {
				t.Errorf("%s: pool missing column %q", step, name)
			}
		}
	}

	check("after AddPool")

	table.AddColumn(ColumnSpec{Name: "disease"}, nil)
	check("after AddColumn")

	if err := table.RemoveColumn(org.ID); err != nil {
		t.Fatal(err)
	}
	check("after RemoveColumn")
}

func TestAddPoolValidation(t *testing.T) {
	table := New("t", 2)

	out, _ := NewPool("out", []int{3}, nil)
	if err := table.AddPool(out); !errors.Is(err, ErrValidationFailure) {
		t.Errorf("out-of-range member err = %v", err)
	}

	empty := &Pool{Name: "empty"}
	if err := table.AddPool(empty); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("empty pool err = %v", err)
	}
}

func TestRemovePool(t *testing.T) {
	table := New("t", 2)
	p, _ := NewPool("p", []int{1}, nil)
	if err := table.AddPool(p); err != nil {
		t.Fatal(err)
	}
	if err := table.RemovePool(p.ID); err != nil {
		t.Fatal(err)
	}
	if err := table.RemovePool(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double removal err = %v", err)
	}
}

func TestSyncPoolsWithImportReplaces(t *testing.T) {
	table := New("t", 4)
	table.AddColumn(ColumnSpec{Name: "source name", DefaultValue: "S"}, nil)
	table.AddColumn(ColumnSpec{Name: "characteristics[pooled sample]"}, nil)

	stale, _ := NewPool("stale", []int{1}, nil)
	keep, _ := NewPool("old name", []int{2}, nil)
	for _, p := range []*Pool{stale, keep} {
		if err := table.AddPool(p); err != nil {
			t.Fatal(err)
		}
	}

	specs := []PoolSpec{
		// Matched by ID, renamed and re-membered in place.
		{ID: keep.ID, Name: "new name", PooledOnly: []int{2, 3}},
		// No ID or name match: created fresh.
		{Name: "created", PooledOnly: []int{4}, SDRFValue: "pooled"},
	}
	if err := table.SyncPoolsWithImport(specs); err != nil {
		t.Fatal(err)
	}

	if len(table.Pools) != 2 {
		t.Fatalf("pool count = %d, want 2 (stale deleted)", len(table.Pools))
	}
	if table.PoolByName("stale") != nil {
		t.Error("pool absent from import survived")
	}
	if keep.Name != "new name" {
		t.Errorf("matched pool name = %q", keep.Name)
	}
	if got := keep.SampleStatus(3); got != "pooled_only" {
		t.Errorf("updated membership: sample 3 = %q", got)
	}

	created := table.PoolByName("created")
	if created == nil {
		t.Fatal("imported pool not created")
	}
	if col := created.ColumnByName("characteristics[pooled sample]"); col == nil || col.DefaultValue != "pooled" {
		t.Errorf("pooled sample cell = %+v", col)
	}
}

func TestSyncPoolsWithImportBadSpec(t *testing.T) {
	table := New("t", 2)
	err := table.SyncPoolsWithImport([]PoolSpec{{Name: "empty"}})
	if !errors.Is(err, ErrEmptyPool) {
		t.Errorf("err = %v", err)
	}
}

func TestApplyPoolSpecColumnsFromRow(t *testing.T) {
	table := New("t", 3)
	table.AddColumn(ColumnSpec{Name: "source name", DefaultValue: "S"}, nil)
	table.AddColumn(ColumnSpec{Name: "characteristics[organism]", DefaultValue: "homo sapiens"}, nil)
	table.AddColumn(ColumnSpec{Name: "characteristics[pooled sample]"}, nil)

	spec := PoolSpec{
		Name:        "ref",
		PooledOnly:  []int{1, 2},
		IsReference: true,
		SDRFValue:   "SN=S1,S2",
		MetadataRow: []string{"ignored", "mus musculus", ""},
	}
	if err := table.SyncPoolsWithImport([]PoolSpec{spec}); err != nil {
		t.Fatal(err)
	}

	p := table.PoolByName("ref")
	if p == nil {
		t.Fatal("pool missing")
	}
	if col := p.ColumnByName("source name"); col == nil || col.DefaultValue != "ref" {
		t.Errorf("source name cell = %+v", col)
	}
	if col := p.ColumnByName("characteristics[organism]"); col == nil || col.DefaultValue != "mus musculus" {
		t.Errorf("organism cell = %+v", col)
	}
	if col := p.ColumnByName("characteristics[pooled sample]"); col == nil || col.DefaultValue != "SN=S1,S2" {
		t.Errorf("pooled sample cell = %+v", col)
	}
}
