package sdrfio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/proteomehub/sdrftable/metatable"
)

func TestExportSimple(t *testing.T) {
	table := metatable.New("t", 2)
	table.AddColumn(metatable.ColumnSpec{Name: "characteristics[organism]", DefaultValue: "homo sapiens"}, nil)

	var buf bytes.Buffer
	if err := Export(&buf, table, ExportOptions{}); err != nil {
		t.Fatal(err)
	}

	want := "characteristics[organism]\nhomo sapiens\nhomo sapiens\n"
	if got := buf.String(); got != want {
		t.Errorf("export = %q, want %q", got, want)
	}
}

func TestExportSkipsHidden(t *testing.T) {
	table := metatable.New("t", 1)
	table.AddColumn(metatable.ColumnSpec{Name: "source name", DefaultValue: "S1"}, nil)
	table.AddColumn(metatable.ColumnSpec{Name: "barcode", Hidden: true, DefaultValue: "X"}, nil)

	var buf bytes.Buffer
	if err := Export(&buf, table, ExportOptions{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "barcode") {
		t.Errorf("hidden column exported: %q", buf.String())
	}
}

func TestExportPoolRow(t *testing.T) {
	table := metatable.New("t", 2)
	table.AddColumn(metatable.ColumnSpec{Name: "source name"}, nil)
	table.Columns[0].DefaultValue = "S1"
	table.Columns[0].Modifiers = []metatable.Modifier{{Samples: "2", Value: "S2"}}
	table.AddColumn(metatable.ColumnSpec{Name: "characteristics[organism]", DefaultValue: "homo sapiens"}, nil)
	table.AddColumn(metatable.ColumnSpec{Name: "characteristics[pooled sample]", DefaultValue: "pooled"}, nil)

	pool, err := metatable.NewPool("Pool 1", []int{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	pool.IsReference = true
	if err := table.AddPool(pool); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Export(&buf, table, ExportOptions{IncludePools: true}); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("line count = %d, want header + 2 samples + 1 pool", len(lines))
	}
	poolCells := strings.Split(lines[3], "\t")
	if poolCells[0] != "Pool 1" {
		t.Errorf("pool source name cell = %q", poolCells[0])
	}
	if poolCells[2] != "SN=S1,S2" {
		t.Errorf("pool SN cell = %q", poolCells[2])
	}
}

func TestExportPermission(t *testing.T) {
	table := metatable.New("t", 1)
	var buf bytes.Buffer
	err := Export(&buf, table, ExportOptions{Actor: "bob", Gate: denyAll{}})
	if !errors.Is(err, metatable.ErrPermissionDenied) {
		t.Errorf("err = %v", err)
	}
}

type denyAll struct{}

func (denyAll) CanView(string, int64) bool { return false }
func (denyAll) CanEdit(string, int64) bool { return false }

func TestImportEmpty(t *testing.T) {
	table := metatable.New("t", 0)
	if _, err := Import(strings.NewReader(""), table, ImportOptions{}); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("err = %v", err)
	}
}

func TestImportPermission(t *testing.T) {
	table := metatable.New("t", 1)
	_, err := Import(strings.NewReader("source name\nS1"), table, ImportOptions{Actor: "bob", Gate: denyAll{}})
	if !errors.Is(err, metatable.ErrPermissionDenied) {
		t.Errorf("err = %v", err)
	}
}

func TestImportRoundTrip(t *testing.T) {
	table := metatable.New("t", 2)
	table.AddColumn(metatable.ColumnSpec{Name: "characteristics[organism]", DefaultValue: "homo sapiens"}, nil)

	var buf bytes.Buffer
	if err := Export(&buf, table, ExportOptions{}); err != nil {
		t.Fatal(err)
	}

	fresh := metatable.New("fresh", 2)
	res, err := Import(&buf, fresh, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.ColumnsCreated != 1 {
		t.Errorf("columns created = %d", res.ColumnsCreated)
	}

	for sample := 1; sample <= 2; sample++ {
		want := table.ResolveRow(sample)
		got := fresh.ResolveRow(sample)
		if len(got) != len(want) {
			t.Fatalf("row width mismatch")
		}
		for i := range want {
			if got[i].Value != want[i].Value {
				t.Errorf("sample %d col %d = %q, want %q", sample, i, got[i].Value, want[i].Value)
			}
		}
	}
}

func TestImportCompacts(t *testing.T) {
	content := "source name\tcharacteristics[organism]\n" +
		"S1\thomo sapiens\n" +
		"S2\thomo sapiens\n" +
		"S3\tmus musculus\n"

	table := metatable.New("t", 0)
	if _, err := Import(strings.NewReader(content), table, ImportOptions{}); err != nil {
		t.Fatal(err)
	}

	if table.SampleCount != 3 {
		t.Fatalf("sample count = %d", table.SampleCount)
	}
	org := table.ColumnByOccurrence("characteristics[organism]", 1)
	if org == nil {
		t.Fatal("organism column missing")
	}
	if org.DefaultValue != "homo sapiens" {
		t.Errorf("default = %q", org.DefaultValue)
	}
	if len(org.Modifiers) != 1 || org.Modifiers[0].Samples != "3" || org.Modifiers[0].Value != "mus musculus" {
		t.Errorf("modifiers = %+v", org.Modifiers)
	}
}

func TestImportNotApplicableFlag(t *testing.T) {
	content := "characteristics[disease]\nnot applicable\nnot applicable\n"

	table := metatable.New("t", 0)
	if _, err := Import(strings.NewReader(content), table, ImportOptions{}); err != nil {
		t.Fatal(err)
	}

	col := table.ColumnByOccurrence("characteristics[disease]", 1)
	if col == nil {
		t.Fatal("column missing")
	}
	if !col.NotApplicable {
		t.Error("not-applicable flag not set")
	}
	if col.DefaultValue != "" {
		t.Errorf("flagged cells leaked into values: default = %q", col.DefaultValue)
	}
	if got := col.Resolve(1); got != metatable.NotApplicable {
		t.Errorf("resolve = %q", got)
	}
}

func TestImportPadsAndTruncates(t *testing.T) {
	content := "source name\nS1\nS2\nS3\n"

	padded := metatable.New("padded", 5)
	if _, err := Import(strings.NewReader(content), padded, ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	if padded.SampleCount != 5 {
		t.Errorf("padded sample count = %d", padded.SampleCount)
	}

	truncated := metatable.New("truncated", 2)
	if _, err := Import(strings.NewReader(content), truncated, ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	col := truncated.ColumnByOccurrence("source name", 1)
	if got := col.Resolve(2); got != "S2" {
		t.Errorf("sample 2 = %q", got)
	}
}

func TestImportReusesColumnsByOccurrence(t *testing.T) {
	table := metatable.New("t", 1)
	first := table.AddColumn(metatable.ColumnSpec{Name: "comment[modification parameters]"}, nil)
	second := table.AddColumn(metatable.ColumnSpec{Name: "comment[modification parameters]"}, nil)

	content := "comment[modification parameters]\tcomment[modification parameters]\n" +
		"NT=Oxidation\tNT=Carbamidomethyl\n"

	res, err := Import(strings.NewReader(content), table, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.ColumnsCreated != 0 {
		t.Errorf("columns created = %d, want 0 (both reused)", res.ColumnsCreated)
	}
	if first.DefaultValue != "NT=Oxidation" || second.DefaultValue != "NT=Carbamidomethyl" {
		t.Errorf("occurrence mapping wrong: %q / %q", first.DefaultValue, second.DefaultValue)
	}
}

func TestImportInferredPool(t *testing.T) {
	content := "source name\tcharacteristics[organism]\tcharacteristics[pooled sample]\n" +
		"D-HEp3 #1\thomo sapiens\tpooled\n" +
		"D-HEp3 #2\thomo sapiens\tpooled\n" +
		"T-HEp3 #1\thomo sapiens\tnot pooled\n"

	table := metatable.New("t", 0)
	res, err := Import(strings.NewReader(content), table, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.PoolsImported != 1 {
		t.Fatalf("pools imported = %d", res.PoolsImported)
	}

	pool := table.PoolByName("Pool 1")
	if pool == nil {
		t.Fatal("inferred pool missing")
	}
	if pool.IsReference {
		t.Error("inferred pool must not be a reference pool")
	}
	if got := pool.SampleStatus(1); got != "pooled_only" {
		t.Errorf("sample 1 status = %q", got)
	}
	if got := pool.SampleStatus(3); got != "not_in_pool" {
		t.Errorf("sample 3 status = %q", got)
	}
}

func TestImportReferencePool(t *testing.T) {
	content := "source name\tcharacteristics[organism]\tcharacteristics[pooled sample]\n" +
		"S1\thomo sapiens\tpooled\n" +
		"S2\thomo sapiens\tnot pooled\n" +
		"Pool A\thomo sapiens\tSN=S1,S2,S9\n"

	table := metatable.New("t", 2)
	res, err := Import(strings.NewReader(content), table, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}

	pool := table.PoolByName("Pool A")
	if pool == nil {
		t.Fatal("reference pool missing")
	}
	if !pool.IsReference {
		t.Error("SN= pool must be a reference pool")
	}
	// S1's own row says "pooled", S2's says "not pooled".
	if got := pool.SampleStatus(1); got != "pooled_only" {
		t.Errorf("sample 1 status = %q", got)
	}
	if got := pool.SampleStatus(2); got != "pooled_and_independent" {
		t.Errorf("sample 2 status = %q", got)
	}

	// S9 is listed but matches no sample row.
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "S9") {
		t.Errorf("warnings = %v", res.Warnings)
	}

	// The SN= row left the sample matrix.
	col := table.ColumnByOccurrence("source name", 1)
	if got := col.Resolve(2); got != "S2" {
		t.Errorf("sample 2 source name = %q", got)
	}
	if table.SampleCount != 2 {
		t.Errorf("sample count = %d", table.SampleCount)
	}
}

func TestImportReplace(t *testing.T) {
	table := metatable.New("t", 1)
	table.AddColumn(metatable.ColumnSpec{Name: "obsolete", DefaultValue: "x"}, nil)

	content := "source name\nS1\n"
	if _, err := Import(strings.NewReader(content), table, ImportOptions{Replace: true}); err != nil {
		t.Fatal(err)
	}

	if len(table.Columns) != 1 || table.Columns[0].Name != "source name" {
		t.Errorf("columns after replace = %+v", columnNamesOf(table))
	}
}

func columnNamesOf(t *metatable.Table) []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.SortedColumns() {
		out = append(out, c.Name)
	}
	return out
}
