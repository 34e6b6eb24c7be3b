package metatable

import (
	"fmt"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/proteomehub/sdrftable/samplerange"
)

// Pool is a named grouping of samples reported as one aggregate entry.
// PooledOnly samples exist only inside the pool; PooledAndIndependent
// samples are additionally reported on their own. Columns holds the
// pool-level derived values: structurally parallel to the parent table's
// columns but flat, one value per column, refreshed on demand.
type Pool struct {
	ID                   int64
	Name                 string
	PooledOnly           []int
	PooledAndIndependent []int
	IsReference          bool
	Columns              []*Column
}

// NewPool validates and creates a pool. The two sample sets must be
// disjoint and their union non-empty.
func NewPool(name string, pooledOnly, pooledAndIndependent []int) (*Pool, error) {
	only := samplerange.New(pooledOnly...)
	both := samplerange.New(pooledAndIndependent...)

	if len(only)+len(both) == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: %q", ErrEmptyPool, name))
	}
	for _, v := range both {
		if only.Contains(v) {
			return nil, pfx.Err(fmt.Errorf(
				"%w: sample %d is both pooled-only and independent in %q", ErrValidationFailure, v, name))
		}
	}

	return &Pool{Name: name, PooledOnly: only, PooledAndIndependent: both}, nil
}

// AllSamples returns the sorted union of both member sets.
func (p *Pool) AllSamples() []int {
	return samplerange.New(append(append([]int{}, p.PooledOnly...), p.PooledAndIndependent...)...)
}

// SampleStatus reports how a sample participates in the pool:
// "pooled_only", "pooled_and_independent", or "not_in_pool".
func (p *Pool) SampleStatus(sample int) string {
	if samplerange.Set(p.PooledOnly).Contains(sample) {
		return "pooled_only"
	}
	if samplerange.Set(p.PooledAndIndependent).Contains(sample) {
		return "pooled_and_independent"
	}
	return "not_in_pool"
}

// AddSample puts a sample into the pool under the given status, moving it
// between sets when already present.
func (p *Pool) AddSample(sample int, independent bool) {
	p.RemoveSample(sample)
	if independent {
		p.PooledAndIndependent = samplerange.New(append(p.PooledAndIndependent, sample)...)
	} else {
		p.PooledOnly = samplerange.New(append(p.PooledOnly, sample)...)
	}
}

// RemoveSample drops a sample from both member sets.
func (p *Pool) RemoveSample(sample int) {
	p.PooledOnly = removeInt(p.PooledOnly, sample)
	p.PooledAndIndependent = removeInt(p.PooledAndIndependent, sample)
}

func removeInt(indices []int, v int) []int {
	out := indices[:0]
	for _, i := range indices {
		if i != v {
			out = append(out, i)
		}
	}
	return out
}

// SDRFValue renders the pool's "pooled sample" cell: SN= followed by the
// member samples' source names, falling back to "sample N" when the table
// has no source-name column value for a member. An empty pool renders as
// "not pooled".
func (p *Pool) SDRFValue(t *Table) string {
	samples := p.AllSamples()
	if len(samples) == 0 {
		return "not pooled"
	}

	var sourceCol *Column
	for _, c := range t.SortedColumns() {
		if c.Category == CategorySourceName {
			sourceCol = c
			break
		}
	}

	names := make([]string, 0, len(samples))
	for _, s := range samples {
		name := ""
		if sourceCol != nil {
			name = sourceCol.resolveRaw(s)
		}
		if name == "" {
			name = fmt.Sprintf("sample %d", s)
		}
		names = append(names, name)
	}

	return "SN=" + strings.Join(names, ",")
}

// ColumnByName finds the pool's derived column with the given name,
// case-insensitive, nil when absent.
func (p *Pool) ColumnByName(name string) *Column {
	for _, c := range p.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Clone deep-copies the pool and its derived columns.
func (p *Pool) Clone() *Pool {
	out := *p
	out.PooledOnly = append([]int(nil), p.PooledOnly...)
	out.PooledAndIndependent = append([]int(nil), p.PooledAndIndependent...)
	out.Columns = make([]*Column, len(p.Columns))
	for i, c := range p.Columns {
		out.Columns[i] = c.Clone()
	}
	return &out
}
