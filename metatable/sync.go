package metatable

import (
	"fmt"
	"strings"

	"github.com/carbocation/pfx"
)

type syncAction int

const (
	syncAdd syncAction = iota
	syncRemove
)

// syncColumnToPools propagates a column add/remove on the table to every
// pool, keeping each pool's derived column name set equal to the table's.
func (t *Table) syncColumnToPools(c *Column, action syncAction) {
	for _, p := range t.Pools {
		switch action {
		case syncAdd:
			p.Columns = append(p.Columns, t.derivePoolColumn(c, p))
		case syncRemove:
			kept := p.Columns[:0]
			for _, pc := range p.Columns {
				if !strings.EqualFold(pc.Name, c.Name) {
					kept = append(kept, pc)
				}
			}
			p.Columns = kept
		}
	}
}

// AddPool validates a pool against the table's sample range, derives its
// column snapshot, and attaches it.
func (t *Table) AddPool(p *Pool) error {
	if len(p.AllSamples()) == 0 {
		return pfx.Err(fmt.Errorf("%w: %q", ErrEmptyPool, p.Name))
	}
	for _, s := range p.AllSamples() {
		if s < 1 || s > t.SampleCount {
			return pfx.Err(fmt.Errorf(
				"%w: pool %q references sample %d outside 1-%d",
				ErrValidationFailure, p.Name, s, t.SampleCount))
		}
	}

	p.ID = t.allocPoolID()
	t.RefreshPool(p)
	t.Pools = append(t.Pools, p)
	return nil
}

// RemovePool deletes a pool by ID.
func (t *Table) RemovePool(id int64) error {
	for i, p := range t.Pools {
		if p.ID == id {
			t.Pools = append(t.Pools[:i], t.Pools[i+1:]...)
			return nil
		}
	}
	return pfx.Err(fmt.Errorf("%w: pool %d", ErrNotFound, id))
}

// PoolByName finds a pool by name, nil when absent.
func (t *Table) PoolByName(name string) *Pool {
	for _, p := range t.Pools {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PoolSpec describes one pool arriving from an import. MetadataRow, when
// present, is the pool's own data row aligned to the table's sorted
// columns; SN= reference pools carry it, inferred pools do not.
type PoolSpec struct {
	ID                   int64
	Name                 string
	PooledOnly           []int
	PooledAndIndependent []int
	IsReference          bool
	SDRFValue            string
	MetadataRow          []string
}

// SyncPoolsWithImport reconciles the table's pools against an imported
// list: matched pools (by ID first, name second) update in place with
// refreshed derived columns, unmatched specs create pools, and existing
// pools absent from the import are deleted. This is replace-on-import, not
// a merge.
func (t *Table) SyncPoolsWithImport(specs []PoolSpec) error {
	byID := make(map[int64]*Pool, len(t.Pools))
	byName := make(map[string]*Pool, len(t.Pools))
	for _, p := range t.Pools {
		byID[p.ID] = p
		byName[p.Name] = p
	}

	importedNames := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		importedNames[spec.Name] = struct{}{}
	}

	for _, spec := range specs {
		var existing *Pool
		if spec.ID != 0 {
			existing = byID[spec.ID]
		}
		if existing == nil {
			existing = byName[spec.Name]
		}

		if existing != nil {
			existing.Name = spec.Name
			existing.PooledOnly = append([]int(nil), spec.PooledOnly...)
			existing.PooledAndIndependent = append([]int(nil), spec.PooledAndIndependent...)
			existing.IsReference = spec.IsReference
			t.applyPoolSpecColumns(existing, spec)
			continue
		}

		pool, err := NewPool(spec.Name, spec.PooledOnly, spec.PooledAndIndependent)
		if err != nil {
			return err
		}
		pool.IsReference = spec.IsReference
		if err := t.AddPool(pool); err != nil {
			return err
		}
		t.applyPoolSpecColumns(pool, spec)
	}

	kept := t.Pools[:0]
	for _, p := range t.Pools {
		if _, ok := importedNames[p.Name]; ok {
			kept = append(kept, p)
		}
	}
	t.Pools = kept

	return nil
}

// applyPoolSpecColumns rebuilds a pool's derived columns from its import
// spec. Reference pools with their own metadata row take cell values from
// it; everything else goes through the aggregator. The reserved pooled
// sample and source name columns always come from the spec / pool name.
func (t *Table) applyPoolSpecColumns(p *Pool, spec PoolSpec) {
	cols := t.SortedColumns()
	derived := make([]*Column, 0, len(cols))

	useRow := spec.IsReference && strings.HasPrefix(spec.SDRFValue, "SN=") && len(spec.MetadataRow) > 0

	for i, c := range cols {
		pc := t.derivePoolColumn(c, p)

		switch {
		case isPooledSampleColumn(c.Name):
			if spec.SDRFValue != "" {
				pc.DefaultValue = spec.SDRFValue
			}
		case isSourceNameColumn(c.Name):
			pc.DefaultValue = p.Name
		case useRow && i < len(spec.MetadataRow) && spec.MetadataRow[i] != "":
			pc.DefaultValue = spec.MetadataRow[i]
		}

		if pc.DefaultValue == "" {
			pc.DefaultValue = NotAvailable
		}

		derived = append(derived, pc)
	}

	p.Columns = derived
}
