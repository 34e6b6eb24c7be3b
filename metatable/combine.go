package metatable

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// CombineColumnwise builds a new table holding every source table's
// columns side by side. Sample counts must agree; pools are not carried
// over, since a pool's sample indices are only meaningful against its own
// table's column set.
func CombineColumnwise(name string, sources ...*Table) (*Table, error) {
	if len(sources) == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: no source tables", ErrValidationFailure))
	}

	sampleCount := sources[0].SampleCount
	for _, src := range sources[1:] {
		if src.SampleCount != sampleCount {
			return nil, pfx.Err(fmt.Errorf(
				"%w: sample counts differ (%d vs %d)", ErrValidationFailure, sampleCount, src.SampleCount))
		}
	}

	out := New(name, sampleCount)
	position := 0
	for _, src := range sources {
		for _, c := range src.SortedColumns() {
			clone := c.Clone()
			clone.ID = out.allocColumnID()
			clone.Position = position
			position++
			out.Columns = append(out.Columns, clone)
		}
	}

	return out, nil
}

// CombineRowwise builds a new table stacking the source tables' samples.
// Columns are matched by name and occurrence; a column missing from one
// source leaves that source's sample span on the fallback value. Pools
// carry over with their sample indices shifted by the preceding tables'
// sample counts.
func CombineRowwise(name string, sources ...*Table) (*Table, error) {
	if len(sources) == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: no source tables", ErrValidationFailure))
	}

	total := 0
	for _, src := range sources {
		total += src.SampleCount
	}

	out := New(name, total)

	// Column identity across tables is (name, occurrence index).
	type colKey struct {
		name       string
		occurrence int
	}
	valueMaps := make(map[colKey]map[int]string)
	var keyOrder []colKey
	prototypes := make(map[colKey]*Column)

	offset := 0
	for _, src := range sources {
		occurrences := make(map[string]int)
		for _, c := range src.SortedColumns() {
			occurrences[c.Name]++
			key := colKey{name: c.Name, occurrence: occurrences[c.Name]}

			if _, ok := valueMaps[key]; !ok {
				valueMaps[key] = make(map[int]string)
				keyOrder = append(keyOrder, key)
				prototypes[key] = c
			}

			for s := 1; s <= src.SampleCount; s++ {
				if v := c.resolveRaw(s); v != "" {
					valueMaps[key][offset+s] = v
				}
			}
		}
		offset += src.SampleCount
	}

	for i, key := range keyOrder {
		proto := prototypes[key]
		col := proto.Clone()
		col.ID = out.allocColumnID()
		col.Position = i
		col.DefaultValue, col.Modifiers = Compact(valueMaps[key])
		out.Columns = append(out.Columns, col)
	}

	offset = 0
	for _, src := range sources {
		for _, p := range src.Pools {
			shifted, err := NewPool(p.Name, shiftIndices(p.PooledOnly, offset), shiftIndices(p.PooledAndIndependent, offset))
			if err != nil {
				return nil, err
			}
			shifted.IsReference = p.IsReference
			if err := out.AddPool(shifted); err != nil {
				return nil, err
			}
		}
		offset += src.SampleCount
	}

	return out, nil
}

func shiftIndices(indices []int, offset int) []int {
	out := make([]int, len(indices))
	for i, v := range indices {
		out[i] = v + offset
	}
	return out
}
