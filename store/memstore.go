package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/carbocation/pfx"

	"github.com/proteomehub/sdrftable/metatable"
)

// Memory is an in-process Store. Tables are deep-copied on every read and
// write, so callers can mutate freely between SaveTable calls.
type Memory struct {
	mu     sync.RWMutex
	tables map[int64]*metatable.Table
	nextID int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[int64]*metatable.Table)}
}

func (m *Memory) CreateTable(_ context.Context, t *metatable.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	t.ID = m.nextID
	m.tables[t.ID] = t.Clone()
	return nil
}

func (m *Memory) GetTable(_ context.Context, id int64) (*metatable.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[id]
	if !ok {
		return nil, pfx.Err(fmt.Errorf("%w: table %d", metatable.ErrNotFound, id))
	}
	return t.Clone(), nil
}

func (m *Memory) ListTables(_ context.Context) ([]*metatable.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.tables))
	for id := range m.tables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*metatable.Table, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.tables[id].Clone())
	}
	return out, nil
}

func (m *Memory) SaveTable(_ context.Context, t *metatable.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[t.ID]; !ok {
		return pfx.Err(fmt.Errorf("%w: table %d", metatable.ErrNotFound, t.ID))
	}
	m.tables[t.ID] = t.Clone()
	return nil
}

func (m *Memory) DeleteTable(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[id]; !ok {
		return pfx.Err(fmt.Errorf("%w: table %d", metatable.ErrNotFound, id))
	}
	delete(m.tables, id)
	return nil
}

// WithinTx snapshots the full state, runs fn against a scratch store, and
// swaps the scratch state in only when fn succeeds.
func (m *Memory) WithinTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	scratch := &Memory{
		tables: make(map[int64]*metatable.Table, len(m.tables)),
		nextID: m.nextID,
	}
	for id, t := range m.tables {
		scratch.tables[id] = t.Clone()
	}
	m.mu.Unlock()

	if err := fn(scratch); err != nil {
		return err
	}

	m.mu.Lock()
	m.tables = scratch.tables
	m.nextID = scratch.nextID
	m.mu.Unlock()
	return nil
}
