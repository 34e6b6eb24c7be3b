// Package store persists metadata tables with their columns and pools.
// Two implementations share one transactional interface: an in-memory
// store for tests and embedding, and a SQLite store for durable use.
package store

import (
	"context"

	"github.com/proteomehub/sdrftable/metatable"
)

// Store is a transactional table repository. Implementations return
// copies: mutating a returned table never changes stored state until
// SaveTable.
type Store interface {
	// CreateTable persists a new table and assigns its ID.
	CreateTable(ctx context.Context, t *metatable.Table) error

	// GetTable loads one table with its columns and pools.
	// Wraps metatable.ErrNotFound when the ID is unknown.
	GetTable(ctx context.Context, id int64) (*metatable.Table, error)

	// ListTables loads every table, ordered by ID.
	ListTables(ctx context.Context) ([]*metatable.Table, error)

	// SaveTable replaces the stored state of an existing table.
	SaveTable(ctx context.Context, t *metatable.Table) error

	// DeleteTable removes a table and everything under it.
	DeleteTable(ctx context.Context, id int64) error

	// WithinTx runs fn against a transactional view of the store:
	// either every write in fn applies, or none do.
	WithinTx(ctx context.Context, fn func(Store) error) error
}
