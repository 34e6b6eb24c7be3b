package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/guregu/null.v3"

	"github.com/proteomehub/sdrftable/metatable"
)

const schema = `
CREATE TABLE IF NOT EXISTS metadata_tables (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	sample_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS metadata_columns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	table_id INTEGER NOT NULL REFERENCES metadata_tables(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	default_value TEXT,
	modifiers TEXT,
	not_applicable INTEGER NOT NULL DEFAULT 0,
	hidden INTEGER NOT NULL DEFAULT 0,
	mandatory INTEGER NOT NULL DEFAULT 0,
	readonly INTEGER NOT NULL DEFAULT 0,
	auto_generated INTEGER NOT NULL DEFAULT 0,
	ontology_type TEXT,
	position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sample_pools (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	table_id INTEGER NOT NULL REFERENCES metadata_tables(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	pooled_only TEXT NOT NULL DEFAULT '[]',
	pooled_and_independent TEXT NOT NULL DEFAULT '[]',
	is_reference INTEGER NOT NULL DEFAULT 0,
	columns TEXT
);

CREATE INDEX IF NOT EXISTS idx_columns_table ON metadata_columns(table_id);
CREATE INDEX IF NOT EXISTS idx_pools_table ON sample_pools(table_id);
`

// SQL is a SQLite-backed Store.
type SQL struct {
	db *sqlx.DB
}

// Open connects to a SQLite database and ensures the schema exists.
// Use ":memory:" for an ephemeral database.
func Open(dsn string) (*SQL, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, pfx.Err(err)
	}
	// SQLite is effectively single-writer, and a pool of connections
	// against ":memory:" would each see a different database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}
	return &SQL{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQL) Close() error {
	return s.db.Close()
}

type tableRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	SampleCount int    `db:"sample_count"`
}

type columnRow struct {
	ID            int64       `db:"id"`
	TableID       int64       `db:"table_id"`
	Name          string      `db:"name"`
	Category      string      `db:"category"`
	DefaultValue  null.String `db:"default_value"`
	Modifiers     null.String `db:"modifiers"`
	NotApplicable bool        `db:"not_applicable"`
	Hidden        bool        `db:"hidden"`
	Mandatory     bool        `db:"mandatory"`
	Readonly      bool        `db:"readonly"`
	AutoGenerated bool        `db:"auto_generated"`
	OntologyType  null.String `db:"ontology_type"`
	Position      int         `db:"position"`
}

type poolRow struct {
	ID                   int64       `db:"id"`
	TableID              int64       `db:"table_id"`
	Name                 string      `db:"name"`
	PooledOnly           string      `db:"pooled_only"`
	PooledAndIndependent string      `db:"pooled_and_independent"`
	IsReference          bool        `db:"is_reference"`
	Columns              null.String `db:"columns"`
}

func (s *SQL) CreateTable(ctx context.Context, t *metatable.Table) error {
	return s.WithinTx(ctx, func(tx Store) error {
		st := tx.(*sqlTx)
		res, err := st.tx.ExecContext(ctx,
			"INSERT INTO metadata_tables (name, sample_count) VALUES (?, ?)",
			t.Name, t.SampleCount)
		if err != nil {
			return pfx.Err(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return pfx.Err(err)
		}
		t.ID = id
		return writeChildren(ctx, st.tx, t)
	})
}

func (s *SQL) GetTable(ctx context.Context, id int64) (*metatable.Table, error) {
	return getTable(ctx, s.db, id)
}

func (s *SQL) ListTables(ctx context.Context) ([]*metatable.Table, error) {
	return listTables(ctx, s.db)
}

func (s *SQL) SaveTable(ctx context.Context, t *metatable.Table) error {
	return s.WithinTx(ctx, func(tx Store) error {
		st := tx.(*sqlTx)
		return saveTable(ctx, st.tx, t)
	})
}

func (s *SQL) DeleteTable(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM metadata_tables WHERE id = ?", id)
	if err != nil {
		return pfx.Err(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pfx.Err(err)
	}
	if n == 0 {
		return pfx.Err(fmt.Errorf("%w: table %d", metatable.ErrNotFound, id))
	}
	return nil
}

// WithinTx starts one database transaction and hands fn a Store bound to
// it; rollback on error, commit otherwise.
func (s *SQL) WithinTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return pfx.Err(err)
	}

	if err := fn(&sqlTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return pfx.Err(tx.Commit())
}

// sqlTx is the transaction-bound view of SQL.
type sqlTx struct {
	tx *sqlx.Tx
}

func (s *sqlTx) CreateTable(ctx context.Context, t *metatable.Table) error {
	res, err := s.tx.ExecContext(ctx,
		"INSERT INTO metadata_tables (name, sample_count) VALUES (?, ?)",
		t.Name, t.SampleCount)
	if err != nil {
		return pfx.Err(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pfx.Err(err)
	}
	t.ID = id
	return writeChildren(ctx, s.tx, t)
}

func (s *sqlTx) GetTable(ctx context.Context, id int64) (*metatable.Table, error) {
	return getTable(ctx, s.tx, id)
}

func (s *sqlTx) ListTables(ctx context.Context) ([]*metatable.Table, error) {
	return listTables(ctx, s.tx)
}

func (s *sqlTx) SaveTable(ctx context.Context, t *metatable.Table) error {
	return saveTable(ctx, s.tx, t)
}

func (s *sqlTx) DeleteTable(ctx context.Context, id int64) error {
	res, err := s.tx.ExecContext(ctx, "DELETE FROM metadata_tables WHERE id = ?", id)
	if err != nil {
		return pfx.Err(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pfx.Err(err)
	}
	if n == 0 {
		return pfx.Err(fmt.Errorf("%w: table %d", metatable.ErrNotFound, id))
	}
	return nil
}

// WithinTx on an already transactional view just runs fn in place;
// SQLite has no nested transactions worth modeling here.
func (s *sqlTx) WithinTx(_ context.Context, fn func(Store) error) error {
	return fn(s)
}

// queryer covers *sqlx.DB and *sqlx.Tx for the shared read/write paths.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func getTable(ctx context.Context, q queryer, id int64) (*metatable.Table, error) {
	var row tableRow
	err := q.GetContext(ctx, &row, "SELECT id, name, sample_count FROM metadata_tables WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pfx.Err(fmt.Errorf("%w: table %d", metatable.ErrNotFound, id))
	}
	if err != nil {
		return nil, pfx.Err(err)
	}
	return loadTable(ctx, q, row)
}

func listTables(ctx context.Context, q queryer) ([]*metatable.Table, error) {
	var rows []tableRow
	if err := q.SelectContext(ctx, &rows, "SELECT id, name, sample_count FROM metadata_tables ORDER BY id"); err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]*metatable.Table, 0, len(rows))
	for _, row := range rows {
		t, err := loadTable(ctx, q, row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func loadTable(ctx context.Context, q queryer, row tableRow) (*metatable.Table, error) {
	t := metatable.New(row.Name, row.SampleCount)
	t.ID = row.ID

	var colRows []columnRow
	err := q.SelectContext(ctx, &colRows,
		"SELECT id, table_id, name, category, default_value, modifiers, not_applicable, hidden, mandatory, readonly, auto_generated, ontology_type, position FROM metadata_columns WHERE table_id = ? ORDER BY position, name",
		row.ID)
	if err != nil {
		return nil, pfx.Err(err)
	}
	for _, cr := range colRows {
		col := &metatable.Column{
			ID:            cr.ID,
			Name:          cr.Name,
			Category:      metatable.Category(cr.Category),
			DefaultValue:  cr.DefaultValue.ValueOrZero(),
			NotApplicable: cr.NotApplicable,
			Hidden:        cr.Hidden,
			Mandatory:     cr.Mandatory,
			Readonly:      cr.Readonly,
			AutoGenerated: cr.AutoGenerated,
			OntologyType:  cr.OntologyType.ValueOrZero(),
			Position:      cr.Position,
		}
		if cr.Modifiers.Valid && cr.Modifiers.String != "" {
			if err := json.Unmarshal([]byte(cr.Modifiers.String), &col.Modifiers); err != nil {
				return nil, pfx.Err(fmt.Errorf("column %d modifiers: %w", cr.ID, err))
			}
		}
		t.Columns = append(t.Columns, col)
	}

	var poolRows []poolRow
	err = q.SelectContext(ctx, &poolRows,
		"SELECT id, table_id, name, pooled_only, pooled_and_independent, is_reference, columns FROM sample_pools WHERE table_id = ? ORDER BY id",
		row.ID)
	if err != nil {
		return nil, pfx.Err(err)
	}
	for _, pr := range poolRows {
		p := &metatable.Pool{
			ID:          pr.ID,
			Name:        pr.Name,
			IsReference: pr.IsReference,
		}
		if err := json.Unmarshal([]byte(pr.PooledOnly), &p.PooledOnly); err != nil {
			return nil, pfx.Err(fmt.Errorf("pool %d pooled_only: %w", pr.ID, err))
		}
		if err := json.Unmarshal([]byte(pr.PooledAndIndependent), &p.PooledAndIndependent); err != nil {
			return nil, pfx.Err(fmt.Errorf("pool %d pooled_and_independent: %w", pr.ID, err))
		}
		if pr.Columns.Valid && pr.Columns.String != "" {
			if err := json.Unmarshal([]byte(pr.Columns.String), &p.Columns); err != nil {
				return nil, pfx.Err(fmt.Errorf("pool %d columns: %w", pr.ID, err))
			}
		}
		t.Pools = append(t.Pools, p)
	}

	t.SyncIDCounters()
	return t, nil
}

func saveTable(ctx context.Context, q queryer, t *metatable.Table) error {
	res, err := q.ExecContext(ctx,
		"UPDATE metadata_tables SET name = ?, sample_count = ? WHERE id = ?",
		t.Name, t.SampleCount, t.ID)
	if err != nil {
		return pfx.Err(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pfx.Err(err)
	}
	if n == 0 {
		return pfx.Err(fmt.Errorf("%w: table %d", metatable.ErrNotFound, t.ID))
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM metadata_columns WHERE table_id = ?", t.ID); err != nil {
		return pfx.Err(err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM sample_pools WHERE table_id = ?", t.ID); err != nil {
		return pfx.Err(err)
	}
	return writeChildren(ctx, q, t)
}

func writeChildren(ctx context.Context, q queryer, t *metatable.Table) error {
	for _, c := range t.SortedColumns() {
		modifiers, err := marshalJSON(c.Modifiers)
		if err != nil {
			return pfx.Err(err)
		}
		_, err = q.ExecContext(ctx,
			`INSERT INTO metadata_columns
				(table_id, name, category, default_value, modifiers, not_applicable, hidden, mandatory, readonly, auto_generated, ontology_type, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, c.Name, string(c.Category),
			nullIfEmpty(c.DefaultValue), modifiers,
			c.NotApplicable, c.Hidden, c.Mandatory, c.Readonly, c.AutoGenerated,
			nullIfEmpty(c.OntologyType), c.Position)
		if err != nil {
			return pfx.Err(err)
		}
	}

	for _, p := range t.Pools {
		only, err := json.Marshal(orEmpty(p.PooledOnly))
		if err != nil {
			return pfx.Err(err)
		}
		both, err := json.Marshal(orEmpty(p.PooledAndIndependent))
		if err != nil {
			return pfx.Err(err)
		}
		cols, err := marshalJSON(p.Columns)
		if err != nil {
			return pfx.Err(err)
		}
		_, err = q.ExecContext(ctx,
			`INSERT INTO sample_pools
				(table_id, name, pooled_only, pooled_and_independent, is_reference, columns)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, p.Name, string(only), string(both), p.IsReference, cols)
		if err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}

func orEmpty(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func nullIfEmpty(s string) null.String {
	return null.NewString(s, s != "")
}

func marshalJSON(v interface{}) (null.String, error) {
	if v == nil {
		return null.String{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return null.String{}, err
	}
	if string(b) == "null" {
		return null.String{}, nil
	}
	return null.StringFrom(string(b)), nil
}
