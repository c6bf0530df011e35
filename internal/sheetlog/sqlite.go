// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sheetlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/printlist/pkg/types"
)

// Cell is one stored print-list value.
type Cell struct {
	Row   int    `json:"row" yaml:"row"`
	Col   int    `json:"col" yaml:"col"`
	Value string `json:"value" yaml:"value"`
}

// Store is a print list kept in a local SQLite database.
type Store struct {
	db   *sql.DB
	geom Geometry
}

// OpenSQLite opens or creates the database at cfg.Path and creates the
// schema if it does not exist.
func OpenSQLite(cfg types.SQLiteConfig, g Geometry) (*Store, error) {
	if g.BlockRows <= 0 {
		return nil, fmt.Errorf("block rows must be positive, got %d", g.BlockRows)
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serialises block allocation across goroutines.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, geom: g}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS blocks (
			idx INTEGER PRIMARY KEY,
			origin INTEGER NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cells (
			row_no INTEGER NOT NULL,
			col_no INTEGER NOT NULL,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (row_no, col_no)
		)`,
		`CREATE TABLE IF NOT EXISTS validations (
			origin INTEGER NOT NULL,
			col_no INTEGER NOT NULL,
			from_row INTEGER NOT NULL,
			to_row INTEGER NOT NULL,
			options TEXT NOT NULL,
			PRIMARY KEY (origin, col_no)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// NextBlockOrigin records a new block and returns its origin. The block
// index is the number of blocks already recorded.
func (s *Store) NextBlockOrigin(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var idx int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&idx); err != nil {
		return 0, fmt.Errorf("counting blocks: %w", err)
	}
	origin := s.geom.OriginForIndex(idx)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO blocks (idx, origin, created_at) VALUES (?, ?, ?)`,
		idx, origin, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return 0, fmt.Errorf("recording block %d: %w", idx, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing block %d: %w", idx, err)
	}
	return origin, nil
}

// WriteCell stores value at row, col, replacing any previous value.
func (s *Store) WriteCell(ctx context.Context, row, col int, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cells (row_no, col_no, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (row_no, col_no) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		row, col, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cell (%d,%d): %w", row, col, err)
	}
	return nil
}

// StyleBlock records the block's dropdowns.
func (s *Store) StyleBlock(ctx context.Context, origin int) error {
	vals, err := s.geom.Validations(origin)
	if err != nil {
		return err
	}
	for _, v := range vals {
		opts, err := json.Marshal(v.Options)
		if err != nil {
			return fmt.Errorf("encoding options: %w", err)
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO validations (origin, col_no, from_row, to_row, options) VALUES (?, ?, ?, ?, ?)`,
			origin, v.Column, v.FromRow, v.ToRow, string(opts),
		); err != nil {
			return fmt.Errorf("styling block at row %d: %w", origin, err)
		}
	}
	return nil
}

// Cells returns every stored value in row-major order.
func (s *Store) Cells(ctx context.Context) ([]Cell, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT row_no, col_no, value FROM cells ORDER BY row_no, col_no`)
	if err != nil {
		return nil, fmt.Errorf("querying cells: %w", err)
	}
	defer rows.Close()

	var out []Cell
	for rows.Next() {
		var c Cell
		if err := rows.Scan(&c.Row, &c.Col, &c.Value); err != nil {
			return nil, fmt.Errorf("scanning cell: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Validations returns the dropdowns recorded for the block at origin.
func (s *Store) Validations(ctx context.Context, origin int) ([]Validation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT col_no, from_row, to_row, options FROM validations WHERE origin = ? ORDER BY col_no`, origin)
	if err != nil {
		return nil, fmt.Errorf("querying validations: %w", err)
	}
	defer rows.Close()

	var out []Validation
	for rows.Next() {
		var v Validation
		var opts string
		if err := rows.Scan(&v.Column, &v.FromRow, &v.ToRow, &opts); err != nil {
			return nil, fmt.Errorf("scanning validation: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &v.Options); err != nil {
			return nil, fmt.Errorf("decoding options: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Reset empties the print list.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"validations", "cells", "blocks"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}
