// Package sqlite stores tables cell by cell in a local SQLite file. It backs
// offline runs against a mirror of the spreadsheet.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spigell/interview-automator/internal/sheet"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema. Missing
// parent directories are created.
func Open(path string) (*Store, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func (s *Store) ReadTable(ctx context.Context, table string) ([][]string, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tables WHERE name = ?", table).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup table %q: %w", table, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%q: %w", table, sheet.ErrTableNotFound)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT row_no, col_no, value FROM cells WHERE tbl = ? ORDER BY row_no, col_no", table)
	if err != nil {
		return nil, fmt.Errorf("query cells of %q: %w", table, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var r, c int
		var value string
		if err := rows.Scan(&r, &c, &value); err != nil {
			return nil, err
		}
		for len(out) < r {
			out = append(out, nil)
		}
		for len(out[r-1]) < c {
			out[r-1] = append(out[r-1], "")
		}
		out[r-1][c-1] = value
	}

	return out, rows.Err()
}

func (s *Store) WriteCells(ctx context.Context, table string, cells []sheet.Cell) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range cells {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cells (tbl, row_no, col_no, value) VALUES (?, ?, ?, ?)
			 ON CONFLICT (tbl, row_no, col_no) DO UPDATE SET value = excluded.value`,
			table, c.Row, c.Col, c.Value)
		if err != nil {
			return fmt.Errorf("write %s!%s: %w", table, c.A1(), err)
		}
	}

	return tx.Commit()
}

// Mirror replaces the stored copy of table with rows, header first.
func (s *Store) Mirror(ctx context.Context, table string, rows [][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cells WHERE tbl = ?", table); err != nil {
		return fmt.Errorf("clear %q: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tables (name, mirrored_at) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET mirrored_at = excluded.mirrored_at`,
		table, s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("register %q: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO cells (tbl, row_no, col_no, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for r, values := range rows {
		for c, value := range values {
			if value == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, table, r+1, c+1, value); err != nil {
				return fmt.Errorf("mirror %q row %d: %w", table, r+1, err)
			}
		}
	}

	return tx.Commit()
}
