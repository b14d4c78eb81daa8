// Package memory is an ordered in-memory table store. Used standalone it holds
// whole tables; as an overlay it records writes on top of another store
// without forwarding them.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tidwall/btree"

	"github.com/spigell/interview-automator/internal/sheet"
)

type cell struct {
	table string
	row   int
	col   int
	value string
}

func lessCell(a, b cell) bool {
	if a.table != b.table {
		return a.table < b.table
	}
	if a.row != b.row {
		return a.row < b.row
	}
	return a.col < b.col
}

// Store keeps cells ordered by table, row and column.
type Store struct {
	lock    sync.RWMutex
	cells   *btree.BTreeG[cell]
	tables  map[string]struct{}
	base    sheet.Store
	batches int
}

// New creates a store seeded with tables; each table's first row is its header.
func New(tables map[string][][]string) *Store {
	s := &Store{
		cells:  btree.NewBTreeG(lessCell),
		tables: make(map[string]struct{}, len(tables)),
	}

	for name, rows := range tables {
		s.tables[name] = struct{}{}
		for r, values := range rows {
			for c, value := range values {
				s.cells.Set(cell{table: name, row: r + 1, col: c + 1, value: value})
			}
		}
	}

	return s
}

// NewOverlay reads through to base and keeps every write locally.
func NewOverlay(base sheet.Store) *Store {
	s := New(nil)
	s.base = base
	return s
}

func (s *Store) ReadTable(ctx context.Context, table string) ([][]string, error) {
	var rows [][]string
	if s.base != nil {
		base, err := s.base.ReadTable(ctx, table)
		if err != nil {
			return nil, err
		}
		rows = make([][]string, len(base))
		for i, r := range base {
			rows[i] = append([]string(nil), r...)
		}
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.base == nil {
		if _, ok := s.tables[table]; !ok {
			return nil, fmt.Errorf("%q: %w", table, sheet.ErrTableNotFound)
		}
	}

	s.cells.Ascend(cell{table: table}, func(c cell) bool {
		if c.table != table {
			return false
		}
		for len(rows) < c.row {
			rows = append(rows, nil)
		}
		for len(rows[c.row-1]) < c.col {
			rows[c.row-1] = append(rows[c.row-1], "")
		}
		rows[c.row-1][c.col-1] = c.value
		return true
	})

	return rows, nil
}

func (s *Store) WriteCells(_ context.Context, table string, cells []sheet.Cell) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.base == nil {
		if _, ok := s.tables[table]; !ok {
			return fmt.Errorf("%q: %w", table, sheet.ErrTableNotFound)
		}
	}

	for _, c := range cells {
		if c.Row <= 0 || c.Col <= 0 {
			return fmt.Errorf("invalid cell %d:%d in %q", c.Row, c.Col, table)
		}
		s.cells.Set(cell{table: table, row: c.Row, col: c.Col, value: c.Value})
	}
	s.batches++

	return nil
}

// Changes returns the cells written to table in row/column order. On a
// standalone store this includes the seeded cells.
func (s *Store) Changes(table string) []sheet.Cell {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var out []sheet.Cell
	s.cells.Ascend(cell{table: table}, func(c cell) bool {
		if c.table != table {
			return false
		}
		out = append(out, sheet.Cell{Row: c.row, Col: c.col, Value: c.value})
		return true
	})
	return out
}

// Tables lists the tables holding at least one cell, in order.
func (s *Store) Tables() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var names []string
	s.cells.Scan(func(c cell) bool {
		if len(names) == 0 || names[len(names)-1] != c.table {
			names = append(names, c.table)
		}
		return true
	})
	return names
}

// Batches returns the number of WriteCells calls served.
func (s *Store) Batches() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.batches
}
