package sheet

import (
	"context"
	"errors"
	"fmt"
)

// Table is a snapshot of one backing table. Reads never see edits made to the
// backing store after Load; writes made through a Tx are visible immediately.
type Table struct {
	name    string
	store   Store
	columns []string
	index   map[string]int
	rows    []Record
	tx      *Tx
}

// Load reads the named table. The first row names the columns.
func Load(ctx context.Context, store Store, name string) (*Table, error) {
	raw, err := store.ReadTable(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read table %q: %w", name, err)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("table %q has no header row: %w", name, ErrTableNotFound)
	}

	t := &Table{
		name:    name,
		store:   store,
		columns: append([]string(nil), raw[0]...),
		index:   make(map[string]int, len(raw[0])),
		rows:    make([]Record, 0, len(raw)-1),
	}

	for pos, column := range t.columns {
		if _, ok := t.index[column]; ok {
			continue
		}
		t.index[column] = pos
	}

	// A repeated header resolves to its first position for reads and writes.
	for _, values := range raw[1:] {
		rec := make(Record, len(t.index))
		for column, pos := range t.index {
			if pos < len(values) {
				rec[column] = values[pos]
			} else {
				rec[column] = ""
			}
		}
		t.rows = append(t.rows, rec)
	}

	return t, nil
}

func (t *Table) Name() string { return t.name }

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// ColumnIndex returns the 0-based position of the column.
func (t *Table) ColumnIndex(name string) (int, error) {
	pos, ok := t.index[name]
	if !ok {
		return 0, fmt.Errorf("%q in table %q: %w", name, t.name, ErrUnknownColumn)
	}
	return pos, nil
}

// HasColumn reports whether the table has the column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the trimmed value at row/column, or "" when out of range.
func (t *Table) Value(row int, column string) string {
	if row < 0 || row >= len(t.rows) {
		return ""
	}
	return t.rows[row].Get(column)
}

// Row returns a copy of the record at idx.
func (t *Table) Row(idx int) Record {
	if idx < 0 || idx >= len(t.rows) {
		return nil
	}
	return t.rows[idx].clone()
}

// Begin opens the table's single write transaction. The caller must Close it.
func (t *Table) Begin(ctx context.Context) (*Tx, error) {
	if t.tx != nil {
		return nil, fmt.Errorf("begin on %q: %w", t.name, ErrTxActive)
	}

	t.tx = &Tx{ctx: ctx, table: t}
	return t.tx, nil
}

// Update runs fn inside a transaction and always flushes what fn accumulated,
// whether fn returns an error or panics. Flush errors are joined with fn's.
func (t *Table) Update(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := t.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := tx.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	return fn(tx)
}

func (t *Table) set(row int, column, value string) (Cell, error) {
	pos, err := t.ColumnIndex(column)
	if err != nil {
		return Cell{}, err
	}

	if row < 0 || row > len(t.rows) {
		return Cell{}, fmt.Errorf("row %d of %q (len %d): %w", row, t.name, len(t.rows), ErrRowOutOfRange)
	}

	if row == len(t.rows) {
		rec := make(Record, len(t.columns))
		for _, c := range t.columns {
			rec[c] = ""
		}
		t.rows = append(t.rows, rec)
	}

	t.rows[row][column] = value

	return Cell{Row: SheetRow(row), Col: SheetCol(pos), Value: value}, nil
}
