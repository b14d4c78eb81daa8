// Package sheet keeps in-memory snapshots of backing tables and buffers writes
// to them through scoped transactions.
package sheet

import (
	"context"
	"errors"
	"strconv"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrUnknownColumn = errors.New("unknown column")
	ErrRowOutOfRange = errors.New("row out of range")
	ErrTxClosed      = errors.New("transaction is closed")
	ErrTxActive      = errors.New("table already has an open transaction")
)

// Cell is a single write addressed by 1-based spreadsheet coordinates.
type Cell struct {
	Row   int
	Col   int
	Value string
}

// A1 renders the cell position in spreadsheet notation, e.g. C12.
func (c Cell) A1() string {
	return ColumnName(c.Col) + strconv.Itoa(c.Row)
}

// Store is the backing tabular source.
type Store interface {
	// ReadTable returns every row of the named table, header row first.
	ReadTable(ctx context.Context, table string) ([][]string, error)
	// WriteCells applies the cells in order.
	WriteCells(ctx context.Context, table string, cells []Cell) error
}

const (
	// headerOffset maps snapshot row i to sheet row i+headerOffset.
	headerOffset = 2
	// columnOffset maps column position j to sheet column j+columnOffset.
	columnOffset = 1
)

// SheetRow converts a 0-based snapshot row index to a 1-based sheet row.
func SheetRow(idx int) int { return idx + headerOffset }

// SheetCol converts a 0-based column position to a 1-based sheet column.
func SheetCol(pos int) int { return pos + columnOffset }

// ColumnName converts a 1-based column number to its letter name: 1 -> A, 27 -> AA.
func ColumnName(col int) string {
	if col <= 0 {
		return ""
	}

	var name []byte
	for col > 0 {
		col--
		name = append([]byte{byte('A' + col%26)}, name...)
		col /= 26
	}
	return string(name)
}
