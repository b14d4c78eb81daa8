package sheet

import (
	"context"
	"fmt"
	"strings"
)

// BatchSize is the number of pending writes a Tx holds before flushing on its own.
const BatchSize = 10

// Tx buffers writes to one table. Set updates the snapshot at once; the store
// only sees the writes when the batch is flushed.
type Tx struct {
	ctx     context.Context
	table   *Table
	pending []Cell
	closed  bool
	flushes int
	written int
}

// Set writes value into column at row and returns a descriptor of the write.
// Setting row == table length appends a new row.
func (tx *Tx) Set(column string, row int, value string) (string, error) {
	if tx.closed {
		return "", ErrTxClosed
	}

	cell, err := tx.table.set(row, column, value)
	if err != nil {
		return "", err
	}

	tx.pending = append(tx.pending, cell)
	desc := fmt.Sprintf("%s!%s = %q", tx.table.name, cell.A1(), value)

	if len(tx.pending) > BatchSize {
		if err := tx.Flush(); err != nil {
			return desc, err
		}
	}

	return desc, nil
}

// Flush sends the pending writes to the store in accumulation order. The
// batch is kept when the store fails so a later Flush can retry it; Close
// does not retry and reports the writes it dropped.
func (tx *Tx) Flush() error {
	if tx.closed {
		return ErrTxClosed
	}
	return tx.flush(tx.ctx)
}

func (tx *Tx) flush(ctx context.Context) error {
	if len(tx.pending) == 0 {
		return nil
	}

	batch := make([]Cell, len(tx.pending))
	copy(batch, tx.pending)

	if err := tx.table.store.WriteCells(ctx, tx.table.name, batch); err != nil {
		return fmt.Errorf("flush %d writes to %q: %w", len(batch), tx.table.name, err)
	}

	tx.pending = tx.pending[:0]
	tx.flushes++
	tx.written += len(batch)
	return nil
}

// Close flushes the remaining writes and ends the transaction. The final
// flush ignores cancellation of the transaction's context. When it fails the
// error lists every write that never reached the store.
func (tx *Tx) Close() error {
	if tx.closed {
		return nil
	}

	err := tx.flush(context.WithoutCancel(tx.ctx))
	if err != nil {
		lost := make([]string, 0, len(tx.pending))
		for _, c := range tx.pending {
			lost = append(lost, fmt.Sprintf("%s=%q", c.A1(), c.Value))
		}
		err = fmt.Errorf("%w; lost writes: %s", err, strings.Join(lost, ", "))
		tx.pending = nil
	}

	tx.closed = true
	tx.table.tx = nil
	return err
}

// Pending returns the number of writes not yet flushed.
func (tx *Tx) Pending() int { return len(tx.pending) }

// Written returns the number of writes flushed so far.
func (tx *Tx) Written() int { return tx.written }

// Flushes returns how many batches were sent to the store.
func (tx *Tx) Flushes() int { return tx.flushes }
