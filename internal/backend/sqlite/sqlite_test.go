package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/interview-automator/internal/sheet"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMirrorAndRead(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rows := [][]string{
		{"Full Name", "Registration No.", "Appeared"},
		{"Asha Rao", "21CS001", ""},
		{"Ravi Kumar", "21EC045", "yes"},
	}
	require.NoError(t, store.Mirror(ctx, "Interview Schedules", rows))

	got, err := store.ReadTable(ctx, "Interview Schedules")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Full Name", "Registration No.", "Appeared"},
		{"Asha Rao", "21CS001"},
		{"Ravi Kumar", "21EC045", "yes"},
	}, got)

	require.NoError(t, store.Mirror(ctx, "Interview Schedules", rows[:2]))
	got, err = store.ReadTable(ctx, "Interview Schedules")
	require.NoError(t, err)
	assert.Len(t, got, 2, "mirroring replaces the previous copy")
}

func TestWriteCellsThroughTable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Mirror(ctx, "Interview Scores", [][]string{
		{"Full Name", "Overall", "Remarks"},
		{"Ravi Kumar", "0"},
	}))

	table, err := sheet.Load(ctx, store, "Interview Scores")
	require.NoError(t, err)

	err = table.Update(ctx, func(tx *sheet.Tx) error {
		if _, err := tx.Set("Overall", 0, "8.0"); err != nil {
			return err
		}
		_, err := tx.Set("Remarks", 0, "duplicate")
		return err
	})
	require.NoError(t, err)

	reloaded, err := sheet.Load(ctx, store, "Interview Scores")
	require.NoError(t, err)
	assert.Equal(t, "8.0", reloaded.Value(0, "Overall"))
	assert.Equal(t, "duplicate", reloaded.Value(0, "Remarks"))
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".data", "nested", "backup.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Mirror(context.Background(), "Form Responses 1", [][]string{{"Full Name"}}))
	assert.FileExists(t, path)
}

func TestUnknownTable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.ReadTable(ctx, "Form Responses 1")
	assert.ErrorIs(t, err, sheet.ErrTableNotFound)

	err = store.WriteCells(ctx, "Form Responses 1", []sheet.Cell{{Row: 2, Col: 1, Value: "x"}})
	assert.Error(t, err)
}
