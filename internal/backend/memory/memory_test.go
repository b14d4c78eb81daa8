package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/interview-automator/internal/sheet"
)

func TestStoreRoundTrip(t *testing.T) {
	store := New(map[string][][]string{
		"Interview Schedules": {
			{"Full Name", "Appeared"},
			{"Asha Rao"},
		},
	})

	ctx := context.Background()
	err := store.WriteCells(ctx, "Interview Schedules", []sheet.Cell{
		{Row: 2, Col: 2, Value: "yes"},
		{Row: 3, Col: 1, Value: "Ravi Kumar"},
	})
	require.NoError(t, err)

	rows, err := store.ReadTable(ctx, "Interview Schedules")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Full Name", "Appeared"},
		{"Asha Rao", "yes"},
		{"Ravi Kumar"},
	}, rows)
	assert.Equal(t, 1, store.Batches())

	_, err = store.ReadTable(ctx, "Missing")
	assert.ErrorIs(t, err, sheet.ErrTableNotFound)
	assert.ErrorIs(t, store.WriteCells(ctx, "Missing", nil), sheet.ErrTableNotFound)
	assert.Error(t, store.WriteCells(ctx, "Interview Schedules", []sheet.Cell{{Row: 0, Col: 1}}))
}

func TestOverlayKeepsWritesLocal(t *testing.T) {
	base := New(map[string][][]string{
		"Interview Scores": {
			{"Full Name", "Overall"},
			{"Ravi Kumar", "0"},
			{"Ravi Kumar", "8.0"},
		},
	})
	overlay := NewOverlay(base)

	ctx := context.Background()
	table, err := sheet.Load(ctx, overlay, "Interview Scores")
	require.NoError(t, err)

	err = table.Update(ctx, func(tx *sheet.Tx) error {
		_, err := tx.Set("Overall", 0, "8.0")
		return err
	})
	require.NoError(t, err)

	rows, err := overlay.ReadTable(ctx, "Interview Scores")
	require.NoError(t, err)
	assert.Equal(t, "8.0", rows[1][1])

	baseRows, err := base.ReadTable(ctx, "Interview Scores")
	require.NoError(t, err)
	assert.Equal(t, "0", baseRows[1][1], "base store must not see overlay writes")

	assert.Equal(t, []string{"Interview Scores"}, overlay.Tables())
	assert.Equal(t, []sheet.Cell{{Row: 2, Col: 2, Value: "8.0"}}, overlay.Changes("Interview Scores"))
}
