package sheet

import (
	"context"
	"testing"

	"GridSync/service/collab"

	"github.com/stretchr/testify/require"
)

func change(row, col int, value string) collab.CellChange {
	return collab.CellChange{Row: row, Col: col, Value: value, UserID: "u2"}
}

func TestApplyOutsideEdit(t *testing.T) {
	var applied []collab.CellChange
	r := NewReconciler(func(c collab.CellChange) { applied = append(applied, c) })

	require.True(t, r.Apply(change(0, 0, "x")))
	require.Len(t, applied, 1)
	require.Equal(t, "x", applied[0].Value)
}

func TestEditParksRemoteWrites(t *testing.T) {
	var applied []collab.CellChange
	r := NewReconciler(func(c collab.CellChange) { applied = append(applied, c) })

	r.BeginEdit(2, 3)
	require.False(t, r.Apply(change(2, 3, "remote-1")))
	require.False(t, r.Apply(change(2, 3, "remote-2")))
	require.Empty(t, applied)

	// other cells keep flowing while (2,3) is held
	require.True(t, r.Apply(change(2, 4, "neighbor")))
	require.Len(t, applied, 1)

	r.EndEdit(2, 3)
	require.Len(t, applied, 2)
	require.Equal(t, "remote-2", applied[1].Value) // only the newest parked write lands
}

func TestEndEditWithoutParkedWrite(t *testing.T) {
	var applied []collab.CellChange
	r := NewReconciler(func(c collab.CellChange) { applied = append(applied, c) })

	r.BeginEdit(0, 0)
	r.EndEdit(0, 0)
	require.Empty(t, applied)

	// edit is over, writes apply immediately again
	require.True(t, r.Apply(change(0, 0, "after")))
}

func TestA1(t *testing.T) {
	cases := []struct {
		row, col int
		want     string
	}{
		{0, 0, "A1"},
		{0, 1, "B1"},
		{4, 25, "Z5"},
		{0, 26, "AA1"},
		{1, 27, "AB2"},
		{9, 51, "AZ10"},
		{0, 52, "BA1"},
		{0, 701, "ZZ1"},
		{0, 702, "AAA1"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, A1(tc.row, tc.col), "A1(%d,%d)", tc.row, tc.col)
	}
}

func TestMemCellsLastWriteWins(t *testing.T) {
	s := NewMemCells()
	ctx := context.Background()
	require.NoError(t, s.WriteCell(ctx, "doc-1", change(1, 1, "first")))
	require.NoError(t, s.WriteCell(ctx, "doc-1", change(1, 1, "second")))

	got, ok := s.Read("doc-1", 1, 1)
	require.True(t, ok)
	require.Equal(t, "second", got.Value)

	_, ok = s.Read("doc-2", 1, 1)
	require.False(t, ok)
}
