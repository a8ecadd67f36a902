package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luigitni/heapdb/storage"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()

	dir := t.TempDir()
	columns := []string{"id", "name"}
	attrs := map[string]storage.ColumnAttribute{
		"id":   {DataType: storage.INT},
		"name": {DataType: storage.TEXT},
	}

	tbl := NewTable(dir, "students", columns, attrs)
	require.NoError(t, tbl.Create())
	t.Cleanup(func() { tbl.Close() })

	return tbl
}

func TestInsertProjectRoundtrip(t *testing.T) {
	tbl := newTestTable(t)

	handle, err := tbl.Insert(storage.Row{
		"id":   storage.NewInt(1),
		"name": storage.NewText("ada"),
	})
	require.NoError(t, err)

	row, err := tbl.Project(handle, nil)
	require.NoError(t, err)
	require.True(t, row["id"].Equals(storage.NewInt(1)))
	require.True(t, row["name"].Equals(storage.NewText("ada")))
}

func TestInsertMissingColumnFails(t *testing.T) {
	tbl := newTestTable(t)

	_, err := tbl.Insert(storage.Row{"id": storage.NewInt(1)})
	require.Error(t, err)

	var relErr *RelationError
	require.ErrorAs(t, err, &relErr)
}

func TestProjectSubsetOfColumns(t *testing.T) {
	tbl := newTestTable(t)

	handle, err := tbl.Insert(storage.Row{
		"id":   storage.NewInt(7),
		"name": storage.NewText("grace"),
	})
	require.NoError(t, err)

	row, err := tbl.Project(handle, []string{"name"})
	require.NoError(t, err)
	require.Len(t, row, 1)
	require.True(t, row["name"].Equals(storage.NewText("grace")))
}

func TestProjectUnknownColumnFails(t *testing.T) {
	tbl := newTestTable(t)

	handle, err := tbl.Insert(storage.Row{
		"id":   storage.NewInt(1),
		"name": storage.NewText("ada"),
	})
	require.NoError(t, err)

	_, err = tbl.Project(handle, []string{"nope"})
	require.Error(t, err)
}

func TestUpdateMergesOverExistingRow(t *testing.T) {
	tbl := newTestTable(t)

	handle, err := tbl.Insert(storage.Row{
		"id":   storage.NewInt(1),
		"name": storage.NewText("ada"),
	})
	require.NoError(t, err)

	require.NoError(t, tbl.Update(handle, storage.Row{"name": storage.NewText("ada lovelace")}))

	row, err := tbl.Project(handle, nil)
	require.NoError(t, err)
	require.True(t, row["id"].Equals(storage.NewInt(1)))
	require.True(t, row["name"].Equals(storage.NewText("ada lovelace")))
}

func TestDelRemovesRowFromSelect(t *testing.T) {
	tbl := newTestTable(t)

	h1, err := tbl.Insert(storage.Row{"id": storage.NewInt(1), "name": storage.NewText("a")})
	require.NoError(t, err)

	h2, err := tbl.Insert(storage.Row{"id": storage.NewInt(2), "name": storage.NewText("b")})
	require.NoError(t, err)

	require.NoError(t, tbl.Del(h1))

	handles, err := tbl.Select(nil)
	require.NoError(t, err)
	require.Len(t, handles, 1)
	require.Equal(t, h2, handles[0])
}

func TestSelectAcrossMultipleBlocks(t *testing.T) {
	tbl := newTestTable(t)

	longName := make([]byte, 512)
	for i := range longName {
		longName[i] = 'x'
	}

	const rows = 50
	inserted := make(map[storage.Handle]bool, rows)

	for i := 0; i < rows; i++ {
		h, err := tbl.Insert(storage.Row{
			"id":   storage.NewInt(int32(i)),
			"name": storage.NewText(string(longName)),
		})
		require.NoError(t, err)
		inserted[h] = true
	}

	require.Greater(t, tbl.file.Last(), storage.BlockID(1), "expected insertion to overflow into more than one block")

	handles, err := tbl.Select(nil)
	require.NoError(t, err)
	require.Len(t, handles, rows)

	for _, h := range handles {
		require.True(t, inserted[h])
	}
}
