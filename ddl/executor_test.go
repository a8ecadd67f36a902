package ddl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luigitni/heapdb/ast"
	"github.com/luigitni/heapdb/catalog"
	"github.com/luigitni/heapdb/storage"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()

	cat := catalog.New(t.TempDir())
	require.NoError(t, cat.Init())

	return NewExecutor(cat)
}

func TestCreateTableRegistersSchemaAndRelation(t *testing.T) {
	ex := newTestExecutor(t)

	res, err := ex.Execute(&ast.CreateTableStmt{
		TableName: "foo",
		Columns: []ast.Column{
			{Name: "id", Attribute: storage.ColumnAttribute{DataType: storage.INT}},
			{Name: "data", Attribute: storage.ColumnAttribute{DataType: storage.TEXT}},
		},
	})
	require.NoError(t, err)
	require.Contains(t, res.Message, "created foo")

	show, err := ex.Execute(&ast.ShowTablesStmt{})
	require.NoError(t, err)
	require.Len(t, show.Rows, 1)
	require.Equal(t, "foo", show.Rows[0]["table_name"].Text())

	cols, err := ex.Execute(&ast.ShowColumnsStmt{TableName: "foo"})
	require.NoError(t, err)
	require.Len(t, cols.Rows, 2)
	require.Equal(t, "id", cols.Rows[0]["column_name"].Text())
	require.Equal(t, "data", cols.Rows[1]["column_name"].Text())
}

func TestCreateTableTwiceFailsAndLeavesCatalogConsistent(t *testing.T) {
	ex := newTestExecutor(t)

	stmt := &ast.CreateTableStmt{
		TableName: "foo",
		Columns:   []ast.Column{{Name: "id", Attribute: storage.ColumnAttribute{DataType: storage.INT}}},
	}

	_, err := ex.Execute(stmt)
	require.NoError(t, err)

	_, err = ex.Execute(stmt)
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)

	show, err := ex.Execute(&ast.ShowTablesStmt{})
	require.NoError(t, err)
	require.Len(t, show.Rows, 1, "the second failed CREATE TABLE must not leave a duplicate _tables row")

	cols, err := ex.Execute(&ast.ShowColumnsStmt{TableName: "foo"})
	require.NoError(t, err)
	require.Len(t, cols.Rows, 1, "the second failed CREATE TABLE must not leave duplicate _columns rows")
}

func TestDropTableRemovesSchemaAndData(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := ex.Execute(&ast.CreateTableStmt{
		TableName: "foo",
		Columns:   []ast.Column{{Name: "id", Attribute: storage.ColumnAttribute{DataType: storage.INT}}},
	})
	require.NoError(t, err)

	_, err = ex.Execute(&ast.DropTableStmt{TableName: "foo"})
	require.NoError(t, err)

	show, err := ex.Execute(&ast.ShowTablesStmt{})
	require.NoError(t, err)
	require.Len(t, show.Rows, 0)

	cols, err := ex.Execute(&ast.ShowColumnsStmt{TableName: "foo"})
	require.NoError(t, err)
	require.Len(t, cols.Rows, 0)
}

func TestDropProtectedTableFails(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := ex.Execute(&ast.DropTableStmt{TableName: catalog.TablesName})
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	require.True(t, errors.Is(err, ErrExec))
}

func TestCreateIndexDefaultsToBTreeAndUnique(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := ex.Execute(&ast.CreateTableStmt{
		TableName: "foo",
		Columns: []ast.Column{
			{Name: "id", Attribute: storage.ColumnAttribute{DataType: storage.INT}},
			{Name: "data", Attribute: storage.ColumnAttribute{DataType: storage.TEXT}},
		},
	})
	require.NoError(t, err)

	_, err = ex.Execute(&ast.CreateIndexStmt{
		IndexName:  "idx",
		TableName:  "foo",
		ColumnName: []string{"id", "data"},
	})
	require.NoError(t, err)

	show, err := ex.Execute(&ast.ShowIndexStmt{TableName: "foo"})
	require.NoError(t, err)
	require.Len(t, show.Rows, 2)
	require.Equal(t, int32(1), show.Rows[0]["seq_in_index"].Int())
	require.Equal(t, int32(2), show.Rows[1]["seq_in_index"].Int())
	require.Equal(t, "BTREE", show.Rows[0]["index_type"].Text())
	require.Equal(t, int32(1), show.Rows[0]["is_unique"].Int())
}

func TestCreateIndexFailureCompensates(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := ex.Execute(&ast.CreateTableStmt{
		TableName: "foo",
		Columns:   []ast.Column{{Name: "id", Attribute: storage.ColumnAttribute{DataType: storage.INT}}},
	})
	require.NoError(t, err)

	failing := errors.New("index backend unavailable")
	ex.NewIndex = func(string, string) catalog.Index { return failingIndex{err: failing} }

	_, err = ex.Execute(&ast.CreateIndexStmt{
		IndexName:  "idx",
		TableName:  "foo",
		ColumnName: []string{"id"},
	})
	require.Error(t, err)

	show, err := ex.Execute(&ast.ShowIndexStmt{TableName: "foo"})
	require.NoError(t, err)
	require.Len(t, show.Rows, 0, "a failed CREATE INDEX must leave zero _indices rows")
}

func TestDropIndexRemovesRows(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := ex.Execute(&ast.CreateTableStmt{
		TableName: "foo",
		Columns:   []ast.Column{{Name: "id", Attribute: storage.ColumnAttribute{DataType: storage.INT}}},
	})
	require.NoError(t, err)

	_, err = ex.Execute(&ast.CreateIndexStmt{IndexName: "idx", TableName: "foo", ColumnName: []string{"id"}})
	require.NoError(t, err)

	_, err = ex.Execute(&ast.DropIndexStmt{IndexName: "idx", TableName: "foo"})
	require.NoError(t, err)

	show, err := ex.Execute(&ast.ShowIndexStmt{TableName: "foo"})
	require.NoError(t, err)
	require.Len(t, show.Rows, 0)
}

type failingIndex struct{ err error }

func (f failingIndex) Create() error { return f.err }
func (f failingIndex) Drop() error   { return f.err }
