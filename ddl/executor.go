// Package ddl implements the DDL executor of spec.md §4.4: it dispatches
// a parsed ast.Statement to the catalog and the target relation, with
// best-effort compensation on partial failure (Design Note 3).
package ddl

import (
	"errors"
	"fmt"
	"log"

	"github.com/luigitni/heapdb/ast"
	"github.com/luigitni/heapdb/catalog"
	"github.com/luigitni/heapdb/heap"
	"github.com/luigitni/heapdb/storage"
)

// Executor dispatches statements against a single Catalog.
type Executor struct {
	Catalog *catalog.Catalog

	// NewIndex constructs the Index implementation backing a freshly
	// created index. Defaults to catalog.NullIndex{} (spec.md's
	// Non-goals explicitly exclude index implementations beyond
	// catalog metadata).
	NewIndex func(tableName, indexName string) catalog.Index
}

// NewExecutor constructs an Executor over cat, using catalog.NullIndex
// for every index unless overridden.
func NewExecutor(cat *catalog.Catalog) *Executor {
	return &Executor{
		Catalog:  cat,
		NewIndex: func(string, string) catalog.Index { return catalog.NullIndex{} },
	}
}

// Execute dispatches stmt to the matching handler.
func (e *Executor) Execute(stmt ast.Statement) (*QueryResult, error) {
	switch s := stmt.(type) {
	case *ast.CreateTableStmt:
		return e.createTable(s)
	case *ast.CreateIndexStmt:
		return e.createIndex(s)
	case *ast.DropTableStmt:
		return e.dropTable(s)
	case *ast.DropIndexStmt:
		return e.dropIndex(s)
	case *ast.ShowTablesStmt:
		return e.showTables()
	case *ast.ShowColumnsStmt:
		return e.showColumns(s)
	case *ast.ShowIndexStmt:
		return e.showIndex(s)
	default:
		return nil, execErrorf("unrecognized statement type %T", stmt)
	}
}

// createTable inserts the _tables/_columns bootstrap rows, then creates
// the relation itself, compensating (best-effort) on any failure.
// Grounded on original_source/SQLExec.cpp's create_table.
func (e *Executor) createTable(s *ast.CreateTableStmt) (*QueryResult, error) {
	tHandle, err := e.Catalog.Tables.Insert(storage.Row{"table_name": storage.NewText(s.TableName)})
	if err != nil {
		return nil, wrapRelationErr(err)
	}

	columns := make([]string, len(s.Columns))
	attrs := make(map[string]storage.ColumnAttribute, len(s.Columns))
	var cHandles []storage.Handle

	for i, col := range s.Columns {
		columns[i] = col.Name
		attrs[col.Name] = col.Attribute

		h, err := e.Catalog.Columns.Insert(storage.Row{
			"table_name":  storage.NewText(s.TableName),
			"column_name": storage.NewText(col.Name),
			"data_type":   storage.NewText(col.Attribute.DataType.String()),
		})
		if err != nil {
			e.compensate(func() error {
				for _, h := range cHandles {
					if delErr := e.Catalog.Columns.Del(h); delErr != nil {
						return delErr
					}
				}
				return nil
			})
			e.compensate(func() error { return e.Catalog.Tables.Del(tHandle) })

			return nil, wrapRelationErr(err)
		}

		cHandles = append(cHandles, h)
	}

	table := heap.NewTable(e.Catalog.HomeDir(), s.TableName, columns, attrs)

	var createErr error
	if s.IfNotExists {
		createErr = table.CreateIfNotExists()
	} else {
		createErr = table.Create()
	}

	if createErr != nil {
		e.compensate(func() error {
			for _, h := range cHandles {
				if delErr := e.Catalog.Columns.Del(h); delErr != nil {
					return delErr
				}
			}
			return nil
		})
		e.compensate(func() error { return e.Catalog.Tables.Del(tHandle) })

		return nil, wrapRelationErr(createErr)
	}

	return message("created %s", s.TableName), nil
}

// dropTable removes a table's _columns rows, drops the relation, and
// removes its _tables row. Protected relations cannot be dropped.
func (e *Executor) dropTable(s *ast.DropTableStmt) (*QueryResult, error) {
	if s.TableName == catalog.TablesName || s.TableName == catalog.ColumnsName {
		return nil, wrapRelationErr(fmt.Errorf("%w: %s", catalog.ErrProtectedRelation, s.TableName))
	}

	table, err := e.Catalog.OpenTable(s.TableName)
	if err != nil {
		return nil, wrapRelationErr(err)
	}

	// Delete exactly the _columns rows belonging to this table,
	// mirroring original_source/SQLExec.cpp's drop_table (select
	// {table_name: name}, delete each handle).
	allColumnHandles, err := e.Catalog.Columns.Select(nil)
	if err != nil {
		return nil, wrapRelationErr(err)
	}

	for _, h := range allColumnHandles {
		row, err := e.Catalog.Columns.Project(h, []string{"table_name"})
		if err != nil {
			return nil, wrapRelationErr(err)
		}

		if row["table_name"].Text() == s.TableName {
			if err := e.Catalog.Columns.Del(h); err != nil {
				return nil, wrapRelationErr(err)
			}
		}
	}

	if err := table.Drop(); err != nil {
		return nil, wrapRelationErr(err)
	}

	e.Catalog.Forget(s.TableName)

	tableHandles, err := e.Catalog.Tables.Select(nil)
	if err != nil {
		return nil, wrapRelationErr(err)
	}

	for _, h := range tableHandles {
		row, err := e.Catalog.Tables.Project(h, []string{"table_name"})
		if err != nil {
			return nil, wrapRelationErr(err)
		}

		if row["table_name"].Text() == s.TableName {
			if err := e.Catalog.Tables.Del(h); err != nil {
				return nil, wrapRelationErr(err)
			}

			break
		}
	}

	return message("dropped %s", s.TableName), nil
}

// createIndex inserts one _indices row per indexed column, with a
// monotonically increasing seq_in_index starting at 1, then calls the
// index's Create. On failure, every row inserted so far is removed.
// Grounded on original_source/SQLExec.cpp's create_index.
func (e *Executor) createIndex(s *ast.CreateIndexStmt) (*QueryResult, error) {
	indexType := s.IndexType
	if indexType == "" {
		indexType = "BTREE"
	}

	isUnique := int32(0)
	if indexType == "BTREE" {
		isUnique = 1
	}

	var handles []storage.Handle

	for i, col := range s.ColumnName {
		h, err := e.Catalog.Indices.Insert(storage.Row{
			"table_name":   storage.NewText(s.TableName),
			"index_name":   storage.NewText(s.IndexName),
			"seq_in_index": storage.NewInt(int32(i + 1)),
			"column_name":  storage.NewText(col),
			"index_type":   storage.NewText(indexType),
			"is_unique":    storage.NewInt(isUnique),
		})
		if err != nil {
			e.compensate(func() error {
				for _, h := range handles {
					if delErr := e.Catalog.Indices.Del(h); delErr != nil {
						return delErr
					}
				}
				return nil
			})

			return nil, wrapRelationErr(err)
		}

		handles = append(handles, h)
	}

	idx := e.NewIndex(s.TableName, s.IndexName)
	if err := idx.Create(); err != nil {
		e.compensate(func() error {
			for _, h := range handles {
				if delErr := e.Catalog.Indices.Del(h); delErr != nil {
					return delErr
				}
			}
			return nil
		})

		return nil, wrapRelationErr(err)
	}

	return message("created index %s", s.IndexName), nil
}

// dropIndex deletes every matching _indices row, then drops the index
// structure itself. This restores the DROP INDEX behavior
// original_source/SQLExec.cpp leaves as an embedded-comment FIXME
// (spec.md's Design Note prescribes implementing it).
func (e *Executor) dropIndex(s *ast.DropIndexStmt) (*QueryResult, error) {
	handles, rows, err := e.Catalog.IndicesByTable(s.TableName)
	if err != nil {
		return nil, wrapRelationErr(err)
	}

	for i, h := range handles {
		if rows[i]["index_name"].Text() != s.IndexName {
			continue
		}

		if err := e.Catalog.Indices.Del(h); err != nil {
			return nil, wrapRelationErr(err)
		}
	}

	idx := e.NewIndex(s.TableName, s.IndexName)
	if err := idx.Drop(); err != nil {
		return nil, wrapRelationErr(err)
	}

	return message("dropped index %s", s.IndexName), nil
}

// showTables lists every user table, excluding the two bootstrap
// relations that are always present (spec.md §8 invariant 7).
func (e *Executor) showTables() (*QueryResult, error) {
	handles, err := e.Catalog.Tables.Select(nil)
	if err != nil {
		return nil, wrapRelationErr(err)
	}

	rows := make([]storage.Row, 0, len(handles))

	for _, h := range handles {
		row, err := e.Catalog.Tables.Project(h, []string{"table_name"})
		if err != nil {
			return nil, wrapRelationErr(err)
		}

		name := row["table_name"].Text()
		if name == catalog.TablesName || name == catalog.ColumnsName {
			continue
		}

		rows = append(rows, row)
	}

	return &QueryResult{
		Columns:     []string{"table_name"},
		ColumnTypes: []RenderType{RenderText},
		Rows:        rows,
		Message:     fmt.Sprintf("successfully returned %d rows", len(rows)),
	}, nil
}

// showColumns lists every _columns row for one table, in declared order.
func (e *Executor) showColumns(s *ast.ShowColumnsStmt) (*QueryResult, error) {
	rows, err := e.Catalog.ColumnsOf(s.TableName)
	if err != nil {
		return nil, wrapRelationErr(err)
	}

	projected := make([]storage.Row, len(rows))
	for i, row := range rows {
		projected[i] = storage.Row{
			"table_name":  row["table_name"],
			"column_name": row["column_name"],
			"data_type":   row["data_type"],
		}
	}

	return &QueryResult{
		Columns:     []string{"table_name", "column_name", "data_type"},
		ColumnTypes: []RenderType{RenderText, RenderText, RenderText},
		Rows:        projected,
		Message:     fmt.Sprintf("successfully returned %d rows", len(projected)),
	}, nil
}

// showIndex lists every _indices row for one table.
func (e *Executor) showIndex(s *ast.ShowIndexStmt) (*QueryResult, error) {
	_, rows, err := e.Catalog.IndicesByTable(s.TableName)
	if err != nil {
		return nil, wrapRelationErr(err)
	}

	return &QueryResult{
		Columns:     []string{"table_name", "index_name", "column_name", "seq_in_index", "index_type", "is_unique"},
		ColumnTypes: []RenderType{RenderText, RenderText, RenderText, RenderInt, RenderText, RenderBool},
		Rows:        rows,
		Message:     fmt.Sprintf("successfully returned %d rows", len(rows)),
	}, nil
}

// compensate runs a best-effort cleanup step. Secondary errors are
// logged and discarded so the primary error reaches the caller
// (spec.md §7's partial-failure policy; Design Note 3).
func (e *Executor) compensate(cleanup func() error) {
	if err := cleanup(); err != nil {
		log.Printf("ddl: compensating cleanup failed: %v", err)
	}
}

// wrapRelationErr rewraps any RelationError (or other lower-level
// fault) surfacing from below the executor into an ExecError, per
// spec.md §7's propagation rule.
func wrapRelationErr(err error) error {
	if err == nil {
		return nil
	}

	var relErr *heap.RelationError
	if errors.As(err, &relErr) {
		return execErrorf("%s", relErr.Error())
	}

	return execErrorf("%s", err.Error())
}
