// Package db wires the module's layers together: config -> catalog ->
// DDL executor, mirroring the shape of the teacher's own top-level
// db.DB (config -> file manager -> buffer manager -> metadata manager),
// generalized to this module's simpler dependency chain.
package db

import (
	"fmt"

	"github.com/luigitni/heapdb/ast"
	"github.com/luigitni/heapdb/catalog"
	"github.com/luigitni/heapdb/config"
	"github.com/luigitni/heapdb/ddl"
)

// DB is one opened instance of the storage engine: a Catalog rooted at
// the configured home directory and a DDL Executor over it.
type DB struct {
	cfg      config.Config
	catalog  *catalog.Catalog
	executor *ddl.Executor
}

// Open loads cfg's home directory, initializing the schema catalog
// (creating its bootstrap relations on first run, opening them
// otherwise) and returns a DB ready to Exec statements.
func Open(cfg config.Config) (*DB, error) {
	cat := catalog.New(cfg.HomeDir)

	fmt.Printf("heapdb: opening catalog at %s\n", cfg.HomeDir)

	if err := cat.Init(); err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	return &DB{cfg: cfg, catalog: cat, executor: ddl.NewExecutor(cat)}, nil
}

// Close releases the catalog's bootstrap relations' file handles.
func (db *DB) Close() error {
	fmt.Println("heapdb: closing")

	if err := db.catalog.Tables.Close(); err != nil {
		return err
	}

	if err := db.catalog.Columns.Close(); err != nil {
		return err
	}

	return db.catalog.Indices.Close()
}

// Exec dispatches a parsed statement to the DDL executor.
func (db *DB) Exec(stmt ast.Statement) (*ddl.QueryResult, error) {
	return db.executor.Execute(stmt)
}

// Catalog returns the DB's underlying Catalog, for callers (e.g. a
// query layer built on top of this module) that need direct access to
// an opened user table.
func (db *DB) Catalog() *catalog.Catalog {
	return db.catalog
}
