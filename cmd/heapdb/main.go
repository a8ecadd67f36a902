// Command heapdb opens the storage engine against a config file and
// runs one DDL statement against it. It is not a REPL: the interactive
// shell and the SQL parser that would feed it statements are external
// collaborators (spec.md §1); this entrypoint exists to exercise
// config -> db.Open -> db.Exec end to end, the way the teacher's
// cmd/main.go wires file/buffer/metadata managers into a running
// server.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/luigitni/heapdb/ast"
	"github.com/luigitni/heapdb/config"
	"github.com/luigitni/heapdb/db"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut *os.File) int {
	flags := flag.NewFlagSet("heapdb", flag.ContinueOnError)
	flags.SetOutput(errOut)

	flagHome := flags.String("home", "", "Relation home directory (overrides the config file)")
	flagBlockSize := flags.Int("block-size", 0, "Slotted-page block size in bytes (overrides the config file)")
	flagConfig := flags.String("config", "heapdb.jsonc", "Path to the JSONC config `file`")
	flagShowTables := flags.Bool("show-tables", false, "Run SHOW TABLES and exit")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintln(errOut, "heapdb:", err)
		return 1
	}

	if *flagHome != "" {
		cfg.HomeDir = *flagHome
	}

	if *flagBlockSize != 0 {
		cfg.BlockSize = *flagBlockSize
	}

	database, err := db.Open(cfg)
	if err != nil {
		fmt.Fprintln(errOut, "heapdb:", err)
		return 1
	}
	defer database.Close()

	if *flagShowTables {
		res, err := database.Exec(&ast.ShowTablesStmt{})
		if err != nil {
			fmt.Fprintln(errOut, "heapdb:", err)
			return 1
		}

		fmt.Fprintln(out, res.String())
	}

	return 0
}
