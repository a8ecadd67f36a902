package ddl

import (
	"fmt"
	"strings"

	"github.com/luigitni/heapdb/storage"
)

// RenderType names how QueryResult.String formats one column. It is
// strictly a display concern: storage.ColumnAttribute only distinguishes
// INT and TEXT (spec.md §3), but _indices' is_unique column is stored as
// an INT 0/1 and must render as a boolean, matching
// original_source/SQLExec.cpp's QueryResult ostream operator.
type RenderType int

const (
	RenderInt RenderType = iota
	RenderText
	RenderBool
)

// QueryResult is the DDL executor's output: an optional projected
// result set (column names, their render types, and rows) plus a
// human-readable message, mirroring spec.md §6's QueryResult.
type QueryResult struct {
	Columns     []string
	ColumnTypes []RenderType
	Rows        []storage.Row
	Message     string
}

// String renders column headers, a separator row, each row (INT as
// decimal, TEXT quoted, BOOLEAN as true/false), and the trailing
// message, in that order.
func (r *QueryResult) String() string {
	var b strings.Builder

	if len(r.Columns) > 0 {
		for _, c := range r.Columns {
			b.WriteString(c)
			b.WriteString(" ")
		}
		b.WriteString("\n+")
		for range r.Columns {
			b.WriteString("----------+")
		}
		b.WriteString("\n")

		for _, row := range r.Rows {
			for i, c := range r.Columns {
				v := row[c]
				switch r.ColumnTypes[i] {
				case RenderInt:
					fmt.Fprintf(&b, "%d ", v.Int())
				case RenderText:
					fmt.Fprintf(&b, "%q ", v.Text())
				case RenderBool:
					fmt.Fprintf(&b, "%t ", v.Int() != 0)
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(r.Message)

	return b.String()
}

func message(format string, args ...any) *QueryResult {
	return &QueryResult{Message: fmt.Sprintf(format, args...)}
}
