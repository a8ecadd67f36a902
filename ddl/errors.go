package ddl

import (
	"errors"
	"fmt"
)

// ErrExec is the sentinel every *ExecError wraps: an unrecognized
// statement kind, an unknown column data type, or a lower-level
// storage/relation fault rewrapped so it surfaces uniformly from
// Execute (spec.md §7).
var ErrExec = errors.New("ddl: execution error")

// ExecError reports a DDL/DML dispatch problem.
type ExecError struct {
	Msg string
}

func (e *ExecError) Error() string { return "ddl: " + e.Msg }

func (e *ExecError) Unwrap() error { return ErrExec }

func execErrorf(format string, args ...any) error {
	return &ExecError{Msg: fmt.Sprintf(format, args...)}
}
