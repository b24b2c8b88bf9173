package actionplan

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidWorkbook = errors.New("file is not a readable xlsx workbook")
	ErrMissingColumns  = errors.New("required columns missing")
	ErrEmptyPlan       = errors.New("action plan has no rows")
)

// MissingColumnsError names the logical columns absent from the header row.
type MissingColumnsError struct {
	HeaderRow int
	Missing   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s on header row %d: %s", ErrMissingColumns, e.HeaderRow, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }
