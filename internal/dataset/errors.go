package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidColumn indicates a named column is absent from the dataset.
var ErrInvalidColumn = errors.New("invalid column")

// ErrUnsupportedSource indicates the source format cannot be loaded.
var ErrUnsupportedSource = errors.New("unsupported source")

// ColumnError lists the requested columns that do not exist in the dataset.
type ColumnError struct {
	Columns []string
}

func (e *ColumnError) Error() string {
	if e == nil || len(e.Columns) == 0 {
		return ErrInvalidColumn.Error()
	}
	if len(e.Columns) == 1 {
		return fmt.Sprintf("column not found: %s", e.Columns[0])
	}
	return fmt.Sprintf("columns not found: %s", strings.Join(e.Columns, ", "))
}

func (e *ColumnError) Unwrap() error { return ErrInvalidColumn }

// SourceError describes a file that no registered loader accepts.
type SourceError struct {
	Name string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("unsupported file type: %s (allowed: .csv, .tsv, .xlsx)", e.Name)
}

func (e *SourceError) Unwrap() error { return ErrUnsupportedSource }
