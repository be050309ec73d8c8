package schema

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/concentra-cli/internal/dataset"
)

// Result is the serialized schema summary.
type Result struct {
	DataShape          [2]int   `json:"data_shape"`
	Columns            []string `json:"columns"`
	NumericalColumns   []string `json:"numerical_columns"`
	CategoricalColumns []string `json:"categorical_columns"`
	TimeColumns        []string `json:"time_columns"`
}

// Summarize builds the result for ds under schema s.
func Summarize(ds *dataset.Dataset, s Schema) Result {
	c := s.Clone()
	return Result{
		DataShape:          [2]int{ds.Len(), ds.NumColumns()},
		Columns:            ds.Columns(),
		NumericalColumns:   c.Numeric,
		CategoricalColumns: c.Categorical,
		TimeColumns:        c.Temporal,
	}
}

// Markdown renders a compact schema section.
func (r Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[SCHEMA]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\nColumns: %d\n", r.DataShape[0], r.DataShape[1]))
	writeList := func(label string, cols []string) {
		if len(cols) == 0 {
			b.WriteString(fmt.Sprintf("- %s: (none)\n", label))
			return
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", label, strings.Join(cols, ", ")))
	}
	writeList("numerical", r.NumericalColumns)
	writeList("categorical", r.CategoricalColumns)
	writeList("time", r.TimeColumns)
	return b.String()
}
