// Package period derives per-record time period keys and orders them for display.
package period

import (
	"strings"

	"github.com/KaramelBytes/concentra-cli/internal/dataset"
)

// Separator joins normalized values when several temporal columns form one key.
const Separator = "_"

// Keyed is one surviving record and its period key.
type Keyed struct {
	Row int
	Key string
}

// Keys is the output of Build.
type Keys struct {
	// Records holds every record that had a value in all selected columns, in row order.
	Records []Keyed
	// Distinct lists each key once, in first-seen order.
	Distinct []string
	// Dropped counts records excluded because a selected column was missing.
	Dropped int
}

// Build derives one period key per record from the ordered temporal columns.
// Records with a missing value in any selected column are dropped.
func Build(ds *dataset.Dataset, columns []string) (Keys, error) {
	if err := ds.ValidateColumns(columns); err != nil {
		return Keys{}, err
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = ds.ColumnIndex(c)
	}
	out := Keys{Records: make([]Keyed, 0, ds.Len()), Distinct: []string{}}
	seen := map[string]bool{}
	parts := make([]string, len(idx))
rows:
	for r := 0; r < ds.Len(); r++ {
		for i, ci := range idx {
			v := ds.At(r, ci)
			if v.IsNull() {
				out.Dropped++
				continue rows
			}
			if len(idx) == 1 && v.Kind == dataset.KindTime {
				parts[i] = v.Time.Format("2006-01-02")
				continue
			}
			parts[i] = Normalize(v)
		}
		key := strings.Join(parts, Separator)
		out.Records = append(out.Records, Keyed{Row: r, Key: key})
		if !seen[key] {
			seen[key] = true
			out.Distinct = append(out.Distinct, key)
		}
	}
	return out, nil
}

// Normalize returns the string form of v, zero-padding one- and two-digit tokens
// to width 2 so that month "1" becomes "01".
func Normalize(v dataset.Value) string {
	s := v.String()
	if len(s) == 1 && isDigits(s) {
		return "0" + s
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
