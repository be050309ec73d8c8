package dataset

import (
	"strconv"
	"strings"
)

// Dataset is a fully materialized table. Every row holds one Value per column.
type Dataset struct {
	Name    string
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New builds a dataset from a header and rows. Short rows are padded with nulls
// and long rows are truncated to the header width. A repeated header name gets
// the first free suffix ("amount", "amount_2") so every column stays addressable.
func New(name string, columns []string, rows [][]Value) *Dataset {
	cols := make([]string, len(columns))
	taken := make(map[string]bool, len(columns))
	for i, c := range columns {
		cols[i] = strings.TrimSpace(c)
		taken[cols[i]] = true
	}
	idx := make(map[string]int, len(columns))
	for i, c := range cols {
		if _, dup := idx[c]; dup && c != "" {
			for n := 2; ; n++ {
				alt := c + "_" + strconv.Itoa(n)
				if !taken[alt] {
					c = alt
					break
				}
			}
			taken[c] = true
			cols[i] = c
		}
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	norm := make([][]Value, len(rows))
	for i, r := range rows {
		if len(r) != len(cols) {
			tmp := make([]Value, len(cols))
			copy(tmp, r)
			r = tmp
		}
		norm[i] = r
	}
	return &Dataset{Name: name, columns: cols, index: idx, rows: norm}
}

// Columns returns a copy of the ordered column names.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int { return len(d.columns) }

// HasColumn reports whether name is one of the dataset's columns.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// ColumnIndex returns the position of name, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// At returns the value at row for the column index col.
func (d *Dataset) At(row, col int) Value { return d.rows[row][col] }

// Column returns a copy of all values of the named column, or nil if absent.
func (d *Dataset) Column(name string) []Value {
	i := d.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]Value, len(d.rows))
	for r := range d.rows {
		out[r] = d.rows[r][i]
	}
	return out
}

// ValidateColumns fails with a *ColumnError naming every column that does not exist.
func (d *Dataset) ValidateColumns(names ...[]string) error {
	var missing []string
	seen := map[string]bool{}
	for _, list := range names {
		for _, n := range list {
			if d.HasColumn(n) || seen[n] {
				continue
			}
			seen[n] = true
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &ColumnError{Columns: missing}
	}
	return nil
}

// CanonicalizeText rewrites every non-null value of the column to its string form.
func (d *Dataset) CanonicalizeText(name string) {
	i := d.ColumnIndex(name)
	if i < 0 {
		return
	}
	for r := range d.rows {
		v := d.rows[r][i]
		if v.IsNull() || v.Kind == KindText {
			continue
		}
		d.rows[r][i] = Text(v.String())
	}
}

// Clone returns a deep copy so callers can mutate value representation safely.
func (d *Dataset) Clone() *Dataset {
	rows := make([][]Value, len(d.rows))
	for i, r := range d.rows {
		cp := make([]Value, len(r))
		copy(cp, r)
		rows[i] = cp
	}
	return New(d.Name, d.columns, rows)
}
