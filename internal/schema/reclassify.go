package schema

import (
	"github.com/KaramelBytes/concentra-cli/internal/dataset"
)

// Reclassify replaces the whole classification with the supplied lists.
//
// Every name must exist in ds, otherwise a *dataset.ColumnError is returned. A column
// named in all three lists is rejected with a *ConflictError. A column in exactly two
// lists is accepted. Nothing is mutated unless validation passes; on success the new
// categorical columns are canonicalized to text.
func Reclassify(ds *dataset.Dataset, categorical, numerical, temporal []string) (Schema, error) {
	if err := ds.ValidateColumns(categorical, numerical, temporal); err != nil {
		return Schema{}, err
	}
	if both := tripleOverlap(categorical, numerical, temporal); len(both) > 0 {
		return Schema{}, &ConflictError{Columns: both}
	}
	s := Schema{
		Numeric:     dedupe(numerical),
		Categorical: dedupe(categorical),
		Temporal:    dedupe(temporal),
	}
	canonicalize(ds, s.Categorical)
	return s, nil
}

func tripleOverlap(a, b, c []string) []string {
	inB := toSet(b)
	inC := toSet(c)
	var out []string
	for _, name := range dedupe(a) {
		if inB[name] && inC[name] {
			out = append(out, name)
		}
	}
	return out
}

func toSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, v := range list {
		m[v] = true
	}
	return m
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, v := range list {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
