package schema

import (
	"github.com/KaramelBytes/concentra-cli/internal/dataset"
)

// Classify infers the role of every column and canonicalizes categorical columns
// to text in place. Name evidence beats value evidence: a column called "year" is
// temporal even if it only holds numbers.
func Classify(ds *dataset.Dataset) Schema {
	s := Schema{Numeric: []string{}, Categorical: []string{}, Temporal: []string{}}
	for _, col := range ds.Columns() {
		role := inferRole(ds.Column(col))
		if IsTemporalName(col) {
			role = RoleTemporal
		}
		switch role {
		case RoleNumeric:
			s.Numeric = append(s.Numeric, col)
		case RoleCategorical:
			s.Categorical = append(s.Categorical, col)
		case RoleTemporal:
			s.Temporal = append(s.Temporal, col)
		}
	}
	canonicalize(ds, s.Categorical)
	return s
}

// inferRole decides by the kinds of non-null values. Mixed kinds are categorical.
func inferRole(values []dataset.Value) Role {
	kind := dataset.KindNull
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		if kind == dataset.KindNull {
			kind = v.Kind
			continue
		}
		if v.Kind != kind {
			return RoleCategorical
		}
	}
	switch kind {
	case dataset.KindNumber:
		return RoleNumeric
	case dataset.KindText:
		return RoleCategorical
	case dataset.KindTime:
		return RoleTemporal
	default:
		return RoleUnclassified
	}
}

func canonicalize(ds *dataset.Dataset, columns []string) {
	for _, c := range columns {
		ds.CanonicalizeText(c)
	}
}
