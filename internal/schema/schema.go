// Package schema assigns dataset columns to the numeric, categorical and temporal roles.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the classification assigned to a column.
type Role string

const (
	RoleNumeric      Role = "numeric"
	RoleCategorical  Role = "categorical"
	RoleTemporal     Role = "temporal"
	RoleUnclassified Role = "unclassified"
)

// TemporalNames are column names that are always treated as temporal,
// whatever their values look like. Matching is case-insensitive.
var TemporalNames = []string{
	"day", "month", "year", "quarter", "date", "time", "timestamp", "datetime", "period",
	"fiscal_year", "fiscal_quarter", "fiscal_month", "week", "week_of_year",
	"month_of_year", "quarter_of_year",
}

var temporalNameSet = func() map[string]bool {
	m := make(map[string]bool, len(TemporalNames))
	for _, n := range TemporalNames {
		m[n] = true
	}
	return m
}()

// IsTemporalName reports whether the column name alone marks it as temporal.
func IsTemporalName(name string) bool {
	return temporalNameSet[strings.ToLower(strings.TrimSpace(name))]
}

// ErrConflictingClassification indicates a column was named in every role list at once.
var ErrConflictingClassification = errors.New("conflicting classification")

// ConflictError lists the columns named in all three reclassification lists.
type ConflictError struct {
	Columns []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("columns cannot be categorical, numerical and time at once: %s", strings.Join(e.Columns, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflictingClassification }

// Schema holds three disjoint column sets. Columns of unrecognized type appear in none.
type Schema struct {
	Numeric     []string
	Categorical []string
	Temporal    []string
}

// Clone returns a copy that shares no slices with s.
func (s Schema) Clone() Schema {
	return Schema{
		Numeric:     append([]string{}, s.Numeric...),
		Categorical: append([]string{}, s.Categorical...),
		Temporal:    append([]string{}, s.Temporal...),
	}
}

// RoleOf returns the first role that lists the column.
func (s Schema) RoleOf(column string) Role {
	switch {
	case contains(s.Temporal, column):
		return RoleTemporal
	case contains(s.Numeric, column):
		return RoleNumeric
	case contains(s.Categorical, column):
		return RoleCategorical
	default:
		return RoleUnclassified
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
