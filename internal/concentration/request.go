package concentration

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/KaramelBytes/concentra-cli/internal/period"
)

// DefaultBuckets is used when neither the request nor the calculator supplies buckets.
var DefaultBuckets = []float64{10, 20, 50}

var (
	// ErrInvalidBucket indicates a bucket percentage outside (0, 100].
	ErrInvalidBucket = errors.New("invalid concentration bucket")
	// ErrMissingParameter indicates a required column list is empty.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrNonNumericMeasure indicates a measure column holds non-numeric values.
	ErrNonNumericMeasure = errors.New("non-numeric measure column")
	// ErrNumericOverflow indicates an aggregate that does not fit a float64.
	ErrNumericOverflow = errors.New("aggregate overflows float64")
	// ErrReservedColumn indicates a grouping column whose name collides with a
	// statistic field of the group rows.
	ErrReservedColumn = errors.New("reserved column name")
)

// Request parameters for a time-bucketed concentration analysis.
type Request struct {
	TimeColumns      []string
	AggregateColumns []string
	Buckets          []float64
	Order            period.Order
	// FormatPeriods renders keys for display (e.g. "Jan 2020") after ordering.
	FormatPeriods bool
}

// GroupRequest parameters for a concentration analysis over categorical groups.
type GroupRequest struct {
	GroupByColumns   []string
	AggregateColumns []string
	Buckets          []float64
}

// BucketLabel renders p the way it appears in result field names: 10, 12.5.
func BucketLabel(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// normalizeBuckets validates buckets, collapses duplicates and falls back to defaults.
func normalizeBuckets(in, defaults []float64) ([]float64, error) {
	if len(in) == 0 {
		in = defaults
	}
	if len(in) == 0 {
		in = DefaultBuckets
	}
	out := make([]float64, 0, len(in))
	seen := map[float64]bool{}
	for _, p := range in {
		if !(p > 0 && p <= 100) {
			return nil, fmt.Errorf("%w: %s (must be in (0, 100])", ErrInvalidBucket, BucketLabel(p))
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	seen := map[string]bool{}
	for _, v := range list {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
