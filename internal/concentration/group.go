package concentration

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/concentra-cli/internal/dataset"
)

// GroupValue is one grouping column's value for a group.
type GroupValue struct {
	Column string
	Value  string
}

// GroupRow summarizes one measure inside one group.
type GroupRow struct {
	Group []GroupValue
	Sum   float64
	Count int
	Mean  float64
	Std   float64
}

// groupStatFields are the keys GroupRow writes after the grouping columns.
var groupStatFields = map[string]bool{"sum": true, "count": true, "mean": true, "std": true}

// MarshalJSON emits the grouping columns first, then sum, count, mean and std.
func (r GroupRow) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	for _, g := range r.Group {
		w.field(g.Column, g.Value)
	}
	w.field("sum", r.Sum)
	w.field("count", r.Count)
	w.field("mean", r.Mean)
	w.field("std", r.Std)
	return w.close()
}

// BucketShare is the percentage of the total held by the top p% of groups.
type BucketShare struct {
	Bucket        float64
	Concentration float64
}

// GroupMetrics are the concentration metrics of one measure across groups.
type GroupMetrics struct {
	TotalSum   float64
	TotalCount int
	Buckets    []BucketShare
}

// MarshalJSON emits total_sum, total_count and top_{p}_concentration per bucket.
func (m GroupMetrics) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("total_sum", m.TotalSum)
	w.field("total_count", m.TotalCount)
	for _, b := range m.Buckets {
		w.field("top_"+BucketLabel(b.Bucket)+"_concentration", b.Concentration)
	}
	return w.close()
}

// GroupResult is the group concentration analysis output.
type GroupResult struct {
	AggregationResults   map[string][]GroupRow   `json:"aggregation_results"`
	ConcentrationMetrics map[string]GroupMetrics `json:"concentration_metrics"`
	GroupByColumns       []string                `json:"group_by_columns"`
	AggregateColumns     []string                `json:"aggregate_columns"`
	ConcentrationBuckets []float64               `json:"concentration_buckets"`
	TotalGroups          int                     `json:"total_groups"`
}

type group struct {
	values []GroupValue
	rows   []int
}

// GroupConcentration aggregates each measure per group of the grouping columns and
// reports how much of the total the largest groups hold. Records with a missing
// grouping value are skipped.
func (c *Calculator) GroupConcentration(ds *dataset.Dataset, req GroupRequest) (*GroupResult, error) {
	if len(req.GroupByColumns) == 0 {
		return nil, fmt.Errorf("%w: group_by_columns", ErrMissingParameter)
	}
	if len(req.AggregateColumns) == 0 {
		return nil, fmt.Errorf("%w: aggregate_columns", ErrMissingParameter)
	}
	if err := ds.ValidateColumns(req.GroupByColumns, req.AggregateColumns); err != nil {
		return nil, err
	}
	for _, col := range req.GroupByColumns {
		if groupStatFields[col] {
			return nil, fmt.Errorf("%w: %q cannot be a grouping column, rename it first", ErrReservedColumn, col)
		}
	}
	buckets, err := normalizeBuckets(req.Buckets, c.Buckets)
	if err != nil {
		return nil, err
	}
	names := dedupe(req.AggregateColumns)
	measures := make([]measure, len(names))
	for i, n := range names {
		if measures[i], err = loadMeasure(ds, n); err != nil {
			return nil, err
		}
	}
	groups := groupRows(ds, req.GroupByColumns)

	rows := make([][]GroupRow, len(measures))
	metrics := make([]*GroupMetrics, len(measures))
	var g errgroup.Group
	g.SetLimit(c.Workers)
	for i := range measures {
		i := i
		g.Go(func() error {
			var err error
			rows[i], metrics[i], err = measures[i].byGroup(groups, buckets)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res := &GroupResult{
		AggregationResults:   make(map[string][]GroupRow, len(measures)),
		ConcentrationMetrics: make(map[string]GroupMetrics, len(measures)),
		GroupByColumns:       append([]string{}, req.GroupByColumns...),
		AggregateColumns:     names,
		ConcentrationBuckets: buckets,
		TotalGroups:          len(groups),
	}
	for i, m := range measures {
		res.AggregationResults[m.name] = rows[i]
		if metrics[i] != nil {
			res.ConcentrationMetrics[m.name] = *metrics[i]
		}
	}
	c.Log.Info("group concentration computed", "dataset", ds.Name, "groups", len(groups), "measures", len(measures))
	return res, nil
}

func groupRows(ds *dataset.Dataset, columns []string) []*group {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = ds.ColumnIndex(c)
	}
	byKey := map[string]*group{}
	var order []*group
	parts := make([]string, len(idx))
rows:
	for r := 0; r < ds.Len(); r++ {
		for i, ci := range idx {
			v := ds.At(r, ci)
			if v.IsNull() {
				continue rows
			}
			parts[i] = v.String()
		}
		key := strings.Join(parts, "\x1f")
		g, ok := byKey[key]
		if !ok {
			g = &group{values: make([]GroupValue, len(columns))}
			for i, c := range columns {
				g.values[i] = GroupValue{Column: c, Value: parts[i]}
			}
			byKey[key] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, r)
	}
	return order
}

// byGroup returns the per-group rows sorted by sum descending and the metrics,
// or nil metrics when the total is not positive.
func (m measure) byGroup(groups []*group, buckets []float64) ([]GroupRow, *GroupMetrics, error) {
	out := make([]GroupRow, 0, len(groups))
	var total float64
	var count int
	for _, g := range groups {
		row := GroupRow{Group: g.values}
		var sumSq float64
		for _, r := range g.rows {
			if !m.ok[r] {
				continue
			}
			row.Sum += m.vals[r]
			row.Count++
		}
		if row.Count > 0 {
			row.Mean = row.Sum / float64(row.Count)
			for _, r := range g.rows {
				if m.ok[r] {
					d := m.vals[r] - row.Mean
					sumSq += d * d
				}
			}
		}
		if row.Count > 1 {
			row.Std = math.Sqrt(sumSq / float64(row.Count-1))
		}
		if !finite(row.Sum) || !finite(row.Std) {
			return nil, nil, fmt.Errorf("%w: %s in group %s", ErrNumericOverflow, m.name, groupLabel(g.values))
		}
		total += row.Sum
		count += row.Count
		out = append(out, row)
	}
	if !finite(total) {
		return nil, nil, fmt.Errorf("%w: total of %s", ErrNumericOverflow, m.name)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sum > out[j].Sum })
	if total <= 0 || len(out) == 0 {
		return out, nil, nil
	}
	metrics := &GroupMetrics{TotalSum: total, TotalCount: count, Buckets: make([]BucketShare, len(buckets))}
	for i, b := range buckets {
		n := BucketCount(len(out), b)
		var top float64
		for _, r := range out[:n] {
			top += r.Sum
		}
		if !finite(top) || !finite(top/total*100) {
			return nil, nil, fmt.Errorf("%w: top %s%% of %s", ErrNumericOverflow, BucketLabel(b), m.name)
		}
		metrics.Buckets[i] = BucketShare{Bucket: b, Concentration: top / total * 100}
	}
	return out, metrics, nil
}

func groupLabel(values []GroupValue) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.Column + "=" + v.Value
	}
	return strings.Join(parts, ", ")
}
