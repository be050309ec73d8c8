// Package concentration computes the share of a measure held by the top p% of records.
package concentration

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/concentra-cli/internal/dataset"
	"github.com/KaramelBytes/concentra-cli/internal/logger"
	"github.com/KaramelBytes/concentra-cli/internal/period"
)

// Calculator runs concentration analyses. Measures are independent and are
// computed concurrently, at most Workers at a time.
type Calculator struct {
	Workers int
	// Buckets replaces DefaultBuckets when a request omits its own.
	Buckets []float64
	Log     *logger.Logger
}

// NewCalculator returns a calculator; workers <= 0 means one measure at a time.
func NewCalculator(log *logger.Logger, workers int, buckets []float64) *Calculator {
	if log == nil {
		log = logger.Nop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Calculator{Workers: workers, Buckets: buckets, Log: log}
}

// measure is one aggregate column's values; ok is false where the cell is null.
type measure struct {
	name string
	vals []float64
	ok   []bool
}

func loadMeasure(ds *dataset.Dataset, name string) (measure, error) {
	col := ds.Column(name)
	m := measure{name: name, vals: make([]float64, len(col)), ok: make([]bool, len(col))}
	for i, v := range col {
		switch v.Kind {
		case dataset.KindNull:
		case dataset.KindNumber:
			m.vals[i] = v.Num
			m.ok[i] = true
		default:
			return measure{}, fmt.Errorf("%w: %s holds %s value %q at row %d", ErrNonNumericMeasure, name, v.Kind, v.String(), i+1)
		}
	}
	return m, nil
}

// rank returns rows ordered by value descending. Ties keep row order; nulls go last.
func (m measure) rank(rows []int) []int {
	out := append([]int{}, rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if m.ok[a] != m.ok[b] {
			return m.ok[a]
		}
		return m.vals[a] > m.vals[b]
	})
	return out
}

func (m measure) sum(rows []int) float64 {
	var s float64
	for _, r := range rows {
		if m.ok[r] {
			s += m.vals[r]
		}
	}
	return s
}

// BucketCount is the number of top records in bucket p: floor(n*p/100), at least one.
func BucketCount(n int, p float64) int {
	c := int(math.Floor(float64(n) * p / 100))
	if c < 1 {
		c = 1
	}
	if c > n {
		c = n
	}
	return c
}

// TimeConcentration groups records by period key and computes top-p% statistics per
// measure and period. Periods whose total is not positive are left out of that
// measure's list.
func (c *Calculator) TimeConcentration(ds *dataset.Dataset, req Request) (*Result, error) {
	if len(req.TimeColumns) == 0 {
		return nil, fmt.Errorf("%w: time_columns", ErrMissingParameter)
	}
	if len(req.AggregateColumns) == 0 {
		return nil, fmt.Errorf("%w: aggregate_columns", ErrMissingParameter)
	}
	if err := ds.ValidateColumns(req.TimeColumns, req.AggregateColumns); err != nil {
		return nil, err
	}
	buckets, err := normalizeBuckets(req.Buckets, c.Buckets)
	if err != nil {
		return nil, err
	}
	order := req.Order
	if order == "" {
		order = period.Chronological
	}
	names := dedupe(req.AggregateColumns)
	measures := make([]measure, len(names))
	for i, n := range names {
		if measures[i], err = loadMeasure(ds, n); err != nil {
			return nil, err
		}
	}

	keys, err := period.Build(ds, req.TimeColumns)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]int, len(keys.Distinct))
	for _, k := range keys.Records {
		groups[k.Key] = append(groups[k.Key], k.Row)
	}
	periods := period.Sort(keys.Distinct, order)

	out := make([][]PeriodResult, len(measures))
	var g errgroup.Group
	g.SetLimit(c.Workers)
	for i := range measures {
		i := i
		g.Go(func() error {
			out[i] = measures[i].byPeriod(periods, groups, buckets)
			c.Log.Debug("measure computed",
				"measure", measures[i].name,
				"periods", len(out[i]),
				"omitted", len(periods)-len(out[i]),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		TimePeriods:          periods,
		ConcentrationData:    make(map[string][]PeriodResult, len(measures)),
		TimeColumns:          append([]string{}, req.TimeColumns...),
		AggregateColumns:     names,
		ConcentrationBuckets: buckets,
		TotalPeriods:         len(periods),
	}
	for i, m := range measures {
		res.ConcentrationData[m.name] = out[i]
	}
	if req.FormatPeriods {
		res.TimePeriods = period.FormatAll(periods, order)
		for _, list := range res.ConcentrationData {
			for j := range list {
				list[j].TimePeriod = period.Format(list[j].TimePeriod, order)
			}
		}
	}
	c.Log.Info("time concentration computed",
		"dataset", ds.Name,
		"periods", len(periods),
		"measures", len(measures),
		"dropped_records", keys.Dropped,
	)
	return res, nil
}

func finite(f float64) bool { return !math.IsInf(f, 0) && !math.IsNaN(f) }

// byPeriod skips periods whose total is not positive, and periods whose sums
// overflow float64.
func (m measure) byPeriod(periods []string, groups map[string][]int, buckets []float64) []PeriodResult {
	out := make([]PeriodResult, 0, len(periods))
periods:
	for _, p := range periods {
		rows := groups[p]
		total := m.sum(rows)
		if !(total > 0) || !finite(total) {
			continue
		}
		ranked := m.rank(rows)
		pr := PeriodResult{TimePeriod: p, TotalValue: total, TotalCount: len(rows), Buckets: make([]BucketStat, len(buckets))}
		for i, b := range buckets {
			n := BucketCount(len(rows), b)
			v := m.sum(ranked[:n])
			pct := v / total * 100
			if !finite(v) || !finite(pct) {
				continue periods
			}
			pr.Buckets[i] = BucketStat{Bucket: b, Value: v, Count: n, Percentage: pct}
		}
		out = append(out, pr)
	}
	return out
}
