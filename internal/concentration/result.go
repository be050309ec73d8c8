package concentration

import (
	"bytes"
	"encoding/json"
)

// BucketStat is the top-p% slice of one period.
type BucketStat struct {
	Bucket     float64
	Value      float64
	Count      int
	Percentage float64
}

// PeriodResult holds one period's totals and bucket statistics for one measure.
type PeriodResult struct {
	TimePeriod string
	TotalValue float64
	TotalCount int
	Buckets    []BucketStat
}

// Bucket returns the statistics for bucket p.
func (r PeriodResult) Bucket(p float64) (BucketStat, bool) {
	for _, b := range r.Buckets {
		if b.Bucket == p {
			return b, true
		}
	}
	return BucketStat{}, false
}

// MarshalJSON emits time_period, total_value, total_count, then
// top_{p}%_value, top_{p}%_count and top_{p}%_percentage per bucket, in that order.
func (r PeriodResult) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("time_period", r.TimePeriod)
	w.field("total_value", r.TotalValue)
	w.field("total_count", r.TotalCount)
	for _, b := range r.Buckets {
		prefix := "top_" + BucketLabel(b.Bucket) + "%_"
		w.field(prefix+"value", b.Value)
		w.field(prefix+"count", b.Count)
		w.field(prefix+"percentage", b.Percentage)
	}
	return w.close()
}

// Result is the time-bucketed concentration analysis output.
type Result struct {
	TimePeriods          []string                  `json:"time_periods"`
	ConcentrationData    map[string][]PeriodResult `json:"concentration_data"`
	TimeColumns          []string                  `json:"time_columns"`
	AggregateColumns     []string                  `json:"aggregate_columns"`
	ConcentrationBuckets []float64                 `json:"concentration_buckets"`
	TotalPeriods         int                       `json:"total_periods"`
}

// objectWriter builds a JSON object with a fixed key order.
type objectWriter struct {
	buf bytes.Buffer
	n   int
	err error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(key string, v any) {
	if w.err != nil {
		return
	}
	kb, err := json.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	vb, err := json.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	if w.n > 0 {
		w.buf.WriteByte(',')
	}
	w.buf.Write(kb)
	w.buf.WriteByte(':')
	w.buf.Write(vb)
	w.n++
}

func (w *objectWriter) close() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}
