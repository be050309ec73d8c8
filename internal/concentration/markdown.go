package concentration

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders one table per measure: bucket rows by period columns, plus a total row.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[TIME CONCENTRATION]\n")
	b.WriteString(fmt.Sprintf("Time columns: %s\n", strings.Join(r.TimeColumns, ", ")))
	b.WriteString(fmt.Sprintf("Aggregate columns: %s\n", strings.Join(r.AggregateColumns, ", ")))
	labels := make([]string, len(r.ConcentrationBuckets))
	for i, p := range r.ConcentrationBuckets {
		labels[i] = BucketLabel(p) + "%"
	}
	b.WriteString(fmt.Sprintf("Buckets: %s\n", strings.Join(labels, ", ")))
	b.WriteString(fmt.Sprintf("Periods: %d\n", r.TotalPeriods))

	for _, col := range r.AggregateColumns {
		list := r.ConcentrationData[col]
		byPeriod := make(map[string]PeriodResult, len(list))
		for _, pr := range list {
			byPeriod[pr.TimePeriod] = pr
		}
		b.WriteString(fmt.Sprintf("\n## %s\n\n", safeCell(col)))
		if len(list) == 0 {
			b.WriteString("No period with a positive total.\n")
			continue
		}
		b.WriteString("| Concentration |")
		for _, p := range r.TimePeriods {
			b.WriteString(" " + safeCell(p) + " |")
		}
		b.WriteString("\n|---|")
		b.WriteString(strings.Repeat("---|", len(r.TimePeriods)))
		b.WriteString("\n")
		for _, bucket := range r.ConcentrationBuckets {
			b.WriteString(fmt.Sprintf("| Top %s%% |", BucketLabel(bucket)))
			for _, p := range r.TimePeriods {
				pr, ok := byPeriod[p]
				if !ok {
					b.WriteString(" - |")
					continue
				}
				st, _ := pr.Bucket(bucket)
				b.WriteString(fmt.Sprintf(" %.2f (%.1f%%, n=%d) |", st.Value, st.Percentage, st.Count))
			}
			b.WriteString("\n")
		}
		b.WriteString("| Total |")
		for _, p := range r.TimePeriods {
			pr, ok := byPeriod[p]
			if !ok {
				b.WriteString(" - |")
				continue
			}
			b.WriteString(fmt.Sprintf(" %.2f (n=%d) |", pr.TotalValue, pr.TotalCount))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders the group metrics and the largest groups per measure.
func (r *GroupResult) Markdown() string {
	const maxRows = 20
	var b strings.Builder
	b.WriteString("[GROUP CONCENTRATION]\n")
	b.WriteString(fmt.Sprintf("Group by: %s\n", strings.Join(r.GroupByColumns, ", ")))
	b.WriteString(fmt.Sprintf("Aggregate columns: %s\n", strings.Join(r.AggregateColumns, ", ")))
	b.WriteString(fmt.Sprintf("Total groups: %d\n", r.TotalGroups))
	cols := append([]string{}, r.AggregateColumns...)
	sort.Strings(cols)
	for _, col := range cols {
		b.WriteString(fmt.Sprintf("\n## %s\n", safeCell(col)))
		if m, ok := r.ConcentrationMetrics[col]; ok {
			b.WriteString(fmt.Sprintf("- total: %.2f (n=%d)\n", m.TotalSum, m.TotalCount))
			for _, s := range m.Buckets {
				b.WriteString(fmt.Sprintf("- top %s%% of groups: %.1f%%\n", BucketLabel(s.Bucket), s.Concentration))
			}
		} else {
			b.WriteString("- total is not positive; no concentration metrics\n")
		}
		rows := r.AggregationResults[col]
		if len(rows) == 0 {
			continue
		}
		b.WriteString("\n| Group | Sum | Count | Mean | Std |\n|---|---|---|---|---|\n")
		for i, row := range rows {
			if i == maxRows {
				b.WriteString(fmt.Sprintf("| ... %d more | | | | |\n", len(rows)-maxRows))
				break
			}
			parts := make([]string, len(row.Group))
			for j, g := range row.Group {
				parts[j] = g.Value
			}
			b.WriteString(fmt.Sprintf("| %s | %.2f | %d | %.2f | %.2f |\n", safeCell(strings.Join(parts, " / ")), row.Sum, row.Count, row.Mean, row.Std))
		}
	}
	return b.String()
}

func safeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
