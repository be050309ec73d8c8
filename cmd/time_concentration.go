package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/concentra-cli/internal/concentration"
	"github.com/KaramelBytes/concentra-cli/internal/period"
	"github.com/KaramelBytes/concentra-cli/internal/utils"
)

var (
	tcLoad          loadFlags
	tcReclassify    reclassifyFlags
	tcTimeCols      []string
	tcAggCols       []string
	tcBuckets       string
	tcOrder         string
	tcFormatPeriods bool
	tcMarkdown      bool
	tcOutput        string
)

var timeConcentrationCmd = &cobra.Command{
	Use:   "time-concentration <file>",
	Short: "Share of each measure held by the top N% of records, per time period",
	Long: `Group records by the period formed from --time-cols (several columns are joined
with "_", e.g. year+month -> 2020_01), then for every --agg-cols measure report the
total and the value, count and percentage held by the top N% of records.
Periods whose total is zero or negative are omitted for that measure.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buckets, err := utils.ParseFloatList(tcBuckets)
		if err != nil {
			return fmt.Errorf("--buckets: %w", err)
		}
		orderName := tcOrder
		if orderName == "" {
			orderName = cfg.PeriodOrder
		}
		order, err := period.ParseOrder(orderName)
		if err != nil {
			return err
		}
		ds, _, err := loadAndClassify(cmd, args[0], &tcLoad, &tcReclassify)
		if err != nil {
			return err
		}
		log, err := newLogger(false)
		if err != nil {
			return err
		}
		defer log.Sync()
		calc := concentration.NewCalculator(log, cfg.Workers, cfg.ConcentrationBuckets)
		res, err := calc.TimeConcentration(ds, concentration.Request{
			TimeColumns:      tcTimeCols,
			AggregateColumns: tcAggCols,
			Buckets:          buckets,
			Order:            order,
			FormatPeriods:    tcFormatPeriods,
		})
		if err != nil {
			return err
		}
		return emit(cmd, res, res.Markdown, tcMarkdown, tcOutput)
	},
}

func init() {
	rootCmd.AddCommand(timeConcentrationCmd)
	tcLoad.bind(timeConcentrationCmd)
	tcReclassify.bind(timeConcentrationCmd)
	f := timeConcentrationCmd.Flags()
	f.StringSliceVar(&tcTimeCols, "time-cols", nil, "ordered time columns forming the period key (required)")
	f.StringSliceVar(&tcAggCols, "agg-cols", nil, "numeric columns to measure (required)")
	f.StringVar(&tcBuckets, "buckets", "", "top-N% buckets, e.g. 10,20,50 (default from config)")
	f.StringVar(&tcOrder, "order", "", "period order: chronological|lexical (default from config)")
	f.BoolVar(&tcFormatPeriods, "format-periods", false, "render year_month periods as 'Jan 2020'")
	f.BoolVar(&tcMarkdown, "markdown", false, "print Markdown tables instead of JSON")
	f.StringVarP(&tcOutput, "output", "o", "", "optional path to write the result")
	_ = timeConcentrationCmd.MarkFlagRequired("time-cols")
	_ = timeConcentrationCmd.MarkFlagRequired("agg-cols")
}
