package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/concentra-cli/internal/concentration"
	"github.com/KaramelBytes/concentra-cli/internal/utils"
)

var (
	gcLoad       loadFlags
	gcReclassify reclassifyFlags
	gcGroupBy    []string
	gcAggCols    []string
	gcBuckets    string
	gcMarkdown   bool
	gcOutput     string
)

var concentrationCmd = &cobra.Command{
	Use:   "concentration <file>",
	Short: "Per-group totals and the share held by the largest groups",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buckets, err := utils.ParseFloatList(gcBuckets)
		if err != nil {
			return fmt.Errorf("--buckets: %w", err)
		}
		ds, _, err := loadAndClassify(cmd, args[0], &gcLoad, &gcReclassify)
		if err != nil {
			return err
		}
		log, err := newLogger(false)
		if err != nil {
			return err
		}
		defer log.Sync()
		calc := concentration.NewCalculator(log, cfg.Workers, cfg.ConcentrationBuckets)
		res, err := calc.GroupConcentration(ds, concentration.GroupRequest{
			GroupByColumns:   gcGroupBy,
			AggregateColumns: gcAggCols,
			Buckets:          buckets,
		})
		if err != nil {
			return err
		}
		return emit(cmd, res, res.Markdown, gcMarkdown, gcOutput)
	},
}

func init() {
	rootCmd.AddCommand(concentrationCmd)
	gcLoad.bind(concentrationCmd)
	gcReclassify.bind(concentrationCmd)
	f := concentrationCmd.Flags()
	f.StringSliceVar(&gcGroupBy, "group-by", nil, "columns whose values form a group (required)")
	f.StringSliceVar(&gcAggCols, "agg-cols", nil, "numeric columns to aggregate (required)")
	f.StringVar(&gcBuckets, "buckets", "", "top-N% of groups, e.g. 10,20,50 (default from config)")
	f.BoolVar(&gcMarkdown, "markdown", false, "print Markdown instead of JSON")
	f.StringVarP(&gcOutput, "output", "o", "", "optional path to write the result")
	_ = concentrationCmd.MarkFlagRequired("group-by")
	_ = concentrationCmd.MarkFlagRequired("agg-cols")
}
