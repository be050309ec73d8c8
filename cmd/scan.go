package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/concentra-cli/internal/schema"
)

var (
	scanLoad       loadFlags
	scanReclassify reclassifyFlags
	scanMarkdown   bool
	scanOutput     string
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Load a table and classify its columns",
	Long: `Load a CSV/TSV/XLSX file and classify every column as numerical, categorical
or time. Columns named like year, month, quarter or date are always time columns.
Pass --categorical/--numerical/--time to replace the inferred classification.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, sc, err := loadAndClassify(cmd, args[0], &scanLoad, &scanReclassify)
		if err != nil {
			return err
		}
		res := schema.Summarize(ds, sc)
		return emit(cmd, res, res.Markdown, scanMarkdown, scanOutput)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanLoad.bind(scanCmd)
	scanReclassify.bind(scanCmd)
	scanCmd.Flags().BoolVar(&scanMarkdown, "markdown", false, "print Markdown instead of JSON")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "optional path to write the result")
}
