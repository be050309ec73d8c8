package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/concentra-cli/internal/dataset"
	"github.com/KaramelBytes/concentra-cli/internal/schema"
	"github.com/KaramelBytes/concentra-cli/internal/utils"
)

// loadFlags are the ingestion flags shared by every command that reads a file.
type loadFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
	noDates    bool
}

func (f *loadFlags) bind(c *cobra.Command) {
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (default from config or extension)")
	c.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	c.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	c.Flags().IntVar(&f.maxRows, "max-rows", 0, "maximum rows to load (0 = config value, unlimited by default)")
	c.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to load")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().BoolVar(&f.noDates, "no-dates", false, "keep date-looking text as text")
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s", s)
	}
}

func (f *loadFlags) options() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	opt.MaxRows = cfg.MaxRows
	opt.ParseDates = cfg.ParseDates && !f.noDates
	if f.maxRows > 0 {
		opt.MaxRows = f.maxRows
	}
	delim := f.delimiter
	if delim == "" {
		delim = cfg.CSVDelimiter
	}
	d, err := parseDelimiter(delim)
	if err != nil {
		return opt, fmt.Errorf("--delimiter: %w", err)
	}
	opt.Delimiter = d
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.SheetName = f.sheetName
	if f.sheetIndex > 0 {
		opt.SheetIndex = f.sheetIndex
	}
	return opt, nil
}

// reclassifyFlags override the inferred schema when any of them is given.
type reclassifyFlags struct {
	categorical []string
	numerical   []string
	temporal    []string
}

func (f *reclassifyFlags) bind(c *cobra.Command) {
	c.Flags().StringSliceVar(&f.categorical, "categorical", nil, "reclassify: categorical columns (replaces inferred schema)")
	c.Flags().StringSliceVar(&f.numerical, "numerical", nil, "reclassify: numerical columns (replaces inferred schema)")
	c.Flags().StringSliceVar(&f.temporal, "time", nil, "reclassify: time columns (replaces inferred schema)")
}

func (f *reclassifyFlags) set(c *cobra.Command) bool {
	fl := c.Flags()
	return fl.Changed("categorical") || fl.Changed("numerical") || fl.Changed("time")
}

// loadAndClassify reads path, infers its schema and applies any reclassification flags.
func loadAndClassify(c *cobra.Command, path string, lf *loadFlags, rf *reclassifyFlags) (*dataset.Dataset, schema.Schema, error) {
	opt, err := lf.options()
	if err != nil {
		return nil, schema.Schema{}, err
	}
	ds, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, schema.Schema{}, err
	}
	sc := schema.Classify(ds)
	if rf != nil && rf.set(c) {
		if sc, err = schema.Reclassify(ds, rf.categorical, rf.numerical, rf.temporal); err != nil {
			return nil, schema.Schema{}, err
		}
	}
	return ds, sc, nil
}

// emit writes JSON (or Markdown when asMarkdown) to path, or to stdout when path is empty.
func emit(c *cobra.Command, v any, markdown func() string, asMarkdown bool, path string) error {
	var data []byte
	if asMarkdown {
		data = []byte(markdown())
	} else {
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		data = b
	}
	if path == "" {
		fmt.Fprintln(c.OutOrStdout(), string(data))
		return nil
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}
