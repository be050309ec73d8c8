package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags puts every flag of c and its subcommands back to its default so
// values do not leak between invocations of the shared rootCmd.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args in an isolated HOME and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "sales.csv")
	body := "year,month,region,amount\n" +
		"2020,1,north,100\n" +
		"2020,1,south,50\n" +
		"2020,2,north,30\n" +
		"2021,1,north,10\n" +
		"2021,,south,999\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestCLI_Scan(t *testing.T) {
	path := setup(t)
	out := mustRun(t, "scan", path)
	var res struct {
		DataShape          [2]int   `json:"data_shape"`
		NumericalColumns   []string `json:"numerical_columns"`
		CategoricalColumns []string `json:"categorical_columns"`
		TimeColumns        []string `json:"time_columns"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.DataShape != [2]int{5, 4} {
		t.Fatalf("shape = %v", res.DataShape)
	}
	if strings.Join(res.TimeColumns, ",") != "year,month" || strings.Join(res.NumericalColumns, ",") != "amount" {
		t.Fatalf("schema = %+v", res)
	}

	out = mustRun(t, "scan", path, "--categorical", "region,year", "--numerical", "amount", "--time", "month")
	if !strings.Contains(out, `"categorical_columns": [`) || !strings.Contains(out, `"year"`) {
		t.Fatalf("reclassified scan: %s", out)
	}

	if _, err := runCmd(t, "scan", path, "--categorical", "region", "--numerical", "region", "--time", "region"); err == nil {
		t.Fatal("expected a conflicting classification error")
	}
}

func TestCLI_TimeConcentration(t *testing.T) {
	path := setup(t)
	out := mustRun(t, "time-concentration", path, "--time-cols", "year,month", "--agg-cols", "amount", "--buckets", "50")
	var res struct {
		TimePeriods       []string                    `json:"time_periods"`
		ConcentrationData map[string][]map[string]any `json:"concentration_data"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if strings.Join(res.TimePeriods, ",") != "2020_01,2020_02,2021_01" {
		t.Fatalf("periods = %v", res.TimePeriods)
	}
	first := res.ConcentrationData["amount"][0]
	if first["total_value"].(float64) != 150 || first["top_50%_value"].(float64) != 100 {
		t.Fatalf("2020_01 = %v", first)
	}

	out = mustRun(t, "time-concentration", path, "--time-cols", "year,month", "--agg-cols", "amount", "--format-periods", "--markdown")
	if !strings.Contains(out, "| Concentration | Jan 2020 | Feb 2020 | Jan 2021 |") {
		t.Fatalf("markdown: %s", out)
	}

	dest := filepath.Join(t.TempDir(), "reports", "tc.json")
	out = mustRun(t, "time-concentration", path, "--time-cols", "year", "--agg-cols", "amount", "-o", dest)
	if !strings.Contains(out, "✓ Wrote") {
		t.Fatalf("output message: %s", out)
	}
	if b, err := os.ReadFile(dest); err != nil || !strings.Contains(string(b), `"total_periods": 2`) {
		t.Fatalf("written file: %s %v", b, err)
	}
}

func TestCLI_TimeConcentrationErrors(t *testing.T) {
	path := setup(t)
	if _, err := runCmd(t, "time-concentration", path, "--time-cols", "quarter", "--agg-cols", "amount"); err == nil || !strings.Contains(err.Error(), "quarter") {
		t.Fatalf("expected invalid column error naming quarter, got %v", err)
	}
	if _, err := runCmd(t, "time-concentration", path, "--time-cols", "year", "--agg-cols", "amount", "--buckets", "0"); err == nil {
		t.Fatal("expected invalid bucket error")
	}
	if _, err := runCmd(t, "time-concentration", path, "--time-cols", "year", "--agg-cols", "amount", "--order", "sideways"); err == nil {
		t.Fatal("expected invalid order error")
	}
	if _, err := runCmd(t, "time-concentration", filepath.Join(filepath.Dir(path), "notes.pdf"), "--time-cols", "year", "--agg-cols", "amount"); err == nil {
		t.Fatal("expected unsupported source error")
	}
}

func TestCLI_GroupConcentration(t *testing.T) {
	path := setup(t)
	out := mustRun(t, "concentration", path, "--group-by", "region", "--agg-cols", "amount", "--buckets", "50")
	for _, want := range []string{`"total_groups": 2`, `"top_50_concentration"`, `"region": "south"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	setup(t)
	mustRun(t, "config", "set", "workers", "3")
	mustRun(t, "config", "set", "concentration_buckets", "5,25")
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "workers: 3") || !strings.Contains(out, "- 25") {
		t.Fatalf("config show: %s", out)
	}
	if _, err := runCmd(t, "config", "set", "period_order", "backwards"); err == nil {
		t.Fatal("expected invalid period_order error")
	}
	if _, err := runCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatal("expected unknown key error")
	}
}
