package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/concentra-cli/internal/config"
	"github.com/KaramelBytes/concentra-cli/internal/period"
	"github.com/KaramelBytes/concentra-cli/internal/server"
	"github.com/KaramelBytes/concentra-cli/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Concentra configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func positiveInt(key, val string, allowZero bool) (int, error) {
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 || (i == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid int for %s: %v", key, val)
	}
	return i, nil
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		var err error
		switch key {
		case "log_mode":
			switch strings.ToLower(val) {
			case "dev", "development":
				cfg.LogMode = "dev"
			case "prod", "production":
				cfg.LogMode = "prod"
			default:
				return fmt.Errorf("invalid log_mode: %s (use dev or prod)", val)
			}
		case "server_addr":
			cfg.ServerAddr = val
		case "cors_origins":
			origins := strings.FieldsFunc(val, func(r rune) bool { return r == ',' || r == ' ' })
			if err := server.ValidateCORSOrigins(origins); err != nil {
				return fmt.Errorf("invalid cors_origins: %w", err)
			}
			cfg.CORSOrigins = origins
		case "session_ttl_minutes":
			cfg.SessionTTLMinutes, err = positiveInt(key, val, true)
		case "session_sweep_seconds":
			cfg.SessionSweepSeconds, err = positiveInt(key, val, false)
		case "max_upload_mb":
			cfg.MaxUploadMB, err = positiveInt(key, val, false)
		case "max_rows":
			cfg.MaxRows, err = positiveInt(key, val, true)
		case "workers":
			cfg.Workers, err = positiveInt(key, val, false)
		case "parse_dates":
			b, perr := strconv.ParseBool(val)
			if perr != nil {
				return fmt.Errorf("invalid bool for parse_dates: %v", val)
			}
			cfg.ParseDates = b
		case "csv_delimiter":
			if _, err := parseDelimiter(val); err != nil {
				return err
			}
			cfg.CSVDelimiter = val
		case "concentration_buckets":
			list, perr := utils.ParseFloatList(val)
			if perr != nil {
				return fmt.Errorf("invalid concentration_buckets: %w", perr)
			}
			for _, p := range list {
				if p <= 0 || p > 100 {
					return fmt.Errorf("invalid concentration_buckets: %v outside (0, 100]", p)
				}
			}
			cfg.ConcentrationBuckets = list
		case "period_order":
			o, perr := period.ParseOrder(val)
			if perr != nil {
				return perr
			}
			cfg.PeriodOrder = string(o)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
