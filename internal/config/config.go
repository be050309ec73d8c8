package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	LogMode string `mapstructure:"log_mode" yaml:"log_mode"`

	// HTTP service
	ServerAddr          string `mapstructure:"server_addr" yaml:"server_addr"`
	SessionTTLMinutes   int    `mapstructure:"session_ttl_minutes" yaml:"session_ttl_minutes"`
	SessionSweepSeconds int    `mapstructure:"session_sweep_seconds" yaml:"session_sweep_seconds"`
	MaxUploadMB         int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	// Browser origins allowed to call the API; empty means local dev servers.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// Ingestion
	MaxRows      int    `mapstructure:"max_rows" yaml:"max_rows"`
	ParseDates   bool   `mapstructure:"parse_dates" yaml:"parse_dates"`
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`

	// Analysis
	Workers              int       `mapstructure:"workers" yaml:"workers"`
	ConcentrationBuckets []float64 `mapstructure:"concentration_buckets" yaml:"concentration_buckets"`
	PeriodOrder          string    `mapstructure:"period_order" yaml:"period_order"`
}

// SessionTTL returns the idle lifetime of a session; zero disables expiry.
func (c *Global) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// SweepInterval returns how often expired sessions are collected.
func (c *Global) SweepInterval() time.Duration {
	return time.Duration(c.SessionSweepSeconds) * time.Second
}

// MaxUploadBytes returns the request body limit for uploads.
func (c *Global) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".concentra"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.concentra/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_mode", "dev")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("session_ttl_minutes", 60)
	v.SetDefault("session_sweep_seconds", 60)
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("max_rows", 0)
	v.SetDefault("parse_dates", true)
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("workers", 4)
	v.SetDefault("concentration_buckets", []float64{10, 20, 50})
	v.SetDefault("period_order", "chronological")
}

// Defaults returns the built-in configuration, ignoring files and environment.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CONCENTRA")
	v.AutomaticEnv()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return &c, nil
}
