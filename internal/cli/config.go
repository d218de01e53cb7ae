// SPDX-License-Identifier: MIT

package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/katalvlaran/gridflow/allocation"
)

// Config is the resolved configuration of one command run. Values come from
// flags, GRIDFLOW_* environment variables and gridflow.yaml, in that order
// of precedence.
type Config struct {
	Method     string  `mapstructure:"method"`
	PerBus     bool    `mapstructure:"per_bus"`
	Normalized bool    `mapstructure:"normalized"`
	Q          float64 `mapstructure:"q"`
	Direction  string  `mapstructure:"direction"`
	Objective  string  `mapstructure:"objective"`

	// SourceType and SinkType split the result by carrier.
	SourceType bool `mapstructure:"source_type"`
	SinkType   bool `mapstructure:"sink_type"`

	Parallel bool   `mapstructure:"parallel"`
	Workers  int    `mapstructure:"workers"`
	Staged   bool   `mapstructure:"staged"`
	StageDir string `mapstructure:"stage_dir"`

	// Format is the output encoding: "csv" or "json".
	Format string    `mapstructure:"format"`
	Log    LogConfig `mapstructure:"log"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Method:    allocation.NameAverageParticipation,
		Q:         allocation.DefaultQ,
		Direction: allocation.Downstream.String(),
		Objective: allocation.Min.String(),
		Format:    "csv",
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers every key on v so that environment variables are
// picked up for all of them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("method", d.Method)
	v.SetDefault("per_bus", d.PerBus)
	v.SetDefault("normalized", d.Normalized)
	v.SetDefault("q", d.Q)
	v.SetDefault("direction", d.Direction)
	v.SetDefault("objective", d.Objective)
	v.SetDefault("source_type", d.SourceType)
	v.SetDefault("sink_type", d.SinkType)
	v.SetDefault("parallel", d.Parallel)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("staged", d.Staged)
	v.SetDefault("stage_dir", d.StageDir)
	v.SetDefault("format", d.Format)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Q < 0 || c.Q > 1 {
		errs = append(errs, fmt.Errorf("q must be in [0, 1], got %g", c.Q))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if _, err := allocation.ParseDirection(c.Direction); err != nil {
		errs = append(errs, err)
	}
	if _, err := allocation.ParseObjective(c.Objective); err != nil {
		errs = append(errs, err)
	}
	switch c.Format {
	case "csv", "json":
	default:
		errs = append(errs, fmt.Errorf("format must be csv or json, got %q", c.Format))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}

// AllocationMethod builds the method options named by the configuration.
func (c *Config) AllocationMethod() (allocation.Method, error) {
	m, err := allocation.ParseMethod(c.Method)
	if err != nil {
		return nil, err
	}
	dir, err := allocation.ParseDirection(c.Direction)
	if err != nil {
		return nil, err
	}

	switch m.(type) {
	case allocation.AverageParticipation:
		return allocation.AverageParticipation{PerBus: c.PerBus, Normalized: c.Normalized, Direction: dir}, nil
	case allocation.MarginalParticipation:
		return allocation.MarginalParticipation{Q: c.Q, PerBus: c.PerBus, Normalized: c.Normalized}, nil
	case allocation.VirtualInjectionPattern:
		return allocation.VirtualInjectionPattern{PerBus: c.PerBus, Normalized: c.Normalized, Direction: dir}, nil
	default:
		obj, err := allocation.ParseObjective(c.Objective)
		if err != nil {
			return nil, err
		}

		return allocation.OptimalFlowShares{Objective: obj, Direction: dir, PerBus: c.PerBus}, nil
	}
}

// EngineOptions maps the execution settings onto engine options.
func (c *Config) EngineOptions(log *slog.Logger) []allocation.Option {
	opts := []allocation.Option{allocation.WithLogger(log)}
	if c.Parallel {
		opts = append(opts, allocation.WithParallel(c.Workers))
	}
	if c.Staged || c.StageDir != "" {
		opts = append(opts, allocation.WithDiskStaging(c.StageDir))
	}

	return opts
}

// configKey maps a flag name onto its configuration key:
// "per-bus" → "per_bus", "log-level" → "log.level".
func configKey(flag string) string {
	key := strings.ReplaceAll(flag, "-", "_")
	if rest, ok := strings.CutPrefix(key, "log_"); ok {
		return "log." + rest
	}

	return key
}

// bindFlags binds every flag of fs that names a configuration key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "config" || f.Name == "help" {
			return
		}
		err = v.BindPFlag(configKey(f.Name), f)
	})

	return err
}
