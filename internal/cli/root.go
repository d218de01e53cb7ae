// SPDX-License-Identifier: MIT

// Package cli implements the gridflow command line: it loads a solved case
// file, runs an allocation and writes the result as CSV or JSON.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is the state shared by the commands of one invocation.
type app struct {
	v   *viper.Viper
	cfg *Config
	log *slog.Logger
}

// NewRootCommand returns the gridflow command tree with a private viper
// instance, so that independent invocations never share configuration.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "gridflow",
		Short: "Flow allocation for solved power networks",
		Long: `gridflow traces the branch flows of a solved power network back to the
buses that cause them. It reads a case file (YAML or JSON) with topology,
dispatch and flows, and writes peer-to-peer or bus-to-branch allocations.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is ./gridflow.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "", "log format: text or json")
	root.PersistentFlags().StringP("format", "o", "", "output format: csv or json")

	root.AddCommand(a.allocateCommand(), a.transitCommand(), a.balanceCommand())

	return root
}

// init resolves configuration for the executing command: defaults, then
// gridflow.yaml, then GRIDFLOW_* variables, then flags.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	SetDefaults(a.v)
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName("gridflow")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
	}
	a.v.SetEnvPrefix("GRIDFLOW")
	// GRIDFLOW_LOG_LEVEL for log.level
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}
	if err := bindFlags(a.v, cmd.Flags()); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cfg, err := Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = NewLogger(cmd.ErrOrStderr(), cfg.Log)

	return nil
}

// NewLogger builds a text or JSON slog logger writing to w. The level and
// format are assumed to be validated.
func NewLogger(w io.Writer, c LogConfig) *slog.Logger {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(c.Level))
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
