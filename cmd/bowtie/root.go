package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-bowtie/pkg/config"
	"github.com/dd0wney/cluso-bowtie/pkg/logging"
	"github.com/dd0wney/cluso-bowtie/pkg/metrics"
)

// version is set at build time via -ldflags.
var version = "dev"

// app holds the global flags and the per-invocation state built from them.
type app struct {
	configPath  string
	logLevel    string
	metricsFile string
	problem     string
	format      string

	cfg     config.Config
	logger  logging.Logger
	metrics *metrics.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bowtie",
		Short: "Bowtie risk tables to Bayesian networks",
		Long: "bowtie turns Activity → Pressure → Control → Escalation → Problem →\n" +
			"Mitigation → Consequence records into a Bayesian network and answers\n" +
			"posterior, propagation and critical-path queries on it.",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.flushMetrics()
		},
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "YAML config file (defaults apply when empty)")
	f.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	f.StringVar(&a.metricsFile, "metrics-file", "", "write prometheus text metrics to this file on success")
	f.StringVar(&a.problem, "problem", "", "only use records about this central problem")
	f.StringVar(&a.format, "format", "table", "output format: table, json or yaml")

	root.AddCommand(
		newGraphCmd(a),
		newFitCmd(a),
		newQueryCmd(a),
		newPropagateCmd(a),
		newCriticalCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	switch a.format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", a.format)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = strings.ToLower(a.logLevel)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.logger = logging.NewJSONLogger(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel))
	a.metrics = metrics.NewRegistry()
	return nil
}

func (a *app) flushMetrics() error {
	if a.metricsFile == "" {
		return nil
	}
	a.metrics.UpdateSystemMetrics()
	if err := a.metrics.WriteToTextfile(a.metricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
