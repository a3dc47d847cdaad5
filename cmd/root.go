package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/viant/hotelsearch/metrics"
)

// app carries the loaded configuration and persistent flags shared by all
// subcommands.
type app struct {
	configPath  string
	logLevel    string
	metricsFile string
	cfg         Config
}

// NewRootCmd builds the hotelsearch command tree.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: DefaultConfig()}
	root := &cobra.Command{
		Use:           "hotelsearch",
		Short:         "Nearest-neighbour hotel search and booking demo",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log") {
				cfg.Log = a.logLevel
			}
			if cmd.Flags().Changed("metrics-file") {
				cfg.MetricsFile = a.metricsFile
			}
			level, err := logrus.ParseLevel(cfg.Log)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			a.cfg = cfg
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.cfg.MetricsFile == "" {
				return nil
			}
			logrus.Debugf("writing metrics to %s", a.cfg.MetricsFile)
			return metrics.WriteTextfile(a.cfg.MetricsFile)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a hotelsearch YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(newSearchCmd(a), newBenchCmd(a), newHotelsCmd(a))
	return root
}

// Execute runs the CLI root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
