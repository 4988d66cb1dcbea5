package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"shadowsafe/pkg/config"
	"shadowsafe/pkg/logging"
	"shadowsafe/pkg/models"
)

// app carries the shared state built once per invocation.
type app struct {
	cfg        *config.Config
	logManager *logging.Manager
	logger     *slog.Logger

	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "shadowsafe",
		Short: "Inspect untrusted files for structural anomalies and risk signals",
		Long: `shadowsafe runs a pipeline of byte-level inspections over untrusted files:
type detection, content digests with blocklist matching, metadata extraction,
format-specific structural checks (PDF/image/video/archive), entropy
heuristics and byte-pattern rules, aggregated into a 0-100 risk score.

Files are never executed, rendered or fully deserialized.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			manager, logger := logging.NewManager(logging.Config{
				Level:          cfg.Logging.Level,
				Format:         cfg.Logging.Format,
				FilePath:       cfg.Logging.FilePath,
				FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
				FileMaxFiles:   cfg.Logging.FileMaxFiles,
				FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
			})
			a.logManager = manager
			a.logger = logger
			slog.SetDefault(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logManager != nil {
				a.logManager.Close() //nolint:errcheck
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose report output")

	root.AddCommand(newScanCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newRulesCmd(a))
	return root
}

func (a *app) verdictBuckets() models.VerdictBuckets {
	return models.VerdictBuckets{
		HighRisk: a.cfg.Scoring.HighRisk,
		Warnings: a.cfg.Scoring.Warnings,
	}
}
