package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"shadowsafe/pkg/history"
	"shadowsafe/pkg/models"
	"shadowsafe/pkg/report"
	"shadowsafe/pkg/scanner"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		mimeHint string
		sanitize bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "scan <file> [file...]",
		Short: "Scan one or more files and print risk reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scanner.New(a.cfg, a.logger)
			if err != nil {
				return err
			}

			store, err := a.openHistory()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close() //nolint:errcheck
			}

			failures := 0
			for _, path := range args {
				result, err := sc.Scan(cmd.Context(), path, scanner.Options{
					MIMEHint: mimeHint,
					Sanitize: sanitize,
				})
				if err != nil {
					// Fatal engine errors fail this file, not the process.
					report.RenderFailure(os.Stderr, path, err)
					failures++
					continue
				}

				verdict := models.Verdict(result.RiskScore, len(result.Issues), a.verdictBuckets())
				if asJSON {
					if err := report.WriteJSON(os.Stdout, result); err != nil {
						return err
					}
				} else {
					report.Render(os.Stdout, result, verdict, a.verbose)
				}

				if store != nil {
					if err := store.Record(cmd.Context(), result, verdict); err != nil {
						a.logger.Warn("recording scan history", slog.Any("error", err))
					}
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d scans failed", failures, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mimeHint, "mime-hint", "", "trusted MIME type hint, bypasses detection")
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "write a sanitized copy for supported types")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw result as JSON")
	return cmd
}

// openHistory opens the scan journal when one is configured.
func (a *app) openHistory() (*history.Store, error) {
	if a.cfg.History.Path == "" {
		return nil, nil
	}
	store, err := history.Open(a.cfg.History.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close() //nolint:errcheck
		return nil, err
	}
	return store, nil
}

// scanAndReport is the shared per-file flow used by watch mode.
func scanAndReport(ctx context.Context, a *app, sc *scanner.Scanner, store *history.Store, path string) {
	result, err := sc.Scan(ctx, path, scanner.Options{})
	if err != nil {
		report.RenderFailure(os.Stderr, path, err)
		return
	}
	verdict := models.Verdict(result.RiskScore, len(result.Issues), a.verdictBuckets())
	report.Render(os.Stdout, result, verdict, a.verbose)
	if store != nil {
		if err := store.Record(ctx, result, verdict); err != nil {
			a.logger.Warn("recording scan history", slog.Any("error", err))
		}
	}
}
