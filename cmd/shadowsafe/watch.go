package main

import (
	"time"

	"github.com/spf13/cobra"

	"shadowsafe/pkg/scanner"
	"shadowsafe/pkg/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a directory and scan every file written into it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Watch.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return cmd.Help()
			}

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

			settle := time.Duration(a.cfg.Watch.SettleMs) * time.Millisecond
			w := watch.New(dir, settle, func(path string) {
				scanAndReport(cmd.Context(), a, sc, store, path)
			}, a.logger)
			return w.Run(cmd.Context())
		},
	}
	return cmd
}
