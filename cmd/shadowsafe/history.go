package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scans from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("no history path configured (set history.path or SHADOWSAFE_HISTORY_PATH)")
			}
			defer store.Close() //nolint:errcheck

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCANNED AT\tFILE\tTYPE\tSCORE\tVERDICT\tISSUES")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\n",
					e.ScannedAt.Local().Format(time.DateTime),
					e.FileName, e.DetectedType, e.RiskScore, e.Verdict, e.IssueCount)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show")
	return cmd
}
