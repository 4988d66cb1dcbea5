package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the compiled detection rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tMIN MATCHES\tNOCASE\tPATTERNS")
			for _, rule := range a.cfg.Rules {
				min := rule.MinMatches
				if min < 1 {
					min = 1
				}
				fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n",
					rule.Name, min, rule.NoCase, strings.Join(rule.Patterns, ", "))
			}
			return tw.Flush()
		},
	}
}
