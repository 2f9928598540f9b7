package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogCmd(a *app) *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log [commit-ish]",
		Short: "Show first-parent history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := a.open(ctx)
			if err != nil {
				return err
			}
			head, err := resolveCommit(ctx, r, argOrEmpty(args))
			if err != nil {
				return err
			}
			commits, err := r.Log(ctx, head, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range commits {
				if oneline {
					fmt.Fprintf(out, "%s -- %s\n", r.Abbrev(c.Hash), c.Summary)
					continue
				}
				fmt.Fprintf(out, "commit %s\n", c.Hash)
				if c.IsMerge() {
					fmt.Fprintf(out, "Merge:  %s %s\n", r.Abbrev(c.Parent1), r.Abbrev(c.Parent2))
				}
				fmt.Fprintf(out, "Author: %s\n", c.Author)
				fmt.Fprintf(out, "Date:   %s\n", c.Date)
				fmt.Fprintln(out)
				fmt.Fprintf(out, "    %s\n", c.Summary)
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show (0 for all)")
	return cmd
}
