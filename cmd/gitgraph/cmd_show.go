package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [commit-ish]",
		Short: "Print a commit summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := a.open(ctx)
			if err != nil {
				return err
			}
			c, err := resolveCommit(ctx, r, argOrEmpty(args))
			if err != nil {
				return err
			}
			t, err := r.CommitTree(ctx, c)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "commit %s     %s\n", r.Abbrev(c.Hash), c.Summary)
			fmt.Fprintf(out, "%s  %s\n", c.Date, c.Author)
			parent := "-"
			if c.Parent1 != "" {
				parent = r.Abbrev(c.Parent1)
			}
			if c.IsMerge() {
				parent += " " + r.Abbrev(c.Parent2)
			}
			fmt.Fprintf(out, "parent %s     tree %s  %d items\n", parent, r.Abbrev(t.Hash), len(t.Children()))
			fmt.Fprintln(out, strings.Repeat("=", 40))
			return nil
		},
	}
}
