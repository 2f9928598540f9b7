package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/gitgraph/pkg/repo"
	"github.com/spf13/cobra"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [commit-ish]",
		Short: "Print the directory tree of a commit",
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

			out := cmd.OutOrStdout()
			top := &repo.Position{Entry: c, Name: r.Abbrev(c.Hash)}
			return r.WalkTree(ctx, top, func(p *repo.Position) error {
				fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", p.Depth()), r.Describe(p))
				return nil
			})
		},
	}
}
