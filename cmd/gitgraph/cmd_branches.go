package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "List local and remote-tracking branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			branches, err := r.Branches(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, b := range branches {
				marker := "  "
				if b.Current {
					marker = "* "
				}
				name := b.Name
				if b.Remote {
					name = "remotes/" + name
				}
				fmt.Fprintf(out, "%s%-20s %s %s\n", marker, name, r.Abbrev(b.HeadHash), b.Head.Summary)
			}
			fmt.Fprintf(out, "%d branches\n", len(branches))
			return nil
		},
	}
}
