package main

import (
	"fmt"
	"io"

	"github.com/odvcencio/gitgraph/pkg/repo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newVerifyCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "verify [commit-ish]",
		Short: "Check every blob of a commit against its size and hash",
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
			rep, err := r.Verify(ctx, c)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), r, rep, format); err != nil {
				return err
			}
			if !rep.Passed() {
				return fmt.Errorf("verify %s: %d of %d blobs failed", r.Abbrev(c.Hash), len(rep.Failures), rep.Visited)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or yaml")
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <commit-ish> <dir>",
		Short: "Write the files of a commit under dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := a.open(ctx)
			if err != nil {
				return err
			}
			c, err := resolveCommit(ctx, r, args[0])
			if err != nil {
				return err
			}
			rep, err := r.SaveTo(ctx, c, args[1])
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), r, rep, "text")
		},
	}
	return cmd
}

func writeReport(out io.Writer, r *repo.Repo, rep *repo.Report, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(rep)
	case "text":
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(out, "FAIL %s %s: %s\n", r.Abbrev(f.Hash), f.Path, f.Reason)
	}
	fmt.Fprintln(out, rep.String())
	return nil
}
