package main

import (
	"fmt"

	"github.com/odvcencio/gitgraph/pkg/repo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type objectRow struct {
	Hash string `yaml:"hash"`
	Type string `yaml:"type"`
	Size int64  `yaml:"size"`
}

type skippedCounts struct {
	Malformed  int `yaml:"malformed"`
	Collisions int `yaml:"collisions"`
	Other      int `yaml:"other"`
}

type objectsReport struct {
	Counts  repo.Counts   `yaml:"counts"`
	Skipped skippedCounts `yaml:"skipped"`
	Objects []objectRow   `yaml:"objects,omitempty"`
}

func newObjectsCmd(a *app) *cobra.Command {
	var list bool
	var format string

	cmd := &cobra.Command{
		Use:   "objects",
		Short: "Ingest the object catalog and print counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, tally, err := a.ingest(cmd.Context())
			if err != nil {
				return err
			}

			rep := objectsReport{
				Counts: r.Counts(),
				Skipped: skippedCounts{
					Malformed:  tally.Malformed,
					Collisions: tally.Collisions,
					Other:      tally.Other,
				},
			}
			if list {
				for _, e := range r.Objects() {
					h := repo.HeaderOf(e)
					rep.Objects = append(rep.Objects, objectRow{Hash: string(h.Hash), Type: string(h.Type), Size: h.Size})
				}
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(rep)
			case "text":
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			c := rep.Counts
			fmt.Fprintf(out, "%d objects  %d commits  %d trees  %d blobs\n", c.Total(), c.Commits, c.Trees, c.Blobs)
			sk := rep.Skipped
			fmt.Fprintf(out, "skipped: %d malformed  %d collisions  %d other\n", sk.Malformed, sk.Collisions, sk.Other)
			for _, o := range rep.Objects {
				fmt.Fprintf(out, "%s %-6s %d\n", o.Hash, o.Type, o.Size)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list every object in catalog order")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or yaml")
	return cmd
}
