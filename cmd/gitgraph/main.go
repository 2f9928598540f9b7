package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gitgraph",
		Short:         "Browse and verify a git object graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.repoDir, "repo", "C", ".", "repository directory")
	f.StringVar(&a.configFile, "config", "", "config file (default ./gitgraph.toml if present)")
	f.StringVar(&a.envFile, "env-file", "", "dotenv file (default ./.env if present)")
	f.StringVar(&a.flags.provider, "provider", "", "object provider: cli, gogit or loose")
	f.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&a.flags.logFormat, "log-format", "", "log format: text or json")
	f.IntVar(&a.flags.abbrev, "abbrev", 0, "hash characters shown in reports")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newObjectsCmd(a))
	root.AddCommand(newBranchesCmd(a))
	root.AddCommand(newLogCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newTreeCmd(a))
	root.AddCommand(newVerifyCmd(a))
	root.AddCommand(newExtractCmd(a))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gitgraph "+version)
		},
	}
}
