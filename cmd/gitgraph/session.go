package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/odvcencio/gitgraph/pkg/config"
	"github.com/odvcencio/gitgraph/pkg/object"
	"github.com/odvcencio/gitgraph/pkg/provider/gitcli"
	"github.com/odvcencio/gitgraph/pkg/provider/gogit"
	"github.com/odvcencio/gitgraph/pkg/provider/loose"
	"github.com/odvcencio/gitgraph/pkg/repo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries the state shared by every subcommand.
type app struct {
	repoDir    string
	configFile string
	envFile    string
	flags      struct {
		provider  string
		logLevel  string
		logFormat string
		abbrev    int
	}

	cfg config.Config
	log *logrus.Logger
}

// setup resolves configuration and logging before any subcommand runs.
// Flags given on the command line override every other source.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile, a.envFile)
	if err != nil {
		return err
	}
	if a.flags.provider != "" {
		cfg.Provider = a.flags.provider
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	if a.flags.logFormat != "" {
		cfg.LogFormat = a.flags.logFormat
	}
	if a.flags.abbrev != 0 {
		cfg.Abbrev = a.flags.abbrev
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func newLogger(w io.Writer, level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors:    !isTerminal(w),
			DisableTimestamp: true,
		})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want text or json", format)
	}
	return log, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) provider() (repo.Provider, error) {
	switch a.cfg.Provider {
	case config.ProviderGoGit:
		return gogit.Open(a.repoDir)
	case config.ProviderLoose:
		return loose.Open(a.repoDir)
	default:
		return gitcli.New(a.repoDir,
			gitcli.WithBinary(a.cfg.GitBinary),
			gitcli.WithLogger(a.log),
		), nil
	}
}

// open builds a Repo and ingests the object catalog.
func (a *app) open(ctx context.Context) (*repo.Repo, error) {
	r, _, err := a.ingest(ctx)
	return r, err
}

// ingest is open that also returns the ingestion tally.
func (a *app) ingest(ctx context.Context) (*repo.Repo, repo.Tally, error) {
	p, err := a.provider()
	if err != nil {
		return nil, repo.Tally{}, err
	}
	r := repo.New(p,
		repo.WithLogger(a.log.WithField("provider", a.cfg.Provider)),
		repo.WithAbbrev(a.cfg.Abbrev),
		repo.WithLargeObjectThreshold(a.cfg.LargeObjectThreshold),
		repo.WithDateLayout(a.cfg.DateLayout),
	)
	tally, err := r.IngestCatalog(ctx)
	if err != nil {
		return nil, repo.Tally{}, err
	}
	return r, tally, nil
}

// resolveCommit accepts a full or abbreviated hash or a branch name. An
// empty argument selects the current branch.
func resolveCommit(ctx context.Context, r *repo.Repo, arg string) (*repo.Commit, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		b, err := r.CurrentBranch(ctx)
		if err != nil {
			return nil, err
		}
		return b.Head, nil
	}
	var hashErr error
	if object.IsHexPrefix(strings.ToLower(arg)) {
		c, err := r.LoadCommit(ctx, arg)
		if err == nil {
			return c, nil
		}
		if !isLookupMiss(err) {
			return nil, err
		}
		hashErr = err
	}
	b, err := r.FindBranch(ctx, arg)
	if err != nil {
		if hashErr != nil && !errors.Is(hashErr, repo.ErrNotFound) {
			return nil, hashErr
		}
		return nil, fmt.Errorf("%q is neither a commit nor a branch: %w", arg, err)
	}
	return b.Head, nil
}

// isLookupMiss reports a hash lookup that may still name a branch.
func isLookupMiss(err error) bool {
	return errors.Is(err, repo.ErrNotFound) ||
		errors.Is(err, repo.ErrAmbiguous) ||
		errors.Is(err, repo.ErrKindMismatch)
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
