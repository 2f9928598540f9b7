// Package gitcli reads repository data by running the git command line.
package gitcli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/odvcencio/gitgraph/pkg/object"
	"github.com/sirupsen/logrus"
)

// DefaultBinary is the git executable looked up on PATH.
const DefaultBinary = "git"

// MinAbbrev is the shortest prefix git will disambiguate.
const MinAbbrev = 4

// Runner executes git with args in dir, feeding stdin when non-nil, and
// returns its standard output.
type Runner func(ctx context.Context, dir string, stdin []byte, args ...string) ([]byte, error)

// Provider implements repo.Provider on top of the git binary.
type Provider struct {
	dir string
	run Runner
	log logrus.FieldLogger
}

// Option configures a Provider.
type Option func(*Provider)

// WithBinary runs the given git executable instead of DefaultBinary.
func WithBinary(bin string) Option {
	return func(p *Provider) {
		if bin != "" {
			p.run = ExecRunner(bin)
		}
	}
}

// WithRunner replaces process execution, mostly for tests.
func WithRunner(run Runner) Option {
	return func(p *Provider) {
		if run != nil {
			p.run = run
		}
	}
}

// WithLogger sets the logger for executed commands.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

// New returns a Provider for the repository containing dir.
func New(dir string, opts ...Option) *Provider {
	p := &Provider{
		dir: dir,
		run: ExecRunner(DefaultBinary),
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExecRunner runs bin as a child process.
func ExecRunner(bin string) Runner {
	return func(ctx context.Context, dir string, stdin []byte, args ...string) ([]byte, error) {
		full := append([]string{"-C", dir, "-c", "core.quotePath=false"}, args...)
		cmd := exec.CommandContext(ctx, bin, full...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if stdin != nil {
			cmd.Stdin = bytes.NewReader(stdin)
		}
		if err := cmd.Run(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), ctxErr)
			}
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return nil, fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
		}
		return stdout.Bytes(), nil
	}
}

func (p *Provider) git(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	p.log.WithField("dir", p.dir).Debugf("git %s", strings.Join(args, " "))
	return p.run(ctx, p.dir, stdin, args...)
}

func (p *Provider) lines(ctx context.Context, args ...string) ([]string, error) {
	out, err := p.git(ctx, nil, args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func splitLines(out []byte) []string {
	s := strings.TrimRight(string(out), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ListObjects returns the catalog of every object in the repository.
func (p *Provider) ListObjects(ctx context.Context) ([]string, error) {
	return p.lines(ctx, "cat-file", "--batch-check", "--batch-all-objects")
}

// ObjectBytes returns the raw payload of h.
func (p *Provider) ObjectBytes(ctx context.Context, h object.Hash) ([]byte, error) {
	out, err := p.git(ctx, []byte(string(h)+"\n"), "cat-file", "--batch")
	if err != nil {
		return nil, err
	}
	return parseBatch(h, out)
}

// parseBatch reads one `cat-file --batch` record:
//
//	<hash> <type> <size>\n<payload>\n
func parseBatch(h object.Hash, out []byte) ([]byte, error) {
	br := bufio.NewReader(bytes.NewReader(out))
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("cat-file %s: truncated header", h.Short())
	}
	header = strings.TrimSuffix(header, "\n")
	if strings.HasSuffix(header, " missing") || strings.HasSuffix(header, " ambiguous") {
		return nil, fmt.Errorf("cat-file %s: %w", h.Short(), object.ErrNotFound)
	}
	ce, err := object.ParseCatalogLine(header)
	if err != nil {
		return nil, fmt.Errorf("cat-file %s: %w", h.Short(), err)
	}
	data := make([]byte, ce.Size)
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, fmt.Errorf("cat-file %s: payload: %w", h.Short(), err)
	}
	return data, nil
}

// ObjectSize returns the payload size of h.
func (p *Provider) ObjectSize(ctx context.Context, h object.Hash) (int64, error) {
	out, err := p.git(ctx, nil, "cat-file", "-s", string(h))
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cat-file -s %s: %w", h.Short(), err)
	}
	return n, nil
}

// ExpandHash resolves an abbreviated identifier. Prefixes shorter than
// MinAbbrev are matched against the catalog.
func (p *Provider) ExpandHash(ctx context.Context, prefix string) (object.Hash, error) {
	prefix = strings.ToLower(prefix)
	var found []string
	if len(prefix) < MinAbbrev {
		all, err := p.ListObjects(ctx)
		if err != nil {
			return "", err
		}
		for _, line := range all {
			if strings.HasPrefix(line, prefix) {
				found = append(found, firstWord(line))
			}
		}
	} else {
		out, err := p.git(ctx, nil, "rev-parse", "--disambiguate="+prefix)
		switch {
		case err == nil:
			found = splitLines(out)
		case !isUnknownRevision(err):
			return "", fmt.Errorf("expand %s: %w", prefix, err)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("expand %s: %w", prefix, object.ErrNotFound)
	case 1:
		return object.ParseHash(found[0])
	default:
		return "", fmt.Errorf("expand %s: %d candidates: %w", prefix, len(found), object.ErrAmbiguous)
	}
}

// isUnknownRevision reports whether git rejected a name it could not
// resolve, as opposed to failing to run at all.
func isUnknownRevision(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unknown revision") || strings.Contains(msg, "bad revision")
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// HashObject computes the identifier in process; git hash-object would give
// the same answer for a blob.
func (p *Provider) HashObject(t object.ObjectType, data []byte) object.Hash {
	return object.HashObject(t, data)
}

// ListTree returns the detailed listing of tree h.
func (p *Provider) ListTree(ctx context.Context, h object.Hash) ([]string, error) {
	return p.lines(ctx, "ls-tree", "-l", string(h))
}

// ListBranches returns local and remote-tracking branches.
func (p *Provider) ListBranches(ctx context.Context) ([]string, error) {
	return p.lines(ctx, "branch", "--no-color", "-v", "-a")
}

// CurrentBranch returns the row git marks with '*', or "" when there is
// none.
func (p *Provider) CurrentBranch(ctx context.Context) (string, error) {
	rows, err := p.lines(ctx, "branch", "--no-color", "-v")
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if row != "" && row[0] != ' ' {
			return row, nil
		}
	}
	return "", nil
}
