package repo

import (
	"context"
	"errors"
	"os"

	"github.com/odvcencio/gitgraph/pkg/object"
	"github.com/sirupsen/logrus"
)

// Defaults for a Repo built without options.
const (
	DefaultLargeObjectThreshold = 1 << 20
	DefaultDateLayout           = "02/01/2006 15:04"
	RootTreeName                = "root"
)

var (
	// ErrNotFound reports a hash or abbreviation that names no known object.
	ErrNotFound = object.ErrNotFound
	// ErrAmbiguous reports an abbreviation that names several objects.
	ErrAmbiguous = object.ErrAmbiguous
	// ErrKindMismatch reports a hash that resolves to an entry of another kind.
	ErrKindMismatch = errors.New("object kind mismatch")
	// ErrTargetExists reports an extraction directory that already exists.
	ErrTargetExists = errors.New("extraction target exists")
)

// Provider supplies raw repository data. It is the only way a Repo reaches
// the underlying object store; implementations live under pkg/provider.
type Provider interface {
	// ListObjects returns one "<hash> <type> <size>" line per object.
	ListObjects(ctx context.Context) ([]string, error)
	// ObjectBytes returns the decompressed payload of an object.
	ObjectBytes(ctx context.Context, h object.Hash) ([]byte, error)
	// ObjectSize returns the payload size of an object.
	ObjectSize(ctx context.Context, h object.Hash) (int64, error)
	// ExpandHash resolves an abbreviation to a full identifier, failing
	// with ErrNotFound or ErrAmbiguous.
	ExpandHash(ctx context.Context, prefix string) (object.Hash, error)
	// HashObject recomputes an identifier the way the store does.
	HashObject(t object.ObjectType, data []byte) object.Hash
	// ListTree returns "<mode> <type> <hash> <size>\t<name>" rows in
	// listing order.
	ListTree(ctx context.Context, h object.Hash) ([]string, error)
	// ListBranches returns `git branch -v -a` style rows.
	ListBranches(ctx context.Context) ([]string, error)
	// CurrentBranch returns the row of the checked-out branch, or "" when
	// there is none.
	CurrentBranch(ctx context.Context) (string, error)
}

// Sink receives extracted directories and files.
type Sink interface {
	// Mkdir creates a single directory and fails if it already exists.
	Mkdir(path string) error
	WriteFile(path string, data []byte) error
}

// DirSink writes to the local filesystem.
type DirSink struct{}

func (DirSink) Mkdir(path string) error { return os.Mkdir(path, 0o755) }

func (DirSink) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// Repo is an in-memory graph over a repository's object store. It holds
// exactly one Entry per identifier, in catalog insertion order.
//
// A Repo is not safe for concurrent use.
type Repo struct {
	provider Provider
	sink     Sink
	log      logrus.FieldLogger

	abbrev               int
	largeObjectThreshold int
	dateLayout           string

	objects map[object.Hash]Entry
	order   []object.Hash
	counts  Counts
}

// Option configures a Repo.
type Option func(*Repo)

// WithLogger sets the logger used for anomalies and progress.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Repo) {
		if l != nil {
			r.log = l
		}
	}
}

// WithAbbrev sets the number of hash characters used in reports.
func WithAbbrev(n int) Option {
	return func(r *Repo) {
		if n > 0 {
			r.abbrev = n
		}
	}
}

// WithLargeObjectThreshold sets the payload size above which blob bytes
// are dropped after a single use.
func WithLargeObjectThreshold(n int) Option {
	return func(r *Repo) {
		if n >= 0 {
			r.largeObjectThreshold = n
		}
	}
}

// WithDateLayout sets the time layout used for Commit.Date.
func WithDateLayout(layout string) Option {
	return func(r *Repo) {
		if layout != "" {
			r.dateLayout = layout
		}
	}
}

// WithSink sets where SaveTo writes directories and files.
func WithSink(s Sink) Option {
	return func(r *Repo) {
		if s != nil {
			r.sink = s
		}
	}
}

// New creates an empty Repo over p. Call IngestCatalog to populate it.
func New(p Provider, opts ...Option) *Repo {
	r := &Repo{
		provider:             p,
		sink:                 DirSink{},
		log:                  logrus.StandardLogger(),
		abbrev:               object.DefaultAbbrev,
		largeObjectThreshold: DefaultLargeObjectThreshold,
		dateLayout:           DefaultDateLayout,
		objects:              make(map[object.Hash]Entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Provider returns the data provider the Repo reads from.
func (r *Repo) Provider() Provider { return r.provider }

// Abbrev shortens h with the Repo's configured length.
func (r *Repo) Abbrev(h object.Hash) string { return object.Abbrev(h, r.abbrev) }
