package repository

import (
	"errors"
	"os"
	"time"

	"github.com/arpablo/henni-repo/internal/filesystem"
	"github.com/arpablo/henni-repo/internal/shared/paths"
	"go.uber.org/zap"
)

// Operation names reported to the Recorder and carried in errors.
const (
	OpInfo              = "info"
	OpList              = "list"
	OpOpen              = "open"
	OpRead              = "read"
	OpSetContent        = "set_content"
	OpCreateFile        = "create_file"
	OpCreateDirectories = "create_directories"
	OpDelete            = "delete"
	OpCopy              = "copy"
	OpMove              = "move"
	OpZip               = "zip"
	OpUnzip             = "unzip"
)

// Recorder receives the outcome of every mutating or reading operation.
type Recorder interface {
	RecordOperation(op string, err error, duration time.Duration)
}

// Repository exposes the directory tree beneath one root as resources
// addressed by repository paths.
type Repository struct {
	resolver  *paths.Resolver
	snapshots *filesystem.SnapshotBuilder
	copier    *filesystem.Copier
	archiver  *filesystem.Archiver
	logger    *zap.Logger
	recorder  Recorder
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger shared by the repository and its engine.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder reports every operation to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Repository) {
		r.recorder = rec
	}
}

// WithFollowLinks makes recursive copies dereference symbolic links.
func WithFollowLinks(follow bool) Option {
	return func(r *Repository) {
		r.copier.FollowLinks = follow
	}
}

// New creates a repository rooted at the resolver's root.
func New(resolver *paths.Resolver, opts ...Option) *Repository {
	r := &Repository{
		resolver: resolver,
		copier:   &filesystem.Copier{},
		archiver: &filesystem.Archiver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.snapshots = filesystem.NewSnapshotBuilder(r.logger)
	r.copier.Logger = r.logger
	r.archiver.Logger = r.logger
	return r
}

// Root describes the root directory.
func (r *Repository) Root() filesystem.Snapshot {
	return r.snapshots.Snapshot(r.resolver.Root(), "")
}

// Info describes the resource at p. It never fails; a missing resource has
// Exists=false.
func (r *Repository) Info(p string) filesystem.Snapshot {
	start := time.Now()
	s := r.snapshot(p)
	r.record(OpInfo, nil, start)
	return s
}

// Exists reports whether p names any entry, links included.
func (r *Repository) Exists(p string) bool {
	_, err := os.Lstat(r.resolver.Resolve(p))
	return err == nil
}

// ExistsFile reports whether p names a regular file.
func (r *Repository) ExistsFile(p string) bool {
	info, err := os.Lstat(r.resolver.Resolve(p))
	return err == nil && info.Mode().IsRegular()
}

// ExistsDirectory reports whether p names a directory.
func (r *Repository) ExistsDirectory(p string) bool {
	info, err := os.Lstat(r.resolver.Resolve(p))
	return err == nil && info.IsDir()
}

func (r *Repository) snapshot(p string) filesystem.Snapshot {
	return r.snapshots.Snapshot(r.resolver.Resolve(p), p)
}

func (r *Repository) record(op string, err error, start time.Time) {
	if r.recorder != nil {
		r.recorder.RecordOperation(op, err, time.Since(start))
	}
}

// fail rewrites an engine error in terms of the repository path, keeping its
// kind, and logs it.
func (r *Repository) fail(op, p string, err error) error {
	out := &filesystem.Error{Kind: filesystem.KindIO, Op: op, Path: p, Err: err}

	var fe *filesystem.Error
	if errors.As(err, &fe) {
		out.Kind = fe.Kind
		out.Message = fe.Message
		out.Err = fe.Err
	}

	r.logger.Error("Repository operation failed",
		zap.String("op", op),
		zap.String("path", p),
		zap.Stringer("kind", out.Kind),
		zap.Error(err),
	)
	return out
}
