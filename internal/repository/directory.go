package repository

import (
	"os"
	"path/filepath"
	"time"

	"github.com/arpablo/henni-repo/internal/filesystem"
	"github.com/arpablo/henni-repo/internal/shared/paths"
	"github.com/bmatcuk/doublestar/v4"
)

// ListOptions filters the children returned by List.
type ListOptions struct {
	// ShowHidden includes entries whose names start with a dot
	ShowHidden bool

	// Glob keeps only entries whose name matches the pattern (e.g. "*.txt").
	// Empty matches everything.
	Glob string
}

// List returns one snapshot per direct child of the directory at p. The order
// is unspecified.
func (r *Repository) List(p string, opts ListOptions) (out []filesystem.Snapshot, err error) {
	start := time.Now()
	defer func() { r.record(OpList, err, start) }()

	if opts.Glob != "" && !doublestar.ValidatePattern(opts.Glob) {
		return nil, r.fail(OpList, p, filesystem.InvalidResource(OpList, p, "invalid glob pattern %q", opts.Glob))
	}

	dir := r.resolver.Resolve(p)
	if !isDirectory(dir) {
		return nil, r.fail(OpList, p, filesystem.InvalidResource(OpList, p, "path does not specify a directory"))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, r.fail(OpList, p, err)
	}

	out = make([]filesystem.Snapshot, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if opts.Glob != "" {
			if ok, _ := doublestar.Match(opts.Glob, name); !ok {
				continue
			}
		}

		s := r.snapshots.Snapshot(filepath.Join(dir, name), paths.Child(p, name))
		if s.IsHidden && !opts.ShowHidden {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
