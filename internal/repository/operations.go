package repository

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arpablo/henni-repo/internal/filesystem"
	"go.uber.org/zap"
)

// Copy duplicates the resource at source.
//
// A directory is copied recursively into target, which must be an existing
// directory, and lands at target/<name>. Existing files there are replaced
// and attributes are not preserved. A file goes to target/<name> when target
// is a directory and to target itself otherwise. A copy whose destination is
// the source itself leaves it untouched. The snapshot describes the copy.
func (r *Repository) Copy(source, target string) (s filesystem.Snapshot, err error) {
	start := time.Now()
	defer func() { r.record(OpCopy, err, start) }()

	src := r.resolver.Resolve(source)
	dst := r.resolver.Resolve(target)
	if _, err := os.Lstat(src); err != nil {
		return s, r.fail(OpCopy, source, filesystem.NotAccessible(OpCopy, source, err))
	}

	if isDirectory(src) {
		if !isDirectory(dst) {
			return s, r.fail(OpCopy, target, filesystem.InvalidResource(OpCopy, target, "target path does not specify a directory"))
		}
		if within(src, dst) {
			return s, r.fail(OpCopy, target, filesystem.InvalidResource(OpCopy, target, "cannot copy a directory into itself"))
		}

		dest := filepath.Join(dst, filepath.Base(src))
		if dest == src {
			return r.snapshotOf(dest), nil
		}
		report, err := r.copier.CopyDirectory(src, dest, true, false)
		if err != nil {
			return s, r.fail(OpCopy, source, err)
		}
		if len(report.Skipped) > 0 {
			r.logger.Warn("Copy incomplete",
				zap.String("source", source),
				zap.String("target", target),
				zap.Int("skipped", len(report.Skipped)),
			)
		}
		return r.snapshotOf(dest), nil
	}

	dest := dst
	if isDirectory(dst) {
		dest = filepath.Join(dst, filepath.Base(src))
	}
	if dest == src {
		return r.snapshotOf(dest), nil
	}
	if err := r.copier.CopyFile(src, dest, true, false); err != nil {
		return s, r.fail(OpCopy, source, err)
	}
	return r.snapshotOf(dest), nil
}

// Move relocates the resource at source. When target is an existing
// directory the resource is placed inside it under its own name; otherwise
// target is the exact destination. An existing file at the destination is
// replaced, as is an empty directory when the source is a directory. A
// populated directory there fails the move with KindIO and leaves both sides
// untouched.
func (r *Repository) Move(source, target string) (s filesystem.Snapshot, err error) {
	start := time.Now()
	defer func() { r.record(OpMove, err, start) }()

	src := r.resolver.Resolve(source)
	if src == r.resolver.Root() {
		return s, r.fail(OpMove, source, filesystem.InvalidResource(OpMove, source, "cannot move the repository root"))
	}
	if _, err := os.Lstat(src); err != nil {
		return s, r.fail(OpMove, source, filesystem.NotAccessible(OpMove, source, err))
	}

	dest := r.resolver.Resolve(target)
	if isDirectory(dest) {
		dest = filepath.Join(dest, filepath.Base(src))
	}
	if dest == src {
		return r.snapshotOf(dest), nil
	}
	if isDirectory(src) && within(src, dest) {
		return s, r.fail(OpMove, target, filesystem.InvalidResource(OpMove, target, "cannot move a directory into itself"))
	}

	if err := os.Rename(src, dest); err != nil {
		return s, r.fail(OpMove, source, err)
	}
	return r.snapshotOf(dest), nil
}

// snapshotOf describes a host path beneath the root.
func (r *Repository) snapshotOf(host string) filesystem.Snapshot {
	rel, _ := r.resolver.Rel(host)
	return r.snapshots.Snapshot(host, rel)
}

// within reports whether path is dir or lies beneath it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
