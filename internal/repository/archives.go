package repository

import (
	"time"

	"github.com/arpablo/henni-repo/internal/filesystem"
	"github.com/arpablo/henni-repo/internal/shared/paths"
)

// rootArchiveName is the default archive name when zipping the whole repository.
const rootArchiveName = "Archive.zip"

// DefaultArchivePath names the archive Zip writes when no target is given:
// "<path>.zip" for a file, "<parent>/<name>.zip" for a directory and
// "Archive.zip" for the root.
func (r *Repository) DefaultArchivePath(p string) string {
	cleaned := paths.Clean(p)
	if cleaned == "" {
		return rootArchiveName
	}
	if r.ExistsDirectory(cleaned) {
		return paths.Child(paths.Parent(cleaned), paths.Base(cleaned)+".zip")
	}
	return cleaned + ".zip"
}

// Zip adds the resource at source to the archive at target, creating the
// archive when needed. An empty target selects DefaultArchivePath(source).
func (r *Repository) Zip(source, target string) (filesystem.Snapshot, error) {
	if target == "" {
		target = r.DefaultArchivePath(source)
	}
	return r.ZipAll(target, source)
}

// ZipAll adds every source to the archive at target. The first source that
// cannot be read stops the call; what was added before it is kept.
func (r *Repository) ZipAll(target string, sources ...string) (s filesystem.Snapshot, err error) {
	start := time.Now()
	defer func() { r.record(OpZip, err, start) }()

	hosts := make([]string, len(sources))
	for i, src := range sources {
		hosts[i] = r.resolver.Resolve(src)
	}

	if err := r.archiver.CreateArchive(r.resolver.Resolve(target), hosts...); err != nil {
		return s, r.fail(OpZip, target, err)
	}
	return r.snapshot(target), nil
}

// Unzip extracts the archive at source into the directory at target, which
// is created when missing.
func (r *Repository) Unzip(source, target string) (s filesystem.Snapshot, err error) {
	start := time.Now()
	defer func() { r.record(OpUnzip, err, start) }()

	if err := r.archiver.ExtractArchive(r.resolver.Resolve(source), r.resolver.Resolve(target)); err != nil {
		return s, r.fail(OpUnzip, source, err)
	}
	return r.snapshot(target), nil
}
