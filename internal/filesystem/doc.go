// Package filesystem implements the engine beneath the repository: resource
// snapshots, recursive copy and delete, and zip archives.
//
// This package is organized into modules:
//   - metadata: Snapshot building (existence, access, kind, timestamps, size)
//   - operations: File and tree copy with overwrite and preserve policies
//   - directory: Recursive delete, children before parents
//   - archives: Zip creation and extraction
//   - errors: The closed set of error kinds shared with the repository
//
// All operations work on host paths that have already been resolved beneath
// the repository root. Snapshot building never fails and never follows
// symbolic links. Copy is best effort per entry; delete and archive creation
// stop at the first failure.
//
// Example Usage:
//
//	snap := filesystem.NewSnapshotBuilder(logger).Snapshot(host, "docs/a.txt")
//
//	copier := &filesystem.Copier{Logger: logger}
//	report, err := copier.CopyDirectory(src, dst, true, false)
//
//	archiver := &filesystem.Archiver{Logger: logger}
//	err = archiver.CreateArchive("/srv/repo/docs.zip", "/srv/repo/docs")
package filesystem
