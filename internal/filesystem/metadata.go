package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

type entryTimestamps struct {
	created  time.Time
	accessed time.Time
	modified time.Time
}

// readTimes is swapped in tests to exercise the degraded snapshot branch.
var readTimes = entryTimes

// SnapshotBuilder turns host paths into Snapshots.
type SnapshotBuilder struct {
	logger *zap.Logger
}

// NewSnapshotBuilder creates a builder. A nil logger discards output.
func NewSnapshotBuilder(logger *zap.Logger) *SnapshotBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotBuilder{logger: logger}
}

// Snapshot describes concretePath as it is right now. It never fails: a
// missing path yields Exists=false with every other flag cleared.
//
// Existence and kind come from Lstat, so a symlink (even a broken or cyclic
// one) is reported as an existing non-regular entry. CanRead and CanWrite do
// follow links: for a link they describe its target and are false when the
// target is missing. When the timestamps cannot be read after the entry was
// found, the snapshot is still returned with IsHidden forced on and times and
// size left unset.
func (b *SnapshotBuilder) Snapshot(concretePath, repositoryPath string) Snapshot {
	s := Snapshot{Path: concretePath, RepositoryPath: repositoryPath}

	info, err := os.Lstat(concretePath)
	if err != nil {
		return s
	}

	s.Exists = true
	s.IsDirectory = info.IsDir()
	s.IsFile = info.Mode().IsRegular()
	s.CanRead = readable(concretePath)
	s.CanWrite = writable(concretePath)

	ts, err := readTimes(concretePath, info)
	if err != nil {
		b.logger.Error("Failed to read resource attributes",
			zap.String("path", concretePath),
			zap.String("repository_path", repositoryPath),
			zap.Error(err),
		)
		s.IsHidden = true
		return s
	}

	s.IsHidden = isHidden(concretePath)
	s.CreationTime = &ts.created
	s.LastAccessTime = &ts.accessed
	s.LastModifiedTime = &ts.modified
	if s.IsFile {
		s.Size = info.Size()
	}
	return s
}

// isHidden follows the Unix convention of dot-prefixed names.
func isHidden(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// exists reports whether path names an entry, without following links.
func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// isDir reports whether path is a directory, without following links.
func isDir(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}
