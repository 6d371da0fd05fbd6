package filesystem

import (
	"path/filepath"
	"strings"
	"time"
)

// Snapshot describes one filesystem entry at the instant it was built.
//
// Snapshots are values: they never refresh and must be rebuilt after any
// mutation. Two snapshots are equal iff their host paths are equal.
type Snapshot struct {
	Path             string     `json:"-"`
	RepositoryPath   string     `json:"repositoryPath"`
	Exists           bool       `json:"exists"`
	CanRead          bool       `json:"canRead"`
	CanWrite         bool       `json:"canWrite"`
	IsFile           bool       `json:"file"`
	IsDirectory      bool       `json:"directory"`
	IsHidden         bool       `json:"hidden"`
	CreationTime     *time.Time `json:"creationTime,omitempty"`
	LastAccessTime   *time.Time `json:"lastAccessTime,omitempty"`
	LastModifiedTime *time.Time `json:"lastModifiedTime,omitempty"`
	Size             int64      `json:"size"`
}

// Equal reports whether both snapshots describe the same host path.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Path == other.Path
}

// Name returns the last element of the host path.
func (s Snapshot) Name() string {
	return filepath.Base(s.Path)
}

// ParentPath returns the repository path of the parent, or "" when the
// resource sits directly under the root.
func (s Snapshot) ParentPath() string {
	last := strings.LastIndex(s.RepositoryPath, "/")
	if last <= 0 {
		return ""
	}
	return s.RepositoryPath[:last]
}

// ShortInfo renders the kind and access flags as a four-letter string,
// e.g. "drw-" for a writable visible directory.
func (s Snapshot) ShortInfo() string {
	var sb strings.Builder
	sb.WriteByte(flag(s.IsDirectory, 'd'))
	sb.WriteByte(flag(s.CanRead, 'r'))
	sb.WriteByte(flag(s.CanWrite, 'w'))
	sb.WriteByte(flag(s.IsHidden, 'h'))
	return sb.String()
}

func flag(set bool, c byte) byte {
	if set {
		return c
	}
	return '-'
}

// CopyReport accumulates the entries a recursive copy could not handle.
type CopyReport struct {
	// Copied counts regular files and links written to the target
	Copied int

	// Skipped lists source entries that were left out, with the reason
	Skipped []SkippedEntry
}

// SkippedEntry records one entry a tree walk had to abandon.
type SkippedEntry struct {
	Path string
	Err  error
}

func (r *CopyReport) skip(path string, err error) {
	r.Skipped = append(r.Skipped, SkippedEntry{Path: path, Err: err})
}
