package repository

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/arpablo/henni-repo/internal/filesystem"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	filePerm os.FileMode = 0o644
	dirPerm  os.FileMode = 0o755
)

// Open returns the content of the file at p. The caller closes the reader.
func (r *Repository) Open(p string) (rc io.ReadCloser, err error) {
	start := time.Now()
	defer func() { r.record(OpOpen, err, start) }()

	s := r.snapshot(p)
	if !s.Exists || !s.CanRead {
		return nil, r.fail(OpOpen, p, filesystem.NotAccessible(OpOpen, p, fs.ErrNotExist))
	}
	if s.IsDirectory {
		return nil, r.fail(OpOpen, p, filesystem.InvalidResource(OpOpen, p, "path is a directory"))
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, r.fail(OpOpen, p, filesystem.NotAccessible(OpOpen, p, err))
	}
	return f, nil
}

// ReadTo copies the content of the file at p to w.
func (r *Repository) ReadTo(p string, w io.Writer) (n int64, err error) {
	rc, err := r.Open(p)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	start := time.Now()
	defer func() { r.record(OpRead, err, start) }()

	n, err = io.Copy(w, rc)
	if err != nil {
		return n, r.fail(OpRead, p, err)
	}
	return n, nil
}

// SetContent replaces the content of the file at p with everything read from
// src, creating the file and its parent directories as needed. Readers of the
// old content never observe a partial write.
func (r *Repository) SetContent(p string, src io.Reader) (s filesystem.Snapshot, err error) {
	start := time.Now()
	defer func() { r.record(OpSetContent, err, start) }()

	target := r.resolver.Resolve(p)
	if target == r.resolver.Root() || isDirectory(target) {
		return s, r.fail(OpSetContent, p, filesystem.InvalidResource(OpSetContent, p, "path is a directory"))
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return s, r.fail(OpSetContent, p, err)
	}

	tmpName := filepath.Join(dir, "."+filepath.Base(target)+"."+uuid.NewString()+".tmp")
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return s, r.fail(OpSetContent, p, err)
	}

	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpName, target)
	}
	if err != nil {
		os.Remove(tmpName)
		return s, r.fail(OpSetContent, p, err)
	}

	r.logger.Debug("Content written", zap.String("path", p), zap.Int64("bytes", n))
	return r.snapshot(p), nil
}

// CreateFile creates an empty file at p. The parent must exist and p must not.
func (r *Repository) CreateFile(p string) (s filesystem.Snapshot, err error) {
	start := time.Now()
	defer func() { r.record(OpCreateFile, err, start) }()

	f, err := os.OpenFile(r.resolver.Resolve(p), os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return s, r.fail(OpCreateFile, p, err)
	}
	if err := f.Close(); err != nil {
		return s, r.fail(OpCreateFile, p, err)
	}
	return r.snapshot(p), nil
}

// CreateDirectories creates the directory at p along with any missing
// parents. Calling it for an existing directory succeeds.
func (r *Repository) CreateDirectories(p string) (s filesystem.Snapshot, err error) {
	start := time.Now()
	defer func() { r.record(OpCreateDirectories, err, start) }()

	if err := os.MkdirAll(r.resolver.Resolve(p), dirPerm); err != nil {
		if errors.Is(err, syscall.ENOTDIR) {
			return s, r.fail(OpCreateDirectories, p, filesystem.InvalidResource(OpCreateDirectories, p, "path is not a directory"))
		}
		return s, r.fail(OpCreateDirectories, p, err)
	}
	return r.snapshot(p), nil
}

// Delete removes the resource at p, recursively for directories. Deleting
// the root removes its content but keeps the root itself.
func (r *Repository) Delete(p string) (err error) {
	start := time.Now()
	defer func() { r.record(OpDelete, err, start) }()

	target := r.resolver.Resolve(p)
	if target == r.resolver.Root() {
		entries, err := os.ReadDir(target)
		if err != nil {
			return r.fail(OpDelete, p, err)
		}
		for _, e := range entries {
			if err := filesystem.Delete(filepath.Join(target, e.Name())); err != nil {
				return r.fail(OpDelete, p, err)
			}
		}
		return nil
	}

	if err := filesystem.Delete(target); err != nil {
		return r.fail(OpDelete, p, err)
	}
	r.logger.Debug("Resource deleted", zap.String("path", p))
	return nil
}

func isDirectory(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}
