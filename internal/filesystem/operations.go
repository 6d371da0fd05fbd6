package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

const (
	opCopy = "copy"

	defaultFilePerm os.FileMode = 0o644
	defaultDirPerm  os.FileMode = 0o755
)

var errLinkLoop = errors.New("file system loop detected")

// Copier duplicates files and directory trees.
//
// The zero value copies without following symbolic links: links found in a
// tree are recreated as links in the target. With FollowLinks set, links are
// dereferenced and a link that leads back into one of its own ancestors is
// reported as a loop and skipped.
type Copier struct {
	FollowLinks bool
	Logger      *zap.Logger
}

func (c *Copier) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Copier) stat(path string) (fs.FileInfo, error) {
	if c.FollowLinks {
		return os.Stat(path)
	}
	return os.Lstat(path)
}

// CopyFile copies a single file to target. An existing target is left alone
// unless overwrite is set; preserve carries over the mode and the access and
// modification times.
func (c *Copier) CopyFile(source, target string, overwrite, preserve bool) error {
	info, err := c.stat(source)
	if err != nil {
		e := InvalidResource(opCopy, source, "source does not exist")
		e.Err = err
		return e
	}
	if info.IsDir() {
		return InvalidResource(opCopy, source, "source is a directory")
	}

	if _, err := c.copyEntry(source, target, info, overwrite, preserve); err != nil {
		return IOFailure(opCopy, source, err)
	}
	return nil
}

// copyFrame is one pending step of the directory walk. A frame with post set
// restores the directory timestamps once every child has been handled.
type copyFrame struct {
	source    string
	target    string
	info      fs.FileInfo
	ancestors []fs.FileInfo
	post      bool
}

// CopyDirectory copies the tree rooted at source into target, creating target
// when it does not exist. Copying a directory onto itself does nothing.
//
// The walk is best effort: entries that cannot be copied are logged and listed
// in the returned report while the remaining tree is still copied. Only a bad
// source or target, or a target root that cannot be created, is an error.
func (c *Copier) CopyDirectory(source, target string, overwrite, preserve bool) (CopyReport, error) {
	var report CopyReport

	info, err := c.stat(source)
	if err != nil || !info.IsDir() {
		return report, InvalidResource(opCopy, source, "source is not a directory")
	}
	if t, err := os.Lstat(target); err == nil {
		if !t.IsDir() {
			return report, InvalidResource(opCopy, target, "target is not a directory")
		}
		if os.SameFile(info, t) {
			return report, nil
		}
	}
	if err := os.MkdirAll(target, dirMode(info, preserve)); err != nil {
		return report, IOFailure(opCopy, target, err)
	}

	stack := []copyFrame{{source: source, target: target, info: info, ancestors: []fs.FileInfo{info}}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.post {
			c.restoreTimes(frame.source, frame.target, frame.info)
			continue
		}

		if frame.target != target {
			if err := makeDir(frame.target, dirMode(frame.info, preserve)); err != nil {
				c.logger().Info("Unable to create directory",
					zap.String("target", frame.target),
					zap.Error(err),
				)
				report.skip(frame.source, err)
				continue
			}
		}

		entries, err := os.ReadDir(frame.source)
		if err != nil {
			c.logger().Warn("Unable to read directory",
				zap.String("source", frame.source),
				zap.Error(err),
			)
			report.skip(frame.source, err)
			continue
		}

		if preserve {
			post := frame
			post.post = true
			stack = append(stack, post)
		}

		var dirs []copyFrame
		for _, entry := range entries {
			src := filepath.Join(frame.source, entry.Name())
			dst := filepath.Join(frame.target, entry.Name())

			child, err := c.stat(src)
			if err != nil {
				c.logger().Warn("Unable to copy", zap.String("source", src), zap.Error(err))
				report.skip(src, err)
				continue
			}

			if child.IsDir() {
				if c.FollowLinks && onChain(frame.ancestors, child) {
					c.logger().Error("Cycle detected", zap.String("source", src))
					report.skip(src, errLinkLoop)
					continue
				}
				chain := make([]fs.FileInfo, len(frame.ancestors), len(frame.ancestors)+1)
				copy(chain, frame.ancestors)
				dirs = append(dirs, copyFrame{source: src, target: dst, info: child, ancestors: append(chain, child)})
				continue
			}

			copied, err := c.copyEntry(src, dst, child, overwrite, preserve)
			if err != nil {
				c.logger().Warn("Unable to copy", zap.String("source", src), zap.Error(err))
				report.skip(src, err)
				continue
			}
			if copied {
				report.Copied++
			}
		}

		// Pushed in reverse so subdirectories are visited in name order.
		sort.Slice(dirs, func(i, j int) bool { return dirs[i].source > dirs[j].source })
		stack = append(stack, dirs...)
	}

	if len(report.Skipped) > 0 {
		c.logger().Info("Directory copied with skipped entries",
			zap.String("source", source),
			zap.String("target", target),
			zap.Int("copied", report.Copied),
			zap.Int("skipped", len(report.Skipped)),
		)
	}
	return report, nil
}

// copyEntry copies one non-directory entry. The first result is false when an
// existing target was kept, either because overwrite is off or because the
// target is the source itself.
func (c *Copier) copyEntry(source, target string, info fs.FileInfo, overwrite, preserve bool) (bool, error) {
	if existing, err := os.Lstat(target); err == nil {
		if !overwrite || os.SameFile(info, existing) {
			return false, nil
		}
		if existing.IsDir() {
			return false, fmt.Errorf("target %s is a directory", target)
		}
	}

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return true, copyLink(source, target)
	case info.Mode().IsRegular():
		if err := copyRegular(source, target, info, preserve); err != nil {
			return false, err
		}
		if preserve {
			c.restoreTimes(source, target, info)
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported file type %s", info.Mode().Type())
	}
}

func copyRegular(source, target string, info fs.FileInfo, preserve bool) error {
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	perm := defaultFilePerm
	if preserve {
		perm = info.Mode().Perm()
	}
	if _, err := writeFile(target, src, perm); err != nil {
		return err
	}
	if preserve {
		return os.Chmod(target, perm)
	}
	return nil
}

func copyLink(source, target string) error {
	dest, err := os.Readlink(source)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Symlink(dest, target)
}

// writeFile replaces target with the content of r. A symbolic link at target
// is removed first rather than written through.
func writeFile(target string, r io.Reader, perm os.FileMode) (int64, error) {
	if info, err := os.Lstat(target); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return 0, err
		}
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func (c *Copier) restoreTimes(source, target string, info fs.FileInfo) {
	ts, err := readTimes(source, info)
	if err == nil {
		err = os.Chtimes(target, ts.accessed, ts.modified)
	}
	if err != nil {
		c.logger().Info("Unable to copy all attributes",
			zap.String("target", target),
			zap.Error(err),
		)
	}
}

func makeDir(path string, perm os.FileMode) error {
	err := os.Mkdir(path, perm)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) && isDir(path) {
		return nil
	}
	return err
}

func dirMode(info fs.FileInfo, preserve bool) os.FileMode {
	if preserve {
		return info.Mode().Perm()
	}
	return defaultDirPerm
}

func onChain(ancestors []fs.FileInfo, dir fs.FileInfo) bool {
	for _, a := range ancestors {
		if os.SameFile(a, dir) {
			return true
		}
	}
	return false
}
