package filesystem

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/arpablo/henni-repo/internal/shared/paths"
	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"
)

const (
	opArchive = "archive"
	opExtract = "extract"
)

// Archiver builds and unpacks zip containers.
//
// Creation stops at the first source that is missing or unreadable. Entries
// gathered from the sources before it are still written, and the container is
// committed either way, so a failed call leaves a valid archive behind.
type Archiver struct {
	Logger *zap.Logger
}

func (a *Archiver) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

type archiveEntry struct {
	name string
	path string
}

// CreateArchive adds sources to the zip container at archivePath, creating it
// and its parent directories when absent. A file is stored under its base
// name; a directory contributes each regular file below it as
// "<dirname>/<relative path>". Entries already in the container are kept
// unless a source replaces them.
func (a *Archiver) CreateArchive(archivePath string, sources ...string) error {
	archivePath, err := filepath.Abs(archivePath)
	if err != nil {
		return IOFailure(opArchive, archivePath, err)
	}

	existing, err := openExisting(archivePath)
	if err != nil {
		return IOFailure(opArchive, archivePath, err)
	}
	if existing != nil {
		defer existing.Close()
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), defaultDirPerm); err != nil {
		return IOFailure(opArchive, archivePath, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(archivePath), "."+filepath.Base(archivePath)+".*")
	if err != nil {
		return IOFailure(opArchive, archivePath, err)
	}

	w := zip.NewWriter(tmp)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	exclude := map[string]bool{archivePath: true, tmp.Name(): true}
	written, writeErr := a.writeSources(w, sources, exclude)
	if existing != nil {
		if err := retain(w, existing, written); err != nil && writeErr == nil {
			writeErr = err
		}
	}

	if err := commit(w, tmp, archivePath); err != nil {
		a.logger().Error("Failed to write archive",
			zap.String("archive", archivePath),
			zap.Error(err),
		)
		if writeErr == nil {
			writeErr = err
		}
	}
	if writeErr != nil {
		return IOFailure(opArchive, archivePath, writeErr)
	}
	return nil
}

// writeSources stores the entries of every source and returns the names it
// wrote. Later sources win when two produce the same entry name.
func (a *Archiver) writeSources(w *zip.Writer, sources []string, exclude map[string]bool) (map[string]bool, error) {
	var (
		entries  []archiveEntry
		firstErr error
	)
	for _, source := range sources {
		found, err := collect(source, exclude)
		if err != nil {
			a.logger().Warn("Archive source failed, skipping remaining sources",
				zap.String("source", source),
				zap.Error(err),
			)
			firstErr = err
			break
		}
		entries = append(entries, found...)
	}

	last := make(map[string]int, len(entries))
	for i, e := range entries {
		last[e.name] = i
	}

	written := make(map[string]bool, len(last))
	for i, e := range entries {
		if last[e.name] != i {
			continue
		}
		if err := addEntry(w, e); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("add %s: %w", e.path, err)
			}
			break
		}
		written[e.name] = true
	}
	return written, firstErr
}

// collect resolves one source into archive entries.
func collect(source string, exclude map[string]bool) ([]archiveEntry, error) {
	source, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s is not a regular file", source)
		}
		return []archiveEntry{{name: filepath.Base(source), path: source}}, nil
	}

	prefix := filepath.Base(source)
	var (
		mu    sync.Mutex
		found []archiveEntry
	)
	conf := fastwalk.Config{Follow: false, NumWorkers: 1}
	err = fastwalk.Walk(&conf, source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || exclude[path] {
			return nil
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}

		mu.Lock()
		found = append(found, archiveEntry{
			name: prefix + paths.Separator + filepath.ToSlash(rel),
			path: path,
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].name < found[j].name })
	return found, nil
}

func addEntry(w *zip.Writer, e archiveEntry) error {
	f, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
	hdr.Modified = info.ModTime()
	dst, err := w.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, f)
	return err
}

// retain copies the entries of an existing container that were not replaced.
func retain(w *zip.Writer, existing *zip.ReadCloser, written map[string]bool) error {
	for _, f := range existing.File {
		if written[f.Name] {
			continue
		}
		if err := w.Copy(f); err != nil {
			return fmt.Errorf("retain %s: %w", f.Name, err)
		}
	}
	return nil
}

func openExisting(archivePath string) (*zip.ReadCloser, error) {
	info, err := os.Stat(archivePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", archivePath)
	}
	return zip.OpenReader(archivePath)
}

// commit flushes the container and moves it into place. The temp file is
// removed when any step fails.
func commit(w *zip.Writer, tmp *os.File, archivePath string) error {
	err := w.Close()
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), defaultFilePerm)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), archivePath)
	}
	if err != nil {
		os.Remove(tmp.Name())
	}
	return err
}

// ExtractArchive unpacks the zip container at archivePath into
// destinationDir, creating it when absent. Directories are created before the
// files inside them and existing files are replaced. Entry names are clamped
// beneath destinationDir.
func (a *Archiver) ExtractArchive(archivePath, destinationDir string) error {
	if err := os.MkdirAll(destinationDir, defaultDirPerm); err != nil {
		return IOFailure(opExtract, destinationDir, err)
	}

	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return IOFailure(opExtract, archivePath, err)
	}
	defer rc.Close()
	rc.RegisterDecompressor(zip.Deflate, flate.NewReader)

	count := 0
	err = fs.WalkDir(rc, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := paths.Join(destinationDir, name)
		if d.IsDir() {
			return makeDirs(target)
		}
		if err := extractEntry(rc, name, target); err != nil {
			return fmt.Errorf("extract %s: %w", name, err)
		}
		count++
		return nil
	})
	if err != nil {
		return IOFailure(opExtract, archivePath, err)
	}

	a.logger().Debug("Archive extracted",
		zap.String("archive", archivePath),
		zap.String("destination", destinationDir),
		zap.Int("files", count),
	)
	return nil
}

func extractEntry(fsys fs.FS, name, target string) error {
	src, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = writeFile(target, src, defaultFilePerm)
	return err
}

func makeDirs(path string) error {
	if isDir(path) {
		return nil
	}
	return os.MkdirAll(path, defaultDirPerm)
}
