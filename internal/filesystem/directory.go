package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

const opDelete = "delete"

// Delete removes path. Directories are emptied first: files and links go
// before any directory, and each directory goes only after everything below
// it. The first failing removal stops the delete and is returned; entries
// removed up to that point stay removed.
//
// A missing path yields a KindNotAccessible error that also matches
// fs.ErrNotExist.
func Delete(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NotAccessible(opDelete, path, err)
		}
		return IOFailure(opDelete, path, err)
	}

	if !info.IsDir() {
		if err := os.Remove(path); err != nil {
			return IOFailure(opDelete, path, err)
		}
		return nil
	}

	files, dirs, err := enumerate(path)
	if err != nil {
		return IOFailure(opDelete, path, err)
	}

	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return IOFailure(opDelete, f, err)
		}
	}
	for _, d := range dirs {
		if err := os.Remove(d); err != nil {
			return IOFailure(opDelete, d, err)
		}
	}
	if err := os.Remove(path); err != nil {
		return IOFailure(opDelete, path, err)
	}
	return nil
}

// enumerate lists every descendant of root without following links. Files
// come back in walk order, directories deepest first.
func enumerate(root string) (files, dirs []string, err error) {
	var mu sync.Mutex
	conf := fastwalk.Config{Follow: false, NumWorkers: 1}

	err = fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		if d.IsDir() {
			dirs = append(dirs, path)
		} else {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sep := string(filepath.Separator)
	sort.SliceStable(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], sep) > strings.Count(dirs[j], sep)
	})
	return files, dirs, nil
}
