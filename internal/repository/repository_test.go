package repository

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arpablo/henni-repo/internal/filesystem"
	"github.com/arpablo/henni-repo/internal/shared/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	op  string
	err error
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (f *fakeRecorder) RecordOperation(op string, err error, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recorded{op: op, err: err})
}

func newTestRepository(t *testing.T, opts ...Option) (*Repository, string) {
	t.Helper()
	root := t.TempDir()
	resolver, err := paths.NewResolver(root)
	require.NoError(t, err)
	return New(resolver, opts...), resolver.Root()
}

func names(snaps []filesystem.Snapshot) []string {
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.Name())
	}
	sort.Strings(out)
	return out
}

// TestRepositoryScenario tests the create, write, zip, list and delete flow
func TestRepositoryScenario(t *testing.T) {
	repo, _ := newTestRepository(t)

	dir, err := repo.CreateDirectories("a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", dir.RepositoryPath)
	assert.True(t, dir.IsDirectory)

	file, err := repo.SetContent("a/b/f.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), file.Size)

	_, err = repo.Zip("a", "a.zip")
	require.NoError(t, err)

	entries, err := repo.List("", ListOptions{})
	require.NoError(t, err)
	assert.Contains(t, names(entries), "a.zip")

	require.NoError(t, repo.Delete("a"))
	assert.False(t, repo.Exists("a"))
	assert.True(t, repo.Exists("a.zip"))
}

// TestContentRoundTrip tests that written bytes read back unchanged
func TestContentRoundTrip(t *testing.T) {
	repo, _ := newTestRepository(t)
	content := []byte("line one\nline two\x00binary\xff")

	s, err := repo.SetContent("docs/data.bin", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), s.Size)
	assert.True(t, s.IsFile)

	var buf bytes.Buffer
	n, err := repo.ReadTo("docs/data.bin", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)
	assert.Equal(t, content, buf.Bytes())

	rc, err := repo.Open("/docs/data.bin")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

// TestSetContentReplacesAndLeavesNoTempFiles tests the atomic replace
func TestSetContentReplacesAndLeavesNoTempFiles(t *testing.T) {
	repo, root := newTestRepository(t)

	_, err := repo.SetContent("f.txt", strings.NewReader("first version"))
	require.NoError(t, err)
	s, err := repo.SetContent("f.txt", strings.NewReader("v2"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Size)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f.txt", entries[0].Name())
}

// TestSetContentOnDirectory tests that a directory cannot be overwritten with content
func TestSetContentOnDirectory(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.CreateDirectories("dir")
	require.NoError(t, err)

	_, err = repo.SetContent("dir", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))

	_, err = repo.SetContent("", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))
}

// TestOpenErrors tests the error kinds of content access
func TestOpenErrors(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.CreateDirectories("folder")
	require.NoError(t, err)

	_, err = repo.Open("missing.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, filesystem.ErrNotAccessible))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = repo.Open("folder")
	require.Error(t, err)
	assert.True(t, errors.Is(err, filesystem.ErrInvalidResource))
}

// TestCreateDirectoriesIdempotent tests that repeated calls succeed
func TestCreateDirectoriesIdempotent(t *testing.T) {
	repo, _ := newTestRepository(t)

	first, err := repo.CreateDirectories("x/y/z")
	require.NoError(t, err)
	second, err := repo.CreateDirectories("x/y/z")
	require.NoError(t, err)

	assert.Equal(t, first.RepositoryPath, second.RepositoryPath)
	assert.True(t, second.IsDirectory)
}

// TestCreateDirectoriesOverFile tests that a file blocks directory creation
func TestCreateDirectoriesOverFile(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("plain", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = repo.CreateDirectories("plain")
	require.Error(t, err)
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))
}

// TestCreateFile tests empty file creation
func TestCreateFile(t *testing.T) {
	repo, _ := newTestRepository(t)

	s, err := repo.CreateFile("empty.txt")
	require.NoError(t, err)
	assert.True(t, s.IsFile)
	assert.Zero(t, s.Size)
	assert.True(t, repo.ExistsFile("empty.txt"))

	_, err = repo.CreateFile("empty.txt")
	assert.Error(t, err)
}

// TestExistsChecks tests the kind-specific existence checks
func TestExistsChecks(t *testing.T) {
	repo, root := newTestRepository(t)
	_, err := repo.SetContent("d/f.txt", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "broken")))

	assert.True(t, repo.Exists(""))
	assert.True(t, repo.ExistsDirectory("d"))
	assert.False(t, repo.ExistsFile("d"))
	assert.True(t, repo.ExistsFile("d/f.txt"))
	assert.False(t, repo.ExistsDirectory("d/f.txt"))
	assert.True(t, repo.Exists("broken"))
	assert.False(t, repo.ExistsFile("broken"))
	assert.False(t, repo.Exists("nope"))
}

// TestInfoMissing tests that Info never fails
func TestInfoMissing(t *testing.T) {
	repo, _ := newTestRepository(t)

	s := repo.Info("no/such/thing")
	assert.False(t, s.Exists)
	assert.Equal(t, "no/such/thing", s.RepositoryPath)

	root := repo.Root()
	assert.True(t, root.Exists)
	assert.True(t, root.IsDirectory)
	assert.Equal(t, "", root.RepositoryPath)
}

// TestPathsStayInsideRoot tests that traversal attempts are clamped
func TestPathsStayInsideRoot(t *testing.T) {
	repo, root := newTestRepository(t)

	s, err := repo.SetContent("../../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.Path, root))
	assert.FileExists(t, filepath.Join(root, "escape.txt"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "escape.txt"))

	assert.Equal(t, root, repo.Info("/../..").Path)
}

// TestListFilters tests hidden and glob filtering
func TestListFilters(t *testing.T) {
	repo, _ := newTestRepository(t)
	for _, name := range []string{"a.txt", "b.txt", "c.md", ".hidden.txt"} {
		_, err := repo.SetContent("dir/"+name, strings.NewReader(name))
		require.NoError(t, err)
	}
	_, err := repo.CreateDirectories("dir/sub")
	require.NoError(t, err)

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"visible only", ListOptions{}, []string{"a.txt", "b.txt", "c.md", "sub"}},
		{"with hidden", ListOptions{ShowHidden: true}, []string{".hidden.txt", "a.txt", "b.txt", "c.md", "sub"}},
		{"glob", ListOptions{Glob: "*.txt"}, []string{"a.txt", "b.txt"}},
		{"glob with hidden", ListOptions{Glob: "*.txt", ShowHidden: true}, []string{".hidden.txt", "a.txt", "b.txt"}},
		{"brace glob", ListOptions{Glob: "{c.md,sub}"}, []string{"c.md", "sub"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List("dir", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

// TestListRepositoryPaths tests that child paths extend the listed path
func TestListRepositoryPaths(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("dir/f.txt", strings.NewReader("x"))
	require.NoError(t, err)

	got, err := repo.List("dir", ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dir/f.txt", got[0].RepositoryPath)

	got, err = repo.List("", ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dir", got[0].RepositoryPath)
}

// TestListNameWithBackslash tests that a backslash in a file name is kept
func TestListNameWithBackslash(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("backslash is a separator on windows")
	}
	repo, root := newTestRepository(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, `a\b`), []byte("x"), 0o644))

	entries, err := repo.List("", ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Exists)
	assert.True(t, entries[0].IsFile)
	assert.Equal(t, `a\b`, entries[0].Name())
	assert.Equal(t, `a\b`, entries[0].RepositoryPath)

	info := repo.Info(`a\b`)
	assert.True(t, info.Exists)
	assert.Equal(t, int64(1), info.Size)

	require.NoError(t, repo.Delete(`a\b`))
	assert.NoFileExists(t, filepath.Join(root, `a\b`))
}

// TestListErrors tests listing a file and a bad pattern
func TestListErrors(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("f.txt", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = repo.List("f.txt", ListOptions{})
	require.Error(t, err)
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))

	_, err = repo.List("", ListOptions{Glob: "[unclosed"})
	require.Error(t, err)
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))
}

// TestDeleteTree tests that every descendant disappears
func TestDeleteTree(t *testing.T) {
	repo, _ := newTestRepository(t)
	all := []string{"t/1.txt", "t/x/2.txt", "t/x/y/3.txt", "t/x/y/z/.4"}
	for _, p := range all {
		_, err := repo.SetContent(p, strings.NewReader(p))
		require.NoError(t, err)
	}

	require.NoError(t, repo.Delete("t"))

	for _, p := range append(all, "t", "t/x", "t/x/y", "t/x/y/z") {
		assert.False(t, repo.Exists(p), p)
	}

	err := repo.Delete("t")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, filesystem.KindNotAccessible, filesystem.KindOf(err))
}

// TestDeleteRootKeepsRoot tests that the root is emptied, not removed
func TestDeleteRootKeepsRoot(t *testing.T) {
	repo, root := newTestRepository(t)
	_, err := repo.SetContent("a/b.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete("/"))

	assert.DirExists(t, root)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestCopyDirectoryIntoDirectory tests that directories land under their own name
func TestCopyDirectoryIntoDirectory(t *testing.T) {
	repo, _ := newTestRepository(t)
	files := map[string]string{"src/a.txt": "a", "src/n/b.txt": "b", "src/n/m/c.txt": "c"}
	for p, c := range files {
		_, err := repo.SetContent(p, strings.NewReader(c))
		require.NoError(t, err)
	}
	_, err := repo.CreateDirectories("dst")
	require.NoError(t, err)

	s, err := repo.Copy("src", "dst")
	require.NoError(t, err)
	assert.Equal(t, "dst/src", s.RepositoryPath)
	assert.True(t, s.IsDirectory)

	for p, c := range files {
		var buf bytes.Buffer
		_, err := repo.ReadTo("dst/"+p, &buf)
		require.NoError(t, err)
		assert.Equal(t, c, buf.String())

		buf.Reset()
		_, err = repo.ReadTo(p, &buf)
		require.NoError(t, err)
		assert.Equal(t, c, buf.String())
	}
}

// TestCopyDirectoryRequiresDirectoryTarget tests the invalid resource cases
func TestCopyDirectoryRequiresDirectoryTarget(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("src/a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = repo.SetContent("file.txt", strings.NewReader("f"))
	require.NoError(t, err)

	_, err = repo.Copy("src", "file.txt")
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))

	_, err = repo.Copy("src", "absent")
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))

	_, err = repo.Copy("src", "src")
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))

	_, err = repo.Copy("missing", "src")
	assert.Equal(t, filesystem.KindNotAccessible, filesystem.KindOf(err))
}

// TestCopyFile tests both file target forms
func TestCopyFile(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("f.txt", strings.NewReader("data"))
	require.NoError(t, err)
	_, err = repo.CreateDirectories("dir")
	require.NoError(t, err)

	s, err := repo.Copy("f.txt", "dir")
	require.NoError(t, err)
	assert.Equal(t, "dir/f.txt", s.RepositoryPath)

	s, err = repo.Copy("f.txt", "renamed.txt")
	require.NoError(t, err)
	assert.Equal(t, "renamed.txt", s.RepositoryPath)
	assert.Equal(t, int64(4), s.Size)
}

// TestCopyOntoItself tests that copies resolving to their own source keep the data
func TestCopyOntoItself(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("f.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	_, err = repo.SetContent("d/g.txt", strings.NewReader("world"))
	require.NoError(t, err)

	read := func(p string) string {
		var buf bytes.Buffer
		_, err := repo.ReadTo(p, &buf)
		require.NoError(t, err)
		return buf.String()
	}

	s, err := repo.Copy("f.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "f.txt", s.RepositoryPath)
	assert.Equal(t, "hello", read("f.txt"))

	_, err = repo.Copy("f.txt", "f.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", read("f.txt"))

	s, err = repo.Copy("d", "")
	require.NoError(t, err)
	assert.Equal(t, "d", s.RepositoryPath)
	assert.Equal(t, "world", read("d/g.txt"))
}

// TestMove tests moving into a directory and to an exact destination
func TestMove(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = repo.SetContent("b.txt", strings.NewReader("b"))
	require.NoError(t, err)
	_, err = repo.CreateDirectories("dir")
	require.NoError(t, err)

	s, err := repo.Move("a.txt", "dir")
	require.NoError(t, err)
	assert.Equal(t, "dir/a.txt", s.RepositoryPath)
	assert.False(t, repo.Exists("a.txt"))

	s, err = repo.Move("b.txt", "dir/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "dir/a.txt", s.RepositoryPath)
	assert.False(t, repo.Exists("b.txt"))

	var buf bytes.Buffer
	_, err = repo.ReadTo("dir/a.txt", &buf)
	require.NoError(t, err)
	assert.Equal(t, "b", buf.String())
}

// TestMoveErrors tests the rejected moves
func TestMoveErrors(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.CreateDirectories("dir/sub")
	require.NoError(t, err)

	_, err = repo.Move("missing", "dir")
	assert.Equal(t, filesystem.KindNotAccessible, filesystem.KindOf(err))

	_, err = repo.Move("", "dir")
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))

	_, err = repo.Move("dir", "dir/sub")
	assert.Equal(t, filesystem.KindInvalidResource, filesystem.KindOf(err))
}

// TestMoveOntoPopulatedDirectory tests that a populated directory at the
// destination is not replaced and the source stays in place
func TestMoveOntoPopulatedDirectory(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("x/new.txt", strings.NewReader("new"))
	require.NoError(t, err)
	_, err = repo.SetContent("dir/x/old.txt", strings.NewReader("old"))
	require.NoError(t, err)

	_, err = repo.Move("x", "dir")
	require.Error(t, err)
	assert.Equal(t, filesystem.KindIO, filesystem.KindOf(err))

	assert.True(t, repo.ExistsFile("x/new.txt"))
	assert.True(t, repo.ExistsFile("dir/x/old.txt"))
	assert.False(t, repo.Exists("dir/x/new.txt"))
}

// TestZipRoundTrip tests archiving a directory and extracting it elsewhere
func TestZipRoundTrip(t *testing.T) {
	repo, _ := newTestRepository(t)
	files := map[string]string{"dir/one.txt": "1", "dir/deep/two.txt": "2"}
	for p, c := range files {
		_, err := repo.SetContent(p, strings.NewReader(c))
		require.NoError(t, err)
	}

	s, err := repo.Zip("dir", "")
	require.NoError(t, err)
	assert.Equal(t, "dir.zip", s.RepositoryPath)
	assert.True(t, s.IsFile)

	out, err := repo.Unzip("dir.zip", "out")
	require.NoError(t, err)
	assert.True(t, out.IsDirectory)

	for p, c := range files {
		var buf bytes.Buffer
		_, err := repo.ReadTo("out/"+p, &buf)
		require.NoError(t, err)
		assert.Equal(t, c, buf.String())
	}
}

// TestZipAllFailFast tests that a missing source surfaces as an I/O failure
func TestZipAllFailFast(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("a.txt", strings.NewReader("a"))
	require.NoError(t, err)

	_, err = repo.ZipAll("bundle.zip", "a.txt", "missing.txt")
	require.Error(t, err)
	assert.Equal(t, filesystem.KindIO, filesystem.KindOf(err))
	assert.True(t, repo.ExistsFile("bundle.zip"))
}

// TestDefaultArchivePath tests the archive name derived from the source
func TestDefaultArchivePath(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.SetContent("docs/guide.md", strings.NewReader("x"))
	require.NoError(t, err)

	assert.Equal(t, "Archive.zip", repo.DefaultArchivePath(""))
	assert.Equal(t, "Archive.zip", repo.DefaultArchivePath("/"))
	assert.Equal(t, "docs.zip", repo.DefaultArchivePath("/docs/"))
	assert.Equal(t, "docs/guide.md.zip", repo.DefaultArchivePath("docs/guide.md"))
}

// TestRecorderReceivesOperations tests that outcomes are reported
func TestRecorderReceivesOperations(t *testing.T) {
	rec := &fakeRecorder{}
	repo, _ := newTestRepository(t, WithRecorder(rec))

	_, err := repo.CreateDirectories("d")
	require.NoError(t, err)
	_, err = repo.List("missing", ListOptions{})
	require.Error(t, err)

	require.Len(t, rec.calls, 2)
	assert.Equal(t, OpCreateDirectories, rec.calls[0].op)
	assert.NoError(t, rec.calls[0].err)
	assert.Equal(t, OpList, rec.calls[1].op)
	assert.Error(t, rec.calls[1].err)
}

// TestErrorsUseRepositoryPaths tests that host paths do not leak into error paths
func TestErrorsUseRepositoryPaths(t *testing.T) {
	repo, _ := newTestRepository(t)

	err := repo.Delete("ghost")
	var fe *filesystem.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "ghost", fe.Path)
	assert.Equal(t, OpDelete, fe.Op)
}
