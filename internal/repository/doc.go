// Package repository exposes one host directory as a repository of files and
// folders addressed by repository paths.
//
// Every entry point resolves its paths through a paths.Resolver, so no
// operation reaches outside the root. Operations return fresh snapshots of
// the resources they touch and fail with *filesystem.Error values whose Kind
// tells callers how to react:
//   - KindNotAccessible: the resource is missing or unreadable
//   - KindInvalidResource: a file was given where a directory was expected, or the reverse
//   - KindIO: the filesystem or an archive failed underneath
//
// Operations are synchronous and hold no shared state. Concurrent calls on
// overlapping paths are not coordinated.
//
// # Usage
//
//	resolver, _ := paths.NewResolver("/srv/repo")
//	repo := repository.New(resolver, repository.WithLogger(logger))
//
//	repo.CreateDirectories("a/b")
//	repo.SetContent("a/b/f.txt", strings.NewReader("hello"))
//	repo.Zip("a", "a.zip")
//	entries, _ := repo.List("", repository.ListOptions{Glob: "*.zip"})
package repository
