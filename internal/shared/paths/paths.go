package paths

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Separator is the repository path separator, independent of the host OS.
const Separator = "/"

// Resolver resolves repository paths beneath a fixed root.
type Resolver struct {
	root string
}

// NewResolver creates a resolver for the given root directory.
// The root is made absolute and cleaned once; it never changes afterwards.
func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	return &Resolver{root: filepath.Clean(abs)}, nil
}

// Root returns the root boundary.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve maps a repository path to a host path inside the root.
func (r *Resolver) Resolve(repositoryPath string) string {
	return Join(r.root, repositoryPath)
}

// Rel maps a host path back to its repository path. The second result is
// false when the host path lies outside the root.
func (r *Resolver) Rel(concrete string) (string, bool) {
	rel, err := filepath.Rel(r.root, filepath.Clean(concrete))
	if err != nil {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Contains reports whether a host path is the root or lies beneath it.
func (r *Resolver) Contains(concrete string) bool {
	_, ok := r.Rel(concrete)
	return ok
}

// Clean normalizes a repository path: leading and trailing separators are
// dropped, redundant separators and dot segments are removed, and ".." never
// climbs above the top level. The root itself cleans to "". Only "/"
// separates segments; a backslash is an ordinary name byte.
func Clean(repositoryPath string) string {
	cleaned := path.Clean(Separator + repositoryPath)
	return strings.TrimPrefix(cleaned, Separator)
}

// Join clamps name beneath base. It is used for repository paths as well as
// archive entry names during extraction.
func Join(base, name string) string {
	cleaned := Clean(name)
	if cleaned == "" {
		return base
	}
	return filepath.Join(base, filepath.FromSlash(cleaned))
}

// Parent returns the parent repository path of p, or "" for top-level paths.
func Parent(p string) string {
	cleaned := Clean(p)
	idx := strings.LastIndex(cleaned, Separator)
	if idx <= 0 {
		return ""
	}
	return cleaned[:idx]
}

// Base returns the last element of a repository path.
func Base(p string) string {
	cleaned := Clean(p)
	if cleaned == "" {
		return ""
	}
	return path.Base(cleaned)
}

// Child appends a child name to a repository path, keeping the parent's
// spelling so listings echo the path the caller used.
func Child(parent, name string) string {
	if parent == "" || parent == Separator {
		return name
	}
	if strings.HasSuffix(parent, Separator) {
		return parent + name
	}
	return parent + Separator + name
}
