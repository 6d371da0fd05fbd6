//go:build unix

package filesystem

import "golang.org/x/sys/unix"

// readable reports whether the calling process may read path. Access
// resolves symbolic links.
func readable(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}

// writable reports whether the calling process may write path.
func writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
