// Package paths maps repository paths onto the configured root directory.
//
// A repository path is a '/'-separated string that is always interpreted
// relative to the root. Resolution clamps: the path is cleaned as if it were
// rooted at "/", so ".." segments stop at the root and absolute paths are
// re-rooted beneath it. Every component that turns user input into a host
// path goes through a Resolver, so no entry point can leave the root.
//
// # Usage
//
//	import "github.com/arpablo/henni-repo/internal/shared/paths"
//
//	resolver, err := paths.NewResolver("/srv/repo")
//	host := resolver.Resolve("docs/../../etc/passwd") // /srv/repo/etc/passwd
//
//	// Archive entry names are clamped with the same rule
//	dest := paths.Join("/srv/repo/out", "../../evil.txt") // /srv/repo/out/evil.txt
package paths
