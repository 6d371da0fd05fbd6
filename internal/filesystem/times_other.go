//go:build !linux

package filesystem

import "io/fs"

func entryTimes(_ string, info fs.FileInfo) (entryTimestamps, error) {
	mod := info.ModTime()
	return entryTimestamps{created: mod, accessed: mod, modified: mod}, nil
}
