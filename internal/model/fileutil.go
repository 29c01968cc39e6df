package model

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// DirExists reports whether path names an existing directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// AbsPath returns an absolute, tilde-expanded form of path. On failure the
// expanded path is returned as is.
func AbsPath(path string) string {
	path = ExpandTilde(path)
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
