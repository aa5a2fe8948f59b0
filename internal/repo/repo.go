// Package repo locates repository and project roots by ancestor search and
// answers read-only questions about a git working tree.
package repo

import (
	"os"
	"path/filepath"
)

// Python project markers, in lookup order.
var projectMarkers = []string{"pyproject.toml", "setup.py", "setup.cfg"}

// FindUpward walks from path towards the filesystem root and returns the
// first directory containing any of names. When path is not a directory the
// search starts at its parent.
func FindUpward(path string, names ...string) (string, bool) {
	dir := startDir(path)
	for {
		for _, name := range names {
			if Exists(filepath.Join(dir, name)) {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// GitRoot returns the top of the git working tree containing path.
func GitRoot(path string) (string, bool) {
	return FindUpward(path, ".git")
}

// ProjectRoot returns the nearest Python project directory containing path.
func ProjectRoot(path string) (string, bool) {
	return FindUpward(path, projectMarkers...)
}

// Exists reports whether path can be stat'ed. Permission errors count as absent.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func startDir(path string) string {
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}
