package skills

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Walk returns the path of every .json file below skillsDir in lexical order.
// Paths matching one of the exclude patterns (doublestar syntax, relative to
// skillsDir, slash separated) are skipped; an excluded directory is skipped
// whole. A missing or unreadable skillsDir yields no paths, and unreadable
// directories below it are skipped.
func Walk(skillsDir string, exclude []string) []string {
	var paths []string
	_ = filepath.WalkDir(skillsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != skillsDir {
				return fs.SkipDir
			}
			return nil
		}
		if path != skillsDir && excluded(skillsDir, path, exclude) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths
}

func excluded(root, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
