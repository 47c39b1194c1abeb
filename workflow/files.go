package workflow

import (
	"io/fs"
	"path/filepath"
	"strings"
)

var skippedDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"bin":          true,
}

// sourceFiles finds files with the given extension under root, as slash separated paths relative to root.
// Hidden directories and build output directories are skipped.
// Files are returned in lexical order.
func sourceFiles(root, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || skippedDirs[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ext {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
