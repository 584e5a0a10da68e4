package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the configuration file looked for when none is given.
const DefaultFileName = "compiler-config.json"

// searchNames are tried in each search directory, in order.
var searchNames = []string{
	DefaultFileName,
	"compiler-config.yaml",
	"compiler-config.yml",
	"compiler-config.toml",
}

// conventionalDirs are the sibling locations used by the repository layouts
// the tool ships with, relative to the start directory.
var conventionalDirs = []string{
	filepath.Join("src", "rules-compiler-typescript"),
	filepath.Join("src", "filter-compiler"),
	"..",
}

// SearchPaths returns the candidate configuration paths for startDir in the
// order they are tried.
func SearchPaths(startDir string) []string {
	dirs := []string{startDir}
	for _, d := range conventionalDirs {
		dirs = append(dirs, filepath.Join(startDir, d))
	}

	var paths []string
	seen := make(map[string]bool)
	for _, d := range dirs {
		for _, name := range searchNames {
			p := filepath.Join(d, name)
			abs, err := filepath.Abs(p)
			if err != nil {
				abs = p
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true
			paths = append(paths, p)
		}
	}
	return paths
}

// FindDefault returns the first existing path from SearchPaths.
func FindDefault(startDir string) (string, error) {
	paths := SearchPaths(startDir)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: searched %s", ErrNotFound, strings.Join(paths, ", "))
}
