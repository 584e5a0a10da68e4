package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Destination joins name onto dir and checks that the result, after
// symlinks are resolved, is still inside dir. Neither path needs to exist.
func Destination(dir, name string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory %s: %w", dir, err)
	}
	realDir, err := resolveExisting(absDir)
	if err != nil {
		return "", fmt.Errorf("resolving directory %s: %w", dir, err)
	}

	resolved, err := resolveExisting(filepath.Join(realDir, name))
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", name, err)
	}

	prefix := realDir + string(filepath.Separator)
	if resolved == realDir || !strings.HasPrefix(resolved, prefix) {
		return "", fmt.Errorf("destination '%s' resolves to '%s' which is outside '%s'", name, resolved, realDir)
	}
	return resolved, nil
}

// resolveExisting resolves symlinks in the longest existing prefix of path
// and appends the rest unchanged.
func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	if dir == path {
		return path, nil
	}
	parent, err := resolveExisting(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(path)), nil
}
