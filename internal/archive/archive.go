// Package archive keeps compiled filter lists in a content-addressed store
// keyed by their SHA-384.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/jaypatrick/ad-blocking-sub007/internal/artifact"
)

// Archive stores artifacts under <dir>/sha384/<h[:2]>/<h>.
// Entries are immutable and verified on retrieval.
type Archive struct {
	dir string
}

// New creates an Archive at the given directory.
// The directory is created if it does not exist.
func New(dir string) (*Archive, error) {
	objDir := filepath.Join(dir, "sha384")
	if err := os.MkdirAll(objDir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory %s: %w", objDir, err)
	}
	return &Archive{dir: dir}, nil
}

// DefaultDir returns the default archive directory.
// Uses XDG_CACHE_HOME if set, otherwise ~/.cache/rules-compiler/archive.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "rules-compiler", "archive")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return filepath.Join(os.TempDir(), "rules-compiler-archive")
		}
		return filepath.Join("/tmp", "rules-compiler-archive")
	}
	return filepath.Join(home, ".cache", "rules-compiler", "archive")
}

// Put copies the file at src into the archive under hash. The file must
// hash to the declared value. Storing an existing hash is a no-op.
// Returns the archived path.
func (a *Archive) Put(hash, src string) (string, error) {
	actual, err := artifact.ComputeHash(src)
	if err != nil {
		return "", err
	}
	if actual != hash {
		return "", fmt.Errorf("archive put: content hash %s does not match declared hash %s", actual, hash)
	}

	path := a.objectPath(hash)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := artifact.CopyFile(src, path); err != nil {
		return "", fmt.Errorf("archiving %s: %w", src, err)
	}
	return path, nil
}

// Get returns the path of an archived artifact and whether it was found.
// A corrupt entry is removed and reported as a miss.
func (a *Archive) Get(hash string) (string, bool, error) {
	path := a.objectPath(hash)
	actual, err := artifact.ComputeHash(path)
	if errors.Is(err, artifact.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading archive entry %s: %w", hash, err)
	}

	if actual != hash {
		_ = os.Remove(path)
		return "", false, nil
	}
	return path, true, nil
}

// Has checks if a hash exists without verifying content.
func (a *Archive) Has(hash string) bool {
	_, err := os.Stat(a.objectPath(hash))
	return err == nil
}

// Size returns the total size of the archive in bytes.
func (a *Archive) Size() (int64, error) {
	var total int64
	err := filepath.Walk(a.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Prune removes the oldest entries so that at most keep remain.
// keep <= 0 keeps everything. Returns the number of entries removed.
func (a *Archive) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	type entry struct {
		path string
		mod  int64
	}
	var entries []entry
	err := filepath.Walk(filepath.Join(a.dir, "sha384"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			entries = append(entries, entry{path: path, mod: info.ModTime().UnixNano()})
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("listing archive: %w", err)
	}
	if len(entries) <= keep {
		return 0, nil
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].mod != entries[j].mod {
			return entries[i].mod > entries[j].mod
		}
		return entries[i].path < entries[j].path
	})

	removed := 0
	for _, e := range entries[keep:] {
		if err := os.Remove(e.path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", e.path, err)
		}
		removed++
	}
	return removed, nil
}

// Path returns the archive directory path.
func (a *Archive) Path() string {
	return a.dir
}

func (a *Archive) objectPath(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(a.dir, "sha384", hash)
	}
	return filepath.Join(a.dir, "sha384", hash[:2], hash)
}
