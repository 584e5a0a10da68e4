// Package reference classifies file-or-URL references found in a
// configuration and reads local pattern lists.
package reference

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaypatrick/ad-blocking-sub007/internal/pattern"
)

// Kind distinguishes remote from local references.
type Kind string

const (
	KindURL   Kind = "url"
	KindLocal Kind = "local"
)

// ErrNotFound is returned when a local reference does not exist.
var ErrNotFound = errors.New("referenced file not found")

// FS abstracts the read-only filesystem calls used here.
type FS interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (os.FileInfo, error)
}

// OSFS implements FS using the operating system filesystem.
type OSFS struct{}

func (OSFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }
func (OSFS) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }

// IsURL reports whether ref is an absolute http or https URL.
func IsURL(ref string) bool {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// Classify returns KindURL for http(s) URLs and KindLocal otherwise.
func Classify(ref string) Kind {
	if IsURL(ref) {
		return KindURL
	}
	return KindLocal
}

// Resolve returns the filesystem path of a local reference. Relative paths
// are joined onto baseDir; absolute paths are returned cleaned.
func Resolve(baseDir, ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, "file://")
	if filepath.IsAbs(ref) || baseDir == "" {
		return filepath.Clean(ref)
	}
	return filepath.Join(baseDir, ref)
}

// Exists reports whether the local reference resolves to an existing path.
// URLs always report true; their reachability is only known to the engine.
func Exists(fsys FS, baseDir, ref string) (bool, error) {
	if IsURL(ref) {
		return true, nil
	}
	_, err := fsys.Stat(Resolve(baseDir, ref))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ReadPatterns reads one pattern per line from a local file. Blank lines and
// '!' comments are dropped, remaining lines are trimmed.
func ReadPatterns(fsys FS, baseDir, ref string) ([]string, error) {
	if IsURL(ref) {
		return nil, fmt.Errorf("reading %s: remote references are fetched by the engine", ref)
	}
	path := Resolve(baseDir, ref)
	data, err := fsys.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || pattern.IsComment(line) {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return out, nil
}
