// Package artifact inspects and publishes compiled filter lists.
package artifact

import (
	"bufio"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrNotFound is returned when the artifact does not exist.
	ErrNotFound = errors.New("artifact not found")

	// ErrHashMismatch is returned by VerifyHash.
	ErrHashMismatch = errors.New("artifact hash mismatch")
)

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

// CountRules returns the number of filter rules in the file: lines that are
// non-blank after trimming and do not start with '!' or '#'.
func CountRules(path string) (int, error) {
	f, err := open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		if IsRule(scanner.Text()) {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return count, nil
}

// IsRule reports whether a single output line counts as a rule.
func IsRule(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && !strings.HasPrefix(line, "!") && !strings.HasPrefix(line, "#")
}

// ComputeHash returns the lower-case hex SHA-384 of the raw file bytes.
func ComputeHash(path string) (string, error) {
	f, err := open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha512.New384()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the lower-case hex SHA-384 of content.
func HashBytes(content []byte) string {
	sum := sha512.Sum384(content)
	return hex.EncodeToString(sum[:])
}

// VerifyHash checks that the file at path hashes to expected.
func VerifyHash(path, expected string) error {
	actual, err := ComputeHash(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: %s: expected %s, got %s", ErrHashMismatch, path, expected, actual)
	}
	return nil
}
