package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// CopyOutput copies src to dst, creating dst's parent directory. It never
// fails the caller: I/O problems are logged and reported as false.
func CopyOutput(src, dst string, logger zerolog.Logger) bool {
	if err := CopyFile(src, dst); err != nil {
		logger.Warn().Err(err).Str("source", src).Str("destination", dst).Msg("publish copy failed")
		return false
	}
	logger.Debug().Str("source", src).Str("destination", dst).Msg("published artifact")
	return true
}

// CopyFile atomically replaces dst with the contents of src.
func CopyFile(src, dst string) error {
	in, err := open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Temp file in the destination directory keeps the rename on one filesystem.
	tmp, err := os.CreateTemp(dir, ".rules-compiler-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", dst, err)
	}

	success = true
	return nil
}
