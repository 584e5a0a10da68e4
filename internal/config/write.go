package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WriteTempJSON writes the normalized configuration as a uniquely named JSON
// file in dir (os.TempDir when empty) for handing to the engine. The returned
// cleanup removes the file and is safe to call more than once.
func WriteTempJSON(cfg *Configuration, dir string) (string, func(), error) {
	if dir == "" {
		dir = os.TempDir()
	}
	data, err := ToJSON(cfg.Normalized())
	if err != nil {
		return "", func() {}, err
	}

	path := filepath.Join(dir, fmt.Sprintf("compiler-config-%s.json", uuid.New().String()))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", func() {}, fmt.Errorf("writing engine config %s: %w", path, err)
	}
	return path, func() { _ = os.Remove(path) }, nil
}
