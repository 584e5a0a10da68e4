package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath returns the record path kept next to an output file.
func DefaultPath(outputPath string) string {
	return outputPath + ".lock.yaml"
}

// Load reads and validates a compile record.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading compile record %s: %w", path, err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing compile record %s: %w", path, err)
	}

	if errs := Validate(&rec); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &rec, nil
}

// Save writes a record atomically using a temp file and rename.
func Save(path string, rec *Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling compile record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp compile record %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp compile record to %s: %w", path, err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("compile record validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Record for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(rec *Record) []string {
	var errs []string

	if rec.Version != CurrentVersion {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version %d is supported", rec.Version, CurrentVersion))
	}
	if rec.Name == "" {
		errs = append(errs, "'name' is required")
	}
	if rec.Output.Path == "" {
		errs = append(errs, "output: 'path' is required")
	}
	if len(rec.Output.SHA384) != 96 {
		errs = append(errs, fmt.Sprintf("output: 'sha384' must be 96 hex characters, got %d", len(rec.Output.SHA384)))
	}
	if rec.Output.Rules < 0 {
		errs = append(errs, "output: 'rules' must not be negative")
	}

	return errs
}
