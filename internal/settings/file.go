package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is one settings file. Nil fields are not declared by the file and
// leave lower layers untouched.
type File struct {
	ConfigPath     *string `yaml:"config"`
	OutputPath     *string `yaml:"output"`
	Format         *string `yaml:"format"`
	RulesDir       *string `yaml:"rules_dir"`
	RulesFile      *string `yaml:"rules_file"`
	CopyToRules    *bool   `yaml:"copy_to_rules"`
	Verbose        *bool   `yaml:"verbose"`
	Quiet          *bool   `yaml:"quiet"`
	Validate       *bool   `yaml:"validate"`
	FailOnWarnings *bool   `yaml:"fail_on_warnings"`
	CheckSources   *bool   `yaml:"check_sources"`
	VerifySources  *bool   `yaml:"verify_sources"`
	Engine         *string `yaml:"engine"`
	LogLevel       *string `yaml:"log_level"`
	LogFormat      *string `yaml:"log_format"`
	MetricsFile    *string `yaml:"metrics_file"`
	ArchiveDir     *string `yaml:"archive_dir"`
	ArchiveKeep    *int    `yaml:"archive_keep"`
	LockPath       *string `yaml:"lock_file"`
}

// LoadFile reads a settings file. Unknown keys are rejected so typos do not
// pass silently. An empty file yields an empty File.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return &f, nil
}

// Merge combines two files where every field overlay declares wins.
func Merge(base, overlay *File) *File {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}

	result := *base
	pick(&result.ConfigPath, overlay.ConfigPath)
	pick(&result.OutputPath, overlay.OutputPath)
	pick(&result.Format, overlay.Format)
	pick(&result.RulesDir, overlay.RulesDir)
	pick(&result.RulesFile, overlay.RulesFile)
	pick(&result.CopyToRules, overlay.CopyToRules)
	pick(&result.Verbose, overlay.Verbose)
	pick(&result.Quiet, overlay.Quiet)
	pick(&result.Validate, overlay.Validate)
	pick(&result.FailOnWarnings, overlay.FailOnWarnings)
	pick(&result.CheckSources, overlay.CheckSources)
	pick(&result.VerifySources, overlay.VerifySources)
	pick(&result.Engine, overlay.Engine)
	pick(&result.LogLevel, overlay.LogLevel)
	pick(&result.LogFormat, overlay.LogFormat)
	pick(&result.MetricsFile, overlay.MetricsFile)
	pick(&result.ArchiveDir, overlay.ArchiveDir)
	pick(&result.ArchiveKeep, overlay.ArchiveKeep)
	pick(&result.LockPath, overlay.LockPath)
	return &result
}

// MergeAll merges files in order, lowest precedence first. Nil entries are
// skipped. The result is never nil.
func MergeAll(files []*File) *File {
	result := &File{}
	for _, f := range files {
		result = Merge(result, f)
	}
	return result
}

func pick[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}
