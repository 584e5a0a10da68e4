package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
)

const (
	settingsFileName = "settings.yaml"
	settingsDirName  = "rules-compiler"

	// ProjectFileName is the project-level settings file looked up in the
	// working directory.
	ProjectFileName = "rules-compiler.yaml"
)

// Level is the precedence level of a settings file.
type Level string

const (
	LevelSystem  Level = "system"
	LevelUser    Level = "user"
	LevelProject Level = "project"
)

// Layer describes a discovered settings file and its load status.
type Layer struct {
	Err    error // non-nil if the file exists but failed to load
	Path   string
	Level  Level
	Loaded bool
}

// DiscoverOptions controls how settings paths are discovered.
type DiscoverOptions struct {
	// ProjectPath is the project-level settings path. Empty means
	// ProjectFileName in the working directory.
	ProjectPath string

	// SystemPath overrides the default system settings path.
	SystemPath string

	// UserPath overrides the default user settings path.
	UserPath string

	NoSystem bool
	NoUser   bool
}

// DiscoverOptionsFromEnv fills the skip switches and the project path from
// the environment.
func DiscoverOptionsFromEnv(getenv func(string) string) DiscoverOptions {
	return DiscoverOptions{
		ProjectPath: strings.TrimSpace(getenv(EnvPrefix + "SETTINGS")),
		NoSystem:    envBoolTrue(getenv, EnvPrefix+"NO_SYSTEM_SETTINGS"),
		NoUser:      envBoolTrue(getenv, EnvPrefix+"NO_USER_SETTINGS"),
	}
}

// DiscoverPaths returns the settings files to check, from lowest precedence
// (system) to highest (project). Paths are deduplicated by absolute path.
func DiscoverPaths(opts DiscoverOptions) []Layer {
	var layers []Layer
	seen := make(map[string]bool)

	addLayer := func(level Level, path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		layers = append(layers, Layer{Path: path, Level: level})
	}

	if !opts.NoSystem {
		sysPath := opts.SystemPath
		if sysPath == "" {
			sysPath = defaultSystemPath()
		}
		addLayer(LevelSystem, sysPath)
	}

	if !opts.NoUser {
		userPath := opts.UserPath
		if userPath == "" {
			userPath = defaultUserPath()
		}
		addLayer(LevelUser, userPath)
	}

	projectPath := opts.ProjectPath
	if projectPath == "" {
		projectPath = ProjectFileName
	}
	addLayer(LevelProject, projectPath)

	return layers
}

// LoadLayers loads every existing layer and merges them. Missing files are
// skipped. A file that exists but cannot be parsed is an error, recorded on
// its layer as well.
func LoadLayers(layers []Layer) (*File, []Layer, error) {
	var files []*File
	var errs []error
	out := make([]Layer, len(layers))
	copy(out, layers)

	for i := range out {
		f, err := LoadFile(out[i].Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			out[i].Err = err
			errs = append(errs, err)
			continue
		}
		out[i].Loaded = true
		files = append(files, f)
	}

	return MergeAll(files), out, errors.Join(errs...)
}

// Resolve runs the whole precedence chain: defaults, environment, settings
// file layers and changed flags. flags may be nil. An explicit project path
// that does not exist is an error.
func Resolve(opts DiscoverOptions, getenv func(string) string, flags *pflag.FlagSet) (Settings, []Layer, error) {
	s := Defaults()
	if opts.ProjectPath != "" {
		if _, err := os.Stat(opts.ProjectPath); err != nil {
			return s, nil, fmt.Errorf("settings file %s: %w", opts.ProjectPath, err)
		}
	}
	if err := s.ApplyEnv(getenv); err != nil {
		return s, nil, err
	}

	file, layers, err := LoadLayers(DiscoverPaths(opts))
	if err != nil {
		return s, layers, err
	}
	s.Apply(file)

	if flags != nil {
		if err := s.ApplyFlags(flags); err != nil {
			return s, layers, err
		}
	}
	return s, layers, s.Check()
}

func defaultSystemPath() string {
	switch runtime.GOOS {
	case "windows":
		pd := os.Getenv("ProgramData")
		if pd == "" {
			pd = `C:\ProgramData`
		}
		return filepath.Join(pd, settingsDirName, settingsFileName)
	default:
		return filepath.Join("/etc", settingsDirName, settingsFileName)
	}
}

func defaultUserPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, settingsDirName, settingsFileName)
}

// envBoolTrue reports whether key is set to "1" or "true" (case-insensitive).
func envBoolTrue(getenv func(string) string, key string) bool {
	v := strings.ToLower(strings.TrimSpace(getenv(key)))
	return v == "1" || v == "true"
}
