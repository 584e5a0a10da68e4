package lock

import "time"

// Record pins the artifact produced by a compilation so it can be checked
// later without re-running the engine.
type Record struct {
	Version         int       `yaml:"version"`
	Name            string    `yaml:"name"`
	ConfigVersion   string    `yaml:"config_version,omitempty"`
	ConfigPath      string    `yaml:"config_path,omitempty"`
	ConfigFormat    string    `yaml:"config_format,omitempty"`
	Output          Output    `yaml:"output"`
	Sources         []string  `yaml:"sources,omitempty"`
	Transformations []string  `yaml:"transformations,omitempty"`
	CompiledAt      time.Time `yaml:"compiled_at"`
}

// Output records the artifact's location, hash and rule count.
type Output struct {
	Path   string `yaml:"path"`
	SHA384 string `yaml:"sha384"`
	Rules  int    `yaml:"rules"`
}

// CurrentVersion is the record format written by Save.
const CurrentVersion = 1
