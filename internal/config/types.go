package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jaypatrick/ad-blocking-sub007/internal/reference"
	"github.com/jaypatrick/ad-blocking-sub007/internal/transformation"
)

// Configuration is a compilation job as understood by the engine.
// It is built once by Read and never mutated afterwards; helpers that need a
// different shape return copies.
type Configuration struct {
	Name              string   `json:"name" yaml:"name" toml:"name"`
	Description       string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Homepage          string   `json:"homepage,omitempty" yaml:"homepage,omitempty" toml:"homepage,omitempty"`
	License           string   `json:"license,omitempty" yaml:"license,omitempty" toml:"license,omitempty"`
	Version           string   `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Sources           []Source `json:"sources" yaml:"sources" toml:"sources"`
	Transformations   []string `json:"transformations,omitempty" yaml:"transformations,omitempty" toml:"transformations,omitempty"`
	Inclusions        []string `json:"inclusions,omitempty" yaml:"inclusions,omitempty" toml:"inclusions,omitempty"`
	Exclusions        []string `json:"exclusions,omitempty" yaml:"exclusions,omitempty" toml:"exclusions,omitempty"`
	InclusionsSources []string `json:"inclusions_sources,omitempty" yaml:"inclusions_sources,omitempty" toml:"inclusions_sources,omitempty"`
	ExclusionsSources []string `json:"exclusions_sources,omitempty" yaml:"exclusions_sources,omitempty" toml:"exclusions_sources,omitempty"`

	// Provenance, stamped by the reader. Never serialized.
	SourceFormat Format `json:"-" yaml:"-" toml:"-"`
	SourcePath   string `json:"-" yaml:"-" toml:"-"`
}

// Source is one filter list merged into the compiled output.
type Source struct {
	Source            string     `json:"source" yaml:"source" toml:"source"`
	Name              string     `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Type              SourceType `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Transformations   []string   `json:"transformations,omitempty" yaml:"transformations,omitempty" toml:"transformations,omitempty"`
	Inclusions        []string   `json:"inclusions,omitempty" yaml:"inclusions,omitempty" toml:"inclusions,omitempty"`
	Exclusions        []string   `json:"exclusions,omitempty" yaml:"exclusions,omitempty" toml:"exclusions,omitempty"`
	InclusionsSources []string   `json:"inclusions_sources,omitempty" yaml:"inclusions_sources,omitempty" toml:"inclusions_sources,omitempty"`
	ExclusionsSources []string   `json:"exclusions_sources,omitempty" yaml:"exclusions_sources,omitempty" toml:"exclusions_sources,omitempty"`
}

// SourceType is the syntax of a source list.
type SourceType string

const (
	SourceTypeAdblock SourceType = "adblock"
	SourceTypeHosts   SourceType = "hosts"
)

// SourceTypes lists the legal source types.
var SourceTypes = []SourceType{SourceTypeAdblock, SourceTypeHosts}

// ParseSourceType resolves s case-insensitively. The short forms "adb" and
// "host" are accepted.
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "adblock", "adb":
		return SourceTypeAdblock, nil
	case "hosts", "host":
		return SourceTypeHosts, nil
	}
	return "", fmt.Errorf("unknown source type '%s' — must be one of: %s", s, joinSourceTypes())
}

func joinSourceTypes() string {
	names := make([]string, len(SourceTypes))
	for i, t := range SourceTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// EffectiveType returns the declared type, or adblock when none is declared.
func (s Source) EffectiveType() SourceType {
	if s.Type == "" {
		return SourceTypeAdblock
	}
	if t, err := ParseSourceType(string(s.Type)); err == nil {
		return t
	}
	return s.Type
}

// IsRemote reports whether the source is fetched over http(s).
func (s Source) IsRemote() bool {
	return reference.IsURL(s.Source)
}

// Dir returns the directory of the file the configuration was read from,
// or "" when it was not read from disk.
func (c *Configuration) Dir() string {
	if c.SourcePath == "" {
		return ""
	}
	return filepath.Dir(c.SourcePath)
}

// LocalSourcesCount returns the number of sources read from disk.
func (c *Configuration) LocalSourcesCount() int {
	n := 0
	for _, s := range c.Sources {
		if !s.IsRemote() {
			n++
		}
	}
	return n
}

// RemoteSourcesCount returns the number of sources fetched over http(s).
func (c *Configuration) RemoteSourcesCount() int {
	return len(c.Sources) - c.LocalSourcesCount()
}

// LocalFiles returns the resolved paths of every local file the
// configuration reads: sources first, then pattern lists, each path once.
func (c *Configuration) LocalFiles() []string {
	var out []string
	seen := make(map[string]bool)
	base := c.Dir()
	add := func(refs ...string) {
		for _, ref := range refs {
			if strings.TrimSpace(ref) == "" || reference.IsURL(ref) {
				continue
			}
			p := reference.Resolve(base, ref)
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	for _, s := range c.Sources {
		add(s.Source)
	}
	for _, s := range c.Sources {
		add(s.InclusionsSources...)
		add(s.ExclusionsSources...)
	}
	add(c.InclusionsSources...)
	add(c.ExclusionsSources...)
	return out
}

// WithoutProvenance returns a copy with the reader's bookkeeping cleared.
func (c *Configuration) WithoutProvenance() *Configuration {
	out := c.clone()
	out.SourceFormat = ""
	out.SourcePath = ""
	return out
}

// Normalized returns a copy with canonical spellings for source types and
// transformation names. Unknown values are passed through untouched so the
// engine reports them verbatim.
func (c *Configuration) Normalized() *Configuration {
	out := c.clone()
	out.Transformations = canonicalNames(out.Transformations)
	for i := range out.Sources {
		s := &out.Sources[i]
		if s.Type != "" {
			if t, err := ParseSourceType(string(s.Type)); err == nil {
				s.Type = t
			}
		}
		s.Transformations = canonicalNames(s.Transformations)
	}
	return out
}

func canonicalNames(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		if c, ok := transformation.Lookup(n); ok {
			out[i] = string(c)
		} else {
			out[i] = n
		}
	}
	return out
}

func (c *Configuration) clone() *Configuration {
	out := *c
	out.Transformations = cloneStrings(c.Transformations)
	out.Inclusions = cloneStrings(c.Inclusions)
	out.Exclusions = cloneStrings(c.Exclusions)
	out.InclusionsSources = cloneStrings(c.InclusionsSources)
	out.ExclusionsSources = cloneStrings(c.ExclusionsSources)
	if c.Sources != nil {
		out.Sources = make([]Source, len(c.Sources))
		for i, s := range c.Sources {
			s.Transformations = cloneStrings(s.Transformations)
			s.Inclusions = cloneStrings(s.Inclusions)
			s.Exclusions = cloneStrings(s.Exclusions)
			s.InclusionsSources = cloneStrings(s.InclusionsSources)
			s.ExclusionsSources = cloneStrings(s.ExclusionsSources)
			out.Sources[i] = s
		}
	}
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
