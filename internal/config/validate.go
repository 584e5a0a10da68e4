package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jaypatrick/ad-blocking-sub007/internal/pattern"
	"github.com/jaypatrick/ad-blocking-sub007/internal/reference"
	"github.com/jaypatrick/ad-blocking-sub007/internal/transformation"
)

// Issue is a single validation finding.
type Issue struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidationResult collects errors, which block compilation, and warnings,
// which do not unless the caller asks for strict mode.
type ValidationResult struct {
	Errors   []Issue `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Valid reports whether there are no errors.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// HasWarnings reports whether any warning was raised.
func (r ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

// Err returns a *ValidationError when the result blocks compilation.
func (r ValidationResult) Err(failOnWarnings bool) error {
	if !r.Valid() {
		return &ValidationError{Result: r}
	}
	if failOnWarnings && r.HasWarnings() {
		return &ValidationError{Result: r, Strict: true}
	}
	return nil
}

func (r *ValidationResult) errorf(field, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validator checks a Configuration. The zero value resolves relative file
// references against the configuration's own directory.
type Validator struct {
	// BaseDir overrides the directory used to resolve relative references.
	BaseDir string

	// CheckLocalSources also warns about local sources that do not exist.
	CheckLocalSources bool

	// FS is used for existence checks. Defaults to the OS filesystem.
	FS reference.FS
}

// Validate runs the default Validator.
func Validate(cfg *Configuration) ValidationResult {
	return Validator{}.Validate(cfg)
}

// Validate walks the configuration and every source. All checks run; the
// order of findings is stable: root fields, then sources in declaration
// order, each list in declaration order.
func (v Validator) Validate(cfg *Configuration) ValidationResult {
	var r ValidationResult

	base := v.BaseDir
	if base == "" {
		base = cfg.Dir()
	}
	fsys := v.FS
	if fsys == nil {
		fsys = reference.OSFS{}
	}

	if strings.TrimSpace(cfg.Name) == "" {
		r.errorf("name", "'name' is required")
	}

	if len(cfg.Sources) == 0 {
		r.errorf("sources", "at least one source is required")
	}

	// Declared order of transformations is not checked against the
	// canonical order; only membership is.
	checkTransformations(&r, "transformations", cfg.Transformations)
	for i, src := range cfg.Sources {
		checkTransformations(&r, fmt.Sprintf("sources[%d].transformations", i), src.Transformations)
	}

	for i, src := range cfg.Sources {
		prefix := fmt.Sprintf("sources[%d]", i)
		if strings.TrimSpace(src.Source) == "" {
			r.errorf(prefix+".source", "'source' is required — give a URL or a local file path")
		}
		if src.Type != "" {
			if _, err := ParseSourceType(string(src.Type)); err != nil {
				r.errorf(prefix+".type", "invalid source type '%s' — must be one of: %s", src.Type, joinSourceTypes())
			}
		}
	}

	checkPatterns(&r, "inclusions", cfg.Inclusions)
	checkPatterns(&r, "exclusions", cfg.Exclusions)
	for i, src := range cfg.Sources {
		prefix := fmt.Sprintf("sources[%d]", i)
		checkPatterns(&r, prefix+".inclusions", src.Inclusions)
		checkPatterns(&r, prefix+".exclusions", src.Exclusions)
	}

	checkReferences(&r, fsys, base, "inclusions_sources", cfg.InclusionsSources)
	checkReferences(&r, fsys, base, "exclusions_sources", cfg.ExclusionsSources)
	for i, src := range cfg.Sources {
		prefix := fmt.Sprintf("sources[%d]", i)
		checkReferences(&r, fsys, base, prefix+".inclusions_sources", src.InclusionsSources)
		checkReferences(&r, fsys, base, prefix+".exclusions_sources", src.ExclusionsSources)
	}

	if v.CheckLocalSources {
		for i, src := range cfg.Sources {
			if strings.TrimSpace(src.Source) == "" || src.IsRemote() {
				continue
			}
			ok, err := reference.Exists(fsys, base, src.Source)
			field := fmt.Sprintf("sources[%d].source", i)
			switch {
			case err != nil:
				r.warnf(field, "cannot check local source '%s': %v", src.Source, err)
			case !ok:
				r.warnf(field, "local source '%s' not found at %s", src.Source, reference.Resolve(base, src.Source))
			}
		}
	}

	return r
}

func checkTransformations(r *ValidationResult, field string, names []string) {
	for _, bad := range transformation.InvalidSubset(names) {
		r.errorf(field, "unknown transformation '%s' — must be one of: %s", bad, strings.Join(transformation.Strings(), ", "))
	}
}

func checkPatterns(r *ValidationResult, field string, patterns []string) {
	for j, p := range patterns {
		if !pattern.IsRegex(p) {
			continue
		}
		if _, err := pattern.Parse(p); err != nil && errors.Is(err, pattern.ErrInvalidRegex) {
			r.warnf(fmt.Sprintf("%s[%d]", field, j), "regular expression may not be supported by the engine: %v", err)
		}
	}
}

func checkReferences(r *ValidationResult, fsys reference.FS, base, field string, refs []string) {
	for j, ref := range refs {
		if reference.IsURL(ref) {
			continue
		}
		path := fmt.Sprintf("%s[%d]", field, j)
		ok, err := reference.Exists(fsys, base, ref)
		switch {
		case err != nil:
			r.warnf(path, "cannot check '%s': %v", ref, err)
		case !ok:
			r.warnf(path, "file '%s' not found at %s", ref, reference.Resolve(base, ref))
		}
	}
}
