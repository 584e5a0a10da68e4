// Package settings resolves the runtime settings of the rules compiler from
// built-in defaults, environment variables, layered settings files and
// command-line flags.
//
// Precedence, lowest first: defaults, environment, settings files (system,
// user, project), flags the user set explicitly.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "RULES_COMPILER_"

// Settings is the fully resolved runtime configuration of one invocation.
type Settings struct {
	ConfigPath     string `yaml:"config"`
	OutputPath     string `yaml:"output"`
	Format         string `yaml:"format" validate:"omitempty,oneof=json yaml yml toml"`
	RulesDir       string `yaml:"rules_dir"`
	RulesFile      string `yaml:"rules_file" validate:"required"`
	CopyToRules    bool   `yaml:"copy_to_rules"`
	Verbose        bool   `yaml:"verbose"`
	Quiet          bool   `yaml:"quiet"`
	Validate       bool   `yaml:"validate"`
	FailOnWarnings bool   `yaml:"fail_on_warnings"`
	CheckSources   bool   `yaml:"check_sources"`
	VerifySources  bool   `yaml:"verify_sources"`
	Engine         string `yaml:"engine"`
	LogLevel       string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn warning error"`
	LogFormat      string `yaml:"log_format" validate:"oneof=console json"`
	MetricsFile    string `yaml:"metrics_file"`
	ArchiveDir     string `yaml:"archive_dir"`
	ArchiveKeep    int    `yaml:"archive_keep" validate:"gte=0"`
	LockPath       string `yaml:"lock_file"`
}

// Defaults returns the built-in defaults. An empty RulesDir means the rules
// directory of the repository the configuration lives in.
func Defaults() Settings {
	return Settings{
		RulesFile: "adguard_user_filter.txt",
		Validate:  true,
		LogLevel:  "warn",
		LogFormat: "console",
	}
}

// ApplyEnv overlays values from environment variables read through getenv.
// Unset or empty variables are ignored. Boolean variables accept the forms
// strconv.ParseBool accepts; anything else is an error.
func (s *Settings) ApplyEnv(getenv func(string) string) error {
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + key)); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		v := strings.TrimSpace(getenv(EnvPrefix + key))
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: invalid boolean '%s'", EnvPrefix, key, v))
			return
		}
		*dst = b
	}

	str("CONFIG", &s.ConfigPath)
	str("OUTPUT", &s.OutputPath)
	str("FORMAT", &s.Format)
	str("RULES_DIR", &s.RulesDir)
	boolean("COPY_TO_RULES", &s.CopyToRules)
	boolean("VERBOSE", &s.Verbose)
	boolean("FAIL_ON_WARNINGS", &s.FailOnWarnings)
	boolean("VERIFY_SOURCES", &s.VerifySources)
	str("ENGINE", &s.Engine)
	str("LOG_LEVEL", &s.LogLevel)
	str("LOG_FORMAT", &s.LogFormat)
	str("METRICS_FILE", &s.MetricsFile)
	str("ARCHIVE_DIR", &s.ArchiveDir)

	return errors.Join(errs...)
}

// Apply overlays every value the settings file declares.
func (s *Settings) Apply(f *File) {
	if f == nil {
		return
	}
	setString(&s.ConfigPath, f.ConfigPath)
	setString(&s.OutputPath, f.OutputPath)
	setString(&s.Format, f.Format)
	setString(&s.RulesDir, f.RulesDir)
	setString(&s.RulesFile, f.RulesFile)
	setBool(&s.CopyToRules, f.CopyToRules)
	setBool(&s.Verbose, f.Verbose)
	setBool(&s.Quiet, f.Quiet)
	setBool(&s.Validate, f.Validate)
	setBool(&s.FailOnWarnings, f.FailOnWarnings)
	setBool(&s.CheckSources, f.CheckSources)
	setBool(&s.VerifySources, f.VerifySources)
	setString(&s.Engine, f.Engine)
	setString(&s.LogLevel, f.LogLevel)
	setString(&s.LogFormat, f.LogFormat)
	setString(&s.MetricsFile, f.MetricsFile)
	setString(&s.ArchiveDir, f.ArchiveDir)
	if f.ArchiveKeep != nil {
		s.ArchiveKeep = *f.ArchiveKeep
	}
	setString(&s.LockPath, f.LockPath)
}

// Flag names recognized by ApplyFlags.
const (
	FlagConfig         = "config"
	FlagOutput         = "output"
	FlagFormat         = "format"
	FlagCopyToRules    = "copy-to-rules"
	FlagRulesDir       = "rules-dir"
	FlagVerbose        = "verbose"
	FlagQuiet          = "quiet"
	FlagNoValidate     = "no-validate"
	FlagFailOnWarnings = "fail-on-warnings"
	FlagCheckSources   = "check-sources"
	FlagVerifySources  = "verify-sources"
	FlagEngine         = "engine"
	FlagLogLevel       = "log-level"
	FlagLogFormat      = "log-format"
	FlagMetricsFile    = "metrics-file"
	FlagArchiveDir     = "archive-dir"
	FlagArchiveKeep    = "archive-keep"
	FlagLockFile       = "lock-file"
)

// ApplyFlags overlays the flags the user changed on the command line.
// Flags absent from fs are ignored.
func (s *Settings) ApplyFlags(fs *pflag.FlagSet) error {
	var errs []error

	str := func(name string, dst *string) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	boolean := func(name string, dst *bool) {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			return
		}
		b, err := fs.GetBool(name)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = b
	}

	str(FlagConfig, &s.ConfigPath)
	str(FlagOutput, &s.OutputPath)
	str(FlagFormat, &s.Format)
	boolean(FlagCopyToRules, &s.CopyToRules)
	str(FlagRulesDir, &s.RulesDir)
	boolean(FlagVerbose, &s.Verbose)
	boolean(FlagQuiet, &s.Quiet)
	boolean(FlagFailOnWarnings, &s.FailOnWarnings)
	boolean(FlagCheckSources, &s.CheckSources)
	boolean(FlagVerifySources, &s.VerifySources)
	str(FlagEngine, &s.Engine)
	str(FlagLogLevel, &s.LogLevel)
	str(FlagLogFormat, &s.LogFormat)
	str(FlagMetricsFile, &s.MetricsFile)
	str(FlagArchiveDir, &s.ArchiveDir)
	str(FlagLockFile, &s.LockPath)

	if f := fs.Lookup(FlagNoValidate); f != nil && f.Changed {
		off, err := fs.GetBool(FlagNoValidate)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.Validate = !off
		}
	}
	if f := fs.Lookup(FlagArchiveKeep); f != nil && f.Changed {
		n, err := fs.GetInt(FlagArchiveKeep)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.ArchiveKeep = n
		}
	}

	return errors.Join(errs...)
}

var validate = validator.New()

// Check validates the resolved settings.
func (s *Settings) Check() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return &Error{Errors: msgs}
}

// Error lists invalid settings.
type Error struct {
	Errors []string
}

func (e *Error) Error() string {
	return "invalid settings:\n  - " + strings.Join(e.Errors, "\n  - ")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s: invalid value '%v' — must be one of: %s", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s: must be >= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed '%s' check", fe.Field(), fe.Tag())
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
