package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jaypatrick/ad-blocking-sub007/internal/logging"
	"github.com/jaypatrick/ad-blocking-sub007/internal/settings"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Flags. Their values only take effect through settings.ApplyFlags, which
// looks at the flags the user actually set.
var (
	flagConfig         string
	flagOutput         string
	flagFormat         string
	flagCopyToRules    bool
	flagRulesDir       string
	flagVerbose        bool
	flagQuiet          bool
	flagValidateOnly   bool
	flagNoValidate     bool
	flagFailOnWarnings bool
	flagCheckSources   bool
	flagVerifySources  bool
	flagEngine         string
	flagLogLevel       string
	flagLogFormat      string
	flagMetricsFile    string
	flagArchiveDir     string
	flagArchiveKeep    int
	flagLockFile       string
	flagSettings       string
	flagJSON           bool
)

// Resolved state shared by all commands.
var (
	st     = settings.Defaults()
	layers []settings.Layer
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "rules-compiler",
	Short: "Compile ad-blocking filter lists with hostlist-compiler",
	Long: `rules-compiler reads a filter-list configuration (JSON, YAML or TOML),
validates it, runs hostlist-compiler on it and verifies the compiled list
by counting its rules and hashing it with SHA-384. The compiled list can be
copied into the repository's rules directory.

Settings come from, lowest precedence first: built-in defaults, RULES_COMPILER_*
environment variables, settings files (/etc/rules-compiler/settings.yaml,
the user config directory, ./rules-compiler.yaml or --settings) and flags.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: resolveSettings,
	RunE:              runCompile,
}

func init() {
	rootCmd.SetVersionTemplate("rules-compiler {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, settings.FlagConfig, "c", "", "path to configuration file (default: search for compiler-config.{json,yaml,yml,toml})")
	pf.StringVarP(&flagFormat, settings.FlagFormat, "f", "", "force configuration format: json, yaml, toml")
	pf.BoolVarP(&flagVerbose, settings.FlagVerbose, "v", false, "detailed output")
	pf.BoolVarP(&flagQuiet, settings.FlagQuiet, "q", false, "minimal output (errors only)")
	pf.BoolVar(&flagCheckSources, settings.FlagCheckSources, false, "warn about local sources that do not exist")
	pf.BoolVar(&flagFailOnWarnings, settings.FlagFailOnWarnings, false, "treat validation warnings as errors")
	pf.StringVar(&flagEngine, settings.FlagEngine, "", "engine command, split on whitespace; use a wrapper script for paths with spaces (default: hostlist-compiler, then npx @adguard/hostlist-compiler)")
	pf.StringVar(&flagLogLevel, settings.FlagLogLevel, "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&flagLogFormat, settings.FlagLogFormat, "", "log format: console, json")
	pf.StringVar(&flagSettings, "settings", "", "project settings file (default: ./rules-compiler.yaml)")

	addCompileFlags(rootCmd)
}

// addCompileFlags registers the flags shared by the root command, compile
// and watch.
func addCompileFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&flagOutput, settings.FlagOutput, "o", "", "output file (default: <config dir>/output/compiled-<timestamp>.txt)")
	f.BoolVarP(&flagCopyToRules, settings.FlagCopyToRules, "r", false, "copy the compiled list into the rules directory")
	f.StringVar(&flagRulesDir, settings.FlagRulesDir, "", "rules directory for --copy-to-rules (default: <config dir>/../../rules)")
	f.BoolVar(&flagValidateOnly, "validate-only", false, "validate the configuration and exit")
	f.BoolVar(&flagNoValidate, settings.FlagNoValidate, false, "skip validation before compiling")
	f.StringVar(&flagMetricsFile, settings.FlagMetricsFile, "", "write Prometheus metrics to this file after the run")
	f.StringVar(&flagArchiveDir, settings.FlagArchiveDir, "", "keep compiled lists in this content-addressed archive")
	f.IntVar(&flagArchiveKeep, settings.FlagArchiveKeep, 0, "keep at most this many archived lists (0 = all)")
	f.StringVar(&flagLockFile, settings.FlagLockFile, "", "write a compile record to this file")
	f.BoolVar(&flagVerifySources, settings.FlagVerifySources, false, "abort if local sources change while the engine runs")
	f.BoolVar(&flagJSON, "json", false, "print the result as JSON")
}

// resolveSettings runs before every command: defaults, environment,
// settings files, then flags.
func resolveSettings(cmd *cobra.Command, _ []string) error {
	opts := settings.DiscoverOptionsFromEnv(os.Getenv)
	if flagSettings != "" {
		opts.ProjectPath = flagSettings
	}

	resolved, found, err := settings.Resolve(opts, os.Getenv, cmd.Flags())
	layers = found
	if err != nil {
		return err
	}
	st = resolved

	level := st.LogLevel
	if st.Verbose && !cmd.Flags().Changed(settings.FlagLogLevel) && level == "warn" {
		level = "info"
	}
	l, err := logging.New(logging.Options{Level: level, Format: st.LogFormat})
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
