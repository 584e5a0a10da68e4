package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jaypatrick/ad-blocking-sub007/internal/archive"
	"github.com/jaypatrick/ad-blocking-sub007/internal/compiler"
	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/metrics"
	"github.com/jaypatrick/ad-blocking-sub007/internal/pipeline"
	"github.com/jaypatrick/ad-blocking-sub007/internal/settings"
)

// pipelineOptions maps resolved settings onto a single run.
func pipelineOptions(s settings.Settings) (pipeline.Options, error) {
	opts := pipeline.Options{
		ConfigPath:        s.ConfigPath,
		OutputPath:        s.OutputPath,
		Verbose:           s.Verbose,
		SkipValidation:    !s.Validate,
		FailOnWarnings:    s.FailOnWarnings,
		CheckLocalSources: s.CheckSources,
		VerifySources:     s.VerifySources,
		CopyToRules:       s.CopyToRules,
		RulesDir:          s.RulesDir,
		RulesFile:         s.RulesFile,
		LockPath:          s.LockPath,
		ArchiveKeep:       s.ArchiveKeep,
	}
	if s.Format != "" {
		f, err := config.ParseFormat(s.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	return opts, nil
}

// newOrchestrator builds the pipeline from resolved settings. A missing
// engine is reported by the run itself, after validation.
func newOrchestrator(s settings.Settings) (*pipeline.Orchestrator, error) {
	var comp *compiler.Compiler
	engine, err := compiler.DiscoverEngine(s.Engine, logger)
	if err != nil {
		logger.Debug().Err(err).Msg("engine discovery failed")
	} else {
		comp = compiler.New(engine, logger)
	}

	o := pipeline.New(comp, logger)
	if s.MetricsFile != "" {
		o.Metrics = metrics.New()
	}
	if s.ArchiveDir != "" {
		a, err := archive.New(s.ArchiveDir)
		if err != nil {
			return nil, err
		}
		o.Archive = a
	}
	if s.Verbose && !s.Quiet {
		o.OnTransition = func(state compiler.State) error {
			detail("→ %s", state)
			return nil
		}
	}
	return o, nil
}

// readConfig resolves and reads the configuration named by the settings.
func readConfig(s settings.Settings) (*config.Configuration, error) {
	path, err := pipeline.ResolveConfigPath(s.ConfigPath, "")
	if err != nil {
		return nil, err
	}
	var format config.Format
	if s.Format != "" {
		if format, err = config.ParseFormat(s.Format); err != nil {
			return nil, err
		}
	}
	return config.Read(path, format)
}

// printValidation prints errors and warnings, one per line.
func printValidation(vr *config.ValidationResult) {
	if vr == nil {
		return
	}
	for _, e := range vr.Errors {
		errorf("%s", e)
	}
	for _, w := range vr.Warnings {
		warnf("%s", w)
	}
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !st.Quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if st.Verbose && !st.Quiet {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// warnf prints a warning to stderr unless quiet mode is active.
func warnf(format string, args ...any) {
	if !st.Quiet {
		fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
	}
}

func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
