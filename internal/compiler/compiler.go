// Package compiler hands a validated configuration to the external
// compilation engine and records what happened.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/logging"
)

// Options tunes a single Compile call.
type Options struct {
	// OutputPath is where the engine writes the list. Empty means
	// <config dir>/output/compiled-<timestamp>.txt.
	OutputPath string

	// Verbose passes --verbose to the engine and keeps its stdout in the
	// result even on success. It never changes pass/fail.
	Verbose bool
}

// Compiler drives one Engine.
type Compiler struct {
	Engine Engine
	Logger zerolog.Logger

	// TempDir receives the engine's JSON configuration. Empty means os.TempDir.
	TempDir string

	// Now defaults to time.Now.
	Now func() time.Time
}

// New returns a Compiler for engine.
func New(engine Engine, logger zerolog.Logger) *Compiler {
	return &Compiler{Engine: engine, Logger: logging.Component(logger, "compiler")}
}

func (c *Compiler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// DefaultOutputPath returns the timestamped default output file for cfg.
func DefaultOutputPath(cfg *config.Configuration, at time.Time) string {
	dir := cfg.Dir()
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "output", fmt.Sprintf("compiled-%s.txt", at.Format("20060102-150405")))
}

// Compile runs the engine once. It never retries; the returned Result is
// either successful with OutputPath set, or failed with ErrorMessage and Err
// set. ElapsedMs covers the engine call in both cases.
func (c *Compiler) Compile(ctx context.Context, cfg *config.Configuration, opts Options) *Result {
	result := NewResult(c.now())
	result.ConfigName = cfg.Name
	result.ConfigVersion = cfg.Version
	result.ConfigPath = cfg.SourcePath
	result.ConfigFormat = cfg.SourceFormat

	if c.Engine == nil {
		return result.Fail(ErrEngineNotFound)
	}

	output := opts.OutputPath
	if output == "" {
		output = DefaultOutputPath(cfg, result.Timestamp)
	}
	if abs, err := filepath.Abs(output); err == nil {
		output = abs
	}
	result.OutputPath = output

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return result.Fail(fmt.Errorf("creating output directory: %w", err))
	}
	// A file left by an earlier run must not pass as this run's output.
	if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
		return result.Fail(fmt.Errorf("removing previous output: %w", err))
	}

	configPath, cleanup, err := config.WriteTempJSON(cfg, c.TempDir)
	if err != nil {
		return result.Fail(err)
	}
	defer cleanup()

	inv := Invocation{
		ConfigPath: configPath,
		OutputPath: output,
		WorkDir:    cfg.Dir(),
		Verbose:    opts.Verbose,
	}

	log := c.Logger.With().Str("config", cfg.Name).Str("output", output).Logger()
	log.Debug().Str("engine_config", configPath).Msg("invoking engine")

	start := time.Now()
	run, err := c.Engine.Invoke(ctx, inv)
	result.ElapsedMs = time.Since(start).Milliseconds()

	if err != nil {
		log.Error().Err(err).Msg("engine could not be run")
		return result.Fail(err)
	}

	if run.ExitCode != 0 {
		engErr := &EngineError{ExitCode: run.ExitCode, Stderr: run.Stderr}
		result.CompilerOutput = combine(run.Stdout, run.Stderr)
		log.Error().Int("exit_code", run.ExitCode).Msg("engine failed")
		return result.Fail(engErr)
	}

	if info, statErr := os.Stat(output); statErr != nil || info.IsDir() {
		result.CompilerOutput = combine(run.Stdout, run.Stderr)
		log.Error().Msg("engine exited cleanly but wrote no output")
		result.ErrorMessage = "output file not produced"
		return result.Fail(ErrOutputMissing)
	}

	if opts.Verbose {
		result.CompilerOutput = combine(run.Stdout, run.Stderr)
	} else if s := strings.TrimSpace(run.Stderr); s != "" {
		result.CompilerOutput = run.Stderr
	}

	result.Success = true
	result.State = StateCompiled
	log.Info().Int64("elapsed_ms", result.ElapsedMs).Msg("engine finished")
	return result
}

func combine(stdout, stderr string) string {
	stdout = strings.TrimRight(stdout, "\n")
	stderr = strings.TrimRight(stderr, "\n")
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	}
	return stdout + "\n" + stderr
}

// IsEngineFailure reports whether err came from the engine stage.
func IsEngineFailure(err error) bool {
	return errors.Is(err, ErrEngineInvocation)
}
