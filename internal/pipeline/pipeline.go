// Package pipeline runs a full compilation: resolve the configuration,
// validate it, compile it with the external engine, verify the artifact and
// optionally publish it.
//
// A run moves through START, CONFIG_RESOLVED, VALIDATED, COMPILED, VERIFIED,
// PUBLISHED (only when publishing) and DONE. Any failing step ends in
// ABORTED; a failed publish copy does not.
package pipeline

//go:generate mockgen -destination=engine_mock_test.go -package=pipeline github.com/jaypatrick/ad-blocking-sub007/internal/compiler Engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaypatrick/ad-blocking-sub007/internal/archive"
	"github.com/jaypatrick/ad-blocking-sub007/internal/artifact"
	"github.com/jaypatrick/ad-blocking-sub007/internal/compiler"
	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/lock"
	"github.com/jaypatrick/ad-blocking-sub007/internal/logging"
	"github.com/jaypatrick/ad-blocking-sub007/internal/metrics"
)

var (
	// ErrIO marks I/O failures while verifying the compiled artifact.
	ErrIO = errors.New("i/o failure")

	// ErrHookAborted marks a run stopped by an OnTransition or OnValidation hook.
	ErrHookAborted = errors.New("aborted by hook")

	// ErrSourcesChanged marks local inputs that changed while the engine ran.
	ErrSourcesChanged = errors.New("local sources changed during compilation")
)

// DefaultRulesFile is the file name used when publishing.
const DefaultRulesFile = "adguard_user_filter.txt"

// Options controls one run.
type Options struct {
	// ConfigPath is the configuration file. Empty means search SearchDir
	// (or the working directory) for a default configuration.
	ConfigPath string
	SearchDir  string

	// Format forces the configuration format. Empty means detect from the
	// file extension.
	Format config.Format

	OutputPath string
	Verbose    bool

	SkipValidation    bool
	FailOnWarnings    bool
	CheckLocalSources bool

	// VerifySources hashes local sources and pattern lists before the engine
	// runs and aborts if any of them changed by the time it exits.
	VerifySources bool

	CopyToRules bool
	// RulesDir empty means DefaultRulesDir of the configuration.
	RulesDir string
	// RulesFile empty means DefaultRulesFile.
	RulesFile string

	// LockPath, when set, receives a compile record after verification.
	LockPath string

	// ArchiveKeep prunes the archive to this many entries after storing.
	// Zero keeps everything.
	ArchiveKeep int
}

// Orchestrator wires the compilation stages together.
type Orchestrator struct {
	Compiler *compiler.Compiler
	Logger   zerolog.Logger

	// Metrics and Archive are optional.
	Metrics *metrics.Recorder
	Archive *archive.Archive

	// Now defaults to time.Now.
	Now func() time.Time

	// OnTransition, if set, is called on every state change. An error aborts
	// the run; it is ignored for DONE and ABORTED.
	OnTransition func(state compiler.State) error

	// OnValidation, if set, sees the validation result before it is judged.
	// It may add issues; an error aborts the run.
	OnValidation func(vr *config.ValidationResult) error
}

// New returns an Orchestrator using c.
func New(c *compiler.Compiler, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{Compiler: c, Logger: logging.Component(logger, "pipeline")}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// DefaultRulesDir returns the rules directory of the repository holding the
// configuration: two levels above its directory.
func DefaultRulesDir(cfg *config.Configuration) string {
	dir := cfg.Dir()
	if dir == "" {
		dir = "."
	}
	return filepath.Clean(filepath.Join(dir, "..", "..", "rules"))
}

// ResolveConfigPath returns the explicit path, or the default configuration
// found from searchDir (the working directory when empty).
func ResolveConfigPath(explicit, searchDir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if searchDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining working directory: %w", err)
		}
		searchDir = wd
	}
	return config.FindDefault(searchDir)
}

// Run executes one compilation. It never returns nil; failures are reported
// through the result's Success, ErrorMessage and Err fields.
func (o *Orchestrator) Run(ctx context.Context, opts Options) *compiler.Result {
	started := time.Now()
	r := &run{o: o, result: compiler.NewResult(o.now()), last: compiler.StateStart}

	defer func() {
		r.result.ElapsedMs = time.Since(started).Milliseconds()
		o.Metrics.RunFinished(r.result.ConfigName, r.result.Success, string(r.last), r.result.RuleCount, time.Since(started), r.result.Timestamp)
	}()

	if err := o.emit(compiler.StateStart); err != nil {
		return r.abort(err)
	}

	// Resolve.
	path, err := ResolveConfigPath(opts.ConfigPath, opts.SearchDir)
	if err != nil {
		return r.abort(err)
	}
	cfg, err := config.Read(path, opts.Format)
	if err != nil {
		return r.abort(err)
	}
	r.result.ConfigName = cfg.Name
	r.result.ConfigVersion = cfg.Version
	r.result.ConfigPath = cfg.SourcePath
	r.result.ConfigFormat = cfg.SourceFormat
	log := o.Logger.With().Str("config", cfg.SourcePath).Logger()
	if err := r.advance(compiler.StateConfigResolved); err != nil {
		return r.abort(err)
	}

	// Validate.
	if opts.SkipValidation {
		log.Debug().Msg("validation skipped")
	} else {
		v := config.Validator{CheckLocalSources: opts.CheckLocalSources}
		vr := v.Validate(cfg)
		r.result.Validation = &vr
		if o.OnValidation != nil {
			if err := o.OnValidation(&vr); err != nil {
				return r.abort(fmt.Errorf("%w: %w", ErrHookAborted, err))
			}
		}
		for _, w := range vr.Warnings {
			log.Warn().Str("field", w.Field).Msg(w.Message)
		}
		if err := vr.Err(opts.FailOnWarnings); err != nil {
			return r.abort(err)
		}
	}
	if err := r.advance(compiler.StateValidated); err != nil {
		return r.abort(err)
	}

	// Compile.
	if o.Compiler == nil {
		return r.abort(compiler.ErrEngineNotFound)
	}
	var fp artifact.Fingerprint
	if opts.VerifySources {
		fp, err = artifact.TakeFingerprint(cfg.LocalFiles())
		if err != nil {
			return r.abort(fmt.Errorf("%w: hashing local sources: %w", ErrIO, err))
		}
		log.Debug().Int("files", len(fp)).Msg("local sources fingerprinted")
	}
	cr := o.Compiler.Compile(ctx, cfg, compiler.Options{OutputPath: opts.OutputPath, Verbose: opts.Verbose})
	o.Metrics.EngineFinished(time.Duration(cr.ElapsedMs) * time.Millisecond)
	r.result.OutputPath = cr.OutputPath
	r.result.CompilerOutput = cr.CompilerOutput
	if !cr.Success {
		r.result.ErrorMessage = cr.ErrorMessage
		return r.abort(cr.Err)
	}
	if fp != nil {
		changed, err := fp.Changed()
		if err != nil {
			return r.abort(fmt.Errorf("%w: re-hashing local sources: %w", ErrIO, err))
		}
		if len(changed) > 0 {
			return r.abort(fmt.Errorf("%w: %s", ErrSourcesChanged, strings.Join(changed, ", ")))
		}
	}
	if err := r.advance(compiler.StateCompiled); err != nil {
		return r.abort(err)
	}

	// Verify.
	count, err := artifact.CountRules(cr.OutputPath)
	if err != nil {
		return r.abort(fmt.Errorf("%w: counting rules: %w", ErrIO, err))
	}
	hash, err := artifact.ComputeHash(cr.OutputPath)
	if err != nil {
		return r.abort(fmt.Errorf("%w: hashing output: %w", ErrIO, err))
	}
	r.result.RuleCount = count
	r.result.OutputHash = hash
	r.result.Success = true
	if err := r.advance(compiler.StateVerified); err != nil {
		return r.abort(err)
	}
	log.Info().Int("rules", count).Str("sha384", hash).Msg("artifact verified")

	o.store(r.result, opts.ArchiveKeep, log)
	if opts.LockPath != "" {
		if err := lock.Save(opts.LockPath, recordFor(cfg, r.result)); err != nil {
			log.Warn().Err(err).Msg("writing compile record failed")
		}
	}

	// Publish.
	if opts.CopyToRules {
		dir := opts.RulesDir
		if dir == "" {
			dir = DefaultRulesDir(cfg)
		}
		file := opts.RulesFile
		if file == "" {
			file = DefaultRulesFile
		}
		r.result.RulesDestination = filepath.Join(dir, file)
		if dst, err := artifact.Destination(dir, file); err != nil {
			log.Warn().Err(err).Msg("refusing to publish")
		} else {
			r.result.CopiedToRules = artifact.CopyOutput(cr.OutputPath, dst, log)
		}
		o.Metrics.Published(r.result.CopiedToRules)
		if r.result.CopiedToRules {
			if err := r.advance(compiler.StatePublished); err != nil {
				return r.abort(err)
			}
		}
	}

	_ = r.advance(compiler.StateDone)
	return r.result
}

// store archives the verified artifact. Failures are logged only.
func (o *Orchestrator) store(result *compiler.Result, keep int, log zerolog.Logger) {
	if o.Archive == nil {
		return
	}
	path, err := o.Archive.Put(result.OutputHash, result.OutputPath)
	if err != nil {
		log.Warn().Err(err).Msg("archiving artifact failed")
		return
	}
	result.ArchivedPath = path
	if keep > 0 {
		if n, err := o.Archive.Prune(keep); err != nil {
			log.Warn().Err(err).Msg("pruning archive failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("pruned archive")
		}
	}
}

func recordFor(cfg *config.Configuration, result *compiler.Result) *lock.Record {
	rec := &lock.Record{
		Version:         lock.CurrentVersion,
		Name:            cfg.Name,
		ConfigVersion:   cfg.Version,
		ConfigPath:      cfg.SourcePath,
		ConfigFormat:    string(cfg.SourceFormat),
		Output:          lock.Output{Path: result.OutputPath, SHA384: result.OutputHash, Rules: result.RuleCount},
		Transformations: cfg.Normalized().Transformations,
		CompiledAt:      result.Timestamp.UTC(),
	}
	for _, src := range cfg.Sources {
		rec.Sources = append(rec.Sources, src.Source)
	}
	return rec
}

func (o *Orchestrator) emit(state compiler.State) error {
	o.Logger.Debug().Str("state", string(state)).Msg("transition")
	if o.OnTransition == nil {
		return nil
	}
	err := o.OnTransition(state)
	if err == nil || state == compiler.StateDone || state == compiler.StateAborted {
		return nil
	}
	return fmt.Errorf("%w at %s: %w", ErrHookAborted, state, err)
}

// run tracks one Run invocation.
type run struct {
	o      *Orchestrator
	result *compiler.Result
	last   compiler.State
}

func (r *run) advance(state compiler.State) error {
	r.last = state
	r.result.State = state
	return r.o.emit(state)
}

// abort fails the run. last keeps the state reached before the abort.
func (r *run) abort(err error) *compiler.Result {
	r.result.Fail(err)
	r.o.Logger.Error().Err(err).Str("after", string(r.last)).Msg("compilation aborted")
	_ = r.o.emit(compiler.StateAborted)
	return r.result
}
