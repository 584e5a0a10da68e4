// Package rulescompiler provides the public Go library API for the rules
// compiler.
//
// The rules compiler reads a filter-list configuration in JSON, YAML or
// TOML, validates it, hands it to the external hostlist-compiler engine and
// verifies the compiled list (rule count and SHA-384).
//
// # Basic Usage
//
//	client, err := rulescompiler.New(rulescompiler.Options{
//	    ConfigPath: "compiler-config.yaml",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Validate without compiling
//	vr, err := client.Validate()
//
//	// Compile, verify and publish
//	result := client.Compile(ctx, rulescompiler.CompileOptions{CopyToRules: true})
//	if !result.Success {
//	    log.Fatal(result.ErrorMessage)
//	}
package rulescompiler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jaypatrick/ad-blocking-sub007/internal/archive"
	"github.com/jaypatrick/ad-blocking-sub007/internal/artifact"
	"github.com/jaypatrick/ad-blocking-sub007/internal/compiler"
	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/pipeline"
)

// Compiler runs a full compilation.
type Compiler interface {
	Compile(ctx context.Context, opts CompileOptions) *Result
}

// Validator checks a configuration without compiling it.
type Validator interface {
	Validate() (ValidationResult, error)
}

// Checker verifies an artifact against its compile record.
type Checker interface {
	Check(recordPath string) (*CheckResult, error)
}

// Options configures a Client.
type Options struct {
	// ConfigPath is the configuration file. Empty means search the working
	// directory for compiler-config.{json,yaml,yml,toml}.
	ConfigPath string

	// Format forces the configuration format. Empty means detect from the
	// file extension.
	Format Format

	// Engine runs the compilation. Nil means discover hostlist-compiler
	// (EngineCommand, then PATH, then npx).
	Engine        Engine
	EngineCommand string

	// ArchiveDir enables the content-addressed archive of compiled lists.
	ArchiveDir string

	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

// CompileOptions configures one compilation.
type CompileOptions struct {
	OutputPath     string
	Verbose        bool
	SkipValidation bool
	FailOnWarnings bool
	CheckSources   bool
	VerifySources  bool
	CopyToRules    bool
	RulesDir       string
	RulesFile      string
	LockPath       string
}

// Client is the main entry point for the library.
// It implements Compiler, Validator and Checker.
type Client struct {
	configPath string
	format     Format
	engine     Engine
	engineErr  error
	archive    *archive.Archive
	logger     zerolog.Logger
}

var (
	_ Compiler  = (*Client)(nil)
	_ Validator = (*Client)(nil)
	_ Checker   = (*Client)(nil)
)

// New creates a Client. A missing engine is not an error until Compile.
func New(opts Options) (*Client, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	c := &Client{
		configPath: opts.ConfigPath,
		format:     opts.Format,
		engine:     opts.Engine,
		logger:     logger,
	}

	if c.engine == nil {
		pe, err := compiler.DiscoverEngine(opts.EngineCommand, logger)
		if err != nil {
			c.engineErr = err
		} else {
			c.engine = pe
		}
	}

	if opts.ArchiveDir != "" {
		a, err := archive.New(opts.ArchiveDir)
		if err != nil {
			return nil, fmt.Errorf("initializing archive: %w", err)
		}
		c.archive = a
	}

	return c, nil
}

// ReadConfig reads the client's configuration.
func (c *Client) ReadConfig() (*Configuration, error) {
	path, err := pipeline.ResolveConfigPath(c.configPath, "")
	if err != nil {
		return nil, err
	}
	return config.Read(path, c.format)
}

// Validate reads and validates the configuration. The returned error is
// non-nil only when the configuration cannot be read.
func (c *Client) Validate() (ValidationResult, error) {
	cfg, err := c.ReadConfig()
	if err != nil {
		return ValidationResult{}, err
	}
	return config.Validate(cfg), nil
}

// Compile runs the full pipeline. The result is never nil.
func (c *Client) Compile(ctx context.Context, opts CompileOptions) *Result {
	var comp *compiler.Compiler
	if c.engine != nil {
		comp = compiler.New(c.engine, c.logger)
	}
	o := pipeline.New(comp, c.logger)
	o.Archive = c.archive

	return o.Run(ctx, pipeline.Options{
		ConfigPath:        c.configPath,
		Format:            c.format,
		OutputPath:        opts.OutputPath,
		Verbose:           opts.Verbose,
		SkipValidation:    opts.SkipValidation,
		FailOnWarnings:    opts.FailOnWarnings,
		CheckLocalSources: opts.CheckSources,
		VerifySources:     opts.VerifySources,
		CopyToRules:       opts.CopyToRules,
		RulesDir:          opts.RulesDir,
		RulesFile:         opts.RulesFile,
		LockPath:          opts.LockPath,
	})
}

// Check verifies an artifact against the compile record at recordPath.
func (c *Client) Check(recordPath string) (*CheckResult, error) {
	return pipeline.Check(recordPath)
}

// Version reports platform and engine versions.
func (c *Client) Version(ctx context.Context) VersionInfo {
	pe, _ := c.engine.(*compiler.ProcessEngine)
	return compiler.ProbeVersion(ctx, pe, c.engineErr)
}

// CountRules returns the number of rules in a compiled list.
func CountRules(path string) (int, error) {
	return artifact.CountRules(path)
}

// ComputeHash returns the lowercase hex SHA-384 of a file.
func ComputeHash(path string) (string, error) {
	return artifact.ComputeHash(path)
}
