package rulescompiler

import (
	"github.com/jaypatrick/ad-blocking-sub007/internal/compiler"
	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/pipeline"
)

// Type aliases re-export internal types as the public API.
// Users import "github.com/jaypatrick/ad-blocking-sub007/pkg/rulescompiler"
// and use rulescompiler.Result, rulescompiler.Configuration, etc.

type Configuration = config.Configuration
type Source = config.Source
type SourceType = config.SourceType
type Format = config.Format
type ValidationResult = config.ValidationResult
type Issue = config.Issue
type ValidationError = config.ValidationError
type ParseError = config.ParseError
type SemanticError = config.SemanticError

type Result = compiler.Result
type State = compiler.State
type Engine = compiler.Engine
type Invocation = compiler.Invocation
type Execution = compiler.Execution
type EngineError = compiler.EngineError
type VersionInfo = compiler.VersionInfo

type CheckResult = pipeline.CheckResult
type DriftEntry = pipeline.DriftEntry

const (
	FormatJSON = config.FormatJSON
	FormatYAML = config.FormatYAML
	FormatTOML = config.FormatTOML
)

// Sentinel errors for errors.Is.
var (
	ErrNotFound         = config.ErrNotFound
	ErrParse            = config.ErrParse
	ErrSemantic         = config.ErrSemantic
	ErrValidationFailed = config.ErrValidationFailed
	ErrEngineInvocation = compiler.ErrEngineInvocation
	ErrEngineNotFound   = compiler.ErrEngineNotFound
	ErrOutputMissing    = compiler.ErrOutputMissing
	ErrIO               = pipeline.ErrIO
	ErrHookAborted      = pipeline.ErrHookAborted
	ErrSourcesChanged   = pipeline.ErrSourcesChanged
)
