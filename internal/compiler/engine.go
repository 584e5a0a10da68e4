package compiler

//go:generate mockgen -source=engine.go -destination=engine_mock_test.go -package=compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Invocation is what the engine needs for one run.
type Invocation struct {
	ConfigPath string
	OutputPath string
	WorkDir    string
	Verbose    bool
}

// Execution is the raw outcome of an engine process.
type Execution struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Engine runs the external compilation engine. A non-nil error means the
// engine could not be run at all; a non-zero exit is reported through
// Execution.ExitCode.
type Engine interface {
	Invoke(ctx context.Context, inv Invocation) (*Execution, error)
}

const (
	engineBinary  = "hostlist-compiler"
	enginePackage = "@adguard/hostlist-compiler"
)

var (
	// ErrEngineInvocation matches every engine failure.
	ErrEngineInvocation = errors.New("engine invocation failed")

	// ErrEngineNotFound is returned when no engine command can be located.
	ErrEngineNotFound = fmt.Errorf("%w: %s not found. Install with: npm install -g %s", ErrEngineInvocation, engineBinary, enginePackage)

	// ErrOutputMissing is returned when the engine exits cleanly without
	// leaving an output file.
	ErrOutputMissing = fmt.Errorf("%w: output file not produced", ErrEngineInvocation)
)

// EngineError reports a non-zero engine exit.
type EngineError struct {
	ExitCode int
	Stderr   string
}

func (e *EngineError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return fmt.Sprintf("compiler exited with code %d: %s", e.ExitCode, msg)
	}
	return fmt.Sprintf("compiler exited with code %d", e.ExitCode)
}

func (e *EngineError) Is(target error) bool { return target == ErrEngineInvocation }

// ProcessEngine runs the engine as a subprocess.
type ProcessEngine struct {
	// Command is the executable; Args are placed before the engine flags
	// (e.g. "npx" with "@adguard/hostlist-compiler").
	Command string
	Args    []string
	Logger  zerolog.Logger
}

// Invoke runs Command Args... --config <cfg> --output <out> [--verbose] in
// inv.WorkDir and waits for it to exit.
func (e *ProcessEngine) Invoke(ctx context.Context, inv Invocation) (*Execution, error) {
	args := append([]string{}, e.Args...)
	args = append(args, "--config", inv.ConfigPath, "--output", inv.OutputPath)
	if inv.Verbose {
		args = append(args, "--verbose")
	}

	cmd := exec.CommandContext(ctx, e.Command, args...)
	cmd.Dir = inv.WorkDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	e.Logger.Info().Str("exec_path", e.Command).Strs("args", args).Str("dir", inv.WorkDir).Msg("executing compiler")

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineInvocation, ctxErr)
	}
	res := &Execution{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("%w: running %s: %v", ErrEngineInvocation, e.Command, err)
	}

	e.Logger.Debug().Int("exit_code", res.ExitCode).Dur("duration", time.Since(start)).Msg("compiler exited")
	return res, nil
}

// String renders the command line prefix for display.
func (e *ProcessEngine) String() string {
	return strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// DiscoverEngine returns the engine to use. A non-empty override is split on
// whitespace into command and arguments. Otherwise hostlist-compiler on PATH
// is preferred, falling back to npx.
func DiscoverEngine(override string, logger zerolog.Logger) (*ProcessEngine, error) {
	if fields := strings.Fields(override); len(fields) > 0 {
		return &ProcessEngine{Command: fields[0], Args: fields[1:], Logger: logger}, nil
	}
	if path, err := lookPath(engineBinary); err == nil {
		return &ProcessEngine{Command: path, Logger: logger}, nil
	}
	if path, err := lookPath("npx"); err == nil {
		return &ProcessEngine{Command: path, Args: []string{enginePackage}, Logger: logger}, nil
	}
	return nil, ErrEngineNotFound
}
