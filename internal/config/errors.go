package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no configuration file exists at the
	// requested path or anywhere in the search order.
	ErrNotFound = errors.New("configuration file not found")

	// ErrParse matches every *ParseError.
	ErrParse = errors.New("configuration parse error")

	// ErrSemantic matches every *SemanticError.
	ErrSemantic = errors.New("configuration has no interpretable structure")

	// ErrValidationFailed matches every *ValidationError.
	ErrValidationFailed = errors.New("configuration validation failed")
)

// ParseError reports content that is not well-formed in its format.
type ParseError struct {
	Format Format
	Path   string
	Err    error
}

func (e *ParseError) Error() string {
	where := e.Path
	if where == "" {
		where = "<input>"
	}
	if e.Format == "" {
		return fmt.Sprintf("parsing config %s: %v", where, e.Err)
	}
	return fmt.Sprintf("parsing %s config %s: %v", e.Format, where, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// SemanticError reports a well-formed document that does not describe a
// configuration, such as a top-level list or a scalar where a list belongs.
type SemanticError struct {
	Path   string
	Detail string
}

func (e *SemanticError) Error() string {
	if e.Path == "" {
		return "invalid config: " + e.Detail
	}
	return fmt.Sprintf("invalid config %s: %s", e.Path, e.Detail)
}

func (e *SemanticError) Is(target error) bool { return target == ErrSemantic }

// ValidationError carries a failed ValidationResult.
type ValidationError struct {
	Result ValidationResult

	// Strict is set when warnings alone caused the failure.
	Strict bool
}

func (e *ValidationError) Error() string {
	var lines []string
	for _, i := range e.Result.Errors {
		lines = append(lines, i.String())
	}
	if e.Strict {
		for _, i := range e.Result.Warnings {
			lines = append(lines, "warning: "+i.String())
		}
	}
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(lines, "\n  - "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }
