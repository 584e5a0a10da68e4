package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies how a pattern string is interpreted.
type Kind int

const (
	KindExact Kind = iota
	KindWildcard
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindWildcard:
		return "wildcard"
	case KindRegex:
		return "regex"
	default:
		return "exact"
	}
}

var (
	// ErrEmpty is returned for blank patterns.
	ErrEmpty = errors.New("pattern is empty")

	// ErrInvalidRegex is returned when a /regex/ pattern does not compile.
	ErrInvalidRegex = errors.New("invalid regular expression")
)

// Pattern is a parsed inclusion or exclusion rule.
type Pattern struct {
	Raw  string
	Kind Kind

	re *regexp.Regexp
}

// Regexp returns the compiled expression for regex patterns, nil otherwise.
func (p Pattern) Regexp() *regexp.Regexp {
	return p.re
}

// Classify determines the kind of a pattern from its shape.
// A regex is delimited by a leading and trailing '/' and is longer than two
// characters; anything else containing '*' is a wildcard.
func Classify(s string) Kind {
	if IsRegex(s) {
		return KindRegex
	}
	if strings.Contains(s, "*") {
		return KindWildcard
	}
	return KindExact
}

// IsRegex reports whether s is delimited as /…/.
func IsRegex(s string) bool {
	return len(s) > 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/")
}

// Parse classifies s and checks it for syntactic validity.
// The returned Pattern carries the detected kind even when err is non-nil.
func Parse(s string) (Pattern, error) {
	p := Pattern{Raw: s, Kind: Classify(s)}
	if strings.TrimSpace(s) == "" {
		return p, ErrEmpty
	}
	if p.Kind != KindRegex {
		return p, nil
	}

	re, err := regexp.Compile(s[1 : len(s)-1])
	if err != nil {
		return p, fmt.Errorf("%w %s: %v", ErrInvalidRegex, s, err)
	}
	p.re = re
	return p, nil
}

// IsComment reports whether a line read from a pattern file is a comment.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "!")
}
