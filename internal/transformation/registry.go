// Package transformation holds the fixed vocabulary of transformations the
// compilation engine understands, in the order the engine applies them.
package transformation

import (
	"sort"
	"strings"
)

// Name is a transformation identifier as understood by the engine.
type Name string

const (
	RemoveComments     Name = "RemoveComments"
	Compress           Name = "Compress"
	RemoveModifiers    Name = "RemoveModifiers"
	Validate           Name = "Validate"
	ValidateAllowIP    Name = "ValidateAllowIp"
	Deduplicate        Name = "Deduplicate"
	InvertAllow        Name = "InvertAllow"
	RemoveEmptyLines   Name = "RemoveEmptyLines"
	TrimLines          Name = "TrimLines"
	InsertFinalNewLine Name = "InsertFinalNewLine"
	ConvertToASCII     Name = "ConvertToAscii"
)

// canonical is the application order. Declaration order in a configuration
// never changes it.
var canonical = [...]Name{
	RemoveComments,
	Compress,
	RemoveModifiers,
	Validate,
	ValidateAllowIP,
	Deduplicate,
	InvertAllow,
	RemoveEmptyLines,
	TrimLines,
	InsertFinalNewLine,
	ConvertToASCII,
}

// index maps lower-cased names to their canonical position.
var index = func() map[string]int {
	m := make(map[string]int, len(canonical))
	for i, n := range canonical {
		m[strings.ToLower(string(n))] = i
	}
	return m
}()

// All returns every legal transformation in canonical application order.
func All() []Name {
	out := make([]Name, len(canonical))
	copy(out, canonical[:])
	return out
}

// Strings returns All as plain strings.
func Strings() []string {
	out := make([]string, len(canonical))
	for i, n := range canonical {
		out[i] = string(n)
	}
	return out
}

// Lookup resolves name case-insensitively to its canonical spelling.
func Lookup(name string) (Name, bool) {
	i, ok := index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return canonical[i], true
}

// IsValid reports whether name is a known transformation.
func IsValid(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// InvalidSubset returns every entry of names that is not a known
// transformation, preserving input order.
func InvalidSubset(names []string) []string {
	var bad []string
	for _, n := range names {
		if !IsValid(n) {
			bad = append(bad, n)
		}
	}
	return bad
}

// Canonicalize returns the known entries of names in canonical application
// order with duplicates removed. Unknown entries are dropped.
func Canonicalize(names []string) []Name {
	seen := make(map[Name]bool, len(names))
	var out []Name
	for _, n := range names {
		c, ok := Lookup(n)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return position(out[i]) < position(out[j])
	})
	return out
}

func position(n Name) int {
	return index[strings.ToLower(string(n))]
}
