package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the wire format of a configuration file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists the supported wire formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unknown configuration format '%s' — must be one of: json, yaml, toml", s)
}

// DetectFormat infers the format from the file extension.
// An unrecognized extension is a *ParseError.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", &ParseError{
		Path: path,
		Err:  fmt.Errorf("cannot detect format from extension %q — use .json, .yaml, .yml or .toml, or pass an explicit format", filepath.Ext(path)),
	}
}
