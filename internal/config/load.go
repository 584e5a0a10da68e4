package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Read loads the configuration at path. An empty format means detect it
// from the file extension. The result is stamped with its format and the
// absolute path it was read from.
func Read(path string, format Format) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if format == "" {
		format, err = DetectFormat(path)
		if err != nil {
			return nil, err
		}
	}

	cfg, err := decode(data, format, path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.SourceFormat = format
	cfg.SourcePath = abs
	return cfg, nil
}

// Decode parses data in the given format. No provenance is stamped.
func Decode(data []byte, format Format) (*Configuration, error) {
	return decode(data, format, "")
}

func decode(data []byte, format Format, path string) (*Configuration, error) {
	var (
		doc any
		err error
	)
	switch format {
	case FormatJSON:
		doc, err = decodeJSON(data)
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatTOML:
		doc, err = decodeTOML(data)
	default:
		return nil, &ParseError{Format: format, Path: path, Err: fmt.Errorf("unsupported format %q", format)}
	}
	if err != nil {
		return nil, &ParseError{Format: format, Path: path, Err: err}
	}

	root, ok := normalize(doc).(map[string]any)
	if !ok || root == nil {
		return nil, &SemanticError{Path: path, Detail: "top-level value must be an object"}
	}

	// Every leaf of the model is a string, so the normalized tree binds to
	// the struct through one JSON pass regardless of the wire format.
	encoded, err := json.Marshal(root)
	if err != nil {
		return nil, &SemanticError{Path: path, Detail: err.Error()}
	}
	var cfg Configuration
	if err := json.Unmarshal(encoded, &cfg); err != nil {
		return nil, &SemanticError{Path: path, Detail: describeBindError(err)}
	}
	return &cfg, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected content after top-level value")
	}
	return doc, nil
}

func decodeYAML(data []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return yamlValue(&node), nil
}

// yamlValue converts a node tree keeping scalars as their literal text, so
// "version: 1.0" stays "1.0" rather than becoming a float.
func yamlValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return yamlValue(n.Content[0])
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			if isMergeKey(n.Content[i]) {
				mergeYAML(m, n.Content[i+1])
			}
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			if !isMergeKey(n.Content[i]) {
				m[n.Content[i].Value] = yamlValue(n.Content[i+1])
			}
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			s = append(s, yamlValue(c))
		}
		return s
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil
		}
		return yamlValue(n.Alias)
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil
		}
		return n.Value
	}
	return nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" && (n.Tag == "" || n.Tag == "!" || n.Tag == "!!merge")
}

// mergeYAML copies the keys of a "<<" value into m. The value is a mapping
// or a sequence of mappings; earlier mappings win over later ones.
func mergeYAML(m map[string]any, n *yaml.Node) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.MappingNode:
		src, _ := yamlValue(n).(map[string]any)
		for k, v := range src {
			if _, ok := m[k]; !ok {
				m[k] = v
			}
		}
	case yaml.SequenceNode:
		for _, c := range n.Content {
			mergeYAML(m, c)
		}
	}
}

func decodeTOML(data []byte) (any, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return m, nil
}

// normalize rewrites map keys to snake_case and scalars to strings.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			nk := normalizeKey(k)
			// A key already in canonical form wins over an alias of it.
			if _, dup := out[nk]; dup && k != nk {
				continue
			}
			out[nk] = normalize(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case nil:
		return nil
	default:
		return scalarString(t)
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// normalizeKey maps camelCase, PascalCase, kebab-case and upper-case keys
// onto the snake_case names used by the model.
func normalizeKey(k string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(k))
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '.':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func describeBindError(err error) string {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			field = "(root)"
		}
		return fmt.Sprintf("field '%s' must be %s, found %s", field, kindName(ute.Type.Kind().String()), ute.Value)
	}
	return err.Error()
}

func kindName(k string) string {
	switch k {
	case "slice":
		return "a list"
	case "struct":
		return "an object"
	case "string":
		return "a string"
	}
	return k
}

// ToJSON serializes the configuration in the engine's JSON schema.
// Provenance is never included.
func ToJSON(cfg *Configuration) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return append(data, '\n'), nil
}

// ToYAML serializes the configuration as YAML with the engine's key names.
func ToYAML(cfg *Configuration) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// ToTOML serializes the configuration as TOML; sources become an array of
// tables.
func ToTOML(cfg *Configuration) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode serializes the configuration in format.
func Encode(cfg *Configuration, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ToJSON(cfg)
	case FormatYAML:
		return ToYAML(cfg)
	case FormatTOML:
		return ToTOML(cfg)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
