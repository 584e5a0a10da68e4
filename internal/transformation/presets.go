package transformation

import (
	"sort"
	"strings"
)

var presets = map[string][]Name{
	"recommended": {Validate, Deduplicate, RemoveEmptyLines, TrimLines, InsertFinalNewLine},
	"minimal":     {Deduplicate, InsertFinalNewLine},
	"hosts":       {Compress, Validate, Deduplicate, RemoveEmptyLines, TrimLines, InsertFinalNewLine},
}

// Preset returns the transformations of a named preset.
func Preset(name string) ([]Name, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	out := make([]Name, len(p))
	copy(out, p)
	return out, true
}

// Presets returns the preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
