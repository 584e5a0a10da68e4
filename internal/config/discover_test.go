package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSearchPathsOrder(t *testing.T) {
	start := filepath.Join("work", "repo")
	paths := SearchPaths(start)

	if paths[0] != filepath.Join(start, "compiler-config.json") {
		t.Errorf("paths[0] = %q, want compiler-config.json in start dir", paths[0])
	}
	if paths[1] != filepath.Join(start, "compiler-config.yaml") {
		t.Errorf("paths[1] = %q", paths[1])
	}
	if want := filepath.Join(start, "src", "rules-compiler-typescript", "compiler-config.json"); paths[4] != want {
		t.Errorf("paths[4] = %q, want %q", paths[4], want)
	}
	if last := paths[len(paths)-1]; last != filepath.Join("work", "compiler-config.toml") {
		t.Errorf("last = %q", last)
	}
	if len(paths) != 16 {
		t.Errorf("len = %d, want 16", len(paths))
	}
}

func TestFindDefaultPrefersStartDir(t *testing.T) {
	root := t.TempDir()
	start := filepath.Join(root, "repo")
	sibling := filepath.Join(start, "src", "filter-compiler")
	if err := os.MkdirAll(sibling, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sibling, "compiler-config.json", "{}")
	writeFile(t, start, "compiler-config.toml", "")

	got, err := FindDefault(start)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(start, "compiler-config.toml") {
		t.Errorf("FindDefault = %q", got)
	}
}

func TestFindDefaultSiblingAndParent(t *testing.T) {
	root := t.TempDir()
	start := filepath.Join(root, "repo")
	if err := os.MkdirAll(start, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "compiler-config.json", "{}")

	got, err := FindDefault(start)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Clean(got) != filepath.Join(root, "compiler-config.json") {
		t.Errorf("FindDefault = %q, want parent config", got)
	}
}

func TestFindDefaultNotFound(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "empty")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	_, err := FindDefault(dir)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFindDefaultSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	start := filepath.Join(root, "repo")
	if err := os.MkdirAll(filepath.Join(start, "compiler-config.json"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, start, "compiler-config.yml", "name: x\n")

	got, err := FindDefault(start)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "compiler-config.yml" {
		t.Errorf("FindDefault = %q", got)
	}
}
