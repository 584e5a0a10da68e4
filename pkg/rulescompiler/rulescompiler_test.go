package rulescompiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes a minimal valid config with one local source and
// returns its path.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "compiler-config.yaml")
	content := `name: Library Test
version: "1.0"
sources:
  - source: local.txt
    type: adblock
transformations:
  - Deduplicate
  - RemoveEmptyLines
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "local.txt"), []byte("||a.example^\n||b.example^\n! comment\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

// copyEngine copies local.txt to the output, standing in for hostlist-compiler.
type copyEngine struct {
	calls int
}

func (e *copyEngine) Invoke(_ context.Context, inv Invocation) (*Execution, error) {
	e.calls++
	data, err := os.ReadFile(filepath.Join(inv.WorkDir, "local.txt"))
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(inv.OutputPath, data, 0644); err != nil {
		return nil, err
	}
	return &Execution{}, nil
}

func TestClientCompile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	engine := &copyEngine{}

	client, err := New(Options{ConfigPath: cfgPath, Engine: engine, ArchiveDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lockPath := filepath.Join(dir, "out.txt.lock.yaml")
	result := client.Compile(context.Background(), CompileOptions{
		OutputPath: filepath.Join(dir, "out.txt"),
		LockPath:   lockPath,
	})
	if !result.Success {
		t.Fatalf("Compile failed: %s", result.ErrorMessage)
	}
	if engine.calls != 1 {
		t.Errorf("engine calls = %d, want 1", engine.calls)
	}
	if result.RuleCount != 2 {
		t.Errorf("RuleCount = %d, want 2", result.RuleCount)
	}
	if result.ConfigFormat != FormatYAML || result.ConfigVersion != "1.0" {
		t.Errorf("config = %s %s", result.ConfigFormat, result.ConfigVersion)
	}
	if result.ArchivedPath == "" {
		t.Error("artifact was not archived")
	}

	hash, err := ComputeHash(result.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if hash != result.OutputHash {
		t.Errorf("ComputeHash = %s, result hash = %s", hash, result.OutputHash)
	}

	check, err := client.Check(lockPath)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !check.Clean {
		t.Errorf("Check = %+v", check)
	}
}

func TestClientValidate(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "compiler-config.toml")
	content := `name = ""
[[sources]]
source = "local.txt"
type = "zone"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	client, err := New(Options{ConfigPath: cfgPath, Engine: &copyEngine{}})
	if err != nil {
		t.Fatal(err)
	}
	vr, err := client.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(vr.Errors) != 2 {
		t.Fatalf("errors = %v, want name and sources[0].type", vr.Errors)
	}
	if vr.Errors[0].Field != "name" || vr.Errors[1].Field != "sources[0].type" {
		t.Errorf("fields = %s, %s", vr.Errors[0].Field, vr.Errors[1].Field)
	}
}

func TestClientCompileInvalidNeverInvokes(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "compiler-config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"name": "x", "sources": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	engine := &copyEngine{}
	client, err := New(Options{ConfigPath: cfgPath, Engine: engine})
	if err != nil {
		t.Fatal(err)
	}

	result := client.Compile(context.Background(), CompileOptions{})
	if result.Success || !errors.Is(result.Err, ErrValidationFailed) {
		t.Errorf("Success=%v Err=%v", result.Success, result.Err)
	}
	if engine.calls != 0 {
		t.Errorf("engine invoked %d times", engine.calls)
	}
}

func TestClientMissingConfig(t *testing.T) {
	client, err := New(Options{ConfigPath: filepath.Join(t.TempDir(), "nope.json"), Engine: &copyEngine{}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Validate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
