package cmd

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/lock"
	"github.com/jaypatrick/ad-blocking-sub007/internal/settings"
)

const fakeEngine = `#!/bin/sh
while [ $# -gt 0 ]; do
	case "$1" in
		--output) out="$2"; shift ;;
	esac
	shift
done
printf '! compiled\n||ads.example.com^\n\n||tracker.example.net^\n' > "$out"
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// withSettings installs s as the resolved settings for the test.
func withSettings(t *testing.T, s settings.Settings) {
	t.Helper()
	saved := st
	st = s
	t.Cleanup(func() { st = saved })
}

func quietSettings(configPath string) settings.Settings {
	s := settings.Defaults()
	s.ConfigPath = configPath
	s.Quiet = true
	return s
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compiler-config.yaml")
	writeFile(t, path, "name: Test\nsources:\n  - source: list.txt\n")

	s := quietSettings(path)
	withSettings(t, s)
	if err := runValidate(s); err != nil {
		t.Fatalf("runValidate: %v", err)
	}
}

func TestRunValidateErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compiler-config.json")
	writeFile(t, path, `{"sources": [{"source": "list.txt", "type": "bogus"}], "transformations": ["Nope"]}`)

	s := quietSettings(path)
	withSettings(t, s)
	err := runValidate(s)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "3 error(s)") {
		t.Errorf("error = %q, want 3 errors", err)
	}
}

func TestRunValidateFailOnWarnings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compiler-config.toml")
	writeFile(t, path, "name = \"Test\"\nexclusions = [\"/[unclosed/\"]\n\n[[sources]]\nsource = \"list.txt\"\n")

	s := quietSettings(path)
	withSettings(t, s)
	if err := runValidate(s); err != nil {
		t.Fatalf("warnings alone should pass: %v", err)
	}

	s.FailOnWarnings = true
	withSettings(t, s)
	if err := runValidate(s); err == nil {
		t.Fatal("expected failure with fail-on-warnings")
	}
}

func TestCompileOnceWithScriptEngine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell engine requires a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "engine.sh")
	writeFile(t, script, fakeEngine)
	cfgPath := filepath.Join(dir, "src", "config", "compiler-config.json")
	writeFile(t, cfgPath, `{"name": "Script", "sources": [{"source": "list.txt"}]}`)

	s := quietSettings(cfgPath)
	s.Engine = "sh " + script
	s.OutputPath = filepath.Join(dir, "out", "list.txt")
	s.CopyToRules = true
	s.LockPath = filepath.Join(dir, "out", "list.lock.yaml")
	s.MetricsFile = filepath.Join(dir, "metrics.prom")
	withSettings(t, s)

	result, err := compileOnce(context.Background(), s)
	if err != nil {
		t.Fatalf("compileOnce: %v", err)
	}
	if !result.Success {
		t.Fatalf("run failed: %s", result.ErrorMessage)
	}
	if result.RuleCount != 2 {
		t.Errorf("RuleCount = %d, want 2", result.RuleCount)
	}
	if len(result.OutputHash) != 96 {
		t.Errorf("OutputHash length = %d, want 96", len(result.OutputHash))
	}

	copied := filepath.Join(dir, "rules", settings.Defaults().RulesFile)
	if !result.CopiedToRules || result.RulesDestination != copied {
		t.Errorf("copy = %v to %q, want true to %q", result.CopiedToRules, result.RulesDestination, copied)
	}

	rec, err := lock.Load(s.LockPath)
	if err != nil {
		t.Fatalf("loading record: %v", err)
	}
	if rec.Output.SHA384 != result.OutputHash {
		t.Errorf("record hash = %q, want %q", rec.Output.SHA384, result.OutputHash)
	}

	data, err := os.ReadFile(s.MetricsFile)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	if !strings.Contains(string(data), "rules_compiler_runs_total") {
		t.Errorf("metrics file missing runs counter:\n%s", data)
	}
}

func TestCompileOnceEngineFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell engine requires a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "engine.sh")
	writeFile(t, script, "#!/bin/sh\necho 'boom' >&2\nexit 3\n")
	cfgPath := filepath.Join(dir, "compiler-config.json")
	writeFile(t, cfgPath, `{"name": "Broken", "sources": [{"source": "list.txt"}]}`)

	s := quietSettings(cfgPath)
	s.Engine = "sh " + script
	s.OutputPath = filepath.Join(dir, "out.txt")
	withSettings(t, s)

	result, err := compileOnce(context.Background(), s)
	if err != nil {
		t.Fatalf("compileOnce: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.CompilerOutput, "boom") {
		t.Errorf("CompilerOutput = %q, want engine stderr", result.CompilerOutput)
	}
}

func TestWatchPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Configuration{
		Name: "Watch",
		Sources: []config.Source{
			{Source: "lists/a.txt", ExclusionsSources: []string{"exclusions.txt"}},
			{Source: "https://example.com/list.txt"},
			{Source: "missing/b.txt"},
		},
		InclusionsSources: []string{"exclusions.txt", "https://example.com/allow.txt"},
		SourcePath:        filepath.Join(dir, "compiler-config.yaml"),
	}
	if err := os.Mkdir(filepath.Join(dir, "lists"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := watchPaths(cfg)
	want := []string{
		cfg.SourcePath,
		filepath.Join(dir, "lists", "a.txt"),
		filepath.Join(dir, "exclusions.txt"),
	}
	if len(got) != len(want) {
		t.Fatalf("watchPaths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("watchPaths[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
