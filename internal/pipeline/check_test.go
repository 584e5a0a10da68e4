package pipeline

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jaypatrick/ad-blocking-sub007/internal/artifact"
	"github.com/jaypatrick/ad-blocking-sub007/internal/lock"
)

func writeRecord(t *testing.T, dir, output, hash string, rules int) string {
	t.Helper()
	path := filepath.Join(dir, "out.txt.lock.yaml")
	rec := &lock.Record{
		Version:    lock.CurrentVersion,
		Name:       "Test",
		Output:     lock.Output{Path: output, SHA384: hash, Rules: rules},
		CompiledAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := lock.Save(path, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func TestCheckHashIgnoresCase(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.txt")
	writeFile(t, output, localRules)
	hash, err := artifact.ComputeHash(output)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Check(writeRecord(t, dir, output, strings.ToUpper(hash), 5))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.Clean || len(result.Drifted) != 0 {
		t.Errorf("upper-case record hash reported drift: %+v", result.Drifted)
	}
}

func TestCheckReportsActualHash(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.txt")
	writeFile(t, output, localRules)
	actual, err := artifact.ComputeHash(output)
	if err != nil {
		t.Fatal(err)
	}
	recorded := strings.Repeat("0", 96)

	result, err := Check(writeRecord(t, dir, output, recorded, 5))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Clean || len(result.Drifted) != 1 {
		t.Fatalf("Drifted = %+v, want one sha384 entry", result.Drifted)
	}
	d := result.Drifted[0]
	if d.Field != "sha384" || d.Expected != recorded || d.Actual != actual {
		t.Errorf("drift = %+v", d)
	}
}
