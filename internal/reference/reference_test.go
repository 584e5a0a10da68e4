package reference

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.org/list.txt", true},
		{"HTTP://example.org/list.txt", true},
		{"ftp://example.org/list.txt", false},
		{"https://", false},
		{"lists/local.txt", false},
		{"/abs/path.txt", false},
		{"C:\\lists\\a.txt", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.in); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	if Classify("https://a.example/x") != KindURL {
		t.Error("expected url")
	}
	if Classify("x.txt") != KindLocal {
		t.Error("expected local")
	}
}

func TestResolve(t *testing.T) {
	base := filepath.Join("configs", "prod")
	if got := Resolve(base, "allow.txt"); got != filepath.Join(base, "allow.txt") {
		t.Errorf("relative = %q", got)
	}
	abs := filepath.Join(string(filepath.Separator), "srv", "allow.txt")
	if got := Resolve(base, abs); got != abs {
		t.Errorf("absolute = %q, want %q", got, abs)
	}
	if got := Resolve("", "allow.txt"); got != "allow.txt" {
		t.Errorf("no base = %q", got)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "present.txt"), []byte("a\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ok, err := Exists(OSFS{}, dir, "present.txt")
	if err != nil || !ok {
		t.Errorf("present: ok=%v err=%v", ok, err)
	}
	ok, err = Exists(OSFS{}, dir, "missing.txt")
	if err != nil || ok {
		t.Errorf("missing: ok=%v err=%v", ok, err)
	}
	ok, err = Exists(OSFS{}, dir, "https://example.org/remote.txt")
	if err != nil || !ok {
		t.Errorf("url: ok=%v err=%v", ok, err)
	}
}

func TestReadPatterns(t *testing.T) {
	dir := t.TempDir()
	content := "! exclusions\n\n  ads.example.com  \n! another\n/^track/\n*.doubleclick.net\n"
	if err := os.WriteFile(filepath.Join(dir, "exclusions.txt"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadPatterns(OSFS{}, dir, "exclusions.txt")
	if err != nil {
		t.Fatalf("ReadPatterns: %v", err)
	}
	want := []string{"ads.example.com", "/^track/", "*.doubleclick.net"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReadPatternsMissing(t *testing.T) {
	_, err := ReadPatterns(OSFS{}, t.TempDir(), "nope.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestReadPatternsRejectsURL(t *testing.T) {
	if _, err := ReadPatterns(OSFS{}, "", "https://example.org/x.txt"); err == nil {
		t.Error("expected error for remote reference")
	}
}
