package pattern

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"example.org", KindExact},
		{"||ads.example.com^", KindExact},
		{"*.doubleclick.net", KindWildcard},
		{"/^ads?\\./", KindRegex},
		{"//", KindExact},
		{"/", KindExact},
		{"/*/", KindRegex},
		{"/partial", KindExact},
	}

	for _, tt := range tests {
		if got := Classify(tt.in); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseValidRegex(t *testing.T) {
	p, err := Parse("/^tracker[0-9]+\\.example\\.com$/")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Kind != KindRegex {
		t.Fatalf("Kind = %v, want regex", p.Kind)
	}
	if p.Regexp() == nil || !p.Regexp().MatchString("tracker42.example.com") {
		t.Error("compiled regex should match tracker42.example.com")
	}
}

func TestParseInvalidRegex(t *testing.T) {
	p, err := Parse("/(unclosed/")
	if err == nil {
		t.Fatal("expected error for unbalanced group")
	}
	if !errors.Is(err, ErrInvalidRegex) {
		t.Errorf("error should wrap ErrInvalidRegex: %v", err)
	}
	if p.Kind != KindRegex {
		t.Errorf("Kind = %v, want regex even on failure", p.Kind)
	}
}

func TestParseLookaheadUnsupported(t *testing.T) {
	// RE2 has no lookahead; such patterns are reported, not silently accepted.
	if _, err := Parse("/^(?!safe).*ads/"); err == nil {
		t.Fatal("expected error for lookahead")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse("   "); !errors.Is(err, ErrEmpty) {
		t.Errorf("Parse(blank) error = %v, want ErrEmpty", err)
	}
}

func TestParsePlainAndWildcard(t *testing.T) {
	for _, s := range []string{"example.com", "*.example.com", "ads*"} {
		if _, err := Parse(s); err != nil {
			t.Errorf("Parse(%q): %v", s, err)
		}
	}
}

func TestIsComment(t *testing.T) {
	if !IsComment("! Title: list") {
		t.Error("'!' line should be a comment")
	}
	if !IsComment("   ! indented") {
		t.Error("indented '!' line should be a comment")
	}
	if IsComment("example.com ! trailing") {
		t.Error("trailing '!' is not a comment")
	}
}
