package cmd

import (
	"testing"

	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/settings"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{2684354560, "2.5 GB"},
	}

	for _, tt := range tests {
		got := humanSize(tt.bytes)
		if got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestPipelineOptions(t *testing.T) {
	s := settings.Defaults()
	s.ConfigPath = "cfg.yaml"
	s.OutputPath = "out.txt"
	s.Format = "yml"
	s.Validate = false
	s.CopyToRules = true
	s.RulesDir = "rules"
	s.ArchiveKeep = 3
	s.VerifySources = true

	opts, err := pipelineOptions(s)
	if err != nil {
		t.Fatalf("pipelineOptions: %v", err)
	}
	if opts.Format != config.FormatYAML {
		t.Errorf("Format = %q, want %q", opts.Format, config.FormatYAML)
	}
	if !opts.SkipValidation {
		t.Error("expected SkipValidation when Validate is false")
	}
	if !opts.CopyToRules || opts.RulesDir != "rules" || opts.RulesFile != s.RulesFile {
		t.Errorf("publish options = %v %q %q", opts.CopyToRules, opts.RulesDir, opts.RulesFile)
	}
	if opts.ArchiveKeep != 3 {
		t.Errorf("ArchiveKeep = %d, want 3", opts.ArchiveKeep)
	}
	if !opts.VerifySources {
		t.Error("VerifySources not carried over")
	}
}

func TestPipelineOptionsBadFormat(t *testing.T) {
	s := settings.Defaults()
	s.Format = "ini"
	if _, err := pipelineOptions(s); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRecordPath(t *testing.T) {
	saved := st
	t.Cleanup(func() { st = saved })

	st = settings.Defaults()
	if _, err := recordPath(nil); err == nil {
		t.Error("expected error with no record, lock file or output")
	}

	st.OutputPath = "/tmp/out.txt"
	got, err := recordPath(nil)
	if err != nil || got != "/tmp/out.txt.lock.yaml" {
		t.Errorf("recordPath() = %q, %v; want /tmp/out.txt.lock.yaml", got, err)
	}

	st.LockPath = "/tmp/rec.yaml"
	if got, _ := recordPath(nil); got != "/tmp/rec.yaml" {
		t.Errorf("recordPath() = %q, want /tmp/rec.yaml", got)
	}
	if got, _ := recordPath([]string{"arg.yaml"}); got != "arg.yaml" {
		t.Errorf("recordPath(arg) = %q, want arg.yaml", got)
	}
}
