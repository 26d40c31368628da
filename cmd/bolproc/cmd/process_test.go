package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestValidateFileExists(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		expectErr bool
	}{
		{"existing file", existing, false},
		{"missing file", filepath.Join(dir, "missing.pdf"), true},
		{"directory", dir, true},
		{"empty path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.path, "test file")
			if tt.expectErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateProcessFlags(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdf, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tests := []struct {
		name      string
		pdf       string
		pagesDir  string
		expectErr bool
	}{
		{"neither input", "", "", true},
		{"both inputs", pdf, dir, true},
		{"pdf only", pdf, "", false},
		{"pages dir only", "", dir, false},
		{"missing pdf", filepath.Join(dir, "nope.pdf"), "", true},
		{"missing pages dir", "", filepath.Join(dir, "nope"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set("pdf", tt.pdf)
			viper.Set("pages-dir", tt.pagesDir)
			defer viper.Reset()

			err := validateProcessFlags(processCmd, nil)
			if tt.expectErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadPageSourcesNumericOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"10.txt", "2.txt", "1.txt", "notes.md", "x.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content of "+name), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	sources, err := loadPageSources(dir)
	if err != nil {
		t.Fatalf("loadPageSources() error: %v", err)
	}

	// Non-numeric and non-txt files are ignored; the rest sort by page
	// number, not lexically.
	want := []string{"1.txt", "2.txt", "10.txt"}
	if len(sources) != len(want) {
		t.Fatalf("loaded %d sources, want %d", len(sources), len(want))
	}
	for i, name := range want {
		if sources[i].Name != name {
			t.Errorf("source %d = %s, want %s", i, sources[i].Name, name)
		}
	}
	if sources[2].Content != "content of 10.txt" {
		t.Errorf("unexpected content: %q", sources[2].Content)
	}
}

func TestProcessCommandHelp(t *testing.T) {
	if processCmd.Use != "process" {
		t.Errorf("command use = %q, want process", processCmd.Use)
	}
	if processCmd.Short == "" {
		t.Error("process command missing short description")
	}
	if processCmd.Flags().Lookup("pdf") == nil {
		t.Error("process command missing --pdf flag")
	}
	if processCmd.Flags().Lookup("pages-dir") == nil {
		t.Error("process command missing --pages-dir flag")
	}
}
