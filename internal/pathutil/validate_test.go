package pathutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidateOutputPath(t *testing.T) {
	allowed := t.TempDir()
	other := t.TempDir()

	sub := filepath.Join(allowed, "plots")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		allowedDirs []string
		errContains string
	}{
		{"file in allowed dir", filepath.Join(allowed, "ends.png"), []string{allowed}, ""},
		{"file in subdirectory", filepath.Join(sub, "ends.svg"), []string{allowed}, ""},
		{"file in missing subdirectory", filepath.Join(allowed, "new", "deep", "walks.arrow"), []string{allowed}, ""},
		{"allowed dir itself", allowed, []string{allowed}, ""},
		{"second allowed dir", filepath.Join(other, "x.png"), []string{allowed, other}, ""},
		{"dot-dot escape", filepath.Join(allowed, "..", "etc", "passwd"), []string{allowed}, "outside"},
		{"other directory", filepath.Join(other, "x.png"), []string{allowed}, "outside"},
		{"sibling with shared prefix", allowed + "-evil/x.png", []string{allowed}, "outside"},
		{"empty path", "", []string{allowed}, "empty"},
		{"null byte", filepath.Join(allowed, "a\x00b"), []string{allowed}, "null byte"},
		{"no allowed dirs", filepath.Join(allowed, "x.png"), nil, "no allowed directories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.path, tt.allowedDirs)
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("ValidateOutputPath() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateOutputPath() expected error containing %q", tt.errContains)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, want it to contain %q", err, tt.errContains)
			}
		})
	}
}

func TestValidateOutputPath_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on Windows")
	}

	allowed := t.TempDir()
	outside := t.TempDir()

	escape := filepath.Join(allowed, "escape")
	if err := os.Symlink(outside, escape); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	if err := ValidateOutputPath(filepath.Join(escape, "ends.png"), []string{allowed}); err == nil {
		t.Error("expected error for a symlink leaving the allowed dir")
	}

	real := filepath.Join(allowed, "real")
	if err := os.MkdirAll(real, 0700); err != nil {
		t.Fatal(err)
	}
	inside := filepath.Join(allowed, "inside")
	if err := os.Symlink(real, inside); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	if err := ValidateOutputPath(filepath.Join(inside, "ends.png"), []string{allowed}); err != nil {
		t.Errorf("symlink within the allowed dir rejected: %v", err)
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"ends.png", "ends.png"},
		{"/ends.png", "ends.png"},
		{"/home/user/.stairwalk/exports/run.arrow", ".../exports/run.arrow"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := RedactPath(tt.input); got != tt.want {
				t.Errorf("RedactPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAllowedOutputDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	root := t.TempDir()

	dirs, err := AllowedOutputDirs(root)
	if err != nil {
		t.Fatalf("AllowedOutputDirs() error = %v", err)
	}
	want := []string{root, filepath.Join(home, ".stairwalk", "exports")}
	if len(dirs) != len(want) {
		t.Fatalf("dirs = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("dirs[%d] = %q, want %q", i, dirs[i], want[i])
		}
	}
}
