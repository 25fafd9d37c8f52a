// Package pathutil confines files written on behalf of tool callers to
// known directories.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/stairwalk/internal/config"
)

// ExportsDir is the per-user directory exports may always be written to.
const ExportsDir = "exports"

// RedactPath shortens a path to .../<parent>/<base> for error messages.
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	base := filepath.Base(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ValidateOutputPath checks that path, once cleaned and with symlinks on its
// existing ancestors resolved, lies inside one of the allowed directories.
// The file itself need not exist.
func ValidateOutputPath(path string, allowedDirs []string) error {
	switch {
	case path == "":
		return fmt.Errorf("invalid output path: empty")
	case strings.ContainsRune(path, 0):
		return fmt.Errorf("invalid output path: contains null byte")
	case len(allowedDirs) == 0:
		return fmt.Errorf("invalid output path: no allowed directories")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	resolved, err := resolve(abs)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	for _, dir := range allowedDirs {
		allowed, err := filepath.Abs(filepath.Clean(dir))
		if err != nil {
			continue
		}
		if allowed, err = resolve(allowed); err != nil {
			continue
		}
		if within(resolved, allowed) {
			return nil
		}
	}

	return fmt.Errorf("invalid output path: %q is outside the allowed directories", RedactPath(abs))
}

// AllowedOutputDirs returns the directories a tool caller may write to:
// the project root and ~/.stairwalk/exports.
func AllowedOutputDirs(projectRoot string) ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{
		projectRoot,
		filepath.Join(homeDir, config.DirName, ExportsDir),
	}, nil
}

// resolve evaluates symlinks on the deepest existing ancestor of path and
// re-appends the missing tail.
func resolve(path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(path)
	if parent == path {
		return "", fmt.Errorf("cannot resolve %s", RedactPath(path))
	}
	resolvedParent, err := resolve(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

// within reports whether path is base or lies below it.
func within(path, base string) bool {
	if path == base {
		return true
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
