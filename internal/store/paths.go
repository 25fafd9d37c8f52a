package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/stairwalk/internal/config"
)

// GlobalStatePath returns the path to the per-user state directory.
// On Unix: ~/.stairwalk
// On Windows: %USERPROFILE%\.stairwalk
func GlobalStatePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, config.DirName), nil
}

// LocalStatePath returns the path to the state directory for the given
// project root.
func LocalStatePath(projectRoot string) string {
	return filepath.Join(projectRoot, config.DirName)
}

// OpenLocal opens the SQLite run history under projectRoot.
func OpenLocal(projectRoot string) (*SQLiteRunStore, error) {
	return NewSQLiteRunStore(LocalStatePath(projectRoot))
}
