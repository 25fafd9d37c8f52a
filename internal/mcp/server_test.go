package mcp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/stairwalk/internal/config"
	"github.com/nvandessel/stairwalk/internal/store"
)

// isolateHome sets HOME to a temp directory to avoid touching real ~/.stairwalk/
func isolateHome(t *testing.T, tmpDir string) {
	t.Helper()
	tmpHome := filepath.Join(tmpDir, "home")
	if err := os.MkdirAll(tmpHome, 0755); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", tmpHome)
}

// newTestServer builds a server backed by an in-memory run store.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Simulation.Trials = 50

	server, err := NewServer(&Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		Root:     t.TempDir(),
		Settings: cfg,
		Store:    store.NewInMemoryRunStore(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

func TestNewServer(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    tmpDir,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.server == nil {
		t.Error("Server.server is nil")
	}
	if server.store == nil {
		t.Error("Server.store is nil")
	}
	if server.settings == nil {
		t.Error("Server.settings is nil, want defaults")
	}
	if server.root != tmpDir {
		t.Errorf("Server.root = %q, want %q", server.root, tmpDir)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, config.DirName, store.DBFile)); err != nil {
		t.Errorf("expected database under project root: %v", err)
	}
}

func TestNewServer_UsesProvidedStore(t *testing.T) {
	mem := store.NewInMemoryRunStore()
	server, err := NewServer(&Config{Name: "test", Version: "v0", Root: t.TempDir(), Store: mem})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.store != mem {
		t.Error("server did not keep the provided store")
	}
}
