package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupDefinitionsRepo initializes a Loam repository in a temp dir and writes
// files into it, keyed by their path relative to the repository root.
// It returns the absolute root and the repository, failing the test on error.
func SetupDefinitionsRepo(t *testing.T, files map[string]string, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "failed to resolve temp dir")

	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "failed to init loam repo")

	WriteFiles(t, dir, files)
	return dir, repo
}

// WriteFiles writes each file under dir, creating parent directories.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
