package storage

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkspace_CreatesDirectory(t *testing.T) {
	base := t.TempDir()

	ws, err := NewWorkspace(base, "smart_mute_")
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	info, err := os.Stat(ws.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, strings.HasPrefix(filepath.Base(ws.Dir()), "smart_mute_"))
	assert.Equal(t, base, filepath.Dir(ws.Dir()))
}

func TestNewWorkspace_CreatesMissingBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "work")

	ws, err := NewWorkspace(base, "run_")
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	assert.DirExists(t, base)
}

func TestNewWorkspace_DefaultsToTempDir(t *testing.T) {
	ws, err := NewWorkspace("", "run_")
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	assert.DirExists(t, ws.Dir())
}

func TestWorkspace_Path(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "run_")
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	assert.Equal(t, filepath.Join(ws.Dir(), "slice_000.wav"), ws.Path("slice_000.wav"))
}

func TestWorkspace_CloseRemovesContents(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "run_")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(ws.Path("intermediate.wav"), []byte("data"), 0o644))
	require.NoError(t, os.MkdirAll(ws.Path("nested"), 0o750))

	require.NoError(t, ws.Close())
	assert.NoDirExists(t, ws.Dir())
}

func TestWorkspace_CloseIsIdempotent(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "run_")
	require.NoError(t, err)

	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())
}

func TestWorkspace_CloseConcurrent(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "run_")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, ws.Close())
		}()
	}
	wg.Wait()
	assert.NoDirExists(t, ws.Dir())
}

func TestWorkspace_UniqueDirs(t *testing.T) {
	base := t.TempDir()

	a, err := NewWorkspace(base, "run_")
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	b, err := NewWorkspace(base, "run_")
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	assert.NotEqual(t, a.Dir(), b.Dir())
}
