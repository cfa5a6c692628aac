// Package storage provides the scoped temporary workspace used during a
// pipeline run and optional S3 publication of final outputs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a temporary directory scoped to a single pipeline run. All
// intermediate files (normalized input, detection output, per-segment
// slices and their processed replacements) live here, and the whole tree is
// removed on Close regardless of how the run ended.
//
// Path generation is safe for concurrent use so segment processing may be
// parallelized without file-name collisions.
type Workspace struct {
	dir string

	mu     sync.Mutex
	closed bool
}

// NewWorkspace creates a workspace under baseDir (os.TempDir() if empty)
// with the given directory-name prefix.
func NewWorkspace(baseDir, prefix string) (*Workspace, error) {
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0750); err != nil {
			return nil, fmt.Errorf("storage: create workspace base: %w", err)
		}
	}

	dir, err := os.MkdirTemp(baseDir, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("storage: create workspace: %w", err)
	}

	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the path for name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Close removes the workspace and everything in it. It is idempotent.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("storage: remove workspace: %w", err)
	}
	return nil
}
