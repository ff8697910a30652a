package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/toolprint/vibekit/internal/container"
)

// Snapshot holds a captured workspace as a tar stream spooled to a temp
// file, the same shape `docker export` produces and `docker cp` consumes.
// No tar parsing library is needed: the bytes are opaque to this package,
// only ever replayed back into a container.
type Snapshot struct {
	path string
}

// captureSnapshot exports containerID's filesystem into a fresh temp file
// and returns a Snapshot wrapping it.
func captureSnapshot(ctx context.Context, client container.Client, containerID string) (*Snapshot, error) {
	rc, closeFn, err := client.Export(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("sandbox: exporting workspace snapshot: %w", err)
	}
	defer closeFn()
	defer rc.Close()

	f, err := os.CreateTemp("", "vibekit-snapshot-*.tar")
	if err != nil {
		return nil, fmt.Errorf("sandbox: creating snapshot spool file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("sandbox: spooling workspace snapshot: %w", err)
	}
	return &Snapshot{path: f.Name()}, nil
}

// restore writes the snapshot into destPath inside containerID via
// `docker cp`'s write direction.
func (s *Snapshot) restore(ctx context.Context, client container.Client, containerID, destPath string) error {
	if s == nil {
		return nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("sandbox: reopening workspace snapshot: %w", err)
	}
	defer f.Close()
	if err := client.CopyTo(ctx, containerID, destPath, f); err != nil {
		return fmt.Errorf("sandbox: restoring workspace snapshot: %w", err)
	}
	return nil
}

// discard removes the snapshot's spool file. Safe to call on a nil
// Snapshot or to call twice.
func (s *Snapshot) discard() {
	if s == nil || s.path == "" {
		return
	}
	os.Remove(s.path)
	s.path = ""
}
