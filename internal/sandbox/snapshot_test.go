package sandbox

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/toolprint/vibekit/internal/container"
)

func TestCaptureSnapshotSpoolsExportedBytes(t *testing.T) {
	mock := &container.Mock{
		ExportFunc: func(ctx context.Context, containerID string) (io.ReadCloser, func() error, error) {
			return io.NopCloser(bytes.NewReader([]byte("tar-payload"))), func() error { return nil }, nil
		},
	}
	snap, err := captureSnapshot(context.Background(), mock, "c-1")
	if err != nil {
		t.Fatalf("captureSnapshot: %v", err)
	}
	defer snap.discard()

	data, err := os.ReadFile(snap.path)
	if err != nil {
		t.Fatalf("reading spool file: %v", err)
	}
	if string(data) != "tar-payload" {
		t.Errorf("spooled data = %q, want tar-payload", data)
	}
}

func TestSnapshotRestoreWritesSpooledBytesIntoContainer(t *testing.T) {
	mock := &container.Mock{
		ExportFunc: func(ctx context.Context, containerID string) (io.ReadCloser, func() error, error) {
			return io.NopCloser(bytes.NewReader([]byte("tar-payload"))), func() error { return nil }, nil
		},
	}
	snap, err := captureSnapshot(context.Background(), mock, "c-1")
	if err != nil {
		t.Fatalf("captureSnapshot: %v", err)
	}
	defer snap.discard()

	var got []byte
	mock.CopyToFunc = func(ctx context.Context, containerID, destPath string, src io.Reader) error {
		b, err := io.ReadAll(src)
		got = b
		return err
	}
	if err := snap.restore(context.Background(), mock, "c-1", "/workspace"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if string(got) != "tar-payload" {
		t.Errorf("restored bytes = %q, want tar-payload", got)
	}
}

func TestNilSnapshotRestoreIsNoOp(t *testing.T) {
	var snap *Snapshot
	if err := snap.restore(context.Background(), &container.Mock{}, "c-1", "/workspace"); err != nil {
		t.Errorf("restore on nil snapshot: %v", err)
	}
}

func TestSnapshotDiscardRemovesSpoolFile(t *testing.T) {
	mock := &container.Mock{
		ExportFunc: func(ctx context.Context, containerID string) (io.ReadCloser, func() error, error) {
			return io.NopCloser(bytes.NewReader([]byte("x"))), func() error { return nil }, nil
		},
	}
	snap, err := captureSnapshot(context.Background(), mock, "c-1")
	if err != nil {
		t.Fatalf("captureSnapshot: %v", err)
	}
	path := snap.path
	snap.discard()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected spool file to be removed, stat err = %v", err)
	}
	snap.discard()
}
