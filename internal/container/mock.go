package container

import (
	"context"
	"io"
	"strings"

	"github.com/toolprint/vibekit/internal/container/options"
	"github.com/toolprint/vibekit/internal/container/types"
)

// Mock is a hand-rolled Client test double: every method delegates to an
// optional function field and falls back to a harmless default, the same
// pattern the sandbox lifecycle tests use for container operations.
type Mock struct {
	CreateFunc        func(ctx context.Context, opts *options.CreateContainer, image string, args []string) (string, error)
	StartFunc         func(ctx context.Context, opts *options.StartContainer, containerID string) error
	StopFunc          func(ctx context.Context, opts *options.StopContainer, containerID string) error
	KillFunc          func(ctx context.Context, opts *options.KillContainer, containerID string) error
	RemoveFunc        func(ctx context.Context, opts *options.RemoveContainer, containerID string) error
	ExecFunc          func(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, args ...string) (string, error)
	ExecStreamFunc    func(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, stdin io.Reader, stdout, stderr io.Writer, args ...string) (func() error, error)
	InspectFunc       func(ctx context.Context, containerID string) ([]types.Container, error)
	ExportFunc        func(ctx context.Context, containerID string) (io.ReadCloser, func() error, error)
	CopyFromFunc      func(ctx context.Context, containerID, srcPath string) (io.ReadCloser, func() error, error)
	CopyToFunc        func(ctx context.Context, containerID, destPath string, src io.Reader) error
	ListImagesFunc    func(ctx context.Context) ([]types.ImageEntry, error)
	InspectImageFunc  func(ctx context.Context, ref string) (*types.ImageInspect, error)
	PullFunc          func(ctx context.Context, opts *options.PullOptions, ref string) error
	PushFunc          func(ctx context.Context, opts *options.PushOptions, ref string) error
	BuildFunc         func(ctx context.Context, opts *options.BuildOptions, contextDir string) error
	TagFunc           func(ctx context.Context, src, dst string) error
	CheckLoginFunc    func(ctx context.Context, registryHost string) (bool, error)
}

var _ Client = (*Mock)(nil)

func (m *Mock) Create(ctx context.Context, opts *options.CreateContainer, image string, args []string) (string, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, opts, image, args)
	}
	return "mock-container-id", nil
}

func (m *Mock) Start(ctx context.Context, opts *options.StartContainer, containerID string) error {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, opts, containerID)
	}
	return nil
}

func (m *Mock) Stop(ctx context.Context, opts *options.StopContainer, containerID string) error {
	if m.StopFunc != nil {
		return m.StopFunc(ctx, opts, containerID)
	}
	return nil
}

func (m *Mock) Kill(ctx context.Context, opts *options.KillContainer, containerID string) error {
	if m.KillFunc != nil {
		return m.KillFunc(ctx, opts, containerID)
	}
	return nil
}

func (m *Mock) Remove(ctx context.Context, opts *options.RemoveContainer, containerID string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, opts, containerID)
	}
	return nil
}

func (m *Mock) Exec(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, args ...string) (string, error) {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, opts, containerID, cmd, args...)
	}
	return "", nil
}

func (m *Mock) ExecStream(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, stdin io.Reader, stdout, stderr io.Writer, args ...string) (func() error, error) {
	if m.ExecStreamFunc != nil {
		return m.ExecStreamFunc(ctx, opts, containerID, cmd, stdin, stdout, stderr, args...)
	}
	return func() error { return nil }, nil
}

func (m *Mock) Inspect(ctx context.Context, containerID string) ([]types.Container, error) {
	if m.InspectFunc != nil {
		return m.InspectFunc(ctx, containerID)
	}
	return nil, nil
}

func (m *Mock) Export(ctx context.Context, containerID string) (io.ReadCloser, func() error, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, containerID)
	}
	return io.NopCloser(strings.NewReader("")), func() error { return nil }, nil
}

func (m *Mock) CopyFrom(ctx context.Context, containerID, srcPath string) (io.ReadCloser, func() error, error) {
	if m.CopyFromFunc != nil {
		return m.CopyFromFunc(ctx, containerID, srcPath)
	}
	return io.NopCloser(strings.NewReader("")), func() error { return nil }, nil
}

func (m *Mock) CopyTo(ctx context.Context, containerID, destPath string, src io.Reader) error {
	if m.CopyToFunc != nil {
		return m.CopyToFunc(ctx, containerID, destPath, src)
	}
	return nil
}

func (m *Mock) ListImages(ctx context.Context) ([]types.ImageEntry, error) {
	if m.ListImagesFunc != nil {
		return m.ListImagesFunc(ctx)
	}
	return nil, nil
}

func (m *Mock) InspectImage(ctx context.Context, ref string) (*types.ImageInspect, error) {
	if m.InspectImageFunc != nil {
		return m.InspectImageFunc(ctx, ref)
	}
	return nil, nil
}

func (m *Mock) Pull(ctx context.Context, opts *options.PullOptions, ref string) error {
	if m.PullFunc != nil {
		return m.PullFunc(ctx, opts, ref)
	}
	return nil
}

func (m *Mock) Push(ctx context.Context, opts *options.PushOptions, ref string) error {
	if m.PushFunc != nil {
		return m.PushFunc(ctx, opts, ref)
	}
	return nil
}

func (m *Mock) Build(ctx context.Context, opts *options.BuildOptions, contextDir string) error {
	if m.BuildFunc != nil {
		return m.BuildFunc(ctx, opts, contextDir)
	}
	return nil
}

func (m *Mock) Tag(ctx context.Context, src, dst string) error {
	if m.TagFunc != nil {
		return m.TagFunc(ctx, src, dst)
	}
	return nil
}

func (m *Mock) CheckLogin(ctx context.Context, registryHost string) (bool, error) {
	if m.CheckLoginFunc != nil {
		return m.CheckLoginFunc(ctx, registryHost)
	}
	return true, nil
}
