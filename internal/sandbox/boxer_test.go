package sandbox

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/toolprint/vibekit/internal/config"
	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/internal/container/options"
	"github.com/toolprint/vibekit/internal/container/types"
	"github.com/toolprint/vibekit/internal/registry"
	"github.com/toolprint/vibekit/internal/resolver"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// fakeProvider is a minimal registry.Provider double, enough to satisfy
// resolver.New without exercising any registry behavior in these tests.
type fakeProvider struct{}

func (fakeProvider) CheckLogin(ctx context.Context) (registry.LoginStatus, error) {
	return registry.LoginStatus{}, nil
}
func (fakeProvider) Login(ctx context.Context, user string) error { return nil }
func (fakeProvider) ImageNameFor(kind agentkind.Kind, user string) (agentkind.ImageRef, bool) {
	return agentkind.ImageRef{}, false
}
func (fakeProvider) UploadImages(ctx context.Context, user string, kinds []agentkind.Kind) (registry.UploadReport, error) {
	return registry.UploadReport{}, nil
}
func (fakeProvider) Pull(ctx context.Context, ref agentkind.ImageRef) error { return nil }
func (fakeProvider) ImageExistsLocally(ctx context.Context, ref agentkind.ImageRef) (bool, error) {
	return false, nil
}
func (fakeProvider) RegistryURL() string                     { return "hub.example" }
func (fakeProvider) RegistryKindName() agentkind.RegistryKind { return agentkind.Hub }

func newTestResolver(t *testing.T, client container.Client) *resolver.Resolver {
	t.Helper()
	mgr, err := registry.NewManager(map[agentkind.RegistryKind]registry.Provider{
		agentkind.Hub: fakeProvider{},
	}, agentkind.Hub)
	if err != nil {
		t.Fatalf("registry.NewManager: %v", err)
	}
	store, err := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	res, err := resolver.New(client, mgr, store, "")
	if err != nil {
		t.Fatalf("resolver.New: %v", err)
	}
	return res
}

func TestBoxerCreateStartsContainerAndResolvesImage(t *testing.T) {
	var startedID string
	var resolvedTag string
	mock := &container.Mock{
		InspectImageFunc: func(ctx context.Context, ref string) (*types.ImageInspect, error) {
			resolvedTag = ref
			return &types.ImageInspect{}, nil
		},
		CreateFunc: func(ctx context.Context, opts *options.CreateContainer, image string, args []string) (string, error) {
			resolvedTag = image
			return "c-created", nil
		},
		StartFunc: func(ctx context.Context, opts *options.StartContainer, containerID string) error {
			startedID = containerID
			return nil
		},
	}
	res := newTestResolver(t, mock)
	boxer := New(mock, res)

	kind := agentkind.A1
	box, err := boxer.Create(context.Background(), map[string]string{"FOO": "bar"}, &kind, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if startedID != "c-created" {
		t.Errorf("Start called with containerID %q, want c-created", startedID)
	}
	if resolvedTag != "vibekit-a1:latest" {
		t.Errorf("resolved image tag = %q, want vibekit-a1:latest", resolvedTag)
	}
	if box.record.WorkDir != defaultWorkDir {
		t.Errorf("box.record.WorkDir = %q, want %q", box.record.WorkDir, defaultWorkDir)
	}
	if box.record.EnvVars["VIBEKIT_AGENT_KIND"] != "a1" {
		t.Errorf("expected agent-kind env var to be set by the workspace cloner")
	}
	if box.record.EnvVars["FOO"] != "bar" {
		t.Errorf("expected caller-supplied env to be preserved")
	}

	got, err := boxer.Get(box.ID())
	if err != nil || got != box {
		t.Errorf("Get(%s) = %v, %v, want the created box", box.ID(), got, err)
	}
	if len(boxer.List()) != 1 {
		t.Errorf("List() returned %d boxes, want 1", len(boxer.List()))
	}
}

func TestFriendlyNameIsStableForTheSameID(t *testing.T) {
	a := friendlyName("vbx-a1-abc-def123")
	b := friendlyName("vbx-a1-abc-def123")
	if a != b {
		t.Errorf("friendlyName is not stable: %q vs %q", a, b)
	}
	if friendlyName("vbx-a1-abc-zzz999") == a {
		t.Error("expected different ids to very likely produce different friendly names")
	}
}

func TestBoxerResumeCreatesFreshContainerForUnknownID(t *testing.T) {
	mock := &container.Mock{}
	res := newTestResolver(t, mock)
	boxer := New(mock, res)

	box, err := boxer.Resume(context.Background(), "vbx-default-ancient-000000")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if box.ID() != "vbx-default-ancient-000000" {
		t.Errorf("Resume should bind to the supplied id, got %s", box.ID())
	}
}

func TestBoxerDeleteRemovesContainerAndForgetsBox(t *testing.T) {
	removed := false
	mock := &container.Mock{
		RemoveFunc: func(ctx context.Context, opts *options.RemoveContainer, containerID string) error {
			removed = true
			return nil
		},
	}
	res := newTestResolver(t, mock)
	boxer := New(mock, res)

	box, err := boxer.Create(context.Background(), nil, nil, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := boxer.Delete(context.Background(), box.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !removed {
		t.Error("expected Delete to call client.Remove")
	}
	if _, err := boxer.Get(box.ID()); err != ErrNotFound {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}
