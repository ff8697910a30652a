// Package registry implements the Registry Provider (C3) and Registry
// Manager (C4): pluggable, per-registry login detection, image-name
// synthesis, and upload orchestration over the three supported registry
// kinds (hub, forge, cloud).
package registry

import (
	"context"

	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// LoginStatus is the result of check_login.
type LoginStatus struct {
	LoggedIn bool
	User     string
	Registry string
}

// UploadResult is one entry of upload_images's per_agent_results.
type UploadResult struct {
	AgentKind agentkind.Kind
	Success   bool
	Error     error
	ImageRef  agentkind.ImageRef
}

// UploadReport is the full return value of upload_images.
type UploadReport struct {
	OverallSuccess bool
	PerAgent       []UploadResult
}

// Provider is the contract shared by all three registry implementations.
type Provider interface {
	CheckLogin(ctx context.Context) (LoginStatus, error)
	Login(ctx context.Context, user string) error
	ImageNameFor(kind agentkind.Kind, user string) (agentkind.ImageRef, bool)
	UploadImages(ctx context.Context, user string, kinds []agentkind.Kind) (UploadReport, error)
	Pull(ctx context.Context, ref agentkind.ImageRef) error
	ImageExistsLocally(ctx context.Context, ref agentkind.ImageRef) (bool, error)
	RegistryURL() string
	RegistryKindName() agentkind.RegistryKind
}

// base centralizes the client and image-existence check shared by all
// three providers, matching the teacher's pattern of embedding a small
// shared struct rather than duplicating plumbing per implementation.
type base struct {
	client container.Client
}

func (b base) Pull(ctx context.Context, ref agentkind.ImageRef) error {
	return b.client.Pull(ctx, nil, ref.String())
}

func (b base) ImageExistsLocally(ctx context.Context, ref agentkind.ImageRef) (bool, error) {
	_, err := b.client.InspectImage(ctx, ref.String())
	if err != nil {
		return false, nil
	}
	return true, nil
}
