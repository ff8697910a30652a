package registry

import (
	"context"
	"fmt"

	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// hubProvider is the default public-registry implementation. Namespace
// equals the user; there is no repository-creation step.
type hubProvider struct {
	base
}

func NewHubProvider(client container.Client) Provider {
	return &hubProvider{base: base{client: client}}
}

func (p *hubProvider) CheckLogin(ctx context.Context) (LoginStatus, error) {
	loggedIn, err := p.client.CheckLogin(ctx, "")
	if err != nil {
		return LoginStatus{}, fmt.Errorf("registry(hub): check login: %w", err)
	}
	return LoginStatus{LoggedIn: loggedIn, Registry: "hub"}, nil
}

// Login is idempotent: the hub relies on credentials already present in
// the local docker config, so there is nothing additional to do beyond
// confirming they exist.
func (p *hubProvider) Login(ctx context.Context, user string) error {
	status, err := p.CheckLogin(ctx)
	if err != nil {
		return err
	}
	if !status.LoggedIn {
		return fmt.Errorf("registry(hub): %w: run `docker login` first", errAuthRequired)
	}
	return nil
}

func (p *hubProvider) ImageNameFor(kind agentkind.Kind, user string) (agentkind.ImageRef, bool) {
	if user == "" {
		return agentkind.ImageRef{}, false
	}
	return agentkind.ImageRef{Namespace: user, Repository: kind.Repository(), Tag: "latest"}, true
}

func (p *hubProvider) UploadImages(ctx context.Context, user string, kinds []agentkind.Kind) (UploadReport, error) {
	return uploadViaPushTag(ctx, p, p.client, user, kinds)
}

func (p *hubProvider) RegistryURL() string { return "docker.io" }

func (p *hubProvider) RegistryKindName() agentkind.RegistryKind { return agentkind.Hub }
