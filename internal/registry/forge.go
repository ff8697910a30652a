package registry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"

	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

const forgeHost = "ghcr.io"

// forgeTokenEnvVar is the environment variable a personal access token
// must be present in before Login succeeds.
const forgeTokenEnvVar = "VIBEKIT_FORGE_TOKEN"

// forgeProvider targets ghcr.io. Login and CheckLogin only look for a
// token in the environment. Unlike hub/cloud, UploadImages also talks to
// the registry HTTP API directly via go-containerregistry, for a
// post-push existence check, since the daemon has no generic "does this
// repo exist" query.
type forgeProvider struct {
	base
	user string
}

func NewForgeProvider(client container.Client) Provider {
	return &forgeProvider{base: base{client: client}}
}

func (p *forgeProvider) authenticator() (authn.Authenticator, error) {
	token := os.Getenv(forgeTokenEnvVar)
	if token == "" {
		return nil, fmt.Errorf("registry(forge): %w: %s is not set", errAuthRequired, forgeTokenEnvVar)
	}
	return &authn.Basic{Username: p.user, Password: token}, nil
}

func (p *forgeProvider) CheckLogin(ctx context.Context) (LoginStatus, error) {
	token := os.Getenv(forgeTokenEnvVar)
	if token == "" {
		return LoginStatus{LoggedIn: false, Registry: forgeHost}, nil
	}
	return LoginStatus{LoggedIn: true, User: p.user, Registry: forgeHost}, nil
}

// Login stores the username used for subsequent namespace synthesis and
// verifies a token is present in the environment. Idempotent: calling it
// twice with the same user is harmless.
func (p *forgeProvider) Login(ctx context.Context, user string) error {
	if user == "" {
		return fmt.Errorf("registry(forge): %w: a git user is required", errAuthRequired)
	}
	if _, err := p.authenticator(); err != nil {
		return err
	}
	p.user = strings.ToLower(user)
	return nil
}

func (p *forgeProvider) ImageNameFor(kind agentkind.Kind, user string) (agentkind.ImageRef, bool) {
	u := strings.ToLower(user)
	if u == "" {
		u = p.user
	}
	if u == "" {
		return agentkind.ImageRef{}, false
	}
	return agentkind.ImageRef{Host: forgeHost, Namespace: u, Repository: kind.Repository(), Tag: "latest"}, true
}

// UploadImages tags and pushes each image through the container client,
// then asks the registry API whether the tag is present on ghcr.io. Only
// a confirmed absence marks the upload failed; an error from the
// existence check itself is ignored.
func (p *forgeProvider) UploadImages(ctx context.Context, user string, kinds []agentkind.Kind) (UploadReport, error) {
	auth, err := p.authenticator()
	if err != nil {
		return UploadReport{}, err
	}
	report := UploadReport{OverallSuccess: true}
	for _, k := range kinds {
		ref, ok := p.ImageNameFor(k, user)
		if !ok {
			report.OverallSuccess = false
			report.PerAgent = append(report.PerAgent, UploadResult{AgentKind: k, Success: false, Error: fmt.Errorf("registry(forge): no namespace known for %s", k)})
			continue
		}
		local := agentkind.LocalTag(k)
		if tagErr := p.client.Tag(ctx, local, ref.String()); tagErr != nil {
			report.OverallSuccess = false
			report.PerAgent = append(report.PerAgent, UploadResult{AgentKind: k, Success: false, Error: fmt.Errorf("registry(forge): tagging %s: %w", local, tagErr), ImageRef: ref})
			continue
		}
		if pushErr := p.client.Push(ctx, nil, ref.String()); pushErr != nil {
			report.OverallSuccess = false
			report.PerAgent = append(report.PerAgent, UploadResult{AgentKind: k, Success: false, Error: fmt.Errorf("registry(forge): pushing %s: %w", ref, pushErr), ImageRef: ref})
			continue
		}
		if exists, existErr := p.remoteExists(ref, auth); existErr == nil && !exists {
			report.OverallSuccess = false
			report.PerAgent = append(report.PerAgent, UploadResult{AgentKind: k, Success: false, Error: fmt.Errorf("registry(forge): %s did not appear in ghcr.io after push", ref), ImageRef: ref})
			continue
		}
		report.PerAgent = append(report.PerAgent, UploadResult{AgentKind: k, Success: true, ImageRef: ref})
	}
	return report, nil
}

func (p *forgeProvider) remoteExists(ref agentkind.ImageRef, auth authn.Authenticator) (bool, error) {
	tag, err := name.NewTag(ref.String())
	if err != nil {
		return false, fmt.Errorf("registry(forge): parsing %s: %w", ref, err)
	}
	if _, err := remote.Head(tag, remote.WithAuth(auth)); err != nil {
		return false, err
	}
	return true, nil
}

func (p *forgeProvider) RegistryURL() string { return forgeHost }

func (p *forgeProvider) RegistryKindName() agentkind.RegistryKind { return agentkind.Forge }
