package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// MountSpec is a single bind mount, rendered into the --mount flag value
// docker create/run expects.
type MountSpec struct {
	Source   string
	Target   string
	ReadOnly bool
}

func (m MountSpec) String() string {
	s := fmt.Sprintf("type=bind,source=%s,target=%s", m.Source, m.Target)
	if m.ReadOnly {
		s += ",readonly"
	}
	return s
}

// ContainerHook runs once against a freshly started container, before it
// is handed back to the caller.
type ContainerHook interface {
	Name() string
	OnStart(ctx context.Context, client container.Client, containerID string) error
}

type containerHook struct {
	name string
	fn   func(ctx context.Context, client container.Client, containerID string) error
}

func (h containerHook) Name() string { return h.name }

func (h containerHook) OnStart(ctx context.Context, client container.Client, containerID string) error {
	return h.fn(ctx, client, containerID)
}

// NewContainerHook builds a ContainerHook from a name and a function.
func NewContainerHook(name string, fn func(ctx context.Context, client container.Client, containerID string) error) ContainerHook {
	return containerHook{name: name, fn: fn}
}

func runHooks(ctx context.Context, client container.Client, containerID string, hooks []ContainerHook) error {
	var errs []error
	for _, h := range hooks {
		if err := h.OnStart(ctx, client, containerID); err != nil {
			errs = append(errs, fmt.Errorf("hook %s: %w", h.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// CloneRequest is what a Boxer asks a WorkspaceCloner to prepare ahead of
// creating a container.
type CloneRequest struct {
	ID      string
	WorkDir string
	EnvVars map[string]string
}

// CloneResult is what Prepare hands back: extra mounts, startup hooks, and
// environment additions layered onto the container about to be created.
type CloneResult struct {
	Mounts         []MountSpec
	ContainerHooks []ContainerHook
	EnvVars        map[string]string
}

// WorkspaceCloner prepares a sandbox's workspace ahead of container
// creation. It generalizes the teacher's WorkspaceCloner decorator chain
// (DefaultWorkspaceCloner wrapped by per-coding-tool cloners) to one
// decorator per agentkind.Kind instead of one per coding tool.
type WorkspaceCloner interface {
	Prepare(ctx context.Context, req CloneRequest) (*CloneResult, error)
}

// defaultWorkspaceCloner is the base of every decorator chain: it
// contributes no agent-specific mounts or hooks, only a pass-through of
// the caller-supplied environment.
type defaultWorkspaceCloner struct{}

// NewDefaultWorkspaceCloner returns the base WorkspaceCloner every
// per-agent-kind decorator wraps.
func NewDefaultWorkspaceCloner() WorkspaceCloner {
	return defaultWorkspaceCloner{}
}

func (defaultWorkspaceCloner) Prepare(ctx context.Context, req CloneRequest) (*CloneResult, error) {
	env := map[string]string{}
	for k, v := range req.EnvVars {
		env[k] = v
	}
	return &CloneResult{EnvVars: env}, nil
}

// agentWorkspaceCloner wraps a base cloner and stamps the container with
// its agent kind, the same delegate-then-add shape the teacher's
// ClaudeWorkspaceCloner/OpenCodeWorkspaceCloner use over
// DefaultWorkspaceCloner.
type agentWorkspaceCloner struct {
	base WorkspaceCloner
	kind agentkind.Kind
}

// NewAgentWorkspaceCloner wraps base with agent-kind-specific preparation.
func NewAgentWorkspaceCloner(base WorkspaceCloner, kind agentkind.Kind) WorkspaceCloner {
	return &agentWorkspaceCloner{base: base, kind: kind}
}

func (c *agentWorkspaceCloner) Prepare(ctx context.Context, req CloneRequest) (*CloneResult, error) {
	result, err := c.base.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.EnvVars == nil {
		result.EnvVars = map[string]string{}
	}
	result.EnvVars["VIBEKIT_AGENT_KIND"] = string(c.kind)

	kind := c.kind
	result.ContainerHooks = append(result.ContainerHooks, NewContainerHook(
		fmt.Sprintf("agent-kind-marker-%s", kind),
		func(ctx context.Context, client container.Client, containerID string) error {
			marker := fmt.Sprintf("echo %s > /etc/vibekit-agent-kind", kind)
			_, err := client.Exec(ctx, nil, containerID, "sh", "-c", marker)
			return err
		},
	))
	return result, nil
}

// ClonerFor returns the decorated WorkspaceCloner for a single agent kind,
// wrapping NewDefaultWorkspaceCloner.
func ClonerFor(kind agentkind.Kind) WorkspaceCloner {
	return NewAgentWorkspaceCloner(NewDefaultWorkspaceCloner(), kind)
}
