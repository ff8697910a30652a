package sandbox

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/goombaio/namegenerator"

	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/internal/container/options"
	"github.com/toolprint/vibekit/internal/events"
	"github.com/toolprint/vibekit/internal/resolver"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// defaultWorkDir is the fixed work_dir a Create call gets when the caller
// does not supply one.
const defaultWorkDir = "/workspace"

// Boxer is the sandbox provider: it creates, resumes, lists, and tears
// down Box instances. It generalizes the teacher's Boxer/SandBoxer from a
// single coding-tool shape to any agentkind.Kind.
type Boxer struct {
	client   container.Client
	resolver *resolver.Resolver

	mu     sync.Mutex
	boxes  map[string]*Box
	cloner func(kind *agentkind.Kind) WorkspaceCloner
}

// New constructs a Boxer backed by client for container operations and res
// for image resolution.
func New(client container.Client, res *resolver.Resolver) *Boxer {
	return &Boxer{
		client:   client,
		resolver: res,
		boxes:    map[string]*Box{},
		cloner: func(kind *agentkind.Kind) WorkspaceCloner {
			if kind == nil {
				return NewDefaultWorkspaceCloner()
			}
			return ClonerFor(*kind)
		},
	}
}

// Create provisions a new Box: it resolves an image for kind, prepares the
// workspace via the agent-kind's WorkspaceCloner, creates and starts the
// container, and runs its startup hooks.
func (bx *Boxer) Create(ctx context.Context, env map[string]string, kind *agentkind.Kind, workDir string) (*Box, error) {
	agentName := "default"
	if kind != nil {
		agentName = string(*kind)
	}
	id, err := newID(agentName, time.Now())
	if err != nil {
		return nil, err
	}
	return bx.create(ctx, id, env, kind, workDir)
}

// Resume rehydrates a Box descriptor for id. If id is not held in memory
// it creates a fresh container bound to that id, since the core model
// treats containers as ephemeral rather than persisted across restarts.
func (bx *Boxer) Resume(ctx context.Context, id string) (*Box, error) {
	return bx.ResumeWithKind(ctx, id, nil)
}

// ResumeWithKind is Resume, but lets a caller name the agent kind to use
// if id isn't already held in memory and must be freshly created. An
// already-live box is returned unchanged regardless of kind, since a
// resume never re-provisions an existing container.
func (bx *Boxer) ResumeWithKind(ctx context.Context, id string, kind *agentkind.Kind) (*Box, error) {
	bx.mu.Lock()
	existing, ok := bx.boxes[id]
	bx.mu.Unlock()
	if ok {
		return existing, nil
	}
	return bx.create(ctx, id, nil, kind, "")
}

func (bx *Boxer) create(ctx context.Context, id string, env map[string]string, kind *agentkind.Kind, workDir string) (*Box, error) {
	imageTag, err := bx.resolver.ResolveImage(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolving image for %s: %w", id, err)
	}
	if workDir == "" {
		workDir = defaultWorkDir
	}

	result, err := bx.cloner(kind).Prepare(ctx, CloneRequest{ID: id, WorkDir: workDir, EnvVars: env})
	if err != nil {
		return nil, fmt.Errorf("sandbox: preparing workspace for %s: %w", id, err)
	}
	mergedEnv := mergeEnv(env, result.EnvVars)

	createOpts := &options.CreateContainer{
		ProcessOptions: options.ProcessOptions{
			Env:         mergedEnv,
			WorkDir:     workDir,
			Interactive: true,
			TTY:         true,
		},
		ManagementOptions: options.ManagementOptions{
			Name: id,
			Label: map[string]string{
				"vibekit.sandbox-id":    id,
				"vibekit.friendly-name": friendlyName(id),
			},
			Mount: mountArgs(result.Mounts),
		},
	}
	containerID, err := bx.client.Create(ctx, createOpts, imageTag, nil)
	if err != nil {
		return nil, fmt.Errorf("sandbox: creating container for %s: %w", id, err)
	}
	if err := bx.client.Start(ctx, nil, containerID); err != nil {
		return nil, fmt.Errorf("sandbox: starting container for %s: %w", id, err)
	}
	if err := runHooks(ctx, bx.client, containerID, result.ContainerHooks); err != nil {
		return nil, fmt.Errorf("sandbox: running startup hooks for %s: %w", id, err)
	}

	now := time.Now()
	box := &Box{
		id:          id,
		containerID: containerID,
		client:      bx.client,
		bus:         events.NewBus(),
		record: Record{
			ID:         id,
			AgentKind:  kind,
			EnvVars:    mergedEnv,
			WorkDir:    workDir,
			Running:    true,
			ImageTag:   imageTag,
			CreatedAt:  now,
			LastUsedAt: now,
		},
	}

	bx.mu.Lock()
	bx.boxes[id] = box
	bx.mu.Unlock()
	return box, nil
}

// Get returns the Box for id, or ErrNotFound.
func (bx *Boxer) Get(id string) (*Box, error) {
	bx.mu.Lock()
	defer bx.mu.Unlock()
	b, ok := bx.boxes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// List returns every live Box, in no particular order.
func (bx *Boxer) List() []*Box {
	bx.mu.Lock()
	defer bx.mu.Unlock()
	out := make([]*Box, 0, len(bx.boxes))
	for _, b := range bx.boxes {
		out = append(out, b)
	}
	return out
}

// Delete kills and removes the container backing id, and drops it from
// the Boxer's table.
func (bx *Boxer) Delete(ctx context.Context, id string) error {
	bx.mu.Lock()
	b, ok := bx.boxes[id]
	if ok {
		delete(bx.boxes, id)
	}
	bx.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	if err := b.Kill(ctx); err != nil {
		slog.WarnContext(ctx, "sandbox: kill during delete reported an error", "box", id, "error", err)
	}
	b.bus.Close()
	return bx.client.Remove(ctx, &options.RemoveContainer{Force: true}, b.containerID)
}

// friendlyName derives a human-readable two-word label from id, purely for
// the container's display label — the id itself stays in the exact
// <prefix>-<agent>-<ts>-<random> shape callers depend on. Seeded from a
// hash of id rather than the clock, so the label a given sandbox wears is
// stable across a process restart that resumes the same id.
func friendlyName(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	gen := namegenerator.NewNameGenerator(int64(h.Sum64()))
	return gen.Generate()
}

func mergeEnv(base, overlay map[string]string) map[string]string {
	merged := map[string]string{}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

func mountArgs(mounts []MountSpec) []string {
	args := make([]string, 0, len(mounts))
	for _, m := range mounts {
		args = append(args, m.String())
	}
	return args
}
