// Package resolver picks a locally runnable image tag for an agent
// kind by trying, in order, a local cache hit, a per-agent override
// pull, a registry pull, and finally a local build with an optional
// push, falling back to a neutral base image if every step fails. It
// also pre-builds batches of images concurrently.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/toolprint/vibekit/internal/config"
	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/internal/registry"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// NeutralBaseImage is the stable OS base returned when no agent kind is
// requested, or as the last-resort fallback.
const NeutralBaseImage = "debian:bookworm-slim"

// Resolver implements resolve_image/prebuild_images.
type Resolver struct {
	client  container.Client
	manager *registry.Manager
	store   *config.Store
	hist    *history

	// workspaceRoot is the directory DockerfileName()'s relative path is
	// resolved against; normally the module's install root.
	workspaceRoot string
	// maxConcurrentBuilds bounds PrebuildImages' fan-out.
	maxConcurrentBuilds int
}

// Option customizes a Resolver at construction time.
type Option func(*Resolver)

// WithWorkspaceRoot overrides the directory Dockerfiles are resolved
// relative to. Defaults to the current working directory.
func WithWorkspaceRoot(root string) Option {
	return func(r *Resolver) { r.workspaceRoot = root }
}

// WithMaxConcurrentBuilds bounds how many agent kinds PrebuildImages
// resolves at once. Defaults to 4.
func WithMaxConcurrentBuilds(n int) Option {
	return func(r *Resolver) { r.maxConcurrentBuilds = n }
}

// New constructs a Resolver. historyDBPath is where the build-history
// audit log is kept; an empty path disables history logging.
func New(client container.Client, manager *registry.Manager, store *config.Store, historyDBPath string, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		client:              client,
		manager:             manager,
		store:               store,
		workspaceRoot:       ".",
		maxConcurrentBuilds: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	if historyDBPath != "" {
		h, err := newHistory(historyDBPath)
		if err != nil {
			return nil, err
		}
		r.hist = h
	}
	return r, nil
}

// Close releases the history database handle, if one was opened.
func (r *Resolver) Close() error {
	if r.hist == nil {
		return nil
	}
	return r.hist.Close()
}

// AgentResult is one entry of PrebuildImages' per-agent results.
type AgentResult struct {
	AgentKind agentkind.Kind
	ImageTag  string
	Err       error
}

// ResolveImage implements the four-step strategy. A nil kind means "no
// agent specified" and short-circuits at step 1.
func (r *Resolver) ResolveImage(ctx context.Context, kind *agentkind.Kind) (string, error) {
	if kind == nil {
		return NeutralBaseImage, nil
	}
	started := time.Now()
	tag, strategy, err := r.resolveForKind(ctx, *kind)
	finished := time.Now()
	r.logHistory(*kind, strategy, tag, err == nil, errString(err), started, finished)
	return tag, err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (r *Resolver) logHistory(kind agentkind.Kind, strategy, tag string, success bool, detail string, started, finished time.Time) {
	if r.hist == nil {
		return
	}
	if err := r.hist.record(kind, strategy, tag, success, detail, started, finished); err != nil {
		slog.Warn("resolver: failed to record history", "error", err)
	}
}

func (r *Resolver) resolveForKind(ctx context.Context, kind agentkind.Kind) (string, string, error) {
	localTag := agentkind.LocalTag(kind)

	// Step 2: local cache.
	if exists, _ := r.client.InspectImage(ctx, localTag); exists != nil {
		slog.DebugContext(ctx, "resolver.ResolveImage cache hit", "kind", kind, "tag", localTag)
		return localTag, "cache", nil
	}

	rec, err := r.store.Load()
	if err != nil {
		return "", "cache", fmt.Errorf("resolver: loading config: %w", err)
	}

	// Per-agent override takes precedence over namespace synthesis.
	if override, ok := rec.PerAgentOverrides[kind]; ok {
		if err := r.pullAndTag(ctx, override, localTag); err == nil {
			return localTag, "override", nil
		}
		slog.WarnContext(ctx, "resolver.ResolveImage override pull failed, falling through", "kind", kind, "ref", override)
	}

	// Step 3: registry pull.
	if rec.PreferRegistryImages {
		if ref, ok := r.manager.ImageNameFor(kind, rec.RegistryUser); ok {
			if err := r.pullAndTag(ctx, ref, localTag); err == nil {
				slog.InfoContext(ctx, "resolver.ResolveImage pulled from registry", "kind", kind, "ref", ref)
				return localTag, "registry-pull", nil
			} else {
				slog.WarnContext(ctx, "resolver.ResolveImage registry pull failed, falling through to build", "kind", kind, "error", err)
			}
		}
	}

	// Step 4: local build, optional push.
	if tag, err := r.buildAndMaybePush(ctx, kind, localTag, rec); err == nil {
		return tag, "build", nil
	} else {
		slog.WarnContext(ctx, "resolver.ResolveImage build failed, falling back to neutral base", "kind", kind, "error", err)
	}

	// Step 5: last-resort fallback.
	return NeutralBaseImage, "fallback", nil
}

func (r *Resolver) pullAndTag(ctx context.Context, ref agentkind.ImageRef, localTag string) error {
	if err := r.client.Pull(ctx, nil, ref.String()); err != nil {
		return err
	}
	return r.client.Tag(ctx, ref.String(), localTag)
}

func (r *Resolver) buildAndMaybePush(ctx context.Context, kind agentkind.Kind, localTag string, rec config.Record) (string, error) {
	dockerfilePath, err := r.validatedDockerfilePath(kind)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(dockerfilePath); statErr != nil {
		return "", fmt.Errorf("resolver: no Dockerfile for %s at %s: %w", kind, dockerfilePath, statErr)
	}

	opts := buildOptionsFor(dockerfilePath, localTag)
	if err := r.client.Build(ctx, &opts, r.workspaceRoot); err != nil {
		return "", fmt.Errorf("resolver: building %s: %w", localTag, err)
	}

	if rec.PushImages {
		if ref, ok := r.manager.ImageNameFor(kind, rec.RegistryUser); ok {
			if err := r.client.Tag(ctx, localTag, ref.String()); err != nil {
				slog.WarnContext(ctx, "resolver push-after-build: tag failed, keeping local build", "kind", kind, "error", err)
			} else if err := r.client.Push(ctx, nil, ref.String()); err != nil {
				slog.WarnContext(ctx, "resolver push-after-build: push failed, keeping local build", "kind", kind, "error", err)
			}
		}
	}

	return localTag, nil
}

// validatedDockerfilePath resolves and validates the convention-based
// Dockerfile path for kind, rejecting `..` or `~` segments.
func (r *Resolver) validatedDockerfilePath(kind agentkind.Kind) (string, error) {
	rel := kind.DockerfileName()
	if strings.Contains(rel, "..") || strings.Contains(rel, "~") {
		return "", fmt.Errorf("resolver: refusing suspicious Dockerfile path %q", rel)
	}
	full := filepath.Join(r.workspaceRoot, rel)
	if !strings.HasPrefix(filepath.Clean(full), filepath.Clean(r.workspaceRoot)) {
		return "", fmt.Errorf("resolver: Dockerfile path %q escapes workspace root", rel)
	}
	return full, nil
}

// PrebuildImages resolves every requested agent kind concurrently,
// bounded by maxConcurrentBuilds, collecting per-agent results. Errors on
// one agent do not abort the others.
func (r *Resolver) PrebuildImages(ctx context.Context, kinds []agentkind.Kind) []AgentResult {
	if len(kinds) == 0 {
		kinds = agentkind.All
	}
	results := make([]AgentResult, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrentBuilds)

	for i, k := range kinds {
		g.Go(func() error {
			tag, err := r.ResolveImage(gctx, &k)
			results[i] = AgentResult{AgentKind: k, ImageTag: tag, Err: err}
			return nil
		})
	}
	// PrebuildImages never aborts the batch on a single failure, so the
	// errgroup's own error (always nil here) is deliberately discarded.
	_ = g.Wait()

	return results
}
