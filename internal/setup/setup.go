package setup

import (
	"context"
	"fmt"

	"github.com/toolprint/vibekit/internal/resolver"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// Options configures a Setup run.
type Options struct {
	// Checks overrides DefaultChecks when non-nil.
	Checks []Check
	// SkipPrebuild skips the image pre-build step entirely.
	SkipPrebuild bool
	// Kinds restricts pre-build to a subset of agent kinds. Empty means
	// every known kind.
	Kinds []agentkind.Kind
}

// Result is the outcome of a Setup run.
type Result struct {
	Prebuilt []resolver.AgentResult
}

// Setup validates host dependencies and, unless opts.SkipPrebuild, warms
// the image cache for opts.Kinds (or every agentkind.All kind) via res.
func Setup(ctx context.Context, res *resolver.Resolver, opts Options) (Result, error) {
	if err := ValidateDependencies(ctx, opts.Checks); err != nil {
		return Result{}, fmt.Errorf("setup: dependency validation failed: %w", err)
	}
	if opts.SkipPrebuild {
		return Result{}, nil
	}
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = agentkind.All
	}
	return Result{Prebuilt: res.PrebuildImages(ctx, kinds)}, nil
}
