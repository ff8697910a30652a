// Package setup validates the host environment and pre-builds agent images
// before a sandbox provider is first used. The diagnostic-check registry is
// generalized from the teacher's macOS/`container`-specific
// cmd/sand/prerequisites.go into Docker-daemon, buildx, and Go-runtime
// checks.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// MinimumGoVersion is the lowest host Go runtime version setup accepts,
// matching the toolchain this module builds against.
const MinimumGoVersion = "1.21"

// Check is one named, independently runnable prerequisite, mirroring the
// teacher's diagnosticCheck.
type Check struct {
	ID          string
	Description string
	Run         func(context.Context) error
}

// DefaultChecks is the standard Docker-based dependency set.
var DefaultChecks = []Check{
	{
		ID:          "docker-daemon",
		Description: "Docker daemon is reachable",
		Run:         checkDockerDaemon,
	},
	{
		ID:          "docker-buildx",
		Description: "docker buildx build engine is installed",
		Run:         checkDockerBuildx,
	},
	{
		ID:          "go-runtime",
		Description: fmt.Sprintf("host Go runtime is %s or newer", MinimumGoVersion),
		Run:         checkGoRuntime,
	},
}

func checkDockerDaemon(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "info")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("docker info failed, is the daemon running?: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func checkDockerBuildx(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "buildx", "version")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("docker buildx not available: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func checkGoRuntime(ctx context.Context) error {
	have := strings.TrimPrefix(runtime.Version(), "go")
	ok, err := versionAtLeast(have, MinimumGoVersion)
	if err != nil {
		return fmt.Errorf("parsing host Go version %q: %w", runtime.Version(), err)
	}
	if !ok {
		return fmt.Errorf("host Go runtime %s detected, but %s or greater is required", runtime.Version(), MinimumGoVersion)
	}
	return nil
}

func versionAtLeast(have, want string) (bool, error) {
	haveParts, err := majorMinor(have)
	if err != nil {
		return false, err
	}
	wantParts, err := majorMinor(want)
	if err != nil {
		return false, err
	}
	if haveParts[0] != wantParts[0] {
		return haveParts[0] > wantParts[0], nil
	}
	return haveParts[1] >= wantParts[1], nil
}

func majorMinor(v string) ([2]int, error) {
	fields := strings.SplitN(v, ".", 3)
	if len(fields) < 2 {
		return [2]int{}, fmt.Errorf("invalid version format: %s", v)
	}
	var out [2]int
	for i := 0; i < 2; i++ {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return [2]int{}, fmt.Errorf("invalid version segment %q: %w", fields[i], err)
		}
		out[i] = n
	}
	return out, nil
}

// ValidateDependencies runs every check in checks and joins the failures.
// A nil checks slice runs DefaultChecks.
func ValidateDependencies(ctx context.Context, checks []Check) error {
	if checks == nil {
		checks = DefaultChecks
	}
	var errs []error
	for _, check := range checks {
		if err := check.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "setup: dependency check failed", "id", check.ID, "description", check.Description, "error", err)
			errs = append(errs, fmt.Errorf("check %q: %w", check.ID, err))
			continue
		}
		slog.InfoContext(ctx, "setup: dependency check passed", "id", check.ID, "description", check.Description)
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
