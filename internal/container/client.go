// Package container wraps the docker CLI for the operations the sandbox
// provider and image resolver need: create/start/stop/delete/exec a
// container, and list/pull/push/build an image. It shells out rather than
// linking the Docker Engine API client, matching the approach the original
// container-runtime wrapper this package generalizes from took with its
// own CLI.
package container

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/toolprint/vibekit/internal/container/options"
	"github.com/toolprint/vibekit/internal/container/types"
)

// Client is the seam internal/sandbox and internal/resolver depend on,
// so tests can substitute a fake rather than shelling out for real.
type Client interface {
	Create(ctx context.Context, opts *options.CreateContainer, image string, args []string) (string, error)
	Start(ctx context.Context, opts *options.StartContainer, containerID string) error
	Stop(ctx context.Context, opts *options.StopContainer, containerID string) error
	Kill(ctx context.Context, opts *options.KillContainer, containerID string) error
	Remove(ctx context.Context, opts *options.RemoveContainer, containerID string) error
	Exec(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, args ...string) (string, error)
	ExecStream(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, stdin io.Reader, stdout, stderr io.Writer, args ...string) (func() error, error)
	Inspect(ctx context.Context, containerID string) ([]types.Container, error)
	Export(ctx context.Context, containerID string) (io.ReadCloser, func() error, error)
	CopyFrom(ctx context.Context, containerID, srcPath string) (io.ReadCloser, func() error, error)
	CopyTo(ctx context.Context, containerID, destPath string, src io.Reader) error

	ListImages(ctx context.Context) ([]types.ImageEntry, error)
	InspectImage(ctx context.Context, ref string) (*types.ImageInspect, error)
	Pull(ctx context.Context, opts *options.PullOptions, ref string) error
	Push(ctx context.Context, opts *options.PushOptions, ref string) error
	Build(ctx context.Context, opts *options.BuildOptions, contextDir string) error
	Tag(ctx context.Context, src, dst string) error

	CheckLogin(ctx context.Context, registryHost string) (bool, error)
}

// dockerClient is the default Client backed by the `docker` binary on PATH.
type dockerClient struct {
	binary string
}

// New returns a Client that shells out to the docker CLI. binary defaults
// to "docker" when empty, to allow tests to point at a stub executable.
func New(binary string) Client {
	if binary == "" {
		binary = "docker"
	}
	return &dockerClient{binary: binary}
}

// referenceInputPattern bounds the characters accepted in references and
// container IDs passed to exec.Command, closing off shell-metacharacter
// injection even though exec.Command never invokes a shell on its own.
var referenceInputPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-/:@]*$`)

func validateToken(kind, v string) error {
	if v == "" {
		return fmt.Errorf("container: empty %s", kind)
	}
	if !referenceInputPattern.MatchString(v) {
		return fmt.Errorf("container: %s %q contains disallowed characters", kind, v)
	}
	return nil
}

func (d *dockerClient) run(ctx context.Context, args ...string) (string, error) {
	slog.DebugContext(ctx, "container.run", "args", args)
	cmd := exec.CommandContext(ctx, d.binary, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("container: %s %s: %w: %s", d.binary, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (d *dockerClient) Create(ctx context.Context, opts *options.CreateContainer, image string, initArgs []string) (string, error) {
	if err := validateToken("image reference", image); err != nil {
		return "", err
	}
	args := options.ToArgs(opts)
	args = append([]string{"create"}, append(args, image)...)
	args = append(args, initArgs...)
	out, err := d.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to create container from %s: %w", image, err)
	}
	return out, nil
}

func (d *dockerClient) Start(ctx context.Context, opts *options.StartContainer, containerID string) error {
	if err := validateToken("container id", containerID); err != nil {
		return err
	}
	args := append([]string{"start"}, append(options.ToArgs(opts), containerID)...)
	_, err := d.run(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to start container %s: %w", containerID, err)
	}
	return nil
}

func (d *dockerClient) Stop(ctx context.Context, opts *options.StopContainer, containerID string) error {
	if err := validateToken("container id", containerID); err != nil {
		return err
	}
	args := append([]string{"stop"}, append(options.ToArgs(opts), containerID)...)
	_, err := d.run(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to stop container %s: %w", containerID, err)
	}
	return nil
}

func (d *dockerClient) Kill(ctx context.Context, opts *options.KillContainer, containerID string) error {
	if err := validateToken("container id", containerID); err != nil {
		return err
	}
	args := append([]string{"kill"}, append(options.ToArgs(opts), containerID)...)
	_, err := d.run(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to kill container %s: %w", containerID, err)
	}
	return nil
}

func (d *dockerClient) Remove(ctx context.Context, opts *options.RemoveContainer, containerID string) error {
	if err := validateToken("container id", containerID); err != nil {
		return err
	}
	args := append([]string{"rm"}, append(options.ToArgs(opts), containerID)...)
	_, err := d.run(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to remove container %s: %w", containerID, err)
	}
	return nil
}

func (d *dockerClient) Exec(ctx context.Context, opts *options.ExecContainer, containerID, cmdName string, args ...string) (string, error) {
	if err := validateToken("container id", containerID); err != nil {
		return "", err
	}
	cliArgs := append([]string{"exec"}, options.ToArgs(opts)...)
	cliArgs = append(cliArgs, containerID, cmdName)
	cliArgs = append(cliArgs, args...)
	out, err := d.run(ctx, cliArgs...)
	if err != nil {
		return "", fmt.Errorf("failed to exec in container %s: %w", containerID, err)
	}
	return out, nil
}

// ExecStream runs cmdName with args attached to stdin/stdout/stderr, for
// interactive shells and long-running commands whose output is streamed
// rather than buffered.
func (d *dockerClient) ExecStream(ctx context.Context, opts *options.ExecContainer, containerID, cmdName string, stdin io.Reader, stdout, stderr io.Writer, args ...string) (func() error, error) {
	if err := validateToken("container id", containerID); err != nil {
		return nil, err
	}
	cliArgs := append([]string{"exec"}, options.ToArgs(opts)...)
	cliArgs = append(cliArgs, containerID, cmdName)
	cliArgs = append(cliArgs, args...)

	cmd := exec.CommandContext(ctx, d.binary, cliArgs...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start exec stream in container %s: %w", containerID, err)
	}
	return cmd.Wait, nil
}

func (d *dockerClient) Inspect(ctx context.Context, containerID string) ([]types.Container, error) {
	if err := validateToken("container id", containerID); err != nil {
		return nil, err
	}
	out, err := d.run(ctx, "inspect", containerID)
	if err != nil {
		return nil, err
	}
	var containers []types.Container
	if err := json.Unmarshal([]byte(out), &containers); err != nil {
		return nil, fmt.Errorf("container: decoding inspect output: %w", err)
	}
	return containers, nil
}

// Export streams the container's filesystem as an uncompressed tar. The
// stream is deliberately opaque: callers persist or discard it wholesale,
// never parse entries out of it.
func (d *dockerClient) Export(ctx context.Context, containerID string) (io.ReadCloser, func() error, error) {
	if err := validateToken("container id", containerID); err != nil {
		return nil, nil, err
	}
	cmd := exec.CommandContext(ctx, d.binary, "export", containerID)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return out, cmd.Wait, nil
}

// CopyFrom streams a single path out of the container as a tar archive,
// via `docker cp <id>:<path> -`.
func (d *dockerClient) CopyFrom(ctx context.Context, containerID, srcPath string) (io.ReadCloser, func() error, error) {
	if err := validateToken("container id", containerID); err != nil {
		return nil, nil, err
	}
	cmd := exec.CommandContext(ctx, d.binary, "cp", containerID+":"+srcPath, "-")
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return out, cmd.Wait, nil
}

// CopyTo streams src into the container as a tar archive, via
// `docker cp - <id>:<path>`, the write-direction counterpart to CopyFrom.
func (d *dockerClient) CopyTo(ctx context.Context, containerID, destPath string, src io.Reader) error {
	if err := validateToken("container id", containerID); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, d.binary, "cp", "-", containerID+":"+destPath)
	cmd.Stdin = src
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("container: copying into %s:%s: %w: %s", containerID, destPath, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (d *dockerClient) ListImages(ctx context.Context) ([]types.ImageEntry, error) {
	out, err := d.run(ctx, "image", "ls", "--format", "{{json .}}")
	if err != nil {
		return nil, err
	}
	var entries []types.ImageEntry
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e types.ImageEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("container: decoding image ls output: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (d *dockerClient) InspectImage(ctx context.Context, ref string) (*types.ImageInspect, error) {
	if err := validateToken("image reference", ref); err != nil {
		return nil, err
	}
	out, err := d.run(ctx, "image", "inspect", ref)
	if err != nil {
		return nil, err
	}
	var results []types.ImageInspect
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		return nil, fmt.Errorf("container: decoding image inspect output: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("container: no image found for %s", ref)
	}
	return &results[0], nil
}

// retryBackoffSchedule implements the pull/push retry policy: base delay
// 1s, factor 2, 3 attempts total (no wait before the first, then 1s,
// then 2s before the second and third).
var retryBackoffSchedule = []time.Duration{0, 1 * time.Second, 2 * time.Second}

func (d *dockerClient) withRetry(ctx context.Context, op, ref string, args []string) error {
	var lastErr error
	for i, wait := range retryBackoffSchedule {
		if wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		_, err := d.run(ctx, args...)
		if err == nil {
			return nil
		}
		lastErr = err
		slog.WarnContext(ctx, "container retrying", "op", op, "ref", ref, "attempt", i+1, "error", err)
	}
	return fmt.Errorf("failed to %s %s after %d attempts: %w", op, ref, len(retryBackoffSchedule), lastErr)
}

func (d *dockerClient) Pull(ctx context.Context, opts *options.PullOptions, ref string) error {
	if err := validateToken("image reference", ref); err != nil {
		return err
	}
	args := append([]string{"pull"}, append(options.ToArgs(opts), ref)...)
	return d.withRetry(ctx, "pull", ref, args)
}

func (d *dockerClient) Push(ctx context.Context, opts *options.PushOptions, ref string) error {
	if err := validateToken("image reference", ref); err != nil {
		return err
	}
	args := append([]string{"push"}, append(options.ToArgs(opts), ref)...)
	return d.withRetry(ctx, "push", ref, args)
}

// buildTimeout bounds a single `docker build` invocation.
const buildTimeout = 10 * time.Minute

func (d *dockerClient) Build(ctx context.Context, opts *options.BuildOptions, contextDir string) error {
	ctx, cancel := context.WithTimeout(ctx, buildTimeout)
	defer cancel()
	args := append([]string{"build"}, append(options.ToArgs(opts), contextDir)...)
	_, err := d.run(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to build image from %s: %w", contextDir, err)
	}
	return nil
}

func (d *dockerClient) Tag(ctx context.Context, src, dst string) error {
	if err := validateToken("image reference", src); err != nil {
		return err
	}
	if err := validateToken("image reference", dst); err != nil {
		return err
	}
	_, err := d.run(ctx, "tag", src, dst)
	if err != nil {
		return fmt.Errorf("failed to tag %s as %s: %w", src, dst, err)
	}
	return nil
}
