package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/internal/container/options"
	"github.com/toolprint/vibekit/internal/errkind"
	"github.com/toolprint/vibekit/internal/events"
)

// Box is one sandbox instance: a single container plus the bookkeeping
// (state machine, event bus, workspace snapshot) Run/Kill/Host operate on.
// It generalizes the teacher's Box/Sandbox type from a fixed coding-agent
// shape to any agentkind.Kind.
type Box struct {
	id          string
	containerID string
	client      container.Client
	bus         *events.Bus
	ports       []PortMapping

	stateMu sync.Mutex
	state   state

	// runMu is try-locked rather than locked, so a second concurrent Run
	// observes contention immediately instead of queueing behind the first.
	runMu sync.Mutex

	killOnce sync.Once

	recordMu sync.Mutex
	record   Record
}

// ID returns the box's sandbox id.
func (b *Box) ID() string { return b.id }

// Events subscribes to the box's event stream. The returned function
// unsubscribes.
func (b *Box) Events() (<-chan events.Event, func()) { return b.bus.Subscribe() }

// State reports the box's current lifecycle state as a string, for
// diagnostics and tests.
func (b *Box) State() string {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.state.String()
}

// Run executes command inside the box, choosing the streaming or buffered
// execution path based on opts. A concurrent Run on the same box returns
// ErrBusy immediately.
func (b *Box) Run(ctx context.Context, command string, opts RunOptions) (CommandResult, error) {
	if err := checkDangerousCommand(command); err != nil {
		return CommandResult{ExitCode: FrameworkFailureExitCode}, err
	}
	// TryLock, not Lock: a second concurrent Run must observe contention
	// immediately rather than queue behind the first.
	if !b.runMu.TryLock() {
		return CommandResult{ExitCode: FrameworkFailureExitCode}, ErrBusy
	}
	defer b.runMu.Unlock()

	if err := b.beginRun(); err != nil {
		return CommandResult{ExitCode: FrameworkFailureExitCode}, err
	}

	b.bus.Publish(events.Event{Type: events.Start, Command: command, Timestamp: time.Now()})
	result, runErr := b.execute(ctx, command, opts)
	b.endRun(runErr == nil)
	b.bus.Publish(events.Event{Type: events.End, Command: command, Timestamp: time.Now()})
	if runErr != nil {
		b.bus.Publish(events.Event{Type: events.Error, Command: command, Timestamp: time.Now(), Data: runErr.Error()})
	}
	return result, runErr
}

func (b *Box) beginRun() error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	next, err := beginRun(b.state)
	if err != nil {
		return err
	}
	b.state = next
	return nil
}

func (b *Box) endRun(success bool) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	if b.state == stateKilled {
		return
	}
	b.state = endRun(success)
}

func (b *Box) execute(ctx context.Context, command string, opts RunOptions) (CommandResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	if opts.Background {
		bgCtx, bgCancel := context.WithTimeout(context.Background(), opts.timeout())
		go func() {
			defer bgCancel()
			if _, err := b.runBuffered(bgCtx, command); err != nil {
				slog.Warn("sandbox background command failed", "box", b.id, "error", err)
			}
		}()
		msg := fmt.Sprintf("started in background on box %s", b.id)
		return CommandResult{ExitCode: 0, Stdout: []byte(msg)}, nil
	}

	if opts.streaming() {
		return b.runStreaming(ctx, command, opts)
	}
	return b.runBuffered(ctx, command)
}

// terminateGracePeriod bounds how long a timed-out process gets to exit
// after a graceful stop before terminate escalates to a force-kill.
const terminateGracePeriod = 5 * time.Second

// terminate sends the in-container process a graceful stop, then a force
// kill if it hasn't exited within terminateGracePeriod. Called after
// execute's deadline expires: cancelling the exec client's own context
// only stops the client from waiting, it does not stop the process still
// running inside the container. ctx is expected to be un-timed-out (the
// caller's context has already expired), since Stop/Kill need their own
// budget to run.
func (b *Box) terminate(ctx context.Context) {
	stopOpts := &options.StopContainer{Time: int(terminateGracePeriod.Seconds())}
	if err := b.client.Stop(ctx, stopOpts, b.containerID); err != nil {
		slog.WarnContext(ctx, "sandbox: graceful stop after timeout failed, force-killing", "box", b.id, "error", err)
	}
	if err := b.client.Kill(ctx, nil, b.containerID); err != nil {
		slog.WarnContext(ctx, "sandbox: force-kill after timeout failed", "box", b.id, "error", err)
	}
}

// callbackWriter both accumulates written bytes and forwards each chunk to
// an optional callback, the shape Run's streaming path needs for
// on_stdout/on_stderr plus the final buffered CommandResult. Each chunk is
// also published on the box's event bus as evType, so a subscriber to
// Box.Events() sees the same streamed output the callback does.
type callbackWriter struct {
	fn     func(chunk []byte)
	bus    *events.Bus
	evType events.Type
	buf    bytes.Buffer
}

func (w *callbackWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	if w.fn != nil {
		chunk := make([]byte, len(p))
		copy(chunk, p)
		w.fn(chunk)
	}
	if w.bus != nil {
		w.bus.Publish(events.Event{Type: w.evType, Timestamp: time.Now(), Data: string(p)})
	}
	return len(p), nil
}

func (b *Box) runStreaming(ctx context.Context, command string, opts RunOptions) (CommandResult, error) {
	stdout := &callbackWriter{fn: opts.OnStdout, bus: b.bus, evType: events.Stdout}
	stderr := &callbackWriter{fn: opts.OnStderr, bus: b.bus, evType: events.Stderr}

	rec := b.snapshotRecord()
	execOpts := &options.ExecContainer{ProcessOptions: options.ProcessOptions{
		WorkDir:     rec.WorkDir,
		Env:         rec.EnvVars,
		Interactive: true,
		TTY:         opts.TTY,
	}}

	wait, err := b.client.ExecStream(ctx, execOpts, b.containerID, "sh", nil, stdout, stderr, "-c", command)
	if err != nil {
		return CommandResult{ExitCode: FrameworkFailureExitCode, Stdout: stdout.buf.Bytes(), Stderr: stderr.buf.Bytes()},
			fmt.Errorf("sandbox: starting streamed command: %w", err)
	}

	waitErr := wait()
	result := CommandResult{Stdout: stdout.buf.Bytes(), Stderr: stderr.buf.Bytes()}
	if waitErr != nil {
		if ctx.Err() != nil {
			b.terminate(context.Background())
			result.ExitCode = FrameworkFailureExitCode
			return result, ErrTimeout
		}
		result.ExitCode = 1
		return result, fmt.Errorf("sandbox: streamed command failed: %w", waitErr)
	}
	result.ExitCode = 0
	return result, nil
}

// runBuffered implements the restore-exec-recapture path: the box's prior
// WorkspaceSnapshot is replayed into the container before exec, and a
// fresh one captured after a successful exit.
func (b *Box) runBuffered(ctx context.Context, command string) (CommandResult, error) {
	rec := b.snapshotRecord()

	if err := rec.WorkspaceSnapshot.restore(ctx, b.client, b.containerID, rec.WorkDir); err != nil {
		return CommandResult{ExitCode: FrameworkFailureExitCode}, err
	}

	execOpts := &options.ExecContainer{ProcessOptions: options.ProcessOptions{
		WorkDir: rec.WorkDir,
		Env:     rec.EnvVars,
	}}
	out, err := b.client.Exec(ctx, execOpts, b.containerID, "sh", "-c", command)
	if err != nil {
		if ctx.Err() != nil {
			b.terminate(context.Background())
			return CommandResult{ExitCode: FrameworkFailureExitCode, Stderr: []byte(out)}, ErrTimeout
		}
		return CommandResult{ExitCode: 1, Stderr: []byte(out)}, fmt.Errorf("sandbox: command failed: %w", err)
	}

	if snap, snapErr := captureSnapshot(ctx, b.client, b.containerID); snapErr != nil {
		slog.WarnContext(ctx, "sandbox: failed to recapture workspace snapshot", "box", b.id, "error", snapErr)
	} else {
		b.replaceSnapshot(snap)
	}
	return CommandResult{ExitCode: 0, Stdout: []byte(out)}, nil
}

func (b *Box) snapshotRecord() Record {
	b.recordMu.Lock()
	defer b.recordMu.Unlock()
	return b.record
}

// Record returns a snapshot of the box's bookkeeping record (agent kind,
// env, work dir, image tag, timestamps), for callers like the CLI's
// `local list` that need to display sandbox metadata without reaching
// into package-private state.
func (b *Box) Record() Record { return b.snapshotRecord() }

func (b *Box) replaceSnapshot(snap *Snapshot) {
	b.recordMu.Lock()
	defer b.recordMu.Unlock()
	b.record.WorkspaceSnapshot.discard()
	b.record.WorkspaceSnapshot = snap
	b.record.LastUsedAt = time.Now()
}

// Kill stops the container and drops the workspace snapshot handle.
// Idempotent: a second call is a harmless no-op.
func (b *Box) Kill(ctx context.Context) error {
	var killErr error
	b.killOnce.Do(func() {
		b.stateMu.Lock()
		b.state = stateKilled
		b.stateMu.Unlock()

		b.recordMu.Lock()
		b.record.WorkspaceSnapshot.discard()
		b.record.WorkspaceSnapshot = nil
		b.record.Running = false
		b.recordMu.Unlock()

		killErr = b.client.Kill(ctx, nil, b.containerID)
	})
	return killErr
}

// Pause is a documented no-op, kept for interface compatibility with a
// future suspend/resume engine.
func (b *Box) Pause(ctx context.Context) error {
	return nil
}

// Host returns the address at which a service bound to port inside the
// container is reachable from the caller, looked up in the box's recorded
// port mappings. Boxes made by Boxer carry no mappings, so for them Host
// reports NotFound for every port.
func (b *Box) Host(port int) (string, error) {
	for _, m := range b.ports {
		if m.ContainerPort == port {
			return fmt.Sprintf("localhost:%d", m.HostPort), nil
		}
	}
	return "", fmt.Errorf("sandbox: no published mapping for container port %d: %w", port, errkind.NotFound)
}
