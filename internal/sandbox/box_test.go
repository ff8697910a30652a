package sandbox

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/internal/container/options"
	"github.com/toolprint/vibekit/internal/events"
)

func newTestBox(client container.Client) *Box {
	return &Box{
		id:          "vbx-a1-1-abcdef",
		containerID: "c-1",
		client:      client,
		bus:         events.NewBus(),
		record:      Record{WorkDir: "/workspace"},
	}
}

func TestRunBufferedSuccessRecapturesSnapshot(t *testing.T) {
	exported := false
	mock := &container.Mock{
		ExecFunc: func(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, args ...string) (string, error) {
			return "hello\n", nil
		},
		ExportFunc: func(ctx context.Context, containerID string) (io.ReadCloser, func() error, error) {
			exported = true
			return io.NopCloser(bytes.NewReader([]byte("tar-bytes"))), func() error { return nil }, nil
		},
	}
	box := newTestBox(mock)

	result, err := box.Run(context.Background(), "echo hello", RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 || string(result.Stdout) != "hello\n" {
		t.Errorf("unexpected result: %+v", result)
	}
	if !exported {
		t.Error("expected a successful run to recapture the workspace snapshot")
	}
	if box.State() != "ready" {
		t.Errorf("box.State() = %q, want ready", box.State())
	}
}

func TestRunBufferedFailureSetsErrorState(t *testing.T) {
	mock := &container.Mock{
		ExecFunc: func(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, args ...string) (string, error) {
			return "boom", errors.New("exit status 1")
		},
	}
	box := newTestBox(mock)

	_, err := box.Run(context.Background(), "false", RunOptions{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if box.State() != "error" {
		t.Errorf("box.State() = %q, want error", box.State())
	}
}

func TestRunRejectsDangerousCommandBeforeAnyContainerCall(t *testing.T) {
	called := false
	mock := &container.Mock{
		ExecFunc: func(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, args ...string) (string, error) {
			called = true
			return "", nil
		},
	}
	box := newTestBox(mock)

	_, err := box.Run(context.Background(), "rm -rf /", RunOptions{})
	if err == nil {
		t.Fatal("expected dangerous command to be rejected")
	}
	if called {
		t.Error("expected Exec never to be called for a rejected command")
	}
	if box.State() != "ready" {
		t.Errorf("box.State() = %q, want ready (no transition on rejected command)", box.State())
	}
}

func TestRunReturnsBusyOnConcurrentCall(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	mock := &container.Mock{
		ExecFunc: func(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, args ...string) (string, error) {
			close(started)
			<-release
			return "", nil
		},
	}
	box := newTestBox(mock)

	go box.Run(context.Background(), "sleep 1", RunOptions{})
	<-started

	_, err := box.Run(context.Background(), "echo second", RunOptions{})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("got %v, want ErrBusy", err)
	}
	close(release)
}

func TestRunFromKilledReturnsErrKilled(t *testing.T) {
	box := newTestBox(&container.Mock{})
	if err := box.Kill(context.Background()); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	_, err := box.Run(context.Background(), "echo hi", RunOptions{})
	if !errors.Is(err, errKilled) {
		t.Errorf("got %v, want errKilled", err)
	}
}

func TestKillIsIdempotent(t *testing.T) {
	calls := 0
	mock := &container.Mock{
		KillFunc: func(ctx context.Context, opts *options.KillContainer, containerID string) error {
			calls++
			return nil
		},
	}
	box := newTestBox(mock)
	if err := box.Kill(context.Background()); err != nil {
		t.Fatalf("first Kill: %v", err)
	}
	if err := box.Kill(context.Background()); err != nil {
		t.Fatalf("second Kill: %v", err)
	}
	if calls != 1 {
		t.Errorf("client.Kill called %d times, want 1", calls)
	}
	if box.State() != "killed" {
		t.Errorf("box.State() = %q, want killed", box.State())
	}
}

func TestRunStreamingInvokesCallbacks(t *testing.T) {
	mock := &container.Mock{
		ExecStreamFunc: func(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, stdin io.Reader, stdout, stderr io.Writer, args ...string) (func() error, error) {
			stdout.Write([]byte("out-chunk"))
			stderr.Write([]byte("err-chunk"))
			return func() error { return nil }, nil
		},
	}
	box := newTestBox(mock)

	var gotStdout, gotStderr []byte
	_, err := box.Run(context.Background(), "echo hi", RunOptions{
		OnStdout: func(c []byte) { gotStdout = append(gotStdout, c...) },
		OnStderr: func(c []byte) { gotStderr = append(gotStderr, c...) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(gotStdout) != "out-chunk" {
		t.Errorf("gotStdout = %q", gotStdout)
	}
	if string(gotStderr) != "err-chunk" {
		t.Errorf("gotStderr = %q", gotStderr)
	}
}

func TestRunStreamingPublishesStdoutStderrEvents(t *testing.T) {
	mock := &container.Mock{
		ExecStreamFunc: func(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, stdin io.Reader, stdout, stderr io.Writer, args ...string) (func() error, error) {
			stdout.Write([]byte("out-chunk"))
			stderr.Write([]byte("err-chunk"))
			return func() error { return nil }, nil
		},
	}
	box := newTestBox(mock)
	ch, unsub := box.Events()
	defer unsub()

	go box.Run(context.Background(), "echo hi", RunOptions{
		OnStdout: func([]byte) {},
		OnStderr: func([]byte) {},
	})

	var sawStdout, sawStderr bool
	timeout := time.After(time.Second)
	for !sawStdout || !sawStderr {
		select {
		case ev := <-ch:
			switch ev.Type {
			case events.Stdout:
				if ev.Data != "out-chunk" {
					t.Errorf("stdout event Data = %q, want out-chunk", ev.Data)
				}
				sawStdout = true
			case events.Stderr:
				if ev.Data != "err-chunk" {
					t.Errorf("stderr event Data = %q, want err-chunk", ev.Data)
				}
				sawStderr = true
			}
		case <-timeout:
			t.Fatalf("timed out waiting for stdout/stderr events (stdout=%v stderr=%v)", sawStdout, sawStderr)
		}
	}
}

func TestRunBufferedTimeoutTerminatesContainer(t *testing.T) {
	var stopped, killed bool
	mock := &container.Mock{
		ExecFunc: func(ctx context.Context, opts *options.ExecContainer, containerID, cmd string, args ...string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
		StopFunc: func(ctx context.Context, opts *options.StopContainer, containerID string) error {
			stopped = true
			return nil
		},
		KillFunc: func(ctx context.Context, opts *options.KillContainer, containerID string) error {
			killed = true
			return nil
		},
	}
	box := newTestBox(mock)

	_, err := box.Run(context.Background(), "sleep 5", RunOptions{TimeoutMS: 10})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if !stopped {
		t.Error("expected timeout to issue a graceful Stop")
	}
	if !killed {
		t.Error("expected timeout to force-kill after Stop")
	}
}

func TestRunEmitsStartAndEndEvents(t *testing.T) {
	mock := &container.Mock{}
	box := newTestBox(mock)
	ch, unsub := box.Events()
	defer unsub()

	go box.Run(context.Background(), "echo hi", RunOptions{})

	var seen []events.Type
	timeout := time.After(time.Second)
	for len(seen) < 2 {
		select {
		case ev := <-ch:
			seen = append(seen, ev.Type)
		case <-timeout:
			t.Fatalf("timed out waiting for events, saw: %v", seen)
		}
	}
	if seen[0] != events.Start || seen[1] != events.End {
		t.Errorf("events = %v, want [start end]", seen)
	}
}

func TestHostReturnsMappedAddress(t *testing.T) {
	box := newTestBox(&container.Mock{})
	box.ports = []PortMapping{{ContainerPort: 8080, HostPort: 32000}}

	addr, err := box.Host(8080)
	if err != nil {
		t.Fatalf("Host: %v", err)
	}
	if addr != "localhost:32000" {
		t.Errorf("Host(8080) = %q, want localhost:32000", addr)
	}

	if _, err := box.Host(9999); err == nil {
		t.Error("expected an error for an unpublished port")
	}
}
