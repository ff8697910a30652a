package sandbox

import (
	"time"

	"github.com/toolprint/vibekit/pkg/agentkind"
)

// FrameworkFailureExitCode marks a CommandResult whose ExitCode does not
// come from the executed process itself (validation failure, timeout,
// transport error).
const FrameworkFailureExitCode = -1

// DefaultTimeout bounds Run when opts.TimeoutMS is zero.
const DefaultTimeout = 120 * time.Second

// RunOptions configures a single Run call.
type RunOptions struct {
	// TimeoutMS is a hard upper bound on execution; zero means DefaultTimeout.
	TimeoutMS int64
	// Background spawns the command detached: Run returns immediately with
	// a synthetic success result and the workspace snapshot is saved as-is.
	Background bool
	// OnStdout, when set, switches Run to the streaming execution path and
	// is called with each stdout chunk as it arrives.
	OnStdout func(chunk []byte)
	// OnStderr is the streaming path's stderr counterpart to OnStdout.
	OnStderr func(chunk []byte)
	// TTY allocates a pseudo-terminal for the streaming path.
	TTY bool
}

func (o RunOptions) streaming() bool {
	return o.OnStdout != nil || o.OnStderr != nil
}

func (o RunOptions) timeout() time.Duration {
	if o.TimeoutMS <= 0 {
		return DefaultTimeout
	}
	return time.Duration(o.TimeoutMS) * time.Millisecond
}

// CommandResult is what Run returns on every exit path.
type CommandResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// PortMapping records a container port published to a host port,
// consulted by Host. Boxer.Create publishes no ports and records no
// mappings.
type PortMapping struct {
	ContainerPort int
	HostPort      int
}

// Record is the in-memory, non-serialized descriptor of a Box, mirroring
// the persisted shape of the teacher's own sandbox row without actually
// being written to disk: sandbox instances do not survive process restart.
type Record struct {
	ID                string
	AgentKind         *agentkind.Kind
	EnvVars           map[string]string
	WorkDir           string
	Running           bool
	WorkspaceSnapshot *Snapshot
	ImageTag          string
	CreatedAt         time.Time
	LastUsedAt        time.Time
}
