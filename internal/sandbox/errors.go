package sandbox

import (
	"errors"
	"fmt"

	"github.com/toolprint/vibekit/internal/errkind"
)

// ErrBusy is returned by Run when a command is already running on the box.
var ErrBusy = errors.New("sandbox: box is busy running a command")

// ErrNotFound is returned by Boxer.Get for an unknown id.
var ErrNotFound = fmt.Errorf("sandbox: box not found: %w", errkind.NotFound)

var errKilled = fmt.Errorf("sandbox: box is killed: %w", errkind.Killed)

var errInvalidCommand = fmt.Errorf("%w", errkind.InvalidInput)

// ErrTimeout is returned by Run when the command exceeds its timeout.
var ErrTimeout = fmt.Errorf("sandbox: command timed out: %w", errkind.Timeout)
