package sandbox

import "fmt"

// state is a Box's lifecycle position. The zero value is stateReady, so a
// newly constructed Box starts ready.
type state int

const (
	stateReady state = iota
	stateRunningCommand
	stateError
	stateKilled
)

func (s state) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateRunningCommand:
		return "running_command"
	case stateError:
		return "error"
	case stateKilled:
		return "killed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// beginRun validates that a Run call may start from the current state,
// returning the next state (always stateRunningCommand) or an error.
// Only stateKilled and stateRunningCommand itself block a new Run;
// stateReady and stateError both admit one.
func beginRun(current state) (state, error) {
	switch current {
	case stateKilled:
		return current, errKilled
	case stateRunningCommand:
		return current, ErrBusy
	default:
		return stateRunningCommand, nil
	}
}

// endRun computes the state a Box settles into after a Run call
// completes, given whether it succeeded.
func endRun(success bool) state {
	if success {
		return stateReady
	}
	return stateError
}
