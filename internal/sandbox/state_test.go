package sandbox

import (
	"errors"
	"testing"
)

func TestBeginRunFromReadyAndError(t *testing.T) {
	for _, from := range []state{stateReady, stateError} {
		next, err := beginRun(from)
		if err != nil {
			t.Fatalf("beginRun(%s): unexpected error: %v", from, err)
		}
		if next != stateRunningCommand {
			t.Fatalf("beginRun(%s): got %s, want running_command", from, next)
		}
	}
}

func TestBeginRunFromRunningCommandReturnsBusy(t *testing.T) {
	_, err := beginRun(stateRunningCommand)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("beginRun(running_command): got %v, want ErrBusy", err)
	}
}

func TestBeginRunFromKilledReturnsErrKilled(t *testing.T) {
	_, err := beginRun(stateKilled)
	if !errors.Is(err, errKilled) {
		t.Fatalf("beginRun(killed): got %v, want errKilled", err)
	}
}

func TestEndRunSuccessAndFailure(t *testing.T) {
	if got := endRun(true); got != stateReady {
		t.Errorf("endRun(true) = %s, want ready", got)
	}
	if got := endRun(false); got != stateError {
		t.Errorf("endRun(false) = %s, want error", got)
	}
}

func TestStateStringCoversEveryDeclaredState(t *testing.T) {
	cases := map[state]string{
		stateReady:          "ready",
		stateRunningCommand: "running_command",
		stateError:          "error",
		stateKilled:         "killed",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("state(%d).String() = %q, want %q", s, got, want)
		}
	}
}
