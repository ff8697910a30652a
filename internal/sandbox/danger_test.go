package sandbox

import (
	"errors"
	"testing"

	"github.com/toolprint/vibekit/internal/errkind"
)

func TestCheckDangerousCommandRejectsBlacklist(t *testing.T) {
	cases := []string{
		"rm -rf /",
		"echo hi && rm -rf /*",
		":(){ :|:& };:",
		"dd if=/dev/zero of=/dev/sda",
	}
	for _, cmd := range cases {
		if err := checkDangerousCommand(cmd); !errors.Is(err, errkind.InvalidInput) {
			t.Errorf("checkDangerousCommand(%q) = %v, want errkind.InvalidInput", cmd, err)
		}
	}
}

func TestCheckDangerousCommandPermitsOtherMetacharacters(t *testing.T) {
	cases := []string{
		"rm -rf ./build",
		"echo $(whoami) | grep root",
		"ls -la; echo done",
		"cat file > out.txt",
	}
	for _, cmd := range cases {
		if err := checkDangerousCommand(cmd); err != nil {
			t.Errorf("checkDangerousCommand(%q) = %v, want nil", cmd, err)
		}
	}
}
