package sandbox

import (
	"fmt"
	"strings"
)

// dangerousPatterns is the exact blacklist a command string is checked
// against before any event is emitted. Other shell metacharacters are
// permitted; the container boundary is the security domain, not the
// command string.
var dangerousPatterns = []string{
	"rm -rf /",
	"rm -rf /*",
	":(){ :|:& };:",
	"dd if=/dev/zero",
}

// checkDangerousCommand rejects a command string containing any blacklisted
// pattern, returning an error wrapping errkind.InvalidInput.
func checkDangerousCommand(command string) error {
	for _, p := range dangerousPatterns {
		if strings.Contains(command, p) {
			return fmt.Errorf("sandbox: command contains blocked pattern %q: %w", p, errInvalidCommand)
		}
	}
	return nil
}
