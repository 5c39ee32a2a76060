package util

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// SafeCmdExecution runs an external command with a bounded runtime and
// returns its trimmed stdout. The binary must pass the permission check
// first, the daemon usually runs as root and must not execute files that
// other users can modify.
func SafeCmdExecution(executable string, args []string, timeout time.Duration) (string, error) {
	if _, err := CheckFilePermissionsForExecution(executable); err != nil {
		return "", fmt.Errorf("cannot execute %s: %s", executable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, executable, args...).Output()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("command %s did not finish within %s", executable, timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("command %s failed: %s: %s", executable, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("command %s failed: %s", executable, err)
	}

	return strings.TrimSpace(string(out)), nil
}
