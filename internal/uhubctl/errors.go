package uhubctl

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Match with errors.Is.
var (
	ErrBinaryNotFound    = errors.New("uhubctl binary not found")
	ErrCommandFailed     = errors.New("uhubctl failed")
	ErrStatusUnavailable = errors.New("port status not reported")
	ErrNoDevice          = errors.New("no device attached")
	ErrInvalidPath       = errors.New("invalid hub path")
	ErrInvalidPortNumber = errors.New("invalid port number")
	ErrDuplicatePort     = errors.New("port already present on hub")
	ErrInvalidTarget     = errors.New("invalid port target")
)

// noDevicesPrefix is what uhubctl prints on stderr when it finds no hub it
// can switch. It exits non-zero, but for callers this is an empty result.
const noDevicesPrefix = "No compatible devices detected"

// CommandError reports a uhubctl run that exited non-zero for a reason other
// than "no compatible devices".
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "no output"
	}
	return fmt.Sprintf("uhubctl failed (exit %d): %s", e.ExitCode, msg)
}

// Is makes every CommandError match ErrCommandFailed.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}

// PermissionDenied reports whether uhubctl complained about access rights.
// On Linux that usually means udev rules are missing or sudo is needed.
func (e *CommandError) PermissionDenied() bool {
	s := strings.ToLower(e.Stderr)
	return strings.Contains(s, "permission denied") ||
		strings.Contains(s, "operation not permitted") ||
		strings.Contains(s, "run as root")
}
