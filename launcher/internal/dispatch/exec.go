package dispatch

import (
	"errors"
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"
)

// ErrNotFound is returned when the server binary cannot be resolved.
var ErrNotFound = errors.New("dispatch: server binary not found")

// ExecFunc replaces the current process image. It only returns on failure.
type ExecFunc func(argv []string, env []string) error

// Exec resolves argv[0] on PATH and replaces the current process with it,
// passing argv and env unchanged. Standard streams are inherited. On success
// it never returns; the exit status becomes the server's own.
func Exec(argv []string, env []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("dispatch: empty command")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrNotFound, argv[0], err)
	}

	if err := unix.Exec(path, argv, env); err != nil {
		return fmt.Errorf("dispatch: exec %q: %w", path, err)
	}
	return nil
}

// ExitCode maps a dispatch failure onto the shell convention: 127 when the
// command was not found, 126 when it was found but could not be executed.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotFound):
		return 127
	default:
		return 126
	}
}
