// Package proc executes external commands while capturing their two output
// streams into a single ordered, replayable buffer.
//
// Each stream is drained by its own reader goroutine one byte at a time.
// Reading larger chunks would make the relative ordering of the two streams
// depend on an arbitrary buffer size rather than on the order the operating
// system delivered bytes, so throughput is deliberately traded for faithful
// interleaving. A FIFO ticket lock scopes each reader's turn to one line:
// lines from different streams never interleave character-by-character, and
// neither stream can starve the other.
package proc

import (
	"fmt"
	"strings"
)

// LaunchError indicates the child process could not be started at all
// (executable not found, permission denied, platform launch failure).
// Non-retriable; no output buffer exists.
type LaunchError struct {
	// Name is the command that was attempted.
	Name string
	// Args are the arguments that were supplied.
	Args []string
	// Err is the underlying OS error.
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("cannot launch %q %s: %v", e.Name, formatArgs(e.Args), e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitError indicates the child ran to completion but exited non-zero.
// Raised by SafeExecute; the captured output has already been dumped to the
// console when it was not echoed live.
type ExitError struct {
	// Name is the command that ran.
	Name string
	// Args are the arguments that were supplied.
	Args []string
	// Code is the non-zero exit code.
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%q %s exited with code %d", e.Name, formatArgs(e.Args), e.Code)
}

func formatArgs(args []string) string {
	return "[" + strings.Join(args, " ") + "]"
}
