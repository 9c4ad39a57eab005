package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Result is the outcome of a completed child process.
type Result struct {
	// ExitCode is the process exit code.
	ExitCode int
	// Buffer is the ordered capture of both output streams.
	Buffer *Buffer
}

// Execute runs the command to completion and returns its exit code together
// with the captured, interleaved output. Both output streams are redirected
// and drained concurrently; they are never inherited from the parent.
//
// When echo is true every captured byte is also written immediately to the
// parent's corresponding console stream.
//
// A non-zero exit code is not an error here; use SafeExecute for that.
// Failure to start the process at all returns a *LaunchError.
func Execute(ctx context.Context, name string, args []string, echo bool) (*Result, error) {
	var echoOut, echoErr io.Writer
	if echo {
		echoOut = os.Stdout
		echoErr = os.Stderr
	}
	return run(ctx, name, args, echoOut, echoErr)
}

// SafeExecute is Execute with a non-zero exit code promoted to a fatal
// *ExitError. When output was not echoed live, the captured buffer is
// replayed to the console first so the failure is diagnosable without a
// verbose rerun. The Result is returned alongside the error.
func SafeExecute(ctx context.Context, name string, args []string, echo bool) (*Result, error) {
	res, err := Execute(ctx, name, args, echo)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		if !echo {
			_ = res.Buffer.Replay(os.Stdout, os.Stderr)
		}
		return res, &ExitError{Name: name, Args: args, Code: res.ExitCode}
	}
	return res, nil
}

func run(ctx context.Context, name string, args []string, echoOut, echoErr io.Writer) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Name: name, Args: args, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Name: name, Args: args, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Name: name, Args: args, Err: err}
	}

	buf := &Buffer{}
	lock := NewTicketLock()

	var wg sync.WaitGroup
	wg.Add(2)
	go drain(stdout, StreamOutput, buf, lock, echoOut, &wg)
	go drain(stderr, StreamError, buf, lock, echoErr, &wg)

	// Readers run until both pipes report EOF, which cannot happen before
	// the child has exited and its pending buffered bytes are drained.
	wg.Wait()

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("wait for %q: %w", name, waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{ExitCode: exitCode, Buffer: buf}, nil
}

// drain reads one stream a single byte at a time. The first byte of each
// line is read before drawing a ticket so an idle stream never holds the
// lock; the remainder of the line is consumed inside the critical section,
// which keeps cross-stream interleaving at line granularity. Once the
// stream ends the reader stops contending and the other stream drains
// uncontended.
func drain(r io.Reader, stream Stream, buf *Buffer, lock *TicketLock, echo io.Writer, wg *sync.WaitGroup) {
	defer wg.Done()

	var one [1]byte
	for {
		n, err := r.Read(one[:])
		if n == 0 {
			if err != nil {
				return
			}
			continue
		}

		lock.Lock()
		for {
			buf.add(stream, one[0])
			if echo != nil {
				_, _ = echo.Write(one[:1])
			}
			if one[0] == '\n' {
				break
			}
			for {
				n, err = r.Read(one[:])
				if n > 0 || err != nil {
					break
				}
			}
			if n == 0 {
				break
			}
		}
		lock.Unlock()

		if err != nil {
			return
		}
	}
}
