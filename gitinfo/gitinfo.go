// Package gitinfo queries repository status for auxiliary reporting: the
// current branch, the last commit's short hash, and how far the branch has
// diverged from a remote counterpart. It shells out to git; the build core
// never consumes any of this.
package gitinfo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/justapithecus/smelt/proc"
)

// DefaultRemote is the remote used for divergence counts when none is
// specified.
const DefaultRemote = "origin"

// Status is a snapshot of the repository containing a script.
type Status struct {
	// Branch is the current branch name.
	Branch string
	// ShortHash is the last commit's abbreviated hash.
	ShortHash string
	// Ahead is the number of local commits missing from the remote branch.
	Ahead int
	// Behind is the number of remote commits missing locally.
	Behind int
	// HasUpstream is false when the remote counterpart could not be
	// queried; Ahead and Behind are zero in that case.
	HasUpstream bool
}

// Query reports the status of the repository at dir, comparing against
// remote/<current-branch>. Branch and hash failures are fatal; a missing
// remote counterpart only zeroes the divergence counts.
func Query(ctx context.Context, dir, remote string) (*Status, error) {
	if remote == "" {
		remote = DefaultRemote
	}

	branch, err := gitLine(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("query branch: %w", err)
	}

	hash, err := gitLine(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("query commit hash: %w", err)
	}

	status := &Status{Branch: branch, ShortHash: hash}

	counts, err := gitLine(ctx, dir, "rev-list", "--left-right", "--count",
		remote+"/"+branch+"...HEAD")
	if err != nil {
		// No such remote branch; divergence is simply unknown.
		return status, nil
	}

	behind, ahead, ok := parseCounts(counts)
	if !ok {
		return status, nil
	}
	status.Behind = behind
	status.Ahead = ahead
	status.HasUpstream = true
	return status, nil
}

// gitLine runs one git query and returns its trimmed single-line output.
func gitLine(ctx context.Context, dir string, args ...string) (string, error) {
	full := append([]string{"-C", dir}, args...)
	res, err := proc.Execute(ctx, "git", full, false)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("git %s exited with code %d: %s",
			strings.Join(args, " "), res.ExitCode, strings.TrimSpace(res.Buffer.Stderr()))
	}
	return strings.TrimSpace(res.Buffer.Stdout()), nil
}

// parseCounts splits rev-list --left-right --count output ("<left>\t<right>").
func parseCounts(s string) (left, right int, ok bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, false
	}
	left, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, false
	}
	right, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, false
	}
	return left, right, true
}
