// Package main provides the smelt CLI entrypoint.
//
// The default action compiles the script named by the first argument,
// reusing the cached executable when it is still current. The status and
// version commands are read-only.
//
// Usage:
//
//	smelt [options] <script>
//	smelt <command> [options]
//
// Exit codes for the build action:
//   - 0: success (fresh or cached executable)
//   - 1: compile failure or orchestration error
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/cli/cmd"
	"github.com/justapithecus/smelt/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func init() {
	// -v belongs to --verbose on the build action; version keeps the long
	// form only.
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
}

func main() {
	app := &cli.App{
		Name:           "smelt",
		Usage:          "Compile single-file scripts on demand with incremental caching",
		ArgsUsage:      "<script>",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:          cmd.BuildFlags(),
		Action:         cmd.BuildAction(),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.StatusCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from
// cli.Exit(). A failed compile already showed its output through the
// captured stream replay, so an empty-message exit stays silent.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error - print and exit with code 1
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
