package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/build"
	"github.com/justapithecus/smelt/cli/config"
	"github.com/justapithecus/smelt/cli/render"
	"github.com/justapithecus/smelt/gitinfo"
)

// StatusResponse is the response for the status command.
type StatusResponse struct {
	Script     string    `json:"script"`
	Branch     string    `json:"branch,omitempty"`
	Commit     string    `json:"commit,omitempty"`
	Ahead      int       `json:"ahead"`
	Behind     int       `json:"behind"`
	Executable string    `json:"executable,omitempty"`
	Compiler   string    `json:"compiler,omitempty"`
	ExitCode   int       `json:"exit_code"`
	BuiltAt    time.Time `json:"built_at,omitempty"`
	Duration   string    `json:"duration,omitempty"`
	Stale      bool      `json:"stale"`
}

// StatusCommand returns the status command. Status is read-only: it reports
// the repository state of the script's directory and the last recorded build,
// without invoking the compiler.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show repository and last-build state for a script",
		ArgsUsage: "<script>",
		Flags:     ReadOnlyFlags(),
		Action:    statusAction,
	}
}

func statusAction(c *cli.Context) error {
	scriptPath := c.Args().First()
	if scriptPath == "" {
		return cli.Exit("usage: smelt status <script>", 1)
	}

	scriptPath, err := filepath.Abs(scriptPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("resolve script path: %v", err), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	scriptDir := filepath.Dir(scriptPath)

	cfg, err := config.Discover(scriptDir)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	remote := cfg.Remote
	if remote == "" {
		remote = gitinfo.DefaultRemote
	}

	resp := StatusResponse{Script: scriptPath}

	// Git state is best-effort: a script outside any repository still has
	// a useful build status.
	if git, gitErr := gitinfo.Query(c.Context, scriptDir, remote); gitErr == nil {
		resp.Branch = git.Branch
		resp.Commit = git.ShortHash
		resp.Ahead = git.Ahead
		resp.Behind = git.Behind
	}

	binDir := filepath.Join(scriptDir, build.StagingDirName)
	if record, recErr := build.ReadRecord(binDir); recErr == nil {
		resp.Executable = record.Artifact
		resp.Compiler = record.Compiler
		resp.ExitCode = record.ExitCode
		resp.BuiltAt = record.StartedAt
		resp.Duration = record.Duration.String()
		resp.Stale = isStale(scriptPath, record.StalenessRef)
	} else {
		resp.Stale = true
	}

	return r.Render(resp)
}

// isStale reports whether the script has been modified after the staleness
// reference captured by the last build.
func isStale(scriptPath string, ref time.Time) bool {
	info, err := os.Stat(scriptPath)
	if err != nil {
		return true
	}
	return info.ModTime().After(ref)
}
