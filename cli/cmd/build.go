package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/smelt/build"
	"github.com/justapithecus/smelt/cli/config"
	"github.com/justapithecus/smelt/types"
)

// BuildFlags returns the flags for the default build action.
func BuildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Rebuild even when the cached executable is current",
		},
		&cli.BoolFlag{
			Name:    "check",
			Aliases: []string{"k"},
			Usage:   "Compile for diagnostics only; discard artifacts produced by this run",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Echo the compiler invocation and its live output",
		},
		&cli.StringFlag{
			Name:  "compiler",
			Usage: "Compiler binary to invoke (overrides configuration)",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a smelt.yaml configuration file",
		},
	}
}

// BuildAction returns the default action: compile the script named by the
// first argument, reusing the cached executable when it is still current.
func BuildAction() cli.ActionFunc {
	return func(c *cli.Context) error {
		scriptPath := c.Args().First()
		if scriptPath == "" {
			return cli.Exit("usage: smelt [options] <script>", 1)
		}

		scriptPath, err := filepath.Abs(scriptPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("resolve script path: %v", err), 1)
		}

		cfg, err := loadConfig(c, filepath.Dir(scriptPath))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		compiler := cfg.Compiler
		if c.String("compiler") != "" {
			compiler = c.String("compiler")
		}

		orch := build.New(build.Options{
			Compiler:        compiler,
			TargetExt:       cfg.TargetExt,
			Force:           c.Bool("force"),
			Verbose:         c.Bool("verbose") || cfg.Verbose,
			ExtraReferences: cfg.References,
		})

		result, err := orch.Build(c.Context, scriptPath)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		if c.Bool("check") {
			if discardErr := discardArtifacts(result); discardErr != nil {
				return cli.Exit(discardErr.Error(), 1)
			}
		}

		if !result.Succeeded() {
			return cli.Exit("", 1)
		}
		return nil
	}
}

// loadConfig resolves the effective configuration: an explicit --config path
// wins, otherwise discovery walks the script directory and the working
// directory.
func loadConfig(c *cli.Context, scriptDir string) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.Discover(scriptDir)
}

// discardArtifacts removes what a check-mode build produced. A staging
// directory created by this run is removed whole; a pre-existing directory
// only loses the fresh executable. Cached results were not produced by this
// run and are left in place.
func discardArtifacts(result types.BuildResult) error {
	if !result.Succeeded() || result.Cached {
		return nil
	}
	if result.Staging.CreatedByThisRun {
		if err := os.RemoveAll(result.Staging.BinFolder); err != nil {
			return fmt.Errorf("discard staging folder: %w", err)
		}
		return nil
	}
	if err := os.Remove(result.Staging.ExecutableTarget); err != nil {
		return fmt.Errorf("discard executable: %w", err)
	}
	// The build record describes an executable that no longer exists.
	_ = os.Remove(filepath.Join(result.Staging.BinFolder, types.RecordFileName))
	return nil
}
