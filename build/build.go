// Package build composes directive parsing, dependency resolution, the
// reversible source rewrite, and the external compiler invocation into a
// single "produce an executable for this script" operation.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/justapithecus/smelt/log"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/proc"
	"github.com/justapithecus/smelt/script"
	"github.com/justapithecus/smelt/types"
)

const (
	// DefaultCompiler is the external compiler binary invoked when none is
	// configured.
	DefaultCompiler = "csc"
	// DefaultTargetExt is appended to the script name to form the
	// executable name inside the staging directory.
	DefaultTargetExt = ".exe"
	// StagingDirName is the staging directory created beside the script.
	StagingDirName = "bin"
)

// Options configure one orchestrator.
type Options struct {
	// Compiler is the external compiler binary. Defaults to DefaultCompiler.
	Compiler string
	// TargetExt is the executable extension. Defaults to DefaultTargetExt.
	TargetExt string
	// Force bypasses the artifact cache.
	Force bool
	// Verbose echoes the compiler invocation and its live output.
	Verbose bool
	// ExtraReferences are always-on reference flags from configuration,
	// prepended to the script's own reference directives.
	ExtraReferences []string
	// Logger receives build progress. Defaults to a logger derived from
	// the script path.
	Logger *log.Logger
	// Metrics receives build counters. Optional; nil disables collection.
	Metrics *metrics.Collector
}

// Orchestrator runs builds for single-file scripts.
type Orchestrator struct {
	opts Options
}

// New creates an orchestrator, filling in option defaults.
func New(opts Options) *Orchestrator {
	if opts.Compiler == "" {
		opts.Compiler = DefaultCompiler
	}
	if opts.TargetExt == "" {
		opts.TargetExt = DefaultTargetExt
	}
	return &Orchestrator{opts: opts}
}

// Build produces an executable for the script, reusing the cached artifact
// when nothing relevant has changed.
//
// The script file is byte-identical to its pre-call content when Build
// returns, on every path: the rewrite's restore guard runs unconditionally
// after the compiler invocation attempt, including when the compiler fails
// to start.
//
// A compiler that runs and exits non-zero yields a failure BuildResult and
// a nil error; the caller translates that into a non-zero process exit.
// Build never deletes a successful artifact.
func (o *Orchestrator) Build(ctx context.Context, scriptPath string) (result types.BuildResult, err error) {
	scriptPath, err = filepath.Abs(scriptPath)
	if err != nil {
		return types.BuildResult{}, fmt.Errorf("resolve script path: %w", err)
	}

	logger := o.opts.Logger
	if logger == nil {
		if o.opts.Verbose {
			logger = log.NewVerboseLogger(scriptPath)
		} else {
			logger = log.NewLogger(scriptPath)
		}
	}

	o.opts.Metrics.IncBuildStarted()

	lines, err := script.ParseFile(scriptPath)
	if err != nil {
		return types.BuildResult{}, err
	}

	deps, err := script.Resolve(scriptPath, lines)
	if err != nil {
		return types.BuildResult{}, err
	}

	binDir := filepath.Join(filepath.Dir(scriptPath), StagingDirName)
	executable := filepath.Join(binDir, filepath.Base(scriptPath)+o.opts.TargetExt)

	staging := types.StagingArtifacts{
		BinFolder:        binDir,
		ExecutableTarget: executable,
	}
	if info, statErr := os.Stat(binDir); statErr != nil || !info.IsDir() {
		staging.CreatedByThisRun = true
	}

	if !o.opts.Force && Reusable(binDir, executable, deps.Newest) {
		logger.Debug("artifact up to date, skipping compiler", map[string]any{
			"executable":    executable,
			"staleness_ref": deps.Newest,
		})
		staging.CreatedByThisRun = false
		o.opts.Metrics.IncCacheHit()
		return types.BuildResult{
			Status:     types.BuildSuccess,
			Executable: executable,
			Staging:    staging,
			Cached:     true,
		}, nil
	}

	rewritten, err := script.Rewrite(scriptPath, lines, deps, binDir)
	if err != nil {
		return types.BuildResult{}, err
	}
	// The original file is in rewritten state from here; restore on every
	// exit path, including a compiler that fails to start.
	defer func() {
		if restoreErr := rewritten.Guard.Restore(); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	args := compilerArgs(rewritten.Inputs, executable, o.opts.ExtraReferences)
	startedAt := time.Now()
	logger.Info("invoking compiler", map[string]any{
		"compiler": o.opts.Compiler,
		"args":     args,
		"forced":   o.opts.Force,
	})

	res, err := proc.SafeExecute(ctx, o.opts.Compiler, args, o.opts.Verbose)
	o.opts.Metrics.AddCompileTime(time.Since(startedAt))
	if res != nil {
		o.opts.Metrics.AddStreamBytes(int64(len(res.Buffer.Stdout())), int64(len(res.Buffer.Stderr())))
	}
	if err != nil {
		var exitErr *proc.ExitError
		if !errors.As(err, &exitErr) {
			// Launch failure: the compiler never ran.
			o.opts.Metrics.IncCompilerLaunchFailure()
			o.cleanupStaging(staging, logger)
			return types.BuildResult{}, err
		}

		logger.Error("compiler exited non-zero", map[string]any{
			"exit_code": exitErr.Code,
			"duration":  time.Since(startedAt).String(),
		})
		o.opts.Metrics.IncBuildFailed()
		o.cleanupStaging(staging, logger)
		return types.BuildResult{
			Status:  types.BuildFailure,
			Staging: staging,
		}, nil
	}

	duration := time.Since(startedAt)
	logger.Info("compile succeeded", map[string]any{
		"executable": executable,
		"duration":   duration.String(),
	})

	record := &types.BuildRecord{
		Script:       scriptPath,
		Artifact:     executable,
		Compiler:     o.opts.Compiler,
		Args:         args,
		ExitCode:     res.ExitCode,
		StartedAt:    startedAt,
		Duration:     duration,
		StalenessRef: deps.Newest,
	}
	if recErr := WriteRecord(binDir, record); recErr != nil {
		logger.Warn("could not persist build record", map[string]any{"error": recErr.Error()})
	}

	o.opts.Metrics.IncBuildSucceeded()
	return types.BuildResult{
		Status:     types.BuildSuccess,
		Executable: executable,
		Staging:    staging,
	}, nil
}

// cleanupStaging removes the staging directory after a failed build, but
// only when this invocation created it.
func (o *Orchestrator) cleanupStaging(staging types.StagingArtifacts, logger *log.Logger) {
	if !staging.CreatedByThisRun {
		return
	}
	if err := os.RemoveAll(staging.BinFolder); err != nil {
		logger.Warn("could not remove staging directory", map[string]any{
			"dir":   staging.BinFolder,
			"error": err.Error(),
		})
	}
}

// compilerArgs builds the external compiler command line:
// reference flags first, then target and output, then the script followed
// by its load dependencies.
func compilerArgs(inputs []types.CompilerInput, executable string, extraRefs []string) []string {
	var args []string
	for _, ref := range extraRefs {
		args = append(args, "--reference:"+ref)
	}
	for _, in := range inputs {
		if in.Kind == types.InputReference {
			args = append(args, "--reference:"+in.Flag)
		}
	}
	args = append(args, "--target:exe", "--out:"+executable)

	for _, in := range inputs {
		if in.Kind == types.InputScript {
			args = append(args, in.Script.OriginalFile)
		}
	}
	for _, in := range inputs {
		if in.Kind == types.InputSourceFile {
			args = append(args, in.Path)
		}
	}
	return args
}
