package types

// StagingArtifacts describes the build-tool-owned `bin` directory for one
// script and what this invocation is allowed to clean up.
type StagingArtifacts struct {
	// BinFolder is the staging directory beside the script.
	BinFolder string
	// CreatedByThisRun is true when this invocation created BinFolder.
	// Cleanup on failure or check-mode success removes the directory only
	// when this is set; a pre-existing directory is never deleted.
	CreatedByThisRun bool
	// ExecutableTarget is the path of the compiled executable inside BinFolder.
	ExecutableTarget string
}

// BuildStatus is the outcome of one orchestrator invocation.
type BuildStatus string

const (
	// BuildSuccess indicates a usable executable exists at the target path.
	BuildSuccess BuildStatus = "success"
	// BuildFailure indicates the compiler ran and exited non-zero.
	BuildFailure BuildStatus = "failure"
)

// BuildResult is produced exactly once per orchestrator invocation.
type BuildResult struct {
	// Status is the outcome discriminant.
	Status BuildStatus
	// Executable is the compiled artifact path (success only).
	Executable string
	// Staging is the staging directory state for caller-side cleanup.
	Staging StagingArtifacts
	// Cached is true when the artifact was reused without invoking the compiler.
	Cached bool
}

// Succeeded reports whether the build produced a usable executable.
func (r BuildResult) Succeeded() bool {
	return r.Status == BuildSuccess
}
