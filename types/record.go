package types

import "time"

// RecordFileName is the build record file written into the staging directory
// after every compiler invocation. Encoded with msgpack.
const RecordFileName = ".smelt-record"

// BuildRecord is the persisted summary of the most recent build of a script.
// It exists for the `smelt status` surface only; cache decisions are made
// from file modification times, never from this record.
type BuildRecord struct {
	// Script is the absolute path of the built script.
	Script string `msgpack:"script" json:"script"`
	// Artifact is the produced executable path.
	Artifact string `msgpack:"artifact" json:"artifact"`
	// Compiler is the external compiler binary that was invoked.
	Compiler string `msgpack:"compiler" json:"compiler"`
	// Args is the full compiler argument list.
	Args []string `msgpack:"args" json:"args"`
	// ExitCode is the compiler's exit code.
	ExitCode int `msgpack:"exit_code" json:"exit_code"`
	// StartedAt is when the build began.
	StartedAt time.Time `msgpack:"started_at" json:"started_at"`
	// Duration is the wall-clock build duration.
	Duration time.Duration `msgpack:"duration" json:"duration"`
	// StalenessRef is the newest modification time among the script and its
	// one-level dependencies at build time.
	StalenessRef time.Time `msgpack:"staleness_ref" json:"staleness_ref"`
}
