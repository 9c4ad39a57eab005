package types

// ScriptUnit is a script undergoing one build attempt, together with the
// backup that allows its in-place rewrite to be undone.
//
// A ScriptUnit is owned exclusively by a single build invocation. BackupFile
// must not exist before the transformation starts; a pre-existing backup is
// treated as a corrupted prior run, never overwritten.
type ScriptUnit struct {
	// OriginalFile is the path of the user's script.
	OriginalFile string
	// BackupFile is where the pristine script is parked while the rewritten
	// copy occupies OriginalFile. Derived from OriginalFile by suffix probing.
	BackupFile string
	// Lines is the ordered sequence of parsed source lines.
	Lines []ScriptLine
}

// CompilerInputKind discriminates CompilerInput variants.
type CompilerInputKind string

const (
	// InputSourceFile is a plain source file path fed to the compiler.
	InputSourceFile CompilerInputKind = "source_file"
	// InputScript is the rewritten script itself, carrying backup state.
	InputScript CompilerInputKind = "script"
	// InputReference is a library reference turned into a compiler flag.
	InputReference CompilerInputKind = "reference"
)

// CompilerInput is one element of the ordered sequence fed to the external
// compiler invocation.
type CompilerInput struct {
	// Kind discriminates which of the remaining fields is meaningful.
	Kind CompilerInputKind
	// Path is the source file path (InputSourceFile only).
	Path string
	// Script is the script unit (InputScript only).
	Script *ScriptUnit
	// Flag is the reference flag value: a resolved path if the reference
	// exists on disk, else the bare library name (InputReference only).
	Flag string
}
