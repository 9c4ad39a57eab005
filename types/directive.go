// Package types defines core domain types for the smelt build tool.
//
//nolint:revive // types is a common Go package naming convention
package types

// Sentinel is the character that introduces a directive at the start of a
// script line. Lines not starting with it are ordinary source lines.
const Sentinel = '#'

// DirectiveKind classifies a parsed script line.
type DirectiveKind string

const (
	// DirectiveNone marks an ordinary source line passed through to the compiler.
	DirectiveNone DirectiveKind = "none"
	// DirectiveSkip marks a shebang line, dropped from the compiled copy.
	DirectiveSkip DirectiveKind = "skip"
	// DirectiveLoad marks a `#load "path"` line pulling in another source file.
	DirectiveLoad DirectiveKind = "load"
	// DirectiveReference marks a `#r "path-or-name"` line naming a library.
	DirectiveReference DirectiveKind = "reference"
)

// Directive is the structured form of a single directive.
// Immutable once parsed.
type Directive struct {
	// Kind is the directive classification.
	Kind DirectiveKind
	// Arg is the quoted payload: a relative path for load, a relative path
	// or bare library name for reference. Empty for none and skip.
	Arg string
}

// IsDirective returns true for lines the compiler must not see verbatim.
func (d Directive) IsDirective() bool {
	return d.Kind != DirectiveNone
}

// ScriptLine pairs a raw source line with its parsed directive.
type ScriptLine struct {
	// Raw is the line text without its terminator.
	Raw string
	// Directive is the parsed classification of the line.
	Directive Directive
}
