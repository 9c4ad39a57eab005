package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/justapithecus/smelt/types"
)

// ErrDependencyMissing indicates a load directive whose target does not
// exist. Dependencies are never fetched or created.
var ErrDependencyMissing = errors.New("dependency not found")

// Dependencies is the resolved one-level dependency set of a script.
//
// Resolution is exactly one level deep: load targets are not themselves
// scanned for further directives, so their own dependencies do not
// participate in staleness. Changing this would silently change
// cache-invalidation semantics.
type Dependencies struct {
	// Sources are the resolved load target paths, in directive order.
	Sources []string
	// References are compiler reference flag values, in directive order:
	// the resolved path when the target exists on disk, else the bare
	// library name as written.
	References []string
	// Newest is the staleness reference: the maximum modification time
	// over the script, its load targets, and its on-disk references.
	Newest time.Time
}

// Resolve produces the dependency set for a parsed script.
//
// Load targets are resolved relative to the script's directory and must
// exist; a missing target is an ErrDependencyMissing naming the offending
// path. Reference targets resolve the same way, but a missing file demotes
// the reference to an opaque library name rather than an error, since
// compiler-builtin libraries are referenced by name, not by path.
func Resolve(scriptPath string, lines []types.ScriptLine) (*Dependencies, error) {
	info, err := os.Stat(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("stat script %s: %w", scriptPath, err)
	}

	dir := filepath.Dir(scriptPath)
	deps := &Dependencies{Newest: info.ModTime()}

	for _, line := range lines {
		switch line.Directive.Kind {
		case types.DirectiveLoad:
			target := filepath.Join(dir, line.Directive.Arg)
			ti, err := os.Stat(target)
			if err != nil {
				if os.IsNotExist(err) {
					return nil, fmt.Errorf("%w: %s", ErrDependencyMissing, target)
				}
				return nil, fmt.Errorf("stat dependency %s: %w", target, err)
			}
			deps.Sources = append(deps.Sources, target)
			if ti.ModTime().After(deps.Newest) {
				deps.Newest = ti.ModTime()
			}

		case types.DirectiveReference:
			target := filepath.Join(dir, line.Directive.Arg)
			ti, err := os.Stat(target)
			if err != nil {
				// Not on disk: a compiler-builtin or system library.
				deps.References = append(deps.References, line.Directive.Arg)
				continue
			}
			deps.References = append(deps.References, target)
			if ti.ModTime().After(deps.Newest) {
				deps.Newest = ti.ModTime()
			}
		}
	}

	return deps, nil
}
