package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/justapithecus/smelt/iox"
	"github.com/justapithecus/smelt/types"
)

const (
	// backupSuffix derives the backup path from the script path. Probed
	// recursively, so it never overwrites pre-existing data.
	backupSuffix = ".bak"
	// commentPrefix rewrites directive lines so the compiler's own parser
	// never sees them.
	commentPrefix = "// "
)

// ErrScratchExists indicates the staging byproduct path for this script is
// already occupied, pointing at a concurrent build or a corrupted prior
// run. Fatal, never silently overwritten.
var ErrScratchExists = errors.New("staging byproduct already exists")

// RestoreGuard is a scoped acquisition of "script file is in rewritten
// state". Restore puts the original content back and deletes the backup;
// it is idempotent, so deferring it covers every exit path including a
// compiler that failed to start.
type RestoreGuard struct {
	original string
	backup   string
	done     bool
}

// Restore copies the backup over the original and removes the backup.
// Safe to call more than once; subsequent calls are no-ops.
func (g *RestoreGuard) Restore() error {
	if g.done {
		return nil
	}
	g.done = true
	if err := copyFile(g.backup, g.original); err != nil {
		return fmt.Errorf("restore %s from backup: %w", g.original, err)
	}
	if err := os.Remove(g.backup); err != nil {
		return fmt.Errorf("remove backup %s: %w", g.backup, err)
	}
	return nil
}

// Rewritten is the result of the in-place source transformation.
type Rewritten struct {
	// Inputs is the ordered compiler input sequence, ending with the
	// script entry that carries the backup bookkeeping.
	Inputs []types.CompilerInput
	// Guard restores the original file; the caller must arrange for it to
	// run on every exit path.
	Guard *RestoreGuard
}

// Rewrite performs the minimum-risk in-place mutation needed to compile the
// script with an external compiler that has no awareness of the directive
// syntax.
//
// A scratch copy with directive lines rewritten as comments is staged in
// binDir, the original is parked at a probed backup path, the scratch
// content replaces the original (the compiler is invoked against the
// original path so relative paths inside the script resolve exactly as
// written), and the scratch is deleted. The returned guard undoes all of it.
func Rewrite(scriptPath string, lines []types.ScriptLine, deps *Dependencies, binDir string) (*Rewritten, error) {
	scratch := filepath.Join(binDir, filepath.Base(scriptPath))
	if _, err := os.Stat(scratch); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrScratchExists, scratch)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat scratch %s: %w", scratch, err)
	}

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory %s: %w", binDir, err)
	}

	if err := os.WriteFile(scratch, []byte(renderCompilable(lines)), 0o644); err != nil {
		return nil, fmt.Errorf("write scratch copy %s: %w", scratch, err)
	}

	backup := probeBackupPath(scriptPath)
	if err := copyFile(scriptPath, backup); err != nil {
		return nil, fmt.Errorf("back up script to %s: %w", backup, err)
	}
	if err := copyFile(scratch, scriptPath); err != nil {
		// Put things back rather than leave a half-done rewrite.
		_ = copyFile(backup, scriptPath)
		_ = os.Remove(backup)
		return nil, fmt.Errorf("overwrite script with rewritten copy: %w", err)
	}
	if err := os.Remove(scratch); err != nil {
		return nil, fmt.Errorf("remove scratch copy %s: %w", scratch, err)
	}

	unit := &types.ScriptUnit{
		OriginalFile: scriptPath,
		BackupFile:   backup,
		Lines:        lines,
	}

	var inputs []types.CompilerInput
	for _, src := range deps.Sources {
		inputs = append(inputs, types.CompilerInput{Kind: types.InputSourceFile, Path: src})
	}
	for _, ref := range deps.References {
		inputs = append(inputs, types.CompilerInput{Kind: types.InputReference, Flag: ref})
	}
	inputs = append(inputs, types.CompilerInput{Kind: types.InputScript, Script: unit})

	return &Rewritten{
		Inputs: inputs,
		Guard:  &RestoreGuard{original: scriptPath, backup: backup},
	}, nil
}

// renderCompilable substitutes directive lines with line comments and
// passes ordinary lines through unchanged.
func renderCompilable(lines []types.ScriptLine) string {
	var sb strings.Builder
	for _, line := range lines {
		if line.Directive.IsDirective() {
			sb.WriteString(commentPrefix)
		}
		sb.WriteString(line.Raw)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// probeBackupPath appends the backup suffix until it finds an unused path.
func probeBackupPath(scriptPath string) string {
	candidate := scriptPath + backupSuffix
	for {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate += backupSuffix
	}
}

func copyFile(src, dst string) error {
	rf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(rf)

	wf, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(wf)

	_, err = io.Copy(wf, rf)
	return err
}
