// Package script implements directive parsing, one-level dependency
// resolution, and the reversible source rewrite that hides directives from
// the external compiler.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/justapithecus/smelt/iox"
	"github.com/justapithecus/smelt/types"
)

// Directive syntax. A directive occupies a whole line and carries its
// payload between double quotes.
const (
	shebangPrefix = "#!"
	loadPrefix    = `#load "`
	refPrefix     = `#r "`
	closingQuote  = `"`
)

// ErrUnknownDirective indicates a line starting with the directive sentinel
// that matches no recognized directive form. Fatal, never retried.
var ErrUnknownDirective = errors.New("unrecognized directive")

// ParseLine classifies one line of script text.
//
// A shebang line yields a skip directive, `#load "..."` a load, `#r "..."`
// a reference. Any other sentinel-prefixed line is an ErrUnknownDirective.
// Everything else is an ordinary source line. Pure and stateless.
func ParseLine(line string) (types.Directive, error) {
	switch {
	case strings.HasPrefix(line, shebangPrefix):
		return types.Directive{Kind: types.DirectiveSkip}, nil

	case strings.HasPrefix(line, loadPrefix):
		arg, err := directiveArg(line, loadPrefix)
		if err != nil {
			return types.Directive{}, err
		}
		return types.Directive{Kind: types.DirectiveLoad, Arg: arg}, nil

	case strings.HasPrefix(line, refPrefix):
		arg, err := directiveArg(line, refPrefix)
		if err != nil {
			return types.Directive{}, err
		}
		return types.Directive{Kind: types.DirectiveReference, Arg: arg}, nil

	case strings.HasPrefix(line, string(types.Sentinel)):
		return types.Directive{}, fmt.Errorf("%w: %q", ErrUnknownDirective, line)

	default:
		return types.Directive{Kind: types.DirectiveNone}, nil
	}
}

// directiveArg extracts the quoted payload between the prefix and the
// closing quote.
func directiveArg(line, prefix string) (string, error) {
	rest := line[len(prefix):]
	end := strings.Index(rest, closingQuote)
	if end < 0 {
		return "", fmt.Errorf("%w: missing closing quote: %q", ErrUnknownDirective, line)
	}
	return rest[:end], nil
}

// ParseFile reads a script and classifies every line.
// Parse errors carry the 1-based line number.
func ParseFile(path string) ([]types.ScriptLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script %s: %w", path, err)
	}
	defer iox.DiscardClose(f)

	var lines []types.ScriptLine
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		directive, err := ParseLine(raw)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		lines = append(lines, types.ScriptLine{Raw: raw, Directive: directive})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}

	return lines, nil
}
