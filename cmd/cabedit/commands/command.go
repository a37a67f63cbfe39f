// Package commands defines the verbs of the cabedit CLI: one struct
// per editor.Editor operation, each a self-contained flags.Commander.
package commands

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/cabinetforge/cabctl/editor"
)

// Command is the interface every cabedit verb implements.
type Command interface {
	flags.Commander

	// ShortDescription explains what this command does in one line.
	ShortDescription() string
	// LongDescription explains what this verb does in full.
	LongDescription() string
}

// ErrArgs marks invalid command-line arguments, as opposed to a
// failure of the underlying editor operation.
type ErrArgs struct {
	Err error
}

func (e ErrArgs) Error() string { return fmt.Sprintf("invalid arguments: %v", e.Err) }
func (e ErrArgs) Unwrap() error { return e.Err }

// loadEditor reads path and loads it into a fresh Editor, the common
// first step of every verb below (cabedit is single-shot per
// invocation, so there is no long-lived editor process to load once
// and reuse).
func loadEditor(path string) (*editor.Editor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	ed := editor.New()
	if err := ed.Load(path, raw, ""); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return ed, nil
}

// writeOutput renders ed back to CAB bytes and writes them to
// outPath, or back over the loaded path when outPath is empty.
func writeOutput(ed *editor.Editor, outPath string, compress bool) error {
	out, err := ed.BuildCabBytes(compress)
	if err != nil {
		return fmt.Errorf("building cab: %w", err)
	}
	if outPath == "" {
		outPath = ed.Path
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}
