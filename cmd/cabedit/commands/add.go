package commands

import (
	"fmt"
	"os"
)

var _ Command = (*AddCommand)(nil)

// AddCommand inserts a new file payload under a generated source name.
type AddCommand struct {
	CabPath     string `short:"f" long:"file" description:"path to CAB file" required:"true"`
	InputPath   string `short:"i" long:"input" description:"local file to add" required:"true"`
	DisplayName string `long:"display-name" description:"install-time display name (defaults to the input file's base name)"`
	Directory   string `long:"directory" description:"target install directory in _setup.xml, e.g. \\Windows"`
	OutPath     string `short:"o" long:"output" description:"output CAB path (defaults to overwriting the loaded file)"`
	Compress    bool   `short:"c" long:"compress" description:"MS-ZIP compress the rebuilt CAB"`
}

func (c *AddCommand) ShortDescription() string { return "add a file to a CAB" }
func (c *AddCommand) LongDescription() string {
	return "Loads a CAB, adds a new entry for the given local file, and rebuilds the CAB."
}

func (c *AddCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("unexpected extra arguments")}
	}
	ed, err := loadEditor(c.CabPath)
	if err != nil {
		return err
	}
	payload, err := os.ReadFile(c.InputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.InputPath, err)
	}
	if err := ed.AddFile(payload, c.InputPath, c.DisplayName, c.Directory); err != nil {
		return fmt.Errorf("adding %s: %w", c.InputPath, err)
	}
	return writeOutput(ed, c.OutPath, c.Compress)
}
