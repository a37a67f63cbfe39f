package commands

import (
	"fmt"
	"os"
)

var _ Command = (*UpdateCommand)(nil)

// UpdateCommand replaces an existing entry's payload.
type UpdateCommand struct {
	CabPath    string `short:"f" long:"file" description:"path to CAB file" required:"true"`
	SourceName string `short:"n" long:"source" description:"archive source name to replace" required:"true"`
	InputPath  string `short:"i" long:"input" description:"local file with the replacement payload" required:"true"`
	OutPath    string `short:"o" long:"output" description:"output CAB path (defaults to overwriting the loaded file)"`
	Compress   bool   `short:"c" long:"compress" description:"MS-ZIP compress the rebuilt CAB"`
}

func (c *UpdateCommand) ShortDescription() string { return "replace one entry's payload" }
func (c *UpdateCommand) LongDescription() string {
	return "Loads a CAB, replaces an existing source-name entry's payload, and rebuilds the CAB."
}

func (c *UpdateCommand) Execute(args []string) error {
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
	if err := ed.UpdateFile(c.SourceName, payload); err != nil {
		return fmt.Errorf("updating %s: %w", c.SourceName, err)
	}
	return writeOutput(ed, c.OutPath, c.Compress)
}
