package commands

import "fmt"

var _ Command = (*RemoveCommand)(nil)

// RemoveCommand deletes an entry and its manifest mapping, if any.
type RemoveCommand struct {
	CabPath    string `short:"f" long:"file" description:"path to CAB file" required:"true"`
	SourceName string `short:"n" long:"source" description:"archive source name to remove" required:"true"`
	OutPath    string `short:"o" long:"output" description:"output CAB path (defaults to overwriting the loaded file)"`
	Compress   bool   `short:"c" long:"compress" description:"MS-ZIP compress the rebuilt CAB"`
}

func (c *RemoveCommand) ShortDescription() string { return "remove one entry" }
func (c *RemoveCommand) LongDescription() string {
	return "Loads a CAB, removes a source-name entry (and its _setup.xml mapping if present), and rebuilds the CAB."
}

func (c *RemoveCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("unexpected extra arguments")}
	}
	ed, err := loadEditor(c.CabPath)
	if err != nil {
		return err
	}
	if err := ed.RemoveFile(c.SourceName); err != nil {
		return fmt.Errorf("removing %s: %w", c.SourceName, err)
	}
	return writeOutput(ed, c.OutPath, c.Compress)
}
