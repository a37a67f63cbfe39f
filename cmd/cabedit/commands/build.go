package commands

import "fmt"

var _ Command = (*BuildCommand)(nil)

// BuildCommand re-serializes a loaded CAB with no mutation, useful to
// verify round-tripping or to flip compression.
type BuildCommand struct {
	CabPath  string `short:"f" long:"file" description:"path to CAB file" required:"true"`
	OutPath  string `short:"o" long:"output" description:"output CAB path (defaults to overwriting the loaded file)"`
	Compress bool   `short:"c" long:"compress" description:"MS-ZIP compress the rebuilt CAB"`
}

func (c *BuildCommand) ShortDescription() string { return "rebuild a CAB with no mutation" }
func (c *BuildCommand) LongDescription() string {
	return "Loads a CAB and writes it back out unmodified, using the captured layout template."
}

func (c *BuildCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("unexpected extra arguments")}
	}
	ed, err := loadEditor(c.CabPath)
	if err != nil {
		return err
	}
	return writeOutput(ed, c.OutPath, c.Compress)
}
