package commands

import (
	"fmt"
	"os"
)

var _ Command = (*ExtractCommand)(nil)

// ExtractCommand pulls one entry's payload out of a CAB to a file.
type ExtractCommand struct {
	CabPath    string `short:"f" long:"file" description:"path to CAB file" required:"true"`
	SourceName string `short:"n" long:"source" description:"archive source name to extract" required:"true"`
	OutPath    string `short:"o" long:"output" description:"destination path" required:"true"`
}

func (c *ExtractCommand) ShortDescription() string { return "extract one entry's payload" }
func (c *ExtractCommand) LongDescription() string {
	return "Loads a CAB and writes the raw payload of one source-name entry to a local file."
}

func (c *ExtractCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("unexpected extra arguments")}
	}
	ed, err := loadEditor(c.CabPath)
	if err != nil {
		return err
	}
	payload, err := ed.GetFileBytes(c.SourceName)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", c.SourceName, err)
	}
	if err := os.WriteFile(c.OutPath, payload, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.OutPath, err)
	}
	return nil
}
