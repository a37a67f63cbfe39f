package commands

import "fmt"

var _ Command = (*ListCommand)(nil)

// ListCommand loads a CAB and prints its records view.
type ListCommand struct {
	CabPath string `short:"f" long:"file" description:"path to CAB file" required:"true"`
}

func (c *ListCommand) ShortDescription() string { return "list records in a CAB" }
func (c *ListCommand) LongDescription() string {
	return "Loads a CAB (and its _setup.xml manifest if present) and prints one line per record."
}

func (c *ListCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("unexpected extra arguments")}
	}
	ed, err := loadEditor(c.CabPath)
	if err != nil {
		return err
	}
	for _, rec := range ed.Records {
		fmt.Printf("%-32s %-16s %10d  %s  %s\n", rec.DisplayName, rec.SourceName, rec.Size, rec.Modified, rec.ParentType)
	}
	if len(ed.Directories) > 0 {
		fmt.Println("directories:")
		for _, d := range ed.Directories {
			fmt.Println(" ", d)
		}
	}
	return nil
}
