package commands

import (
	"fmt"

	"github.com/cabinetforge/cabctl/signature"
)

var _ Command = (*SignatureCommand)(nil)

// SignatureCommand prints an advisory Authenticode snapshot for a
// file, independent of any CAB parsing.
type SignatureCommand struct {
	FilePath string `short:"f" long:"file" description:"path to probe" required:"true"`
}

func (c *SignatureCommand) ShortDescription() string { return "probe Authenticode signature status" }
func (c *SignatureCommand) LongDescription() string {
	return "Runs an advisory Authenticode signature check via PowerShell; never fails the invocation."
}

func (c *SignatureCommand) Execute(args []string) error {
	if len(args) != 0 {
		return ErrArgs{Err: fmt.Errorf("unexpected extra arguments")}
	}
	status := signature.Probe(c.FilePath)
	fmt.Printf("Status:        %s\n", status.Status)
	fmt.Printf("StatusMessage: %s\n", status.StatusMessage)
	fmt.Printf("Signer:        %s\n", status.Signer)
	fmt.Printf("Timestamp:     %s\n", status.Timestamp)
	return nil
}
