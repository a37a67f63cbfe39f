// cabedit is a command-line front-end over the editor package: one
// subcommand per archive operation, single-shot per invocation.
package main

import (
	"log"

	"github.com/jessevdk/go-flags"

	"github.com/cabinetforge/cabctl/cmd/cabedit/commands"
)

var knownCommands = map[string]commands.Command{
	"list":      &commands.ListCommand{},
	"extract":   &commands.ExtractCommand{},
	"add":       &commands.AddCommand{},
	"update":    &commands.UpdateCommand{},
	"remove":    &commands.RemoveCommand{},
	"build":     &commands.BuildCommand{},
	"signature": &commands.SignatureCommand{},
}

func main() {
	parser := flags.NewParser(nil, flags.Default)
	for name, cmd := range knownCommands {
		if _, err := parser.AddCommand(name, cmd.ShortDescription(), cmd.LongDescription(), cmd); err != nil {
			panic(err)
		}
	}
	if _, err := parser.Parse(); err != nil {
		log.Fatal(err)
	}
}
