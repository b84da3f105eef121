package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type ModifyCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	instruction string
}

// NewModifyCommand returns the modify command.
func NewModifyCommand(rootCmd *RootCommand, app *kingpin.Application) *ModifyCommand {
	c := &ModifyCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("modify", "Regenerate the last model with a modification instruction.")
	c.Cmd.Arg("instruction", "Modification to apply, e.g. \"make it bigger\".").Required().StringVar(&c.instruction)

	return c
}

func (c ModifyCommand) Name() string { return c.Cmd.FullCommand() }

func (c ModifyCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Modify(ctx, c.instruction)
	if err != nil {
		return fmt.Errorf("could not modify model: %w", err)
	}

	printResult(c.rootCmd, *result)

	return nil
}
