package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type ResetCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewResetCommand returns the reset command.
func NewResetCommand(rootCmd *RootCommand, app *kingpin.Application) *ResetCommand {
	c := &ResetCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("reset", "Discard the stored session and start fresh.")

	return c
}

func (c ResetCommand) Name() string { return c.Cmd.FullCommand() }

func (c ResetCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartFresh(ctx); err != nil {
		return fmt.Errorf("could not reset session: %w", err)
	}

	fmt.Fprintln(c.rootCmd.Stdout, "Session reset")

	return nil
}
