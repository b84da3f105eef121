package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type CompleteCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewCompleteCommand returns the complete command.
func NewCompleteCommand(rootCmd *RootCommand, app *kingpin.Application) *CompleteCommand {
	c := &CompleteCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("complete", "Mark the current build as finished. Ends the first-build simplification.")

	return c
}

func (c CompleteCommand) Name() string { return c.Cmd.FullCommand() }

func (c CompleteCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.MarkBuildComplete(ctx); err != nil {
		return fmt.Errorf("could not mark build complete: %w", err)
	}

	fmt.Fprintln(c.rootCmd.Stdout, "Build marked complete")

	return nil
}
