package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/brickforge/brickforge/pkg/builder"
)

type RetryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewRetryCommand returns the retry command.
func NewRetryCommand(rootCmd *RootCommand, app *kingpin.Application) *RetryCommand {
	c := &RetryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("retry", "Regenerate the last prompt, bypassing the cache.")

	return c
}

func (c RetryCommand) Name() string { return c.Cmd.FullCommand() }

func (c RetryCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Regenerate(ctx)
	if err != nil {
		if errors.Is(err, builder.ErrRetryBudgetExhausted) {
			return fmt.Errorf("no retries left for this prompt, change the prompt or reset: %w", err)
		}
		return fmt.Errorf("could not regenerate model: %w", err)
	}

	printResult(c.rootCmd, *result)

	return nil
}
