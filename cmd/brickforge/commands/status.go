package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Show the stored session: last prompt, mode and result.")
	c.Cmd.Flag("format", "Output format (plain, json).").Default("plain").EnumVar(&c.format, "plain", "json")

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	status := client.Status()

	if c.format == "json" {
		enc := json.NewEncoder(c.rootCmd.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(statusView{
			Status:    string(status.Status),
			Mode:      string(status.Mode),
			ModelSize: string(status.ModelSize),
			Prompt:    status.Prompt,
			Result:    status.Result,
		})
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Status: %s\n", status.Status)
	fmt.Fprintf(c.rootCmd.Stdout, "Mode: %s\n", status.Mode)
	fmt.Fprintf(c.rootCmd.Stdout, "Size: %s\n", status.ModelSize)
	if status.Prompt != "" {
		fmt.Fprintf(c.rootCmd.Stdout, "Prompt: %s\n", status.Prompt)
	}
	if client.IsFirstBuild(ctx) {
		fmt.Fprintf(c.rootCmd.Stdout, "First build: yes (models are simplified, use --advanced to override)\n")
	}
	if status.Result != nil {
		fmt.Fprintln(c.rootCmd.Stdout)
		printResult(c.rootCmd, *status.Result)
	}

	return nil
}

type statusView struct {
	Status    string      `json:"status"`
	Mode      string      `json:"mode"`
	ModelSize string      `json:"modelSize"`
	Prompt    string      `json:"prompt,omitempty"`
	Result    interface{} `json:"result,omitempty"`
}
