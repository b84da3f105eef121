// Package builder is the SDK entry point for generating brick models from
// text prompts or photos through a remote generation agent.
//
// Create a [Client] with [New], run generations with [Client.Generate] and
// friends, and release resources with [Client.Close]:
//
//	client, err := builder.New(ctx, builder.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	result, err := client.Generate(ctx, builder.GenerateOptions{
//	    Prompt: "a red dragon",
//	})
//
// Results are cached locally for a week, so repeating a prompt is instant.
// Session state (last prompt, mode, size and result) survives restarts
// through the same SQLite database.
package builder
