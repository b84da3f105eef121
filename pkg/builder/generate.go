package builder

import (
	"context"
)

// Generate runs a full generation for a prompt, blocking until it completes,
// fails or times out. Cached results return quickly with a replayed progress
// story. Watch progress from another goroutine through [Client.Status].
func (c *Client) Generate(ctx context.Context, opts GenerateOptions) (*GenerationResult, error) {
	return c.genSvc.Generate(ctx, opts)
}

// Regenerate retries the current prompt, bypassing the cache. Each prompt has
// a fixed retry budget; past it, [ErrRetryBudgetExhausted] is returned.
func (c *Client) Regenerate(ctx context.Context) (*GenerationResult, error) {
	return c.genSvc.Regenerate(ctx)
}

// Modify regenerates the current model with a modification instruction
// appended to the original prompt, always bypassing the cache.
func (c *Client) Modify(ctx context.Context, instruction string) (*GenerationResult, error) {
	return c.genSvc.Modify(ctx, instruction)
}

// StartFresh cancels any in-flight generation, resets the session and clears
// the stored one.
func (c *Client) StartFresh(ctx context.Context) error {
	return c.genSvc.StartFresh(ctx)
}

// Status returns a snapshot of the current session state: status, stage,
// prompt, elapsed time, result and retry budget.
func (c *Client) Status() SessionState {
	return c.tracker.State()
}

// IsFirstBuild reports whether the user has yet to complete their first
// build. First builds default to simpler models.
func (c *Client) IsFirstBuild(ctx context.Context) bool {
	return c.fbSvc.IsFirstBuild(ctx)
}

// MarkBuildComplete records that a build was finished, ending the first-build
// simplification for future generations.
func (c *Client) MarkBuildComplete(ctx context.Context) error {
	return c.fbSvc.MarkComplete(ctx)
}
