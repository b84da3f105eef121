// Package agent implements the client side of the remote generation agent's
// task protocol: message submission, task polling and artifact extraction.
package agent

import (
	"context"
	"time"

	"github.com/brickforge/brickforge/internal/model"
)

// Client knows how to drive a generation task on the remote agent.
type Client interface {
	// Submit sends a text prompt and returns the initial task. An empty
	// contextID gets a freshly generated one.
	Submit(ctx context.Context, prompt, contextID string) (*model.Task, error)

	// SubmitWithImages sends a multipart image request and returns the
	// initial task.
	SubmitWithImages(ctx context.Context, prompt string, images []model.ImageFile, inventory []model.Brick, opts *model.GenerateOptions) (*model.Task, error)

	// GetTask retrieves the current state of a task.
	GetTask(ctx context.Context, id string) (*model.Task, error)

	// Poll retrieves the task repeatedly until it reaches a terminal state
	// and returns the terminal task. Poll has no overall deadline of its own,
	// callers bound it through the context.
	Poll(ctx context.Context, id string) (*model.Task, error)

	// ResolveFileURL joins a server-relative artifact path to the API base
	// URL. Absolute URLs pass through untouched, empty paths stay empty.
	ResolveFileURL(path string) string
}

const (
	defaultBaseURL      = "http://localhost:8001"
	defaultPollInterval = 1 * time.Second
)
