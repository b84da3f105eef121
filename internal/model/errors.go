package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")

	// ErrRequestFailed is returned when the agent API answers with a non-success response.
	ErrRequestFailed = errors.New("request failed")
	// ErrGenerationFailed is returned when a task ends in a terminal state other than completed.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrMissingArtifact is returned when a completed task carries no recognizable model file.
	ErrMissingArtifact = errors.New("no model file found")
	// ErrTimeout is returned when a generation exceeds the configured ceiling.
	ErrTimeout = errors.New("generation timed out")
	// ErrRetryBudgetExhausted is returned when a regeneration is requested after the
	// retry budget has been spent.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
)
