package builder

import (
	"github.com/brickforge/brickforge/internal/agent"
	"github.com/brickforge/brickforge/internal/app/generate"
	"github.com/brickforge/brickforge/internal/model"
)

// GenerateOptions are the options for one generation request.
type GenerateOptions = generate.GenerateOptions

// AgentClient drives generation tasks on the remote agent. Provide a custom
// implementation through [Config.Agent] to test without a real agent.
type AgentClient = agent.Client

// Aliases of the core generation types, so SDK users never import internal
// packages.
type (
	GenerationMode       = model.GenerationMode
	GenerationStatus     = model.GenerationStatus
	GenerationStage      = model.GenerationStage
	GenerationResult     = model.GenerationResult
	SessionState         = model.SessionState
	ModelSize            = model.ModelSize
	Brick                = model.Brick
	ImageFile            = model.ImageFile
	StructuralAnalysis   = model.StructuralAnalysis
	StructuralIssue      = model.StructuralIssue
	BuildabilityMetadata = model.BuildabilityMetadata
	BrickPlacement       = model.BrickPlacement
)

const (
	ModeText  = model.GenerationModeText
	ModeImage = model.GenerationModeImage

	SizeSmall  = model.ModelSizeSmall
	SizeMedium = model.ModelSizeMedium
	SizeLarge  = model.ModelSizeLarge

	StageIdle      = model.StageIdle
	StageImagining = model.StageImagining
	StageFinding   = model.StageFinding
	StageBuilding  = model.StageBuilding
	StageCompleted = model.StageCompleted
	StageFailed    = model.StageFailed

	StatusIdle       = model.GenerationStatusIdle
	StatusGenerating = model.GenerationStatusGenerating
	StatusCompleted  = model.GenerationStatusCompleted
	StatusFailed     = model.GenerationStatusFailed
)

// Sentinel errors returned by the SDK, match with errors.Is.
var (
	// ErrNotValid marks an invalid request (empty prompt, nothing to retry).
	ErrNotValid = model.ErrNotValid
	// ErrTimeout marks a generation that exceeded its time budget.
	ErrTimeout = model.ErrTimeout
	// ErrGenerationFailed marks a task that ended in a failure state.
	ErrGenerationFailed = model.ErrGenerationFailed
	// ErrMissingArtifact marks a completed task without a model file.
	ErrMissingArtifact = model.ErrMissingArtifact
	// ErrRequestFailed marks a transport or API level failure.
	ErrRequestFailed = model.ErrRequestFailed
	// ErrRetryBudgetExhausted marks a retry past the allowed budget.
	ErrRetryBudgetExhausted = model.ErrRetryBudgetExhausted
)

// StageMessages returns the storytelling strings for a generation mode,
// useful for progress UIs.
func StageMessages(mode GenerationMode) map[GenerationStage]string {
	return model.StageMessages(mode)
}

// StageProgress maps each stage to an approximate completion percentage.
func StageProgress(stage GenerationStage) int {
	return model.StageProgress[stage]
}
