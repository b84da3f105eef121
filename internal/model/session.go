package model

import "time"

// GenerationMode is the input mode of a generation: text prompt or images.
type GenerationMode string

const (
	GenerationModeText  GenerationMode = "text"
	GenerationModeImage GenerationMode = "image"
)

// GenerationStatus tracks the overall state of a generation attempt.
type GenerationStatus string

const (
	GenerationStatusIdle       GenerationStatus = "idle"
	GenerationStatusGenerating GenerationStatus = "generating"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// GenerationStage is the cosmetic storytelling label shown while a generation
// runs. It is time-driven and distinct from the underlying task state.
type GenerationStage string

const (
	StageIdle      GenerationStage = "idle"
	StageImagining GenerationStage = "imagining"
	StageFinding   GenerationStage = "finding"
	StageBuilding  GenerationStage = "building"
	StageCompleted GenerationStage = "completed"
	StageFailed    GenerationStage = "failed"
)

// Terminal returns true for stages that end a run.
func (s GenerationStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

var stageMessagesText = map[GenerationStage]string{
	StageIdle:      "",
	StageImagining: "Imagining your creation...",
	StageFinding:   "Finding the perfect design...",
	StageBuilding:  "Building your model...",
	StageCompleted: "Done!",
	StageFailed:    "Generation failed",
}

var stageMessagesImage = map[GenerationStage]string{
	StageIdle:      "",
	StageImagining: "Analyzing your images...",
	StageFinding:   "Designing from multiple angles...",
	StageBuilding:  "Building your model...",
	StageCompleted: "Done!",
	StageFailed:    "Generation failed",
}

// StageMessages returns the storytelling strings for a generation mode.
func StageMessages(mode GenerationMode) map[GenerationStage]string {
	if mode == GenerationModeImage {
		return stageMessagesImage
	}
	return stageMessagesText
}

// StageProgress maps each stage to an approximate completion percentage.
var StageProgress = map[GenerationStage]int{
	StageIdle:      0,
	StageImagining: 15,
	StageFinding:   45,
	StageBuilding:  75,
	StageCompleted: 100,
	StageFailed:    0,
}

// SessionState is a point-in-time snapshot of the generation state machine.
type SessionState struct {
	Status      GenerationStatus
	Stage       GenerationStage
	Mode        GenerationMode
	ModelSize   ModelSize
	Prompt      string
	Images      []ImageFile
	TaskID      string
	StartTime   *time.Time
	ElapsedTime int
	Result      *GenerationResult
	Error       string
	RetryCount  int
	MaxRetries  int
}

// DurableSession is the subset of session state that survives restarts.
// Transient data (images, timers, retry budget, in-flight status) is
// deliberately excluded so a restarted session never resumes mid-flight.
type DurableSession struct {
	Prompt    string
	Mode      GenerationMode
	ModelSize ModelSize
	Result    *GenerationResult
	UpdatedAt time.Time
}
