// Package session holds the generation state machine shared by every consumer
// of a build session. A single Tracker instance is mutated by the orchestrator
// and read by CLI/SDK callers, so all state access goes through its mutex.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/brickforge/brickforge/internal/log"
	"github.com/brickforge/brickforge/internal/model"
)

const defaultMaxRetries = 3

// TrackerConfig is the configuration for the session tracker.
type TrackerConfig struct {
	// MaxRetries is the regeneration budget per prompt. Default: 3.
	MaxRetries int
	Logger     log.Logger

	// TimeNow is the time source, for tests. Default: time.Now.
	TimeNow func() time.Time
}

func (c *TrackerConfig) defaults() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries can't be negative")
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "session.Tracker"})
	return nil
}

// Tracker is the generation state machine.
type Tracker struct {
	mu      sync.Mutex
	state   model.SessionState
	timeNow func() time.Time
	logger  log.Logger
}

// NewTracker creates a new session tracker in the idle state.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Tracker{
		state: model.SessionState{
			Status:     model.GenerationStatusIdle,
			Stage:      model.StageIdle,
			Mode:       model.GenerationModeText,
			ModelSize:  model.ModelSizeMedium,
			MaxRetries: cfg.MaxRetries,
		},
		timeNow: cfg.TimeNow,
		logger:  cfg.Logger,
	}, nil
}

// StartGeneration moves the machine into the generating state for a prompt.
// The retry budget resets only when the prompt or the number of images differs
// from the held ones, retrying the same input keeps burning the same budget.
func (t *Tracker) StartGeneration(prompt string, images []model.ImageFile) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prompt != t.state.Prompt || len(images) != len(t.state.Images) {
		t.state.RetryCount = 0
	}

	now := t.timeNow()
	t.state.Status = model.GenerationStatusGenerating
	t.state.Stage = model.StageImagining
	t.state.Prompt = prompt
	t.state.Images = images
	t.state.TaskID = ""
	t.state.StartTime = &now
	t.state.ElapsedTime = 0
	t.state.Result = nil
	t.state.Error = ""

	t.logger.Debugf("Generation started")
}

// SetStage sets the storytelling stage. Monotonicity is the caller's job, the
// tracker only refuses to move a terminal stage backward.
func (t *Tracker) SetStage(stage model.GenerationStage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Stage.Terminal() && !stage.Terminal() {
		return
	}
	t.state.Stage = stage
}

// SetTaskID records the remote task driving the current generation.
func (t *Tracker) SetTaskID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.TaskID = id
}

// SetMode selects the generation input mode.
func (t *Tracker) SetMode(mode model.GenerationMode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Mode = mode
}

// SetModelSize selects the model size tier.
func (t *Tracker) SetModelSize(size model.ModelSize) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.ModelSize = size
}

// UpdateElapsedTime recomputes elapsed whole seconds since the generation
// started and returns the new value. No-op when no generation is running.
func (t *Tracker) UpdateElapsedTime() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.StartTime == nil {
		return t.state.ElapsedTime
	}

	t.state.ElapsedTime = int(t.timeNow().Sub(*t.state.StartTime) / time.Second)
	return t.state.ElapsedTime
}

// CompleteGeneration records a successful result and moves to the completed
// terminal state.
func (t *Tracker) CompleteGeneration(result model.GenerationResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Status = model.GenerationStatusCompleted
	t.state.Stage = model.StageCompleted
	t.state.Result = &result
	t.state.Error = ""

	t.logger.Debugf("Generation completed with task %s", result.TaskID)
}

// FailGeneration records a failure message and moves to the failed terminal
// state.
func (t *Tracker) FailGeneration(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Status = model.GenerationStatusFailed
	t.state.Stage = model.StageFailed
	t.state.Error = message

	t.logger.Debugf("Generation failed: %s", message)
}

// IncrementRetry consumes one unit of the retry budget. It returns false,
// leaving the state untouched, when the budget is exhausted. This is the sole
// gate on regeneration.
func (t *Tracker) IncrementRetry() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.RetryCount >= t.state.MaxRetries {
		return false
	}

	t.state.RetryCount++
	return true
}

// Reset returns the machine to its idle initial state. The selected mode
// survives the reset so the user stays in their chosen input flow.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	mode := t.state.Mode
	maxRetries := t.state.MaxRetries
	t.state = model.SessionState{
		Status:     model.GenerationStatusIdle,
		Stage:      model.StageIdle,
		Mode:       mode,
		ModelSize:  model.ModelSizeMedium,
		MaxRetries: maxRetries,
	}

	t.logger.Debugf("Session reset")
}

// State returns a snapshot of the current state. The images slice is shared,
// callers must treat it as read only.
func (t *Tracker) State() model.SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Durable returns the subset of state that is persisted across restarts.
func (t *Tracker) Durable() model.DurableSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	return model.DurableSession{
		Prompt:    t.state.Prompt,
		Mode:      t.state.Mode,
		ModelSize: t.state.ModelSize,
		Result:    t.state.Result,
		UpdatedAt: t.timeNow().UTC(),
	}
}

// Restore loads a previously persisted session into the tracker. Only the
// durable fields are restored, the machine stays idle.
func (t *Tracker) Restore(s model.DurableSession) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Prompt = s.Prompt
	if s.Mode != "" {
		t.state.Mode = s.Mode
	}
	if s.ModelSize != "" {
		t.state.ModelSize = s.ModelSize
	}
	t.state.Result = s.Result
	if s.Result != nil {
		t.state.Status = model.GenerationStatusCompleted
		t.state.Stage = model.StageCompleted
	}
}
