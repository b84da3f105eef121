package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickforge/brickforge/internal/model"
	"github.com/brickforge/brickforge/internal/session"
)

func newTracker(t *testing.T) *session.Tracker {
	t.Helper()
	tr, err := session.NewTracker(session.TrackerConfig{})
	require.NoError(t, err)
	return tr
}

func TestStartGeneration(t *testing.T) {
	t.Run("Starting moves to generating and imagining", func(t *testing.T) {
		tr := newTracker(t)

		tr.StartGeneration("a red dragon", nil)

		state := tr.State()
		assert.Equal(t, model.GenerationStatusGenerating, state.Status)
		assert.Equal(t, model.StageImagining, state.Stage)
		assert.Equal(t, "a red dragon", state.Prompt)
		assert.NotNil(t, state.StartTime)
		assert.Equal(t, 0, state.ElapsedTime)
		assert.Empty(t, state.TaskID)
		assert.Nil(t, state.Result)
		assert.Empty(t, state.Error)
	})

	t.Run("Starting clears the previous attempt's task and error", func(t *testing.T) {
		tr := newTracker(t)
		tr.StartGeneration("a red dragon", nil)
		tr.SetTaskID("t1")
		tr.FailGeneration("boom")

		tr.StartGeneration("a red dragon", nil)

		state := tr.State()
		assert.Empty(t, state.TaskID)
		assert.Empty(t, state.Error)
		assert.Equal(t, model.GenerationStatusGenerating, state.Status)
	})

	t.Run("New prompt resets the retry budget, same prompt keeps it", func(t *testing.T) {
		tr := newTracker(t)
		tr.StartGeneration("A", nil)
		require.True(t, tr.IncrementRetry())
		require.True(t, tr.IncrementRetry())
		require.Equal(t, 2, tr.State().RetryCount)

		tr.StartGeneration("A", nil)
		assert.Equal(t, 2, tr.State().RetryCount)

		tr.StartGeneration("B", nil)
		assert.Equal(t, 0, tr.State().RetryCount)
	})

	t.Run("Changed image count resets the retry budget", func(t *testing.T) {
		tr := newTracker(t)
		images := []model.ImageFile{{Name: "front.jpg"}}
		tr.StartGeneration("A", images)
		require.True(t, tr.IncrementRetry())

		tr.StartGeneration("A", append(images, model.ImageFile{Name: "back.jpg"}))
		assert.Equal(t, 0, tr.State().RetryCount)
	})
}

func TestRetryBudget(t *testing.T) {
	tr := newTracker(t)
	tr.StartGeneration("a red dragon", nil)

	for want := 1; want <= 3; want++ {
		assert.True(t, tr.IncrementRetry())
		assert.Equal(t, want, tr.State().RetryCount)
	}

	assert.False(t, tr.IncrementRetry())
	assert.Equal(t, 3, tr.State().RetryCount)
}

func TestTerminalStates(t *testing.T) {
	t.Run("Complete links status and stage", func(t *testing.T) {
		tr := newTracker(t)
		tr.StartGeneration("a red dragon", nil)

		tr.CompleteGeneration(model.GenerationResult{TaskID: "t1", ModelURL: "http://x/model.stl"})

		state := tr.State()
		assert.Equal(t, model.GenerationStatusCompleted, state.Status)
		assert.Equal(t, model.StageCompleted, state.Stage)
		require.NotNil(t, state.Result)
		assert.Equal(t, "t1", state.Result.TaskID)
		assert.Empty(t, state.Error)
	})

	t.Run("Fail links status and stage", func(t *testing.T) {
		tr := newTracker(t)
		tr.StartGeneration("a red dragon", nil)

		tr.FailGeneration("agent exploded")

		state := tr.State()
		assert.Equal(t, model.GenerationStatusFailed, state.Status)
		assert.Equal(t, model.StageFailed, state.Stage)
		assert.Equal(t, "agent exploded", state.Error)
	})

	t.Run("Stage ticks can't undo a terminal stage", func(t *testing.T) {
		tr := newTracker(t)
		tr.StartGeneration("a red dragon", nil)
		tr.CompleteGeneration(model.GenerationResult{TaskID: "t1"})

		tr.SetStage(model.StageBuilding)

		assert.Equal(t, model.StageCompleted, tr.State().Stage)
	})
}

func TestReset(t *testing.T) {
	tr := newTracker(t)
	tr.SetMode(model.GenerationModeImage)
	tr.StartGeneration("a red dragon", []model.ImageFile{{Name: "front.jpg"}})
	tr.SetTaskID("t1")
	tr.FailGeneration("boom")

	tr.Reset()

	state := tr.State()
	assert.Equal(t, model.GenerationStatusIdle, state.Status)
	assert.Equal(t, model.StageIdle, state.Stage)
	assert.Empty(t, state.Prompt)
	assert.Empty(t, state.TaskID)
	assert.Empty(t, state.Error)
	assert.Nil(t, state.StartTime)
	assert.Nil(t, state.Images)
	// Mode survives resets.
	assert.Equal(t, model.GenerationModeImage, state.Mode)
}

func TestElapsedTime(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := now
	tr, err := session.NewTracker(session.TrackerConfig{
		TimeNow: func() time.Time { return current },
	})
	require.NoError(t, err)

	assert.Equal(t, 0, tr.UpdateElapsedTime())

	tr.StartGeneration("a red dragon", nil)
	current = now.Add(12500 * time.Millisecond)

	assert.Equal(t, 12, tr.UpdateElapsedTime())
	assert.Equal(t, 12, tr.State().ElapsedTime)
}

func TestDurable(t *testing.T) {
	t.Run("Only the durable subset is exported", func(t *testing.T) {
		tr := newTracker(t)
		tr.SetModelSize(model.ModelSizeLarge)
		tr.StartGeneration("a red dragon", []model.ImageFile{{Name: "front.jpg"}})
		tr.SetTaskID("t1")
		tr.CompleteGeneration(model.GenerationResult{TaskID: "t1", ModelURL: "http://x/model.stl"})

		durable := tr.Durable()
		assert.Equal(t, "a red dragon", durable.Prompt)
		assert.Equal(t, model.GenerationModeText, durable.Mode)
		assert.Equal(t, model.ModelSizeLarge, durable.ModelSize)
		require.NotNil(t, durable.Result)
		assert.Equal(t, "t1", durable.Result.TaskID)
	})

	t.Run("Restore leaves transient state alone", func(t *testing.T) {
		tr := newTracker(t)

		tr.Restore(model.DurableSession{
			Prompt:    "a red dragon",
			Mode:      model.GenerationModeImage,
			ModelSize: model.ModelSizeSmall,
			Result:    &model.GenerationResult{TaskID: "t1"},
		})

		state := tr.State()
		assert.Equal(t, "a red dragon", state.Prompt)
		assert.Equal(t, model.GenerationModeImage, state.Mode)
		assert.Equal(t, model.ModelSizeSmall, state.ModelSize)
		assert.Equal(t, model.GenerationStatusCompleted, state.Status)
		assert.Equal(t, 0, state.RetryCount)
		assert.Nil(t, state.StartTime)
	})

	t.Run("Restore without a result stays idle", func(t *testing.T) {
		tr := newTracker(t)

		tr.Restore(model.DurableSession{Prompt: "a red dragon", Mode: model.GenerationModeText})

		state := tr.State()
		assert.Equal(t, model.GenerationStatusIdle, state.Status)
		assert.Equal(t, model.StageIdle, state.Stage)
	})
}
