// Package generate implements the generation orchestration: cache lookup,
// agent submission, time-driven stage storytelling and the timeout race.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brickforge/brickforge/internal/agent"
	"github.com/brickforge/brickforge/internal/cache"
	"github.com/brickforge/brickforge/internal/firstbuild"
	"github.com/brickforge/brickforge/internal/hash"
	"github.com/brickforge/brickforge/internal/log"
	"github.com/brickforge/brickforge/internal/model"
	"github.com/brickforge/brickforge/internal/session"
	"github.com/brickforge/brickforge/internal/storage"
)

const (
	// Agent CAD generation regularly takes 60-90s for complex models, the
	// overall budget is deliberately generous.
	defaultTimeout = 5 * time.Minute

	// Stage advancement is time driven and cosmetic.
	defaultStageTick = 500 * time.Millisecond
	findingAfter     = 5 * time.Second
	buildingAfter    = 15 * time.Second

	// Cached results replay the stage story quickly instead of jumping
	// straight to completed.
	defaultReplayStep = 500 * time.Millisecond
)

// ServiceConfig is the configuration for the generation service.
type ServiceConfig struct {
	Agent       agent.Client
	Cache       *cache.Service
	FirstBuild  *firstbuild.Service
	Session     *session.Tracker
	SessionRepo storage.SessionRepository
	// Hasher computes image-mode cache keys. The zero value uses sha256.
	Hasher hash.Hasher
	Logger log.Logger

	// Timeout bounds one generation attempt end to end. Default: 5 minutes.
	Timeout time.Duration
	// StageTick is how often the storytelling stage is recomputed. Default: 500ms.
	StageTick time.Duration
	// ReplayStep is the delay between replayed stages on a cache hit. Default: 500ms.
	ReplayStep time.Duration
}

func (c *ServiceConfig) defaults() error {
	if c.Agent == nil {
		return fmt.Errorf("agent client is required")
	}
	if c.Cache == nil {
		return fmt.Errorf("cache service is required")
	}
	if c.FirstBuild == nil {
		return fmt.Errorf("first build service is required")
	}
	if c.Session == nil {
		return fmt.Errorf("session tracker is required")
	}
	if c.SessionRepo == nil {
		return fmt.Errorf("session repository is required")
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.StageTick == 0 {
		c.StageTick = defaultStageTick
	}
	if c.ReplayStep == 0 {
		c.ReplayStep = defaultReplayStep
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Generate"})
	return nil
}

// Service orchestrates model generations against the remote agent.
type Service struct {
	agent       agent.Client
	cache       *cache.Service
	firstBuild  *firstbuild.Service
	session     *session.Tracker
	sessionRepo storage.SessionRepository
	hasher      hash.Hasher
	logger      log.Logger

	timeout    time.Duration
	stageTick  time.Duration
	replayStep time.Duration

	// cancelAttempt aborts the in-flight attempt. Starting a new generation
	// cancels and replaces the previous one so two attempts never race to
	// commit a result.
	attemptMu     sync.Mutex
	cancelAttempt context.CancelFunc
}

// NewService creates a new generation service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		agent:       cfg.Agent,
		cache:       cfg.Cache,
		firstBuild:  cfg.FirstBuild,
		session:     cfg.Session,
		sessionRepo: cfg.SessionRepo,
		hasher:      cfg.Hasher,
		logger:      cfg.Logger,
		timeout:     cfg.Timeout,
		stageTick:   cfg.StageTick,
		replayStep:  cfg.ReplayStep,
	}, nil
}

// GenerateOptions are the options for one generation request.
type GenerateOptions struct {
	Mode      model.GenerationMode
	Prompt    string
	Images    []model.ImageFile
	Inventory []model.Brick
	Size      model.ModelSize

	// UseInventory constrains the design to the user's brick inventory.
	UseInventory bool
	// AdvancedMode opts a first-time builder out of the simple complexity tier.
	AdvancedMode bool
	// BypassCache forces a fresh generation, used by retries and modifications.
	BypassCache bool
}

// Generate runs one full generation: cache lookup, submission, polling and
// result extraction, racing the whole pipeline against the timeout. It blocks
// until the session reaches a terminal state and returns the result.
func (s *Service) Generate(ctx context.Context, opts GenerateOptions) (*model.GenerationResult, error) {
	if opts.Prompt == "" {
		return nil, fmt.Errorf("prompt is required: %w", model.ErrNotValid)
	}
	if opts.Mode == "" {
		opts.Mode = model.GenerationModeText
	}
	if opts.Size == "" {
		opts.Size = model.ModelSizeMedium
	}

	attemptCtx, cancel := s.replaceAttempt(ctx)
	defer cancel()

	s.session.SetMode(opts.Mode)
	s.session.SetModelSize(opts.Size)

	cacheKey := s.cacheKey(opts)

	if !opts.BypassCache {
		if cached := s.cache.Lookup(attemptCtx, cacheKey); cached != nil {
			return s.replayCached(attemptCtx, opts, *cached)
		}
	}

	s.session.StartGeneration(opts.Prompt, opts.Images)
	stopTicker := s.startStageTicker(attemptCtx)
	defer stopTicker()

	resultCh := make(chan attemptResult, 1)
	go func() {
		result, err := s.runPipeline(attemptCtx, opts)
		resultCh <- attemptResult{result: result, err: err}
	}()

	timeout := time.NewTimer(s.timeout)
	defer timeout.Stop()

	select {
	case res := <-resultCh:
		if res.err != nil {
			s.session.FailGeneration(res.err.Error())
			return nil, res.err
		}

		s.session.CompleteGeneration(*res.result)
		s.cache.Insert(attemptCtx, cacheKey, *res.result)
		s.saveSession(attemptCtx)
		return res.result, nil

	case <-timeout.C:
		// The poll loop may still resolve in the background, cancelling the
		// attempt context makes sure its result is never acted on.
		err := fmt.Errorf("generation timed out after %s, please try again: %w", s.timeout, model.ErrTimeout)
		s.session.FailGeneration(err.Error())
		return nil, err

	case <-attemptCtx.Done():
		return nil, attemptCtx.Err()
	}
}

// Regenerate retries the current prompt, consuming one unit of the retry
// budget and always bypassing the cache.
func (s *Service) Regenerate(ctx context.Context) (*model.GenerationResult, error) {
	state := s.session.State()
	if state.Prompt == "" {
		return nil, fmt.Errorf("nothing to regenerate: %w", model.ErrNotValid)
	}

	if !s.session.IncrementRetry() {
		return nil, fmt.Errorf("%w (%d attempts)", model.ErrRetryBudgetExhausted, state.MaxRetries)
	}

	return s.Generate(ctx, GenerateOptions{
		Mode:        state.Mode,
		Prompt:      state.Prompt,
		Images:      state.Images,
		Size:        state.ModelSize,
		BypassCache: true,
	})
}

// Modify regenerates with a modification instruction appended to the current
// prompt. Modifications always bypass the cache.
func (s *Service) Modify(ctx context.Context, instruction string) (*model.GenerationResult, error) {
	if instruction == "" {
		return nil, fmt.Errorf("modification instruction is required: %w", model.ErrNotValid)
	}

	state := s.session.State()
	if state.Prompt == "" {
		return nil, fmt.Errorf("nothing to modify: %w", model.ErrNotValid)
	}

	prompt := fmt.Sprintf("%s\n\nModification: %s", state.Prompt, instruction)

	return s.Generate(ctx, GenerateOptions{
		Mode:        state.Mode,
		Prompt:      prompt,
		Images:      state.Images,
		Size:        state.ModelSize,
		BypassCache: true,
	})
}

// StartFresh cancels any in-flight attempt, resets the session and clears the
// durable session.
func (s *Service) StartFresh(ctx context.Context) error {
	_, cancel := s.replaceAttempt(ctx)
	cancel()

	s.session.Reset()

	if err := s.sessionRepo.DeleteSession(ctx); err != nil {
		return fmt.Errorf("could not clear stored session: %w", err)
	}

	return nil
}

type attemptResult struct {
	result *model.GenerationResult
	err    error
}

// replaceAttempt cancels the previous attempt and registers a new one.
func (s *Service) replaceAttempt(ctx context.Context) (context.Context, context.CancelFunc) {
	attemptCtx, cancel := context.WithCancel(ctx)

	s.attemptMu.Lock()
	prev := s.cancelAttempt
	s.cancelAttempt = cancel
	s.attemptMu.Unlock()

	if prev != nil {
		prev()
	}

	return attemptCtx, cancel
}

// cacheKey computes the cache key for a request: the raw prompt in text mode,
// the image content hash in image mode.
func (s *Service) cacheKey(opts GenerateOptions) string {
	if opts.Mode == model.GenerationModeImage && len(opts.Images) > 0 {
		return s.hasher.HashSet(opts.Images, opts.Prompt)
	}
	return opts.Prompt
}

// replayCached replays the stage story over ~1.5s for a cached result so a
// hit still reads as a generation instead of an instant jump.
func (s *Service) replayCached(ctx context.Context, opts GenerateOptions, result model.GenerationResult) (*model.GenerationResult, error) {
	s.logger.Infof("Serving generation from cache")

	s.session.StartGeneration(opts.Prompt, opts.Images)

	for _, stage := range []model.GenerationStage{model.StageFinding, model.StageBuilding} {
		if err := sleepCtx(ctx, s.replayStep); err != nil {
			return nil, err
		}
		s.session.SetStage(stage)
	}
	if err := sleepCtx(ctx, s.replayStep); err != nil {
		return nil, err
	}

	s.session.SetTaskID(result.TaskID)
	s.session.CompleteGeneration(result)
	s.saveSession(ctx)

	return &result, nil
}

// runPipeline performs the real generation: submit, poll, extract.
func (s *Service) runPipeline(ctx context.Context, opts GenerateOptions) (*model.GenerationResult, error) {
	complexity := model.ComplexityNormal
	if s.firstBuild.IsFirstBuild(ctx) && !opts.AdvancedMode {
		complexity = model.ComplexitySimple
	}

	genOpts := model.GenerateOptions{
		Complexity:   complexity,
		Size:         opts.Size,
		UseInventory: opts.UseInventory,
	}

	var task *model.Task
	var err error
	if opts.Mode == model.GenerationModeImage && len(opts.Images) > 0 {
		task, err = s.agent.SubmitWithImages(ctx, opts.Prompt, opts.Images, opts.Inventory, &genOpts)
	} else {
		task, err = s.agent.Submit(ctx, enrichPrompt(opts.Prompt, opts.Inventory, genOpts), "")
	}
	if err != nil {
		return nil, fmt.Errorf("could not submit generation: %w", err)
	}

	s.session.SetTaskID(task.ID)
	s.logger.Infof("Generation task %s submitted", task.ID)

	done, err := s.agent.Poll(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("could not poll task %s: %w", task.ID, err)
	}

	result, err := agent.ExtractResult(done, s.agent.ResolveFileURL)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// enrichPrompt appends the inventory summary and the generation options to a
// text prompt, the agent has no structured channel for them in text mode.
func enrichPrompt(prompt string, inventory []model.Brick, opts model.GenerateOptions) string {
	var b strings.Builder
	b.WriteString(prompt)

	if opts.UseInventory && len(inventory) > 0 {
		lines := make([]string, 0, len(inventory))
		for _, brick := range inventory {
			lines = append(lines, brick.Summary())
		}
		b.WriteString("\n\nUser's brick inventory: ")
		b.WriteString(strings.Join(lines, ", "))
	}

	optsJSON, err := json.Marshal(opts)
	if err == nil {
		b.WriteString("\n\nGeneration options: ")
		b.Write(optsJSON)
	}

	return b.String()
}

// startStageTicker advances the storytelling stage on a fixed tick while the
// generation runs. Stages only move forward and never touch terminal states.
func (s *Service) startStageTicker(ctx context.Context) (stop func()) {
	tickerCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(s.stageTick)
		defer ticker.Stop()

		for {
			select {
			case <-tickerCtx.Done():
				return
			case <-ticker.C:
			}

			state := s.session.State()
			if state.Status != model.GenerationStatusGenerating || state.Stage.Terminal() || state.StartTime == nil {
				continue
			}

			elapsed := time.Duration(s.session.UpdateElapsedTime()) * time.Second
			switch {
			case elapsed >= buildingAfter && state.Stage != model.StageBuilding:
				s.session.SetStage(model.StageBuilding)
			case elapsed >= findingAfter && state.Stage == model.StageImagining:
				s.session.SetStage(model.StageFinding)
			}
		}
	}()

	return cancel
}

// saveSession persists the durable subset of the session. Failures are logged
// and swallowed, losing the snapshot never fails a generation.
func (s *Service) saveSession(ctx context.Context) {
	if err := s.sessionRepo.SaveSession(ctx, s.session.Durable()); err != nil {
		s.logger.Warningf("Could not persist session: %s", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
