package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brickforge/brickforge/internal/agent"
	"github.com/brickforge/brickforge/internal/app/generate"
	"github.com/brickforge/brickforge/internal/cache"
	"github.com/brickforge/brickforge/internal/firstbuild"
	"github.com/brickforge/brickforge/internal/hash"
	"github.com/brickforge/brickforge/internal/log"
	"github.com/brickforge/brickforge/internal/model"
	"github.com/brickforge/brickforge/internal/session"
	"github.com/brickforge/brickforge/internal/storage/sqlite"
)

const (
	defaultDataDir = ".brickforge"
	defaultDBFile  = "brickforge.db"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. An empty Config{} talks
// to an agent on localhost and stores state in ~/.brickforge/brickforge.db.
type Config struct {
	// APIURL is the base URL of the generation agent API.
	// Default: http://localhost:8001.
	APIURL string

	// DBPath is the SQLite database path.
	// Default: ~/.brickforge/brickforge.db.
	DBPath string

	// DataDir is the base directory for brickforge data.
	// Default: ~/.brickforge.
	DataDir string

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger

	// Timeout bounds a single generation attempt. Default: 5 minutes.
	Timeout time.Duration

	// Agent overrides the remote agent client. When nil a real HTTP client
	// against APIURL is used. Set this to a fake for testing without an agent.
	Agent AgentClient
}

func (c *Config) defaults() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, defaultDataDir)
	}

	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, defaultDBFile)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for generating brick models.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use, although starting a new generation
// cancels any generation already in flight.
type Client struct {
	genSvc  *generate.Service
	fbSvc   *firstbuild.Service
	tracker *session.Tracker
	logger  log.Logger
	closeFn func() error
}

// New creates a new SDK client backed by a SQLite database.
//
// The caller must call [Client.Close] when done to release the database
// connection. The last session, if any, is restored so [Client.Status]
// reflects the previous result right after startup.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	agentClient := cfg.Agent
	if agentClient == nil {
		agentClient, err = agent.NewHTTPClient(agent.HTTPClientConfig{
			BaseURL: cfg.APIURL,
			Logger:  cfg.Logger,
		})
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("could not create agent client: %w", err)
		}
	}

	tracker, err := session.NewTracker(session.TrackerConfig{Logger: cfg.Logger})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("could not create session tracker: %w", err)
	}

	if stored, err := repo.GetSession(ctx); err == nil {
		tracker.Restore(*stored)
	} else if !errors.Is(err, model.ErrNotFound) {
		cfg.Logger.Warningf("Could not restore previous session: %s", err)
	}

	cacheSvc, err := cache.NewService(cache.ServiceConfig{
		Repository: repo,
		Logger:     cfg.Logger,
	})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("could not create cache service: %w", err)
	}

	fbSvc, err := firstbuild.NewService(firstbuild.ServiceConfig{
		Repository: repo,
		Logger:     cfg.Logger,
	})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("could not create first build service: %w", err)
	}

	genSvc, err := generate.NewService(generate.ServiceConfig{
		Agent:       agentClient,
		Cache:       cacheSvc,
		FirstBuild:  fbSvc,
		Session:     tracker,
		SessionRepo: repo,
		Hasher:      hash.NewHasher(hash.HasherConfig{}),
		Logger:      cfg.Logger,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("could not create generation service: %w", err)
	}

	return &Client{
		genSvc:  genSvc,
		fbSvc:   fbSvc,
		tracker: tracker,
		logger:  cfg.Logger,
		closeFn: repo.Close,
	}, nil
}

// Close releases resources held by the client, including the database
// connection. After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}
