// Package integration holds tests that run a real generation against a live
// agent. They are gated by environment variables and skipped otherwise:
//
//	BRICKFORGE_INTEGRATION=true \
//	BRICKFORGE_INTEGRATION_API_URL=http://localhost:8001 \
//	go test ./test/integration/...
package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickforge/brickforge/pkg/builder"
)

const (
	envActivation = "BRICKFORGE_INTEGRATION"
	envAPIURL     = "BRICKFORGE_INTEGRATION_API_URL"
)

func newTestClient(t *testing.T) *builder.Client {
	t.Helper()

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	apiURL := os.Getenv(envAPIURL)
	if apiURL == "" {
		apiURL = "http://localhost:8001"
	}

	client, err := builder.New(context.Background(), builder.Config{
		APIURL:  apiURL,
		DBPath:  filepath.Join(t.TempDir(), "test.db"),
		DataDir: t.TempDir(),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestGenerateLifecycle(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Generate.
	result, err := client.Generate(ctx, builder.GenerateOptions{
		Prompt: "a tiny red pyramid",
		Size:   builder.SizeSmall,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.TaskID)
	assert.NotEmpty(t, result.ModelURL)

	status := client.Status()
	assert.Equal(t, builder.StatusCompleted, status.Status)

	// The same prompt should now be served from the cache, fast.
	start := time.Now()
	cached, err := client.Generate(ctx, builder.GenerateOptions{
		Prompt: "a tiny red pyramid",
		Size:   builder.SizeSmall,
	})
	require.NoError(t, err)
	assert.Equal(t, result.TaskID, cached.TaskID)
	assert.Less(t, time.Since(start), 10*time.Second)

	// Reset clears everything.
	require.NoError(t, client.StartFresh(ctx))
	assert.Equal(t, builder.StatusIdle, client.Status().Status)
}
