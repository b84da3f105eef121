package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickforge/brickforge/internal/agent"
	"github.com/brickforge/brickforge/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *agent.HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := agent.NewHTTPClient(agent.HTTPClientConfig{
		BaseURL:      server.URL,
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func taskResponse(w http.ResponseWriter, task model.Task) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]model.Task{"task": task})
}

func TestSubmit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/message:send", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			Message model.Message `json:"message"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, model.RoleUser, req.Message.Role)
		assert.NotEmpty(t, req.Message.ContextID)
		require.Len(t, req.Message.Parts, 1)
		assert.Equal(t, "a red dragon", req.Message.Parts[0].Text)

		taskResponse(w, model.Task{
			ID:     "t1",
			Status: model.TaskStatus{State: model.TaskStateSubmitted},
		})
	})

	task, err := client.Submit(context.Background(), "a red dragon", "")

	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, model.TaskStateSubmitted, task.Status.State)
}

func TestSubmitKeepsProvidedContextID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message model.Message `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ctx-42", req.Message.ContextID)

		taskResponse(w, model.Task{ID: "t1"})
	})

	_, err := client.Submit(context.Background(), "a red dragon", "ctx-42")
	require.NoError(t, err)
}

func TestSubmitErrors(t *testing.T) {
	tests := map[string]struct {
		handler http.HandlerFunc
		expMsg  string
	}{
		"Server error detail is surfaced": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"detail": "agent exploded"}`))
			},
			expMsg: "agent exploded",
		},
		"Missing detail falls back to a generic message": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`not json`))
			},
			expMsg: "failed to send message",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			_, err := client.Submit(context.Background(), "a red dragon", "")

			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrRequestFailed)
			assert.Contains(t, err.Error(), tt.expMsg)
		})
	}
}

func TestSubmitWithImages(t *testing.T) {
	images := []model.ImageFile{
		{Name: "front.png", MediaType: "image/png", Data: []byte("png-front")},
		{Name: "side.png", MediaType: "image/png", Data: []byte("png-side")},
	}
	inventory := []model.Brick{{Type: "2x4", Color: "red", Quantity: 8}}
	opts := &model.GenerateOptions{Complexity: model.ComplexitySimple, Size: model.ModelSizeSmall}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/message:send", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "image", r.FormValue("type"))
		assert.Equal(t, "a castle", r.FormValue("prompt"))
		assert.NotEmpty(t, r.FormValue("contextId"))

		var gotInventory []model.Brick
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("inventory")), &gotInventory))
		assert.Equal(t, inventory, gotInventory)

		var gotOpts model.GenerateOptions
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("options")), &gotOpts))
		assert.Equal(t, *opts, gotOpts)

		for i, img := range images {
			file, header, err := r.FormFile("image_" + string(rune('0'+i)))
			require.NoError(t, err)
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			_ = file.Close()
			assert.Equal(t, img.Name, header.Filename)
			assert.Equal(t, img.MediaType, header.Header.Get("Content-Type"))
			assert.Equal(t, img.Data, data)
		}

		taskResponse(w, model.Task{
			ID:     "t2",
			Status: model.TaskStatus{State: model.TaskStateWorking},
		})
	})

	task, err := client.SubmitWithImages(context.Background(), "a castle", images, inventory, opts)

	require.NoError(t, err)
	assert.Equal(t, "t2", task.ID)
}

func TestGetTask(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/tasks/t1", r.URL.Path)

		taskResponse(w, model.Task{
			ID:     "t1",
			Status: model.TaskStatus{State: model.TaskStateWorking},
		})
	})

	task, err := client.GetTask(context.Background(), "t1")

	require.NoError(t, err)
	assert.Equal(t, model.TaskStateWorking, task.Status.State)
}

func TestPoll(t *testing.T) {
	states := []model.TaskState{
		model.TaskStateSubmitted,
		model.TaskStateWorking,
		model.TaskStateCompleted,
	}
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		state := states[calls]
		if calls < len(states)-1 {
			calls++
		}
		taskResponse(w, model.Task{ID: "t1", Status: model.TaskStatus{State: state}})
	})

	task, err := client.Poll(context.Background(), "t1")

	require.NoError(t, err)
	assert.Equal(t, model.TaskStateCompleted, task.Status.State)
	assert.Equal(t, len(states)-1, calls)
}

func TestPollStopsOnContextCancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		taskResponse(w, model.Task{ID: "t1", Status: model.TaskStatus{State: model.TaskStateWorking}})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Poll(ctx, "t1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestResolveFileURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	tests := map[string]struct {
		path   string
		expFn  func(base string) string
		expRaw string
		raw    bool
	}{
		"Empty path stays empty":             {path: "", raw: true, expRaw: ""},
		"Absolute URL passes through":        {path: "http://files.example.com/m.stl", raw: true, expRaw: "http://files.example.com/m.stl"},
		"Relative path joins the base":       {path: "/files/m.stl", expFn: func(base string) string { return base + "/files/m.stl" }},
		"Missing leading slash gets one":     {path: "files/m.stl", expFn: func(base string) string { return base + "/files/m.stl" }},
		"HTTPS absolute URL passes through":  {path: "https://files.example.com/m.stl", raw: true, expRaw: "https://files.example.com/m.stl"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := client.ResolveFileURL(tt.path)
			if tt.raw {
				assert.Equal(t, tt.expRaw, got)
			} else {
				assert.Contains(t, got, "/files/m.stl")
			}
		})
	}
}
