package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brickforge/brickforge/internal/log"
	"github.com/brickforge/brickforge/internal/model"
)

// HTTPClientConfig is the configuration for the HTTP protocol client.
type HTTPClientConfig struct {
	// BaseURL is the agent API base URL. Default: http://localhost:8001.
	BaseURL string
	// Client is the HTTP client used for all requests.
	Client *http.Client
	// PollInterval is the sleep between task polls. Default: 1s.
	PollInterval time.Duration
	Logger       log.Logger
}

func (c *HTTPClientConfig) defaults() error {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "agent.HTTPClient"})
	return nil
}

// HTTPClient is an HTTP implementation of Client.
type HTTPClient struct {
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	logger       log.Logger
}

// NewHTTPClient creates a new HTTP protocol client.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &HTTPClient{
		baseURL:      cfg.BaseURL,
		client:       cfg.Client,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

type sendMessageRequest struct {
	Message model.Message `json:"message"`
}

type taskEnvelope struct {
	Task model.Task `json:"task"`
}

// Submit sends a text prompt to start a generation task.
func (c *HTTPClient) Submit(ctx context.Context, prompt, contextID string) (*model.Task, error) {
	if contextID == "" {
		contextID = uuid.NewString()
	}

	reqBody := sendMessageRequest{
		Message: model.Message{
			Role:      model.RoleUser,
			ContextID: contextID,
			Parts:     []model.Part{{Text: prompt}},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/message:send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	task, err := c.doTaskRequest(req, "failed to send message")
	if err != nil {
		return nil, err
	}

	c.logger.Debugf("Submitted task %s (context %s)", task.ID, contextID)
	return task, nil
}

// SubmitWithImages sends a multipart image request to start a generation task.
func (c *HTTPClient) SubmitWithImages(ctx context.Context, prompt string, images []model.ImageFile, inventory []model.Brick, opts *model.GenerateOptions) (*model.Task, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("type", "image"); err != nil {
		return nil, fmt.Errorf("could not write form field: %w", err)
	}
	if err := w.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("could not write form field: %w", err)
	}

	for i, img := range images {
		part, err := newImagePart(w, fmt.Sprintf("image_%d", i), img)
		if err != nil {
			return nil, fmt.Errorf("could not create image part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, fmt.Errorf("could not write image data: %w", err)
		}
	}

	if inventory == nil {
		inventory = []model.Brick{}
	}
	inventoryJSON, err := json.Marshal(inventory)
	if err != nil {
		return nil, fmt.Errorf("could not marshal inventory: %w", err)
	}
	if err := w.WriteField("inventory", string(inventoryJSON)); err != nil {
		return nil, fmt.Errorf("could not write form field: %w", err)
	}

	if opts != nil {
		optsJSON, err := json.Marshal(opts)
		if err != nil {
			return nil, fmt.Errorf("could not marshal options: %w", err)
		}
		if err := w.WriteField("options", string(optsJSON)); err != nil {
			return nil, fmt.Errorf("could not write form field: %w", err)
		}
	}

	if err := w.WriteField("contextId", uuid.NewString()); err != nil {
		return nil, fmt.Errorf("could not write form field: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("could not finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/message:send", &buf)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	task, err := c.doTaskRequest(req, "failed to send message with images")
	if err != nil {
		return nil, err
	}

	c.logger.Debugf("Submitted image task %s (%d images)", task.ID, len(images))
	return task, nil
}

// GetTask retrieves a task by ID.
func (c *HTTPClient) GetTask(ctx context.Context, id string) (*model.Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/tasks/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	return c.doTaskRequest(req, "failed to get task")
}

// Poll retrieves the task at the configured interval until it reaches a
// terminal state.
func (c *HTTPClient) Poll(ctx context.Context, id string) (*model.Task, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		task, err := c.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}

		if task.Status.State.Terminal() {
			c.logger.Debugf("Task %s reached terminal state %s", id, task.Status.State)
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ResolveFileURL joins a server-relative artifact path to the API base URL.
func (c *HTTPClient) ResolveFileURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *HTTPClient) doTaskRequest(req *http.Request, genericErrMsg string) (*model.Task, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach agent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %w", errorDetail(body, genericErrMsg), model.ErrRequestFailed)
	}

	var envelope taskEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("could not unmarshal task: %w", err)
	}

	return &envelope.Task, nil
}

// errorDetail extracts the server's error message from an error payload,
// falling back to a generic message.
func errorDetail(body []byte, fallback string) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return fallback
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// newImagePart creates a multipart file part carrying the image's real media
// type instead of the generic octet-stream that CreateFormFile sets.
func newImagePart(w *multipart.Writer, field string, img model.ImageFile) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(img.Name)))
	contentType := img.MediaType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}
