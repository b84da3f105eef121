// Package agentmock provides a testify mock of the agent client.
package agentmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/brickforge/brickforge/internal/model"
)

// MockClient is a mock implementation of agent.Client.
type MockClient struct {
	mock.Mock
}

// NewMockClient creates a new client mock that asserts its expectations at
// the end of the test.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockClient) Submit(ctx context.Context, prompt, contextID string) (*model.Task, error) {
	args := m.Called(ctx, prompt, contextID)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockClient) SubmitWithImages(ctx context.Context, prompt string, images []model.ImageFile, inventory []model.Brick, opts *model.GenerateOptions) (*model.Task, error) {
	args := m.Called(ctx, prompt, images, inventory, opts)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockClient) GetTask(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockClient) Poll(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockClient) ResolveFileURL(path string) string {
	args := m.Called(path)
	return args.String(0)
}
