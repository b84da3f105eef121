// Package storagemock provides testify mocks of the storage repositories.
package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/brickforge/brickforge/internal/model"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockCacheRepository is a mock implementation of storage.CacheRepository.
type MockCacheRepository struct {
	mock.Mock
}

// NewMockCacheRepository creates a new cache repository mock that asserts its
// expectations at the end of the test.
func NewMockCacheRepository(t testingT) *MockCacheRepository {
	m := &MockCacheRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCacheRepository) GetCacheEntry(ctx context.Context, key string) (*model.CacheEntry, error) {
	args := m.Called(ctx, key)
	entry, _ := args.Get(0).(*model.CacheEntry)
	return entry, args.Error(1)
}

func (m *MockCacheRepository) CreateCacheEntry(ctx context.Context, e model.CacheEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockCacheRepository) DeleteCacheEntry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPreferenceRepository is a mock implementation of storage.PreferenceRepository.
type MockPreferenceRepository struct {
	mock.Mock
}

// NewMockPreferenceRepository creates a new preference repository mock that
// asserts its expectations at the end of the test.
func NewMockPreferenceRepository(t testingT) *MockPreferenceRepository {
	m := &MockPreferenceRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPreferenceRepository) GetPreference(ctx context.Context, key string) (*model.Preference, error) {
	args := m.Called(ctx, key)
	pref, _ := args.Get(0).(*model.Preference)
	return pref, args.Error(1)
}

func (m *MockPreferenceRepository) SetPreference(ctx context.Context, p model.Preference) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
