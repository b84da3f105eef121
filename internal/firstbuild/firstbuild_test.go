package firstbuild_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brickforge/brickforge/internal/firstbuild"
	"github.com/brickforge/brickforge/internal/model"
	"github.com/brickforge/brickforge/internal/storage/memory"
	"github.com/brickforge/brickforge/internal/storage/storagemock"
)

func TestIsFirstBuild(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		mock func(m *storagemock.MockPreferenceRepository)
		exp  bool
	}{
		"Missing preference means first build": {
			mock: func(m *storagemock.MockPreferenceRepository) {
				m.On("GetPreference", mock.Anything, "isFirstBuild").Once().Return(nil, fmt.Errorf("nope: %w", model.ErrNotFound))
			},
			exp: true,
		},

		"Storage failure defaults to first build": {
			mock: func(m *storagemock.MockPreferenceRepository) {
				m.On("GetPreference", mock.Anything, "isFirstBuild").Once().Return(nil, fmt.Errorf("db is on fire"))
			},
			exp: true,
		},

		"Explicit true means first build": {
			mock: func(m *storagemock.MockPreferenceRepository) {
				m.On("GetPreference", mock.Anything, "isFirstBuild").Once().Return(&model.Preference{Key: "isFirstBuild", Value: "true"}, nil)
			},
			exp: true,
		},

		"False means the first build already happened": {
			mock: func(m *storagemock.MockPreferenceRepository) {
				m.On("GetPreference", mock.Anything, "isFirstBuild").Once().Return(&model.Preference{Key: "isFirstBuild", Value: "false"}, nil)
			},
			exp: false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo := storagemock.NewMockPreferenceRepository(t)
			tt.mock(repo)

			svc, err := firstbuild.NewService(firstbuild.ServiceConfig{Repository: repo})
			require.NoError(t, err)

			assert.Equal(t, tt.exp, svc.IsFirstBuild(ctx))
		})
	}
}

func TestMarkComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("Marking complete flips the preference", func(t *testing.T) {
		repo, err := memory.NewRepository(memory.RepositoryConfig{})
		require.NoError(t, err)

		svc, err := firstbuild.NewService(firstbuild.ServiceConfig{Repository: repo})
		require.NoError(t, err)

		assert.True(t, svc.IsFirstBuild(ctx))
		require.NoError(t, svc.MarkComplete(ctx))
		assert.False(t, svc.IsFirstBuild(ctx))
	})

	t.Run("Write failure is returned", func(t *testing.T) {
		repo := storagemock.NewMockPreferenceRepository(t)
		repo.On("SetPreference", mock.Anything, model.Preference{Key: "isFirstBuild", Value: "false"}).Once().Return(fmt.Errorf("db is on fire"))

		svc, err := firstbuild.NewService(firstbuild.ServiceConfig{Repository: repo})
		require.NoError(t, err)

		assert.Error(t, svc.MarkComplete(ctx))
	})
}
