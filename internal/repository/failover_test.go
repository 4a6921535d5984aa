package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestFailoverRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Get", ctx, "t1").Return([]byte(`{"id":"1"}`), nil).Once()

		got, err := repo.Get(ctx, "t1")
		assert.NoError(t, err)
		assert.Equal(t, []byte(`{"id":"1"}`), got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryMiss", func(t *testing.T) {
		primary.On("Get", ctx, "t2").Return(nil, ErrNotFound).Once()

		_, err := repo.Get(ctx, "t2")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertNotCalled(t, "Get", ctx, "t2")
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("Get", ctx, "t3").Return(nil, errors.New("fail")).Once()
		fallback.On("Get", ctx, "t3").Return([]byte(`{"id":"3"}`), nil).Once()

		got, err := repo.Get(ctx, "t3")
		assert.NoError(t, err)
		assert.Equal(t, []byte(`{"id":"3"}`), got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("WritesGoToFallbackWhileDown", func(t *testing.T) {
		value := []byte(`{"id":"4"}`)
		fallback.On("Set", ctx, "t4", value, time.Hour).Return(nil).Once()

		err := repo.Set(ctx, "t4", value, time.Hour)
		assert.NoError(t, err)
		primary.AssertNotCalled(t, "Set", ctx, "t4", value, time.Hour)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		// t4 was written while down and is copied over before the read.
		fallback.On("Get", ctx, "t4").Return([]byte(`{"id":"4"}`), nil).Once()
		primary.On("Set", ctx, "t4", []byte(`{"id":"4"}`), mock.AnythingOfType("time.Duration")).Return(nil).Once()
		primary.On("Get", ctx, "t5").Return([]byte(`{"id":"5"}`), nil).Once()

		got, err := repo.Get(ctx, "t5")
		assert.NoError(t, err)
		assert.Equal(t, []byte(`{"id":"5"}`), got)
		assert.False(t, repo.isDown.Load())
		assert.Empty(t, repo.pending)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DeleteBoth", func(t *testing.T) {
		primary.On("Delete", ctx, "t6").Return(nil).Once()
		fallback.On("Delete", ctx, "t6").Return(nil).Once()

		assert.NoError(t, repo.Delete(ctx, "t6"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
