package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// MockStorageBackend implements interfaces.StorageBackend for testing
type MockStorageBackend struct {
	mock.Mock
	name string
}

func (m *MockStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	args := m.Called(ctx, id, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	args := m.Called(ctx, data, contentType)
	return args.Get(0).(interfaces.ContentID), args.Error(1)
}

func (m *MockStorageBackend) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockStorageBackend) Name() string {
	return m.name
}

func (m *MockStorageBackend) LocationURI() string {
	return "mock:"
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMultiStorageBackend_Available(t *testing.T) {
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{
			name:     "all backends available",
			backends: []bool{true, true, true},
			expected: true,
		},
		{
			name:     "some backends available",
			backends: []bool{false, true, false},
			expected: true,
		},
		{
			name:     "no backends available",
			backends: []bool{false, false, false},
			expected: false,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.StorageBackend
			for i, available := range tt.backends {
				mockStorage := &MockStorageBackend{name: fmt.Sprintf("mock-%d", i)}
				mockStorage.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, mockStorage)
			}

			multi := NewMultiStorageBackend(backends, testLogger())
			assert.Equal(t, tt.expected, multi.Available(context.Background()))
		})
	}
}

func TestMultiStorageBackend_Fetch(t *testing.T) {
	data := []byte("transcript attachment")
	id := interfaces.ComputeID(data)

	t.Run("first hit wins", func(t *testing.T) {
		missing := &MockStorageBackend{name: "missing"}
		missing.On("Available", mock.Anything).Return(true)
		missing.On("Fetch", mock.Anything, id, interfaces.TranscriptType).Return(nil, interfaces.ErrContentNotFound)

		holding := &MockStorageBackend{name: "holding"}
		holding.On("Available", mock.Anything).Return(true)
		holding.On("Fetch", mock.Anything, id, interfaces.TranscriptType).Return(data, nil)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{missing, holding}, testLogger())

		got, err := multi.Fetch(context.Background(), id, interfaces.TranscriptType)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("unavailable backend skipped", func(t *testing.T) {
		down := &MockStorageBackend{name: "down"}
		down.On("Available", mock.Anything).Return(false)

		holding := &MockStorageBackend{name: "holding"}
		holding.On("Available", mock.Anything).Return(true)
		holding.On("Fetch", mock.Anything, id, interfaces.TranscriptType).Return(data, nil)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{down, holding}, testLogger())

		got, err := multi.Fetch(context.Background(), id, interfaces.TranscriptType)
		require.NoError(t, err)
		assert.Equal(t, data, got)
		down.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found everywhere maps to ErrContentNotFound", func(t *testing.T) {
		var backends []interfaces.StorageBackend
		for i := 0; i < 2; i++ {
			b := &MockStorageBackend{name: fmt.Sprintf("mock-%d", i)}
			b.On("Available", mock.Anything).Return(true)
			b.On("Fetch", mock.Anything, id, interfaces.TranscriptType).Return(nil, interfaces.ErrContentNotFound)
			backends = append(backends, b)
		}

		multi := NewMultiStorageBackend(backends, testLogger())

		_, err := multi.Fetch(context.Background(), id, interfaces.TranscriptType)
		assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
	})

	t.Run("mixed failures produce aggregate error", func(t *testing.T) {
		broken := &MockStorageBackend{name: "broken"}
		broken.On("Available", mock.Anything).Return(true)
		broken.On("Fetch", mock.Anything, id, interfaces.TranscriptType).Return(nil, errors.New("connection reset"))

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{broken}, testLogger())

		_, err := multi.Fetch(context.Background(), id, interfaces.TranscriptType)
		require.Error(t, err)
		assert.NotErrorIs(t, err, interfaces.ErrContentNotFound)
	})
}

func TestMultiStorageBackend_Store(t *testing.T) {
	data := []byte("attendance attachment")
	id := interfaces.ComputeID(data)

	t.Run("stores to all available backends", func(t *testing.T) {
		first := &MockStorageBackend{name: "first"}
		first.On("Available", mock.Anything).Return(true)
		first.On("Store", mock.Anything, data, interfaces.AttendanceType).Return(id, nil)

		second := &MockStorageBackend{name: "second"}
		second.On("Available", mock.Anything).Return(true)
		second.On("Store", mock.Anything, data, interfaces.AttendanceType).Return(id, nil)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{first, second}, testLogger())

		got, err := multi.Store(context.Background(), data, interfaces.AttendanceType)
		require.NoError(t, err)
		assert.Equal(t, id, got)
		first.AssertCalled(t, "Store", mock.Anything, data, interfaces.AttendanceType)
		second.AssertCalled(t, "Store", mock.Anything, data, interfaces.AttendanceType)
	})

	t.Run("succeeds when one backend accepts", func(t *testing.T) {
		broken := &MockStorageBackend{name: "broken"}
		broken.On("Available", mock.Anything).Return(true)
		broken.On("Store", mock.Anything, data, interfaces.AttendanceType).Return(interfaces.ContentID{}, errors.New("disk full"))

		working := &MockStorageBackend{name: "working"}
		working.On("Available", mock.Anything).Return(true)
		working.On("Store", mock.Anything, data, interfaces.AttendanceType).Return(id, nil)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{broken, working}, testLogger())

		got, err := multi.Store(context.Background(), data, interfaces.AttendanceType)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("fails when no backend accepts", func(t *testing.T) {
		broken := &MockStorageBackend{name: "broken"}
		broken.On("Available", mock.Anything).Return(true)
		broken.On("Store", mock.Anything, data, interfaces.AttendanceType).Return(interfaces.ContentID{}, errors.New("disk full"))

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{broken}, testLogger())

		_, err := multi.Store(context.Background(), data, interfaces.AttendanceType)
		assert.Error(t, err)
	})
}
