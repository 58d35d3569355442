package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeSlices(t *testing.T) {
	tests := []struct {
		channels int
		slices   int
	}{
		{1, 1}, {3, 1}, {4, 1}, {5, 2}, {31, 8}, {32, 8}, {33, 9}, {128, 32},
	}
	for _, tt := range tests {
		s := NewShape(1, 1, 1, tt.channels)
		assert.Equal(t, tt.slices, s.Slices(), "channels=%d", tt.channels)
	}
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, NewShape(1, 1, 1, 1).Validate())

	err := NewShape(1, 1, 1, 0).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channels")

	err = NewShape(0, 1, 1, 4).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch")
}

func TestShapeIndex(t *testing.T) {
	s := NewShape(4, 1, 1, 16)
	// Batch is the fastest-moving dimension.
	assert.Equal(t, 0, s.Index(0, 0, 0, 0))
	assert.Equal(t, 3, s.Index(0, 0, 0, 3))
	assert.Equal(t, 4, s.Index(0, 0, 1, 0))
	assert.Equal(t, 15, s.Index(0, 0, 3, 3))
	assert.Equal(t, 16, s.NumVectors())
	assert.True(t, s.Is1x1())
}
