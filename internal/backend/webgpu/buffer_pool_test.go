//go:build windows

package webgpu

import (
	"testing"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		size uint64
		want sizeClass
	}{
		{16, smallClass},
		{smallThreshold - 1, smallClass},
		{smallThreshold, mediumClass},
		{mediumThreshold - 1, mediumClass},
		{mediumThreshold, largeClass},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classOf(tt.size), "size=%d", tt.size)
	}
}

func TestBufferPoolAcquireRelease(t *testing.T) {
	b := newBackend(t)
	pool := NewBufferPool(b.device)
	defer pool.Clear()

	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
	buf, capacity := pool.Acquire(1024, usage)
	assert.Equal(t, uint64(1024), capacity)
	assert.Equal(t, PoolStats{Allocated: 1, Misses: 1}, pool.Stats())

	pool.Release(buf, capacity, usage)
	assert.Equal(t, 1, pool.Stats().Pooled)

	// A smaller request with a subset of the usage reuses the idle buffer.
	again, capacity := pool.Acquire(512, wgpu.BufferUsageStorage)
	assert.Same(t, buf, again)
	assert.Equal(t, uint64(1024), capacity)
	assert.Equal(t, PoolStats{Allocated: 1, Released: 1, Hits: 1, Misses: 1}, pool.Stats())

	// Different usage allocates.
	other, _ := pool.Acquire(512, wgpu.BufferUsageUniform)
	assert.NotSame(t, again, other)
	pool.Release(again, 1024, usage)
	pool.Release(other, 512, wgpu.BufferUsageUniform)
	assert.Equal(t, 2, pool.Stats().Pooled)

	pool.Clear()
	assert.Equal(t, 0, pool.Stats().Pooled)
}
