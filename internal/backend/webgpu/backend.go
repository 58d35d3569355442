//go:build windows

// Package webgpu implements the kernel device on WebGPU.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Compile-time checks that Backend is a compiler and a queue.
var (
	_ kernel.Compiler = (*Backend)(nil)
	_ kernel.Queue    = (*Backend)(nil)
)

// ErrReleased is returned by operations on a released backend.
var ErrReleased = errors.New("webgpu: backend released")

// Config controls backend creation.
type Config struct {
	// PowerPreference selects the adapter.
	PowerPreference wgpu.PowerPreference
	// MaxBatchSize is the number of queued dispatches before an automatic
	// submission. Zero submits only on FlushCommands or readback.
	MaxBatchSize int
}

// DefaultConfig prefers the high-performance adapter and submits every 32 dispatches.
func DefaultConfig() Config {
	return Config{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
		MaxBatchSize:    32,
	}
}

// Backend owns a WebGPU device and queue, compiles WGSL kernels and dispatches them.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo *wgpu.AdapterInfo
	bufferPool  *BufferPool
	logger      *slog.Logger

	// Encoded dispatches waiting for submission, with the transient
	// uniform buffers and bind groups they reference.
	pending      []*wgpu.CommandBuffer
	transient    []releaser
	pendingMu    sync.Mutex
	maxBatchSize int
}

// releaser is any WebGPU object with an explicit Release.
type releaser interface {
	Release()
}

// New creates a WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New(cfg Config) (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: cfg.PowerPreference,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}
	adapterInfo := adapter.GetInfo()

	// No optional features are requested: kernels must be f32 (see ErrShaderF16Unsupported).
	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	b := &Backend{
		instance:     instance,
		adapter:      adapter,
		device:       device,
		queue:        queue,
		adapterInfo:  &adapterInfo,
		bufferPool:   NewBufferPool(device),
		logger:       slog.Default().With("component", "webgpu"),
		maxBatchSize: cfg.MaxBatchSize,
	}
	b.logger.Debug("device ready", "name", b.Name())
	return b, nil
}

// SetLogger replaces the backend logger.
func (b *Backend) SetLogger(logger *slog.Logger) {
	b.logger = logger
}

// queueCommand adds an encoded dispatch and its transient resources to the pending batch.
func (b *Backend) queueCommand(cmd *wgpu.CommandBuffer, transient ...releaser) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	b.pending = append(b.pending, cmd)
	b.transient = append(b.transient, transient...)
	if b.maxBatchSize > 0 && len(b.pending) >= b.maxBatchSize {
		b.flushCommandsLocked()
	}
}

// FlushCommands submits all pending dispatches to the GPU queue.
// Readback flushes automatically.
func (b *Backend) FlushCommands() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	b.flushCommandsLocked()
}

// flushCommandsLocked submits pending dispatches (must hold pendingMu).
func (b *Backend) flushCommandsLocked() {
	if len(b.pending) == 0 {
		return
	}
	b.queue.Submit(b.pending...)
	for _, r := range b.transient {
		r.Release()
	}
	clear(b.pending)
	clear(b.transient)
	b.pending = b.pending[:0]
	b.transient = b.transient[:0]
}

// SetMaxBatchSize sets the number of dispatches accumulated before auto-submission.
// Zero disables the limit.
func (b *Backend) SetMaxBatchSize(size int) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	b.maxBatchSize = size
}

// Release flushes pending work and releases all WebGPU resources.
// Kernels compiled by this backend must be released first, e.g. with kernel.Cache.Release.
func (b *Backend) Release() {
	b.FlushCommands()

	if b.bufferPool != nil {
		b.bufferPool.Clear()
		b.bufferPool = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", b.adapterInfo.Device, b.adapterInfo.Vendor)
	}
	return "WebGPU"
}

// AdapterInfo returns information about the GPU adapter.
func (b *Backend) AdapterInfo() *wgpu.AdapterInfo {
	return b.adapterInfo
}

// PoolStats returns buffer pool statistics.
func (b *Backend) PoolStats() PoolStats {
	if b.bufferPool == nil {
		return PoolStats{}
	}
	return b.bufferPool.Stats()
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}
