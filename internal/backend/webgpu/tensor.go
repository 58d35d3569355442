//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/softmax1x1/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// storageUsage is the usage of every tensor buffer.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// Buffer is tensor memory living in a GPU storage buffer.
type Buffer struct {
	buffer   *wgpu.Buffer
	size     uint64 // Bytes addressed by kernels
	capacity uint64 // Bytes allocated, may exceed size for pooled buffers
}

// ByteSize implements tensor.Memory.
func (m *Buffer) ByteSize() uint64 { return m.size }

// Tensor is a float32 BHWC tensor stored on the GPU with channel slices padded to four.
type Tensor struct {
	backend *Backend
	shape   tensor.Shape
	desc    tensor.Descriptor
	mem     *Buffer
}

// Compile-time check that Tensor implements tensor.Tensor.
var _ tensor.Tensor = (*Tensor)(nil)

// NewTensor allocates a zero-filled GPU tensor. Only Float32 storage is
// supported, matching the f32-only kernels the backend compiles.
func (b *Backend) NewTensor(shape tensor.Shape, desc tensor.Descriptor) (*Tensor, error) {
	if b.device == nil {
		return nil, ErrReleased
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("webgpu: %w", err)
	}
	if desc.DataType != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: %s storage is not supported", desc.DataType)
	}

	//nolint:gosec // G115: validated positive
	size := uint64(shape.NumVectors() * 4 * desc.DataType.Size())
	buffer, capacity := b.bufferPool.Acquire(size, storageUsage)
	t := &Tensor{
		backend: b,
		shape:   shape,
		desc:    desc,
		mem:     &Buffer{buffer: buffer, size: size, capacity: capacity},
	}
	// Pooled buffers hold stale data; padding lanes must read as zero.
	b.writeBuffer(buffer, make([]byte, size))
	return t, nil
}

// Shape returns the tensor shape.
func (t *Tensor) Shape() tensor.Shape { return t.shape }

// Descriptor returns the storage descriptor.
func (t *Tensor) Descriptor() tensor.Descriptor { return t.desc }

// Memory returns the buffer for reading.
func (t *Tensor) Memory() tensor.Memory { return t.mem }

// MemoryForWriting returns the buffer for writing.
func (t *Tensor) MemoryForWriting() tensor.Memory { return t.mem }

// Upload copies BHWC values into the tensor.
func (t *Tensor) Upload(values []float32) error {
	staged, err := tensor.NewHostTensor(t.shape, t.desc)
	if err != nil {
		return err
	}
	if err := staged.CopyFrom(values); err != nil {
		return err
	}
	raw := staged.RawVectors()
	data := make([]byte, len(raw)*4)
	for i, v := range raw {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	t.backend.writeBuffer(t.mem.buffer, data)
	return nil
}

// Download submits pending work and returns the tensor contents in BHWC order.
func (t *Tensor) Download() ([]float32, error) {
	data, err := t.backend.readBuffer(t.mem.buffer, t.mem.size)
	if err != nil {
		return nil, err
	}
	staged, err := tensor.NewHostTensor(t.shape, t.desc)
	if err != nil {
		return nil, err
	}
	raw := staged.RawVectors()
	for i := range raw {
		raw[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return staged.Values(), nil
}

// Release returns the storage buffer to the backend pool. The tensor must not be used afterwards.
func (t *Tensor) Release() {
	if t.mem == nil {
		return
	}
	t.backend.FlushCommands()
	if t.backend.bufferPool != nil {
		t.backend.bufferPool.Release(t.mem.buffer, t.mem.capacity, storageUsage)
	} else {
		t.mem.buffer.Release()
	}
	t.mem = nil
}
