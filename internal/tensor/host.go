package tensor

import (
	"fmt"
)

// HostMemory is float4-addressed memory living in process RAM.
// Concurrent writers must target distinct vectors.
type HostMemory struct {
	data []float32
}

// NewHostMemory allocates zeroed memory for n float4 vectors.
func NewHostMemory(vectors int) *HostMemory {
	return &HostMemory{data: make([]float32, vectors*4)}
}

// ByteSize returns the allocation size in bytes.
func (m *HostMemory) ByteSize() uint64 {
	return uint64(len(m.data)) * 4 //nolint:gosec // G115: length is non-negative
}

// Vectors returns the number of float4 vectors.
func (m *HostMemory) Vectors() int {
	return len(m.data) / 4
}

// Float4 reads vector i.
func (m *HostMemory) Float4(i int) Float4 {
	return Float4(m.data[i*4 : i*4+4])
}

// SetFloat4 writes vector i.
func (m *HostMemory) SetFloat4(i int, v Float4) {
	copy(m.data[i*4:i*4+4], v[:])
}

// HostTensor is a tensor stored in host memory with channel slices padded to four.
type HostTensor struct {
	shape Shape
	desc  Descriptor
	mem   *HostMemory
}

// Compile-time check that HostTensor implements Tensor.
var _ Tensor = (*HostTensor)(nil)

// NewHostTensor allocates a zero-filled host tensor.
func NewHostTensor(shape Shape, desc Descriptor) (*HostTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor: %w", err)
	}
	return &HostTensor{
		shape: shape,
		desc:  desc,
		mem:   NewHostMemory(shape.NumVectors()),
	}, nil
}

// Shape returns the tensor shape.
func (t *HostTensor) Shape() Shape { return t.shape }

// Descriptor returns the storage descriptor.
func (t *HostTensor) Descriptor() Descriptor { return t.desc }

// Memory returns the memory handle for reading.
func (t *HostTensor) Memory() Memory { return t.mem }

// MemoryForWriting returns the memory handle for writing.
func (t *HostTensor) MemoryForWriting() Memory { return t.mem }

// Host returns the underlying host memory.
func (t *HostTensor) Host() *HostMemory { return t.mem }

// CopyFrom fills the tensor from values in BHWC order. Slice padding stays zero.
func (t *HostTensor) CopyFrom(values []float32) error {
	if len(values) != t.shape.NumElements() {
		return fmt.Errorf("tensor: expected %d values for %v, got %d", t.shape.NumElements(), t.shape, len(values))
	}
	s := t.shape
	i := 0
	for b := 0; b < s.Batch; b++ {
		for y := 0; y < s.Height; y++ {
			for x := 0; x < s.Width; x++ {
				for c := 0; c < s.Channels; c++ {
					t.mem.data[s.Index(x, y, c/4, b)*4+c%4] = values[i]
					i++
				}
			}
		}
	}
	return nil
}

// Values returns the tensor contents in BHWC order, dropping slice padding.
func (t *HostTensor) Values() []float32 {
	s := t.shape
	out := make([]float32, 0, s.NumElements())
	for b := 0; b < s.Batch; b++ {
		for y := 0; y < s.Height; y++ {
			for x := 0; x < s.Width; x++ {
				for c := 0; c < s.Channels; c++ {
					out = append(out, t.mem.data[s.Index(x, y, c/4, b)*4+c%4])
				}
			}
		}
	}
	return out
}

// Channels returns the channel values at (x, y) of batch b.
func (t *HostTensor) Channels(b, y, x int) []float32 {
	s := t.shape
	out := make([]float32, s.Channels)
	for c := range out {
		out[c] = t.mem.data[s.Index(x, y, c/4, b)*4+c%4]
	}
	return out
}

// RawVectors returns the padded storage, including lanes past Channels.
func (t *HostTensor) RawVectors() []float32 {
	return t.mem.data
}
