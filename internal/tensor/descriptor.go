package tensor

// AccessMode describes how a kernel argument touches tensor memory.
type AccessMode int

// Access modes.
const (
	AccessRead AccessMode = iota
	AccessWrite
)

// String returns the WGSL storage access qualifier.
func (a AccessMode) String() string {
	if a == AccessWrite {
		return "read_write"
	}
	return "read"
}

// Descriptor describes the storage of a tensor operand.
type Descriptor struct {
	DataType DataType
}

// VectorType returns the WGSL vec4 type of one storage slice.
func (d Descriptor) VectorType() string {
	return "vec4<" + d.DataType.WGSL() + ">"
}

// Memory is an opaque device memory handle bound to kernel arguments.
type Memory interface {
	ByteSize() uint64
}

// Tensor is the storage abstraction operators bind to kernels.
type Tensor interface {
	Shape() Shape
	Descriptor() Descriptor
	// Memory returns the handle for reading.
	Memory() Memory
	// MemoryForWriting returns the handle for writing.
	MemoryForWriting() Memory
}
