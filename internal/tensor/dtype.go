// Package tensor provides tensor descriptors, shapes and host storage for GPU operators.
package tensor

// DataType represents the element type of tensor storage.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}

// WGSL returns the WGSL scalar type name for the data type.
func (dt DataType) WGSL() string {
	switch dt {
	case Float32:
		return "f32"
	case Float16:
		return "f16"
	default:
		panic("unknown data type")
	}
}
