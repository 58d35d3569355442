package kernel

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/softmax1x1/internal/tensor"
)

// ArgKind is the type of one positional kernel argument.
type ArgKind int

// Argument kinds.
const (
	ArgBufferRead ArgKind = iota
	ArgBufferWrite
	ArgInt
	ArgInt2
	ArgInt4
	ArgFloat
	ArgFloat4
)

// String returns a human-readable argument kind.
func (k ArgKind) String() string {
	switch k {
	case ArgBufferRead:
		return "buffer(read)"
	case ArgBufferWrite:
		return "buffer(write)"
	case ArgInt:
		return "int"
	case ArgInt2:
		return "int2"
	case ArgInt4:
		return "int4"
	case ArgFloat:
		return "float"
	case ArgFloat4:
		return "float4"
	default:
		return "unknown"
	}
}

// IsMemory reports whether the argument is a buffer handle.
func (k ArgKind) IsMemory() bool {
	return k == ArgBufferRead || k == ArgBufferWrite
}

// BindingAttr returns the WGSL binding attribute for the argument at index.
func BindingAttr(index int) string {
	return fmt.Sprintf("@group(0) @binding(%d)", index)
}

// Signature lists argument kinds in binding order.
type Signature struct {
	kinds []ArgKind
}

// Add appends an argument kind and returns its binding index.
func (s *Signature) Add(kind ArgKind) int {
	s.kinds = append(s.kinds, kind)
	return len(s.kinds) - 1
}

// Len returns the number of arguments.
func (s Signature) Len() int {
	return len(s.kinds)
}

// Kind returns the kind of argument i.
func (s Signature) Kind(i int) ArgKind {
	return s.kinds[i]
}

// Kinds returns a copy of the argument kinds.
func (s Signature) Kinds() []ArgKind {
	return append([]ArgKind(nil), s.kinds...)
}

// Arg is one bound kernel argument.
type Arg struct {
	Kind   ArgKind
	Memory tensor.Memory
	Value  any
}

// Int returns the value of an ArgInt argument.
func (a Arg) Int() int32 { return a.Value.(int32) }

// Int2 returns the value of an ArgInt2 argument.
func (a Arg) Int2() tensor.Int2 { return a.Value.(tensor.Int2) }

// Int4 returns the value of an ArgInt4 argument.
func (a Arg) Int4() tensor.Int4 { return a.Value.(tensor.Int4) }

// Float returns the value of an ArgFloat argument.
func (a Arg) Float() float32 { return a.Value.(float32) }

// Float4 returns the value of an ArgFloat4 argument.
func (a Arg) Float4() tensor.Float4 { return a.Value.(tensor.Float4) }

// Bytes encodes a value argument little-endian, padded to 16 bytes for uniform binding.
func (a Arg) Bytes() []byte {
	buf := make([]byte, 16)
	switch v := a.Value.(type) {
	case int32:
		binary.LittleEndian.PutUint32(buf[0:4], uint32(v)) //nolint:gosec // G115: bit pattern reinterpretation
	case tensor.Int2:
		for i, x := range v {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(x)) //nolint:gosec // G115: bit pattern reinterpretation
		}
	case tensor.Int4:
		for i, x := range v {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(x)) //nolint:gosec // G115: bit pattern reinterpretation
		}
	case float32:
		binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v))
	case tensor.Float4:
		for i, x := range v {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
		}
	default:
		return nil
	}
	return buf
}

// valueKind maps a Go value to the argument kind it binds as.
func valueKind(v any) (any, ArgKind, bool) {
	switch x := v.(type) {
	case int32:
		return x, ArgInt, true
	case int:
		return int32(x), ArgInt, true //nolint:gosec // G115: kernel scalars are 32-bit
	case tensor.Int2:
		return x, ArgInt2, true
	case tensor.Int4:
		return x, ArgInt4, true
	case float32:
		return x, ArgFloat, true
	case tensor.Float4:
		return x, ArgFloat4, true
	default:
		return nil, 0, false
	}
}
