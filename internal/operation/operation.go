// Package operation holds the state shared by GPU operators: the definition,
// bound tensors and the fused linked-operation chain.
package operation

import (
	"fmt"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/linking"
	"github.com/born-ml/softmax1x1/internal/tensor"
)

// Precision selects the floating type generated kernels compute and store in.
type Precision int

// Supported precisions.
const (
	// F32 computes and stores in f32.
	F32 Precision = iota
	// F32F16 accumulates in f32 and stores intermediates in f16.
	F32F16
	// F16 computes and stores in f16.
	F16
)

// String returns a human-readable precision name.
func (p Precision) String() string {
	switch p {
	case F32:
		return "f32"
	case F32F16:
		return "f32_f16"
	case F16:
		return "f16"
	default:
		return "unknown"
	}
}

// ParsePrecision parses the String form of a precision.
func ParsePrecision(s string) (Precision, error) {
	for _, p := range []Precision{F32, F32F16, F16} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("operation: unknown precision %q", s)
}

// Definition describes an operator's operands. It is immutable after construction.
type Definition struct {
	Precision    Precision
	Src          []tensor.Descriptor
	Dst          []tensor.Descriptor
	BatchSupport bool
}

// UsesF16 reports whether generated code needs the f16 extension.
func (d Definition) UsesF16() bool {
	if d.Precision != F32 {
		return true
	}
	for _, ds := range [][]tensor.Descriptor{d.Src, d.Dst} {
		for _, t := range ds {
			if t.DataType == tensor.Float16 {
				return true
			}
		}
	}
	return false
}

// CreationContext carries the device services operators compile against.
type CreationContext struct {
	Cache *kernel.Cache
}

// GPUOperation is the base state of a GPU operator.
type GPUOperation struct {
	definition Definition
	src        []tensor.Tensor
	dst        []tensor.Tensor
	linked     []linking.Operation
}

// NewGPUOperation creates base state for def.
func NewGPUOperation(def Definition) GPUOperation {
	return GPUOperation{
		definition: def,
		src:        make([]tensor.Tensor, len(def.Src)),
		dst:        make([]tensor.Tensor, len(def.Dst)),
	}
}

// Definition returns the operator definition.
func (op *GPUOperation) Definition() Definition { return op.definition }

// SetSrc binds source tensor index.
func (op *GPUOperation) SetSrc(t tensor.Tensor, index int) {
	op.src[index] = t
}

// SetDst binds destination tensor index.
func (op *GPUOperation) SetDst(t tensor.Tensor, index int) {
	op.dst[index] = t
}

// Src returns source tensor index.
func (op *GPUOperation) Src(index int) tensor.Tensor { return op.src[index] }

// Dst returns destination tensor index.
func (op *GPUOperation) Dst(index int) tensor.Tensor { return op.dst[index] }

// AddLinkedOperation appends an elementwise operation to the output path.
// Linked operations must be added before Compile.
func (op *GPUOperation) AddLinkedOperation(l linking.Operation) {
	op.linked = append(op.linked, l)
}

// LinkedOperations returns the fused chain in application order.
func (op *GPUOperation) LinkedOperations() []linking.Operation { return op.linked }

// MoveFrom transfers the state of other into op and leaves other empty.
func (op *GPUOperation) MoveFrom(other *GPUOperation) {
	if op == other {
		return
	}
	*op = *other
	*other = GPUOperation{}
}
