// Package softmax implements a channel softmax for tensors whose spatial
// extent collapsed to 1x1, reduced by a single 32-lane workgroup per batch element.
package softmax

import (
	"errors"
	"fmt"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/linking"
	"github.com/born-ml/softmax1x1/internal/operation"
	"github.com/born-ml/softmax1x1/internal/tensor"
)

// MaxChannels is the deepest channel axis dispatched to the single-workgroup
// reduction (256 stride steps per lane). Deeper axes need a multi-workgroup
// reduction with its own completion signal.
const MaxChannels = workgroupLanes * 4 * 256

// Errors returned by AddToQueue inside a *kernel.DispatchError.
var (
	ErrChannelsExceedLimit = errors.New("channel count exceeds single-workgroup limit")
	ErrSpatialNot1x1       = errors.New("spatial extent is not 1x1")
	ErrShapeMismatch       = errors.New("tensor shapes do not fit the definition")
)

// Softmax1x1 is the operator. It owns its compiled kernel handle.
//
// Lifecycle: Create, optionally AddLinkedOperation, SetSrc/SetDst, Compile,
// then AddToQueue any number of times.
type Softmax1x1 struct {
	operation.GPUOperation
	kernel *kernel.Kernel
}

// Create returns an uncompiled operator for def, which must have exactly one
// source and one destination.
func Create(def operation.Definition) *Softmax1x1 {
	if len(def.Src) != 1 || len(def.Dst) != 1 {
		panic(fmt.Sprintf("softmax1x1: want 1 src and 1 dst, got %d and %d", len(def.Src), len(def.Dst)))
	}
	return &Softmax1x1{GPUOperation: operation.NewGPUOperation(def)}
}

// Compiled reports whether Compile succeeded on this instance.
func (op *Softmax1x1) Compiled() bool {
	return op.kernel != nil
}

// Source returns the kernel source this operator compiles.
func (op *Softmax1x1) Source() kernel.Source {
	return GenerateSource(op.Definition(), op.LinkedOperations())
}

// Compile generates the kernel and fetches it from the cache, compiling on first use.
func (op *Softmax1x1) Compile(cc operation.CreationContext) error {
	k, err := cc.Cache.GetOrCompile(op.Source())
	if err != nil {
		return err
	}
	op.kernel = k
	return nil
}

// AddToQueue binds all arguments and dispatches one workgroup per batch element.
// It panics if the operator was not compiled or its tensors are not set.
func (op *Softmax1x1) AddToQueue(queue kernel.Queue) error {
	if op.kernel == nil {
		panic("softmax1x1: AddToQueue called before Compile")
	}
	src, dst := op.Src(0), op.Dst(0)
	if src == nil || dst == nil {
		panic("softmax1x1: source and destination tensors must be set")
	}

	shape := src.Shape()
	if err := op.checkShapes(shape, dst.Shape()); err != nil {
		return &kernel.DispatchError{Op: entryPoint, Err: err}
	}
	if !shape.Is1x1() {
		return &kernel.DispatchError{Op: entryPoint, Err: fmt.Errorf("%w: %v", ErrSpatialNot1x1, shape)}
	}
	if shape.Channels > MaxChannels {
		return &kernel.DispatchError{
			Op:  entryPoint,
			Err: fmt.Errorf("%w: %d > %d", ErrChannelsExceedLimit, shape.Channels, MaxChannels),
		}
	}

	if err := op.bindArguments(src, dst); err != nil {
		op.kernel.ResetBindingCounter()
		return &kernel.DispatchError{Op: entryPoint, Err: err}
	}
	return kernel.Dispatch(queue, op.kernel, op.globalSize(dst), kernel.Size3{X: workgroupLanes, Y: 1, Z: 1})
}

// Move transfers the compiled kernel and base state to a new operator.
// The receiver must be compiled again before it can dispatch.
func (op *Softmax1x1) Move() *Softmax1x1 {
	moved := &Softmax1x1{kernel: op.kernel}
	moved.MoveFrom(&op.GPUOperation)
	op.kernel = nil
	return moved
}

// bindArguments binds src, linked arguments, dst, tensor size, slice counts,
// batch size and mask in kernel declaration order.
func (op *Softmax1x1) bindArguments(src, dst tensor.Tensor) error {
	k := op.kernel
	k.ResetBindingCounter()

	if err := k.SetMemoryAuto(src.Memory()); err != nil {
		return err
	}
	if err := linking.BindArgs(k, op.LinkedOperations()); err != nil {
		return err
	}
	if err := k.SetMemoryForWritingAuto(dst.MemoryForWriting()); err != nil {
		return err
	}

	s := src.Shape()
	slices := s.Slices()
	//nolint:gosec // G115: shapes are validated positive and far below 2^31
	if err := k.SetBytesAuto(tensor.Int4{int32(s.Width), int32(s.Height), int32(slices), int32(s.Batch)}); err != nil {
		return err
	}
	//nolint:gosec // G115: slices <= MaxChannels/4
	if err := k.SetBytesAuto(tensor.Int2{int32(slices), int32((slices + workgroupLanes - 1) / workgroupLanes)}); err != nil {
		return err
	}
	if op.Definition().BatchSupport {
		if err := k.SetBytesAuto(int32(dst.Shape().Batch)); err != nil { //nolint:gosec // G115: validated positive
			return err
		}
	}
	return k.SetBytesAuto(ComputeMask(s.Channels))
}

// checkShapes requires dst to match src and, without batch support, a single
// batch element: the kernel then addresses slices without the batch stride.
func (op *Softmax1x1) checkShapes(src, dst tensor.Shape) error {
	if src != dst {
		return fmt.Errorf("%w: src %v, dst %v", ErrShapeMismatch, src, dst)
	}
	if !op.Definition().BatchSupport && src.Batch != 1 {
		return fmt.Errorf("%w: batch %d without batch support", ErrShapeMismatch, src.Batch)
	}
	return nil
}

// globalSize is 32 lanes along x and one workgroup per batch element along y.
func (op *Softmax1x1) globalSize(dst tensor.Tensor) kernel.Size3 {
	batch := 1
	if op.Definition().BatchSupport {
		batch = dst.Shape().Batch
	}
	return kernel.Size3{X: workgroupLanes, Y: batch, Z: 1}
}
