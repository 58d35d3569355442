// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package softmax provides the channel softmax operator for tensors whose
// spatial extent is 1x1, such as classifier logits after global pooling.
//
// The whole channel axis of one batch element is reduced by a single
// workgroup of 32 lanes, so channel counts are limited to MaxChannels.
// No max subtraction is performed before exponentiation: inputs must stay in
// the range where exp does not overflow float32.
//
// Example:
//
//	dev := host.New(host.DefaultConfig())
//	cc := softmax.NewCreationContext(dev)
//
//	op := softmax.Create(softmax.Definition{
//	    Precision: softmax.F32,
//	    Src:       []tensor.Descriptor{{DataType: tensor.Float32}},
//	    Dst:       []tensor.Descriptor{{DataType: tensor.Float32}},
//	})
//	op.AddLinkedOperation(&softmax.Scale{Multiplier: 2})
//	op.SetSrc(src, 0)
//	op.SetDst(dst, 0)
//	if err := op.Compile(cc); err != nil {
//	    log.Fatal(err)
//	}
//	if err := op.AddToQueue(dev); err != nil {
//	    log.Fatal(err)
//	}
package softmax

import (
	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/linking"
	"github.com/born-ml/softmax1x1/internal/operation"
	internalsoftmax "github.com/born-ml/softmax1x1/internal/softmax"
	"github.com/born-ml/softmax1x1/tensor"
)

// Softmax1x1 is the softmax operator.
type Softmax1x1 = internalsoftmax.Softmax1x1

// Definition describes the operator's operands and precision.
type Definition = operation.Definition

// CreationContext carries the kernel cache operators compile against.
type CreationContext = operation.CreationContext

// Precision selects the floating type kernels compute in.
type Precision = operation.Precision

// Precision constants.
const (
	F32    Precision = operation.F32
	F32F16 Precision = operation.F32F16
	F16    Precision = operation.F16
)

// ParsePrecision parses "f32", "f32_f16" or "f16".
func ParsePrecision(s string) (Precision, error) {
	return operation.ParsePrecision(s)
}

// LinkedOperation is an elementwise step fused into the output path.
type LinkedOperation = linking.Operation

// Scale multiplies every output by Multiplier.
type Scale = linking.Scale

// ReLU applies max(x, 0) with optional leaky slope and upper clip.
type ReLU = linking.ReLU

// Device compiles and runs kernels. The host and WebGPU backends implement it.
type Device interface {
	kernel.Compiler
	kernel.Queue
}

// MaxChannels is the deepest channel axis a single workgroup reduces.
const MaxChannels = internalsoftmax.MaxChannels

// Errors returned inside a *kernel.DispatchError by AddToQueue.
var (
	ErrChannelsExceedLimit = internalsoftmax.ErrChannelsExceedLimit
	ErrSpatialNot1x1       = internalsoftmax.ErrSpatialNot1x1
	ErrShapeMismatch       = internalsoftmax.ErrShapeMismatch
)

// Create returns an uncompiled operator. def must have one source and one destination.
func Create(def Definition) *Softmax1x1 {
	return internalsoftmax.Create(def)
}

// NewCreationContext returns a context with a fresh kernel cache on dev.
// Release the cache with the device.
func NewCreationContext(dev Device) CreationContext {
	return CreationContext{Cache: kernel.NewCache(dev)}
}

// ComputeMask returns the lane mask for the last channel slice.
func ComputeMask(channels int) tensor.Float4 {
	return internalsoftmax.ComputeMask(channels)
}

// GenerateSource returns the WGSL kernel the operator compiles for def.
func GenerateSource(def Definition, linked ...LinkedOperation) string {
	return internalsoftmax.GenerateSource(def, linked).Code
}
