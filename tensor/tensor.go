// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor storage types consumed by operators.
//
// Tensors are BHWC with the channel axis packed into float4 slices:
// element (b, y, x, c) lives in lane c%4 of slice c/4.
//
// Example:
//
//	t, err := tensor.NewHostTensor(tensor.NewShape(1, 1, 1, 10), tensor.Descriptor{DataType: tensor.Float32})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = t.CopyFrom(logits)
package tensor

import (
	"github.com/born-ml/softmax1x1/internal/tensor"
)

// DataType is the element type of tensor storage.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float16 DataType = tensor.Float16
)

// Shape is a BHWC tensor shape.
type Shape = tensor.Shape

// Descriptor describes how a tensor is stored.
type Descriptor = tensor.Descriptor

// Tensor is the storage interface operators read and write through.
type Tensor = tensor.Tensor

// Memory is a device memory handle bound to kernels.
type Memory = tensor.Memory

// HostTensor is a tensor stored in process memory.
type HostTensor = tensor.HostTensor

// Float4 is a four-lane float vector.
type Float4 = tensor.Float4

// NewShape returns the shape (batch, height, width, channels).
func NewShape(batch, height, width, channels int) Shape {
	return tensor.NewShape(batch, height, width, channels)
}

// NewHostTensor allocates a zero-filled host tensor.
func NewHostTensor(shape Shape, desc Descriptor) (*HostTensor, error) {
	return tensor.NewHostTensor(shape, desc)
}
