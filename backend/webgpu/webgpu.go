//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU device for compiling and dispatching kernels.
//
// Example:
//
//	gpu, err := webgpu.New(webgpu.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	cc := softmax.NewCreationContext(gpu)
//	defer cc.Cache.Release()
package webgpu

import (
	internalwebgpu "github.com/born-ml/softmax1x1/internal/backend/webgpu"
)

// Backend is a WebGPU device, kernel compiler and queue.
type Backend = internalwebgpu.Backend

// Config controls backend creation.
type Config = internalwebgpu.Config

// Tensor is a tensor stored in a GPU buffer.
type Tensor = internalwebgpu.Tensor

// DefaultConfig returns the default backend configuration.
func DefaultConfig() Config {
	return internalwebgpu.DefaultConfig()
}

// New creates a WebGPU backend. Call Release when done.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New(cfg Config) (*Backend, error) {
	return internalwebgpu.New(cfg)
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
