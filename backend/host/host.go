// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package host provides a device that runs kernels on the CPU.
//
// Every workgroup runs as one goroutine per lane with shared scratch memory
// and a barrier, so results match the GPU reduction order. It is used for
// tests and for machines without WebGPU.
//
// Example:
//
//	dev := host.New(host.DefaultConfig())
//	op := softmax.Create(def)
//	...
//	err := op.Compile(softmax.NewCreationContext(dev))
package host

import (
	internalhost "github.com/born-ml/softmax1x1/internal/backend/host"
)

// Device compiles and dispatches kernels on the host.
type Device = internalhost.Device

// Config controls host dispatch.
type Config = internalhost.Config

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	return internalhost.DefaultConfig()
}

// New creates a host device.
func New(cfg Config) *Device {
	return internalhost.New(cfg)
}
