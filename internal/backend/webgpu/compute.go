//go:build windows

package webgpu

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/go-webgpu/webgpu/wgpu"
)

// ErrShaderF16Unsupported reports a kernel that needs the shader-f16 feature.
// Devices are requested without optional features, so only f32 kernels
// (operation.F32 over Float32 tensors) compile on this backend.
var ErrShaderF16Unsupported = errors.New("webgpu: shader-f16 is not enabled on this device")

// ErrForeignMemory reports a memory argument that was not allocated by this backend.
var ErrForeignMemory = errors.New("webgpu: memory argument is not a WebGPU buffer")

// program is a compiled compute pipeline.
type program struct {
	entryPoint string
	shader     *wgpu.ShaderModule
	pipeline   *wgpu.ComputePipeline
}

// Release implements kernel.Object.
func (p *program) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.shader != nil {
		p.shader.Release()
		p.shader = nil
	}
}

// Compile builds a shader module and a compute pipeline with auto layout for src.
// Sources enabling f16 fail with ErrShaderF16Unsupported.
func (b *Backend) Compile(src kernel.Source) (obj kernel.Object, err error) {
	if b.device == nil {
		return nil, ErrReleased
	}
	if strings.Contains(src.Code, "enable f16;") {
		return nil, &kernel.CompilationError{EntryPoint: src.EntryPoint, Err: ErrShaderF16Unsupported}
	}
	// wgpu-native reports WGSL validation failures through panics.
	defer func() {
		if r := recover(); r != nil {
			obj = nil
			err = &kernel.CompilationError{EntryPoint: src.EntryPoint, Log: fmt.Sprint(r)}
		}
	}()

	shader := b.device.CreateShaderModuleWGSL(src.Code)
	if shader == nil {
		return nil, &kernel.CompilationError{EntryPoint: src.EntryPoint, Log: "shader module creation failed"}
	}
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, src.EntryPoint)
	if pipeline == nil {
		shader.Release()
		return nil, &kernel.CompilationError{EntryPoint: src.EntryPoint, Err: kernel.ErrEntryPointNotFound}
	}
	return &program{entryPoint: src.EntryPoint, shader: shader, pipeline: pipeline}, nil
}

// Dispatch encodes k over global invocations in workgroups of size local and
// queues it for submission. Uniform values are uploaded into transient buffers
// released after submission.
func (b *Backend) Dispatch(k *kernel.Kernel, global, local kernel.Size3) error {
	prog, ok := k.Object().(*program)
	if !ok {
		return fmt.Errorf("webgpu: kernel %q was not compiled for this backend", k.EntryPoint())
	}
	if b.device == nil {
		return ErrReleased
	}
	if local.Volume() <= 0 || global.Volume() <= 0 {
		return fmt.Errorf("webgpu: empty dispatch global=%v local=%v", global, local)
	}

	args := k.Args()
	entries := make([]wgpu.BindGroupEntry, 0, len(args))
	transient := make([]releaser, 0, len(args)+1)
	for i, a := range args {
		//nolint:gosec // G115: binding indices are small
		binding := uint32(i)
		if a.Kind.IsMemory() {
			buf, ok := a.Memory.(*Buffer)
			if !ok {
				releaseAll(transient)
				return fmt.Errorf("binding %d: %w (%T)", i, ErrForeignMemory, a.Memory)
			}
			entries = append(entries, wgpu.BufferBindingEntry(binding, buf.buffer, 0, buf.size))
			continue
		}
		uniform := b.createUniformBuffer(a.Bytes())
		transient = append(transient, uniform)
		entries = append(entries, wgpu.BufferBindingEntry(binding, uniform, 0, uniformSize))
	}

	layout := prog.pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(layout, entries)
	transient = append(transient, bindGroup)

	groups := global.Groups(local)
	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(prog.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: group counts are positive and small
	pass.DispatchWorkgroups(uint32(groups.X), uint32(groups.Y), uint32(groups.Z))
	pass.End()

	b.queueCommand(encoder.Finish(nil), transient...)
	b.logger.Debug("dispatch", "entry_point", prog.entryPoint, "groups", groups)
	return nil
}

func releaseAll(rs []releaser) {
	for _, r := range rs {
		r.Release()
	}
}

// uniformSize is the padded size of every scalar or vector argument.
const uniformSize = 16

// createBuffer creates a GPU buffer initialized with data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()
	return buffer
}

// createUniformBuffer creates a uniform buffer rounded up to 16 bytes.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	aligned := make([]byte, (len(data)+15)&^15)
	copy(aligned, data)
	return b.createBuffer(aligned, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
}

// readBuffer reads a GPU buffer back to CPU memory through a staging buffer.
// Pending dispatches are submitted first.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	b.FlushCommands()

	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	result := make([]byte, size)
	copy(result, unsafe.Slice((*byte)(mappedPtr), size))
	staging.Unmap()
	return result, nil
}

// writeBuffer uploads data into dst through a mapped staging buffer.
// The copy is ordered after every dispatch queued so far.
func (b *Backend) writeBuffer(dst *wgpu.Buffer, data []byte) {
	staging := b.createBuffer(data, wgpu.BufferUsageCopySrc)
	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, dst, 0, uint64(len(data)))
	b.queueCommand(encoder.Finish(nil), staging)
}
