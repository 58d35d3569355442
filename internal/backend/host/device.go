// Package host implements a kernel device that emulates compute workgroups on the CPU.
//
// Kernels run from the Emulation carried by their kernel.Source. Every
// workgroup gets one goroutine per lane, shared scratch memory and a barrier,
// so emulations observe the same synchronization model as a GPU workgroup.
package host

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/born-ml/softmax1x1/internal/kernel"
)

// Config controls host dispatch.
type Config struct {
	Workers        int // Workgroups executed concurrently.
	MaxGroupLanes  int // Upper bound on lanes per workgroup.
	MaxSharedFloat int // Upper bound on shared scratch per workgroup, in float32 slots.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	return Config{
		Workers:        runtime.GOMAXPROCS(0),
		MaxGroupLanes:  256,
		MaxSharedFloat: 4096, // 16KB, the WebGPU default limit.
	}
}

// Device compiles and dispatches kernels on the host.
type Device struct {
	cfg    Config
	logger *slog.Logger
}

// Compile-time checks that Device is a compiler and a queue.
var (
	_ kernel.Compiler = (*Device)(nil)
	_ kernel.Queue    = (*Device)(nil)
)

// New creates a host device.
func New(cfg Config) *Device {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Device{
		cfg:    cfg,
		logger: slog.Default().With("component", "host"),
	}
}

// Name returns the device name.
func (d *Device) Name() string {
	return fmt.Sprintf("host (%d workers)", d.cfg.Workers)
}

// program is a kernel compiled for the host.
type program struct {
	entryPoint string
	emulation  kernel.Emulation
}

// Release implements kernel.Object.
func (p *program) Release() {}

// Compile checks src and wraps its emulation.
func (d *Device) Compile(src kernel.Source) (kernel.Object, error) {
	if !strings.Contains(src.Code, "fn "+src.EntryPoint+"(") {
		return nil, &kernel.CompilationError{
			EntryPoint: src.EntryPoint,
			Log:        fmt.Sprintf("no function named %q in %d bytes of source", src.EntryPoint, len(src.Code)),
			Err:        kernel.ErrEntryPointNotFound,
		}
	}
	if src.Emulation.Run == nil {
		return nil, &kernel.CompilationError{EntryPoint: src.EntryPoint, Err: kernel.ErrNoEmulation}
	}
	if src.Emulation.SharedFloats > d.cfg.MaxSharedFloat {
		return nil, &kernel.CompilationError{
			EntryPoint: src.EntryPoint,
			Err:        fmt.Errorf("shared memory %d floats exceeds limit %d", src.Emulation.SharedFloats, d.cfg.MaxSharedFloat),
		}
	}
	return &program{entryPoint: src.EntryPoint, emulation: src.Emulation}, nil
}
