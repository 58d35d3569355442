package host

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// groupSumSource writes, per workgroup, the sum of lane indices into vector
// group.X of its output buffer. Lane 0 combines partial values after a barrier.
func groupSumSource() kernel.Source {
	var sig kernel.Signature
	sig.Add(kernel.ArgBufferWrite)
	return kernel.Source{
		Code:       "fn group_sum() {}",
		EntryPoint: "group_sum",
		Signature:  sig,
		Emulation: kernel.Emulation{
			SharedFloats: 64,
			Run: func(l kernel.Lane, args []kernel.Arg) {
				out := args[0].Memory.(*tensor.HostMemory)
				tid := l.LocalID().X
				l.Shared()[tid] = float32(tid)
				l.Barrier()
				if tid == 0 {
					var sum float32
					for _, v := range l.Shared() {
						sum += v
					}
					out.SetFloat4(l.GroupID().X, tensor.Splat(sum))
				}
			},
		},
	}
}

func TestDeviceDispatch(t *testing.T) {
	dev := New(DefaultConfig())
	cache := kernel.NewCache(dev)

	k, err := cache.GetOrCompile(groupSumSource())
	require.NoError(t, err)

	out := tensor.NewHostMemory(3)
	require.NoError(t, k.SetMemoryForWritingAuto(out))
	require.NoError(t, kernel.Dispatch(dev, k, kernel.Size3{X: 3 * 64, Y: 1, Z: 1}, kernel.Size3{X: 64, Y: 1, Z: 1}))

	for g := range 3 {
		assert.Equal(t, tensor.Splat(2016), out.Float4(g), "group %d", g) // 0+1+...+63
	}
}

func TestDeviceCompileErrors(t *testing.T) {
	dev := New(DefaultConfig())

	src := groupSumSource()
	src.Code = "fn other() {}"
	_, err := dev.Compile(src)
	var ce *kernel.CompilationError
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, kernel.ErrEntryPointNotFound)
	assert.NotEmpty(t, ce.Log)

	src = groupSumSource()
	src.Emulation = kernel.Emulation{}
	_, err = dev.Compile(src)
	assert.ErrorIs(t, err, kernel.ErrNoEmulation)

	src = groupSumSource()
	src.Emulation.SharedFloats = 1 << 20
	_, err = dev.Compile(src)
	assert.Error(t, err)
}

type otherMemory struct{}

func (otherMemory) ByteSize() uint64 { return 16 }

func TestDeviceDispatchRejects(t *testing.T) {
	dev := New(DefaultConfig())
	obj, err := dev.Compile(groupSumSource())
	require.NoError(t, err)

	k := kernel.NewKernel(obj, groupSumSource())
	require.NoError(t, k.SetMemoryForWritingAuto(otherMemory{}))
	err = dev.Dispatch(k, kernel.Size3{X: 64, Y: 1, Z: 1}, kernel.Size3{X: 64, Y: 1, Z: 1})
	assert.ErrorIs(t, err, ErrForeignMemory)

	k.ResetBindingCounter()
	require.NoError(t, k.SetMemoryForWritingAuto(tensor.NewHostMemory(1)))
	err = dev.Dispatch(k, kernel.Size3{X: 512, Y: 1, Z: 1}, kernel.Size3{X: 512, Y: 1, Z: 1})
	assert.Error(t, err, "workgroup over the lane limit")

	foreign := kernel.NewKernel(nil, groupSumSource())
	assert.Error(t, dev.Dispatch(foreign, kernel.Size3{X: 1, Y: 1, Z: 1}, kernel.Size3{X: 1, Y: 1, Z: 1}))
}

func TestDevicePanickingLaneDoesNotDeadlock(t *testing.T) {
	var sig kernel.Signature
	src := kernel.Source{
		Code:       "fn boom() {}",
		EntryPoint: "boom",
		Signature:  sig,
		Emulation: kernel.Emulation{Run: func(l kernel.Lane, _ []kernel.Arg) {
			if l.LocalID().X == 3 {
				panic("bad index")
			}
			l.Barrier()
		}},
	}
	dev := New(DefaultConfig())
	obj, err := dev.Compile(src)
	require.NoError(t, err)

	err = dev.Dispatch(kernel.NewKernel(obj, src), kernel.Size3{X: 8, Y: 1, Z: 1}, kernel.Size3{X: 8, Y: 1, Z: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad index")
}

func TestBarrierGenerations(t *testing.T) {
	const lanes = 16
	const rounds = 50
	bar := newBarrier(lanes)
	var counter atomic.Int32
	observed := make(chan int32, lanes*rounds)
	done := make(chan struct{})

	for range lanes {
		go func() {
			defer func() { bar.leave(); done <- struct{}{} }()
			for range rounds {
				counter.Add(1)
				bar.wait()
				observed <- counter.Load()
				bar.wait()
			}
		}()
	}
	for range lanes {
		<-done
	}
	close(observed)

	seen := 0
	for v := range observed {
		// Between the two barriers every lane has incremented for the round.
		assert.Equal(t, int32(0), v%lanes)
		seen++
	}
	assert.Equal(t, lanes*rounds, seen)
}

func TestBarrierLeaveReleasesWaiters(t *testing.T) {
	bar := newBarrier(3)
	released := make(chan struct{}, 2)
	for range 2 {
		go func() {
			bar.wait()
			released <- struct{}{}
		}()
	}
	// Third party exits without reaching the barrier.
	for {
		bar.mu.Lock()
		w := bar.waiting
		bar.mu.Unlock()
		if w == 2 {
			break
		}
	}
	bar.leave()
	<-released
	<-released
}
