package kernel

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/born-ml/softmax1x1/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource() Source {
	var sig Signature
	sig.Add(ArgBufferRead)
	sig.Add(ArgBufferWrite)
	sig.Add(ArgInt2)
	sig.Add(ArgFloat4)
	return Source{Code: "fn main() {}", EntryPoint: "main", Signature: sig}
}

func TestKernelBindInOrder(t *testing.T) {
	k := NewKernel(nil, testSource())
	mem := tensor.NewHostMemory(1)

	require.NoError(t, k.SetMemoryAuto(mem))
	require.NoError(t, k.SetMemoryForWritingAuto(mem))
	require.NoError(t, k.SetBytesAuto(tensor.Int2{3, 1}))
	require.NoError(t, k.SetBytesAuto(tensor.Float4{1, 1, 0, 0}))
	require.NoError(t, k.Validate())

	args := k.Args()
	require.Len(t, args, 4)
	assert.Equal(t, ArgBufferWrite, args[1].Kind)
	assert.Equal(t, tensor.Int2{3, 1}, args[2].Int2())
	assert.Equal(t, tensor.Float4{1, 1, 0, 0}, args[3].Float4())
}

func TestKernelBindKindMismatchResetsCursor(t *testing.T) {
	k := NewKernel(nil, testSource())
	mem := tensor.NewHostMemory(1)

	require.NoError(t, k.SetMemoryAuto(mem))
	err := k.SetMemoryAuto(mem) // binding 1 expects a write buffer
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArgumentKind))
	assert.Equal(t, 0, k.Cursor())
}

func TestKernelBindTooMany(t *testing.T) {
	var sig Signature
	sig.Add(ArgInt)
	k := NewKernel(nil, Source{EntryPoint: "one", Signature: sig})

	require.NoError(t, k.SetBytesAuto(7))
	err := k.SetBytesAuto(int32(8))
	assert.ErrorIs(t, err, ErrTooManyArguments)
	assert.Equal(t, 0, k.Cursor())
}

func TestKernelBindUnsupported(t *testing.T) {
	var sig Signature
	sig.Add(ArgInt)
	k := NewKernel(nil, Source{EntryPoint: "one", Signature: sig})

	err := k.SetBytesAuto("seven")
	assert.ErrorIs(t, err, ErrUnsupportedArgument)

	err = k.SetMemoryAuto(nil)
	assert.Error(t, err)
}

func TestKernelValidateCount(t *testing.T) {
	k := NewKernel(nil, testSource())
	require.NoError(t, k.SetMemoryAuto(tensor.NewHostMemory(1)))
	assert.ErrorIs(t, k.Validate(), ErrArgumentCount)
}

func TestKernelResetBindingCounter(t *testing.T) {
	k := NewKernel(nil, testSource())
	mem := tensor.NewHostMemory(1)
	for range 3 {
		k.ResetBindingCounter()
		require.NoError(t, k.SetMemoryAuto(mem))
		require.NoError(t, k.SetMemoryForWritingAuto(mem))
		assert.Equal(t, 2, k.Cursor())
	}
}

func TestArgBytes(t *testing.T) {
	b := Arg{Kind: ArgInt4, Value: tensor.Int4{1, 2, -1, 4}}.Bytes()
	require.Len(t, b, 16)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(b[4:8]))
	assert.Equal(t, uint32(0xFFFFFFFF), binary.LittleEndian.Uint32(b[8:12]))

	b = Arg{Kind: ArgFloat, Value: float32(2.5)}.Bytes()
	assert.Equal(t, float32(2.5), math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])))

	assert.Nil(t, Arg{Kind: ArgBufferRead}.Bytes())
}

func TestSize3Groups(t *testing.T) {
	local := Size3{X: 32, Y: 1, Z: 1}
	assert.Equal(t, Size3{X: 1, Y: 4, Z: 1}, Size3{X: 32, Y: 4, Z: 1}.Groups(local))
	assert.Equal(t, Size3{X: 2, Y: 1, Z: 1}, Size3{X: 33, Y: 1, Z: 1}.Groups(local))
	assert.Equal(t, 32, local.Volume())
}
