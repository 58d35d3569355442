package softmax_test

import (
	"fmt"
	"testing"

	"github.com/born-ml/softmax1x1/backend/host"
	"github.com/born-ml/softmax1x1/softmax"
	"github.com/born-ml/softmax1x1/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32Definition() softmax.Definition {
	return softmax.Definition{
		Precision:    softmax.F32,
		Src:          []tensor.Descriptor{{DataType: tensor.Float32}},
		Dst:          []tensor.Descriptor{{DataType: tensor.Float32}},
		BatchSupport: true,
	}
}

func TestPublicAPI(t *testing.T) {
	dev := host.New(host.DefaultConfig())
	cc := softmax.NewCreationContext(dev)
	defer cc.Cache.Release()

	shape := tensor.NewShape(1, 1, 1, 3)
	src, err := tensor.NewHostTensor(shape, tensor.Descriptor{DataType: tensor.Float32})
	require.NoError(t, err)
	dst, err := tensor.NewHostTensor(shape, tensor.Descriptor{DataType: tensor.Float32})
	require.NoError(t, err)
	require.NoError(t, src.CopyFrom([]float32{0, 0, 0}))

	op := softmax.Create(f32Definition())
	op.AddLinkedOperation(&softmax.ReLU{Clip: 0.3})
	op.SetSrc(src, 0)
	op.SetDst(dst, 0)
	require.NoError(t, op.Compile(cc))
	require.NoError(t, op.AddToQueue(dev))

	assert.InDeltaSlice(t, []float32{0.3, 0.3, 0.3}, dst.Values(), 1e-6)
	assert.Equal(t, tensor.Float4{1, 1, 1, 0}, softmax.ComputeMask(3))
}

func TestGenerateSourceIsStable(t *testing.T) {
	a := softmax.GenerateSource(f32Definition(), &softmax.Scale{Multiplier: 2})
	b := softmax.GenerateSource(f32Definition(), &softmax.Scale{Multiplier: 3})
	// Multipliers are runtime arguments, not part of the source.
	assert.Equal(t, a, b)
	assert.Contains(t, a, "fn main_function(")
}

func Example() {
	dev := host.New(host.DefaultConfig())
	cc := softmax.NewCreationContext(dev)
	defer cc.Cache.Release()

	shape := tensor.NewShape(1, 1, 1, 4)
	src, _ := tensor.NewHostTensor(shape, tensor.Descriptor{DataType: tensor.Float32})
	dst, _ := tensor.NewHostTensor(shape, tensor.Descriptor{DataType: tensor.Float32})
	_ = src.CopyFrom([]float32{1, 2, 3, 4})

	op := softmax.Create(f32Definition())
	op.SetSrc(src, 0)
	op.SetDst(dst, 0)
	if err := op.Compile(cc); err != nil {
		fmt.Println(err)
		return
	}
	if err := op.AddToQueue(dev); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%.4f\n", dst.Values())
	// Output: [0.0321 0.0871 0.2369 0.6439]
}
