package softmax

import (
	"fmt"

	"github.com/born-ml/softmax1x1/internal/tensor"
)

// ComputeMask returns the lane mask applied to the last channel slice.
// Lanes below channels mod 4 are 1 and the rest 0; when channels divides
// evenly into slices all four lanes are valid. channels must be positive.
func ComputeMask(channels int) tensor.Float4 {
	if channels < 1 {
		panic(fmt.Sprintf("softmax1x1: channel count must be positive, got %d", channels))
	}
	r := channels % 4
	if r == 0 {
		return tensor.Splat(1)
	}
	var mask tensor.Float4
	for i := range r {
		mask[i] = 1
	}
	return mask
}
