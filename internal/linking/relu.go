package linking

import (
	"fmt"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/tensor"
)

// ReLU is max(x, 0) with an optional leaky slope for negatives and an optional upper clip.
// Zero Alpha and zero Clip disable the respective features.
type ReLU struct {
	Alpha float32
	Clip  float32
}

// Compile-time check that ReLU runs on the host.
var _ HostOperation = (*ReLU)(nil)

// Declarations declares the (clip, alpha) uniform.
func (r *ReLU) Declarations(link int, sig *kernel.Signature) string {
	i := sig.Add(kernel.ArgFloat4)
	return fmt.Sprintf("%s var<uniform> relu_params_%d: vec4<f32>;\n", kernel.BindingAttr(i), link)
}

// PostProcess applies the activation to lc.Var.
// The params uniform is always read so auto-derived layouts keep its binding.
func (r *ReLU) PostProcess(link int, lc Context) string {
	c := fmt.Sprintf("      %s = max(%s, FLT4(0.0)) + FLT(relu_params_%d.y) * min(%s, FLT4(0.0));\n",
		lc.Var, lc.Var, link, lc.Var)
	if r.Clip != 0 {
		c += fmt.Sprintf("      %s = min(%s, FLT4(FLT(relu_params_%d.x)));\n", lc.Var, lc.Var, link)
	}
	return c
}

// BindArguments binds (clip, alpha, 0, 0).
func (r *ReLU) BindArguments(k *kernel.Kernel) error {
	return k.SetBytesAuto(tensor.Float4{r.Clip, r.Alpha, 0, 0})
}

// Apply applies the activation to v.
func (r *ReLU) Apply(v tensor.Float4, _, _, _, _ int) tensor.Float4 {
	return v.Map(func(x float32) float32 {
		if x < 0 {
			x *= r.Alpha
		}
		if r.Clip != 0 && x > r.Clip {
			x = r.Clip
		}
		return x
	})
}
