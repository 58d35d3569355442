package linking

import (
	"fmt"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/tensor"
)

// Scale multiplies every output element by Multiplier.
type Scale struct {
	Multiplier float32
}

// Compile-time check that Scale runs on the host.
var _ HostOperation = (*Scale)(nil)

// Declarations declares the multiplier uniform.
func (s *Scale) Declarations(link int, sig *kernel.Signature) string {
	i := sig.Add(kernel.ArgFloat)
	return fmt.Sprintf("%s var<uniform> scale_multiplier_%d: f32;\n", kernel.BindingAttr(i), link)
}

// PostProcess scales lc.Var.
func (s *Scale) PostProcess(link int, lc Context) string {
	return fmt.Sprintf("      %s = %s * FLT(scale_multiplier_%d);\n", lc.Var, lc.Var, link)
}

// BindArguments binds the multiplier.
func (s *Scale) BindArguments(k *kernel.Kernel) error {
	return k.SetBytesAuto(s.Multiplier)
}

// Apply scales v.
func (s *Scale) Apply(v tensor.Float4, _, _, _, _ int) tensor.Float4 {
	return v.Scale(s.Multiplier)
}
