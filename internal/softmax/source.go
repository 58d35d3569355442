package softmax

import (
	"fmt"
	"strings"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/linking"
	"github.com/born-ml/softmax1x1/internal/operation"
	"github.com/born-ml/softmax1x1/internal/tensor"
)

const (
	entryPoint = "main_function"

	// workgroupLanes is the fixed lane count of the reduction workgroup.
	// Lanes walk channel slices at this stride.
	workgroupLanes = 32
)

// bindings records the binding index of every fixed kernel argument.
type bindings struct {
	src, dst   int
	tensorSize int
	size       int
	batch      int // -1 without batch support
	mask       int
}

// tensorCode emits declarations and addressing for one tensor operand.
type tensorCode struct {
	name  string
	size  string
	desc  tensor.Descriptor
	batch bool
}

func (t tensorCode) declaration(binding int, access tensor.AccessMode) string {
	return fmt.Sprintf("%s var<storage, %s> %s: array<%s>;\n",
		kernel.BindingAttr(binding), access, t.name, t.desc.VectorType())
}

// address returns the float4 offset of slice z at (x, y) in batch b.
func (t tensorCode) address(x, y, z, b string) string {
	if t.batch {
		return fmt.Sprintf("(((%s) * %s.y + (%s)) * %s.x + (%s)) * %s.w + (%s)", z, t.size, y, t.size, x, t.size, b)
	}
	return fmt.Sprintf("((%s) * %s.y + (%s)) * %s.x + (%s)", z, t.size, y, t.size, x)
}

func (t tensorCode) read(x, y, z, b string) string {
	return fmt.Sprintf("%s[%s]", t.name, t.address(x, y, z, b))
}

func (t tensorCode) write(value, x, y, z, b string) string {
	return fmt.Sprintf("%s[%s] = %s(%s);\n", t.name, t.address(x, y, z, b), t.desc.VectorType(), value)
}

// commonDefines returns the precision header shared by generated kernels.
func commonDefines(def operation.Definition) string {
	var c strings.Builder
	if def.UsesF16() {
		c.WriteString("enable f16;\n\n")
	}
	flt, accum := "f32", "f32"
	switch def.Precision {
	case operation.F32F16:
		flt = "f16"
	case operation.F16:
		flt, accum = "f16", "f16"
	}
	fmt.Fprintf(&c, "alias FLT = %s;\n", flt)
	fmt.Fprintf(&c, "alias FLT4 = vec4<%s>;\n", flt)
	fmt.Fprintf(&c, "alias ACCUM_FLT = %s;\n", accum)
	fmt.Fprintf(&c, "alias ACCUM_FLT4 = vec4<%s>;\n\n", accum)
	return c.String()
}

// GenerateSource returns the WGSL softmax kernel for a 1x1 spatial tensor,
// its argument signature and a host emulation of the same algorithm.
//
// A single workgroup of 32 lanes reduces the whole channel axis: each lane
// sums exp over slices tid, tid+32, ... (masking the last slice), lane 0
// combines the 32 partial sums from shared memory and publishes 1/sum, and a
// second pass writes exp(x) * (1/sum) through the linked operations.
//
// Known precision limitation: no max subtraction is performed before
// exponentiation. The algorithm relies on typical post-1x1-pooling activation
// magnitudes remaining within safe exponentiation range.
//
// The output is deterministic for identical inputs, so cached kernels are
// found by source equality.
func GenerateSource(def operation.Definition, linked []linking.Operation) kernel.Source {
	src := tensorCode{name: "src_data", size: "tensor_size", desc: def.Src[0], batch: def.BatchSupport}
	dst := tensorCode{name: "dst_data", size: "tensor_size", desc: def.Dst[0], batch: def.BatchSupport}

	var sig kernel.Signature
	idx := bindings{batch: -1}

	var c strings.Builder
	c.WriteString(commonDefines(def))

	idx.src = sig.Add(kernel.ArgBufferRead)
	c.WriteString(src.declaration(idx.src, tensor.AccessRead))
	c.WriteString(linking.ArgsDeclaration(linked, &sig))
	idx.dst = sig.Add(kernel.ArgBufferWrite)
	c.WriteString(dst.declaration(idx.dst, tensor.AccessWrite))
	idx.tensorSize = sig.Add(kernel.ArgInt4)
	fmt.Fprintf(&c, "%s var<uniform> tensor_size: vec4<i32>;\n", kernel.BindingAttr(idx.tensorSize))
	idx.size = sig.Add(kernel.ArgInt2)
	fmt.Fprintf(&c, "%s var<uniform> size: vec2<i32>;\n", kernel.BindingAttr(idx.size))
	if def.BatchSupport {
		idx.batch = sig.Add(kernel.ArgInt)
		fmt.Fprintf(&c, "%s var<uniform> batch_size: i32;\n", kernel.BindingAttr(idx.batch))
	}
	idx.mask = sig.Add(kernel.ArgFloat4)
	fmt.Fprintf(&c, "%s var<uniform> mask: vec4<f32>;\n", kernel.BindingAttr(idx.mask))

	c.WriteString("\n")
	c.WriteString("var<workgroup> tmp: array<vec4<f32>, 8>;\n")
	c.WriteString("\n")
	fmt.Fprintf(&c, "@compute @workgroup_size(%d, 1, 1)\n", workgroupLanes)
	fmt.Fprintf(&c, "fn %s(\n", entryPoint)
	c.WriteString("    @builtin(local_invocation_id) local_id: vec3<u32>,\n")
	c.WriteString("    @builtin(workgroup_id) group_id: vec3<u32>,\n")
	c.WriteString(") {\n")

	batch := ""
	if def.BatchSupport {
		// Must precede every barrier: the whole workgroup exits together.
		batch = "B"
		c.WriteString("  let B = i32(group_id.y);\n")
		c.WriteString("  if (B >= batch_size) {\n")
		c.WriteString("    return;\n")
		c.WriteString("  }\n")
	}

	c.WriteString("  var offset = 0;\n")
	c.WriteString("  var sum = 0.0;\n")
	c.WriteString("  let tid = i32(local_id.x);\n")
	c.WriteString("  for (var s = 0; s < size.y; s++) {\n")
	c.WriteString("    let z = offset + tid;\n")
	c.WriteString("    if (z < size.x) {\n")
	c.WriteString("      let mask_temp = select(vec4<f32>(1.0), mask, z == size.x - 1);\n")
	c.WriteString("      let src = ACCUM_FLT4(" + src.read("0", "0", "z", batch) + ");\n")
	c.WriteString("      sum += dot(mask_temp, vec4<f32>(exp(src)));\n")
	fmt.Fprintf(&c, "      offset += %d;\n", workgroupLanes)
	c.WriteString("    }\n")
	c.WriteString("  }\n")
	c.WriteString("\n")
	c.WriteString("  tmp[tid / 4][tid % 4] = sum;\n")
	c.WriteString("  workgroupBarrier();\n")
	c.WriteString("  if (tid == 0) {\n")
	for i := range workgroupLanes / 4 {
		op := "+="
		if i == 0 {
			op = "="
		}
		fmt.Fprintf(&c, "    sum %s dot(vec4<f32>(1.0), tmp[%d]);\n", op, i)
	}
	c.WriteString("    tmp[0].x = 1.0 / sum;\n")
	c.WriteString("  }\n")
	c.WriteString("  workgroupBarrier();\n")
	c.WriteString("  let inv_sum = tmp[0].x;\n")
	c.WriteString("\n")
	c.WriteString("  offset = 0;\n")
	c.WriteString("  for (var s = 0; s < size.y; s++) {\n")
	c.WriteString("    let z = offset + tid;\n")
	c.WriteString("    if (z < size.x) {\n")
	c.WriteString("      var res = FLT4(exp(ACCUM_FLT4(" + src.read("0", "0", "z", batch) + ")) * ACCUM_FLT(inv_sum));\n")
	c.WriteString(linking.PostProcess(linked, linking.Context{Var: "res", X: "0", Y: "0", Z: "z", B: batch}))
	c.WriteString("      " + dst.write("res", "0", "0", "z", batch))
	fmt.Fprintf(&c, "      offset += %d;\n", workgroupLanes)
	c.WriteString("    }\n")
	c.WriteString("  }\n")
	c.WriteString("}\n")

	source := kernel.Source{
		Code:       c.String(),
		EntryPoint: entryPoint,
		Signature:  sig,
	}
	if post, ok := linking.HostChain(linked); ok {
		source.Emulation = emulation(idx, post)
	}
	return source
}
