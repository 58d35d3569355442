package softmax

import (
	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/linking"
	"github.com/born-ml/softmax1x1/internal/tensor"
)

// emulation mirrors the generated kernel lane by lane for host devices.
// Arithmetic is float32 regardless of the requested precision.
func emulation(idx bindings, post linking.HostFunc) kernel.Emulation {
	return kernel.Emulation{
		SharedFloats: workgroupLanes,
		Run: func(l kernel.Lane, args []kernel.Arg) {
			b := 0
			if idx.batch >= 0 {
				b = l.GroupID().Y
				if b >= int(args[idx.batch].Int()) {
					return
				}
			}

			src := args[idx.src].Memory.(*tensor.HostMemory)
			dst := args[idx.dst].Memory.(*tensor.HostMemory)
			ts := args[idx.tensorSize].Int4()
			size := args[idx.size].Int2()
			mask := args[idx.mask].Float4()

			shape := tensor.NewShape(int(ts[3]), int(ts[1]), int(ts[0]), int(ts[2])*4)
			if idx.batch < 0 {
				shape.Batch = 1
			}
			slices, steps := int(size[0]), int(size[1])
			tid := l.LocalID().X

			var sum float32
			for s, offset := 0, 0; s < steps; s++ {
				z := offset + tid
				if z < slices {
					m := tensor.Splat(1)
					if z == slices-1 {
						m = mask
					}
					sum += m.Dot(src.Float4(shape.Index(0, 0, z, b)).Exp())
					offset += workgroupLanes
				}
			}

			shared := l.Shared()
			shared[tid] = sum
			l.Barrier()
			if tid == 0 {
				ones := tensor.Splat(1)
				sum = 0
				for i := 0; i < workgroupLanes; i += 4 {
					sum += ones.Dot(tensor.Float4(shared[i : i+4]))
				}
				shared[0] = 1 / sum
			}
			l.Barrier()
			inv := shared[0]

			for s, offset := 0, 0; s < steps; s++ {
				z := offset + tid
				if z < slices {
					i := shape.Index(0, 0, z, b)
					res := src.Float4(i).Exp().Scale(inv)
					dst.SetFloat4(i, post(res, 0, 0, z, b))
					offset += workgroupLanes
				}
			}
		},
	}
}
