package host

import (
	"errors"
	"fmt"
	"slices"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/tensor"
	"golang.org/x/sync/errgroup"
)

// ErrForeignMemory reports a memory argument that does not live on the host.
var ErrForeignMemory = errors.New("host: memory argument is not host memory")

// lane implements kernel.Lane.
type lane struct {
	local, group, global kernel.Size3
	bar                  *barrier
	shared               []float32
}

func (l *lane) LocalID() kernel.Size3  { return l.local }
func (l *lane) GroupID() kernel.Size3  { return l.group }
func (l *lane) GlobalID() kernel.Size3 { return l.global }
func (l *lane) Barrier()               { l.bar.wait() }
func (l *lane) Shared() []float32      { return l.shared }

// Dispatch runs k over global invocations in workgroups of size local.
// It returns after every workgroup finished.
func (d *Device) Dispatch(k *kernel.Kernel, global, local kernel.Size3) error {
	prog, ok := k.Object().(*program)
	if !ok {
		return fmt.Errorf("host: kernel %q was not compiled for the host device", k.EntryPoint())
	}
	if local.Volume() <= 0 || global.Volume() <= 0 {
		return fmt.Errorf("host: empty dispatch global=%v local=%v", global, local)
	}
	if local.Volume() > d.cfg.MaxGroupLanes {
		return fmt.Errorf("host: workgroup of %d lanes exceeds limit %d", local.Volume(), d.cfg.MaxGroupLanes)
	}

	args := slices.Clone(k.Args())
	for i, a := range args {
		if a.Kind.IsMemory() {
			if _, ok := a.Memory.(*tensor.HostMemory); !ok {
				return fmt.Errorf("binding %d: %w (%T)", i, ErrForeignMemory, a.Memory)
			}
		}
	}

	groups := global.Groups(local)
	d.logger.Debug("dispatch", "entry_point", prog.entryPoint, "groups", groups, "local", local)

	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)
	for gz := 0; gz < groups.Z; gz++ {
		for gy := 0; gy < groups.Y; gy++ {
			for gx := 0; gx < groups.X; gx++ {
				group := kernel.Size3{X: gx, Y: gy, Z: gz}
				g.Go(func() error {
					return runGroup(prog, args, group, local)
				})
			}
		}
	}
	return g.Wait()
}

// runGroup executes one workgroup with one goroutine per lane.
func runGroup(prog *program, args []kernel.Arg, group, local kernel.Size3) error {
	n := local.Volume()
	bar := newBarrier(n)
	shared := make([]float32, prog.emulation.SharedFloats)

	errs := make([]error, n)
	done := make(chan struct{}, n)
	i := 0
	for lz := 0; lz < local.Z; lz++ {
		for ly := 0; ly < local.Y; ly++ {
			for lx := 0; lx < local.X; lx++ {
				l := &lane{
					local:  kernel.Size3{X: lx, Y: ly, Z: lz},
					group:  group,
					global: kernel.Size3{X: group.X*local.X + lx, Y: group.Y*local.Y + ly, Z: group.Z*local.Z + lz},
					bar:    bar,
					shared: shared,
				}
				go func(idx int) {
					defer func() {
						if r := recover(); r != nil {
							errs[idx] = fmt.Errorf("host: %s lane %v of group %v panicked: %v", prog.entryPoint, l.local, group, r)
						}
						bar.leave()
						done <- struct{}{}
					}()
					prog.emulation.Run(l, args)
				}(i)
				i++
			}
		}
	}
	for range n {
		<-done
	}
	return errors.Join(errs...)
}
