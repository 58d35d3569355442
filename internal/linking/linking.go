// Package linking defines elementwise operations fused into the output path of another kernel.
//
// A linked operation contributes argument declarations and post-process code
// at generation time and binds its runtime arguments at dispatch time. The
// chain is resolved entirely before dispatch: nothing is looked up per element.
package linking

import (
	"strings"

	"github.com/born-ml/softmax1x1/internal/kernel"
	"github.com/born-ml/softmax1x1/internal/tensor"
)

// Context names the value being post-processed and its coordinates in generated code.
type Context struct {
	Var string // FLT4 variable holding the output value
	X   string
	Y   string
	Z   string // Channel slice
	B   string // Batch index; empty without batch support
}

// Operation is an elementwise step fused into a kernel's output path.
type Operation interface {
	// Declarations registers the operation's arguments in sig and returns their declarations.
	// link is the operation's position in the chain and keeps identifiers unique.
	Declarations(link int, sig *kernel.Signature) string
	// PostProcess returns code transforming lc.Var in place.
	PostProcess(link int, lc Context) string
	// BindArguments binds the runtime arguments in declaration order.
	BindArguments(k *kernel.Kernel) error
}

// HostOperation is an Operation that can also run on host devices.
type HostOperation interface {
	Operation
	Apply(v tensor.Float4, x, y, z, b int) tensor.Float4
}

// HostFunc applies a fused chain to one output vector on the host.
type HostFunc func(v tensor.Float4, x, y, z, b int) tensor.Float4

// ArgsDeclaration returns the declarations of all operations, in order.
func ArgsDeclaration(ops []Operation, sig *kernel.Signature) string {
	var sb strings.Builder
	for i, op := range ops {
		sb.WriteString(op.Declarations(i, sig))
	}
	return sb.String()
}

// PostProcess returns the post-process code of all operations, in order.
func PostProcess(ops []Operation, lc Context) string {
	var sb strings.Builder
	for i, op := range ops {
		sb.WriteString(op.PostProcess(i, lc))
	}
	return sb.String()
}

// BindArgs binds the runtime arguments of all operations, in order.
func BindArgs(k *kernel.Kernel, ops []Operation) error {
	for _, op := range ops {
		if err := op.BindArguments(k); err != nil {
			return err
		}
	}
	return nil
}

// HostChain composes the host implementations of ops.
// It returns false if any operation cannot run on the host.
func HostChain(ops []Operation) (HostFunc, bool) {
	host := make([]HostOperation, 0, len(ops))
	for _, op := range ops {
		h, ok := op.(HostOperation)
		if !ok {
			return nil, false
		}
		host = append(host, h)
	}
	return func(v tensor.Float4, x, y, z, b int) tensor.Float4 {
		for _, h := range host {
			v = h.Apply(v, x, y, z, b)
		}
		return v
	}, true
}
