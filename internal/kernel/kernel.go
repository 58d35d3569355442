package kernel

import (
	"fmt"

	"github.com/born-ml/softmax1x1/internal/tensor"
)

// Kernel is a compiled kernel handle with a positional argument binding cursor.
// A Kernel is not safe for concurrent binding.
type Kernel struct {
	object Object
	source Source
	args   []Arg
}

// NewKernel wraps a compiled object. The object stays owned by its creator.
func NewKernel(object Object, src Source) *Kernel {
	return &Kernel{
		object: object,
		source: src,
		args:   make([]Arg, 0, src.Signature.Len()),
	}
}

// Object returns the compiled device object.
func (k *Kernel) Object() Object { return k.object }

// EntryPoint returns the kernel entry point name.
func (k *Kernel) EntryPoint() string { return k.source.EntryPoint }

// Signature returns the expected argument kinds.
func (k *Kernel) Signature() Signature { return k.source.Signature }

// Emulation returns the host emulation, if any.
func (k *Kernel) Emulation() Emulation { return k.source.Emulation }

// Args returns the arguments bound so far.
func (k *Kernel) Args() []Arg { return k.args }

// Cursor returns the binding index of the next argument.
func (k *Kernel) Cursor() int { return len(k.args) }

// ResetBindingCounter drops all bound arguments.
func (k *Kernel) ResetBindingCounter() {
	clear(k.args)
	k.args = k.args[:0]
}

// SetMemoryAuto binds a read buffer at the cursor.
func (k *Kernel) SetMemoryAuto(m tensor.Memory) error {
	return k.bind(Arg{Kind: ArgBufferRead, Memory: m})
}

// SetMemoryForWritingAuto binds a write buffer at the cursor.
func (k *Kernel) SetMemoryForWritingAuto(m tensor.Memory) error {
	return k.bind(Arg{Kind: ArgBufferWrite, Memory: m})
}

// SetBytesAuto binds a value argument at the cursor. Supported values are
// int32, int, tensor.Int2, tensor.Int4, float32 and tensor.Float4.
func (k *Kernel) SetBytesAuto(v any) error {
	value, kind, ok := valueKind(v)
	if !ok {
		i := k.Cursor()
		k.ResetBindingCounter()
		return fmt.Errorf("binding %d: %w: %T", i, ErrUnsupportedArgument, v)
	}
	return k.bind(Arg{Kind: kind, Value: value})
}

// Validate checks that exactly the signature's arguments are bound.
func (k *Kernel) Validate() error {
	if got, want := len(k.args), k.source.Signature.Len(); got != want {
		return fmt.Errorf("%w: %s bound %d of %d", ErrArgumentCount, k.source.EntryPoint, got, want)
	}
	return nil
}

// bind appends arg after checking it against the signature. On failure the cursor is reset.
func (k *Kernel) bind(arg Arg) error {
	i := len(k.args)
	sig := k.source.Signature
	if i >= sig.Len() {
		k.ResetBindingCounter()
		return fmt.Errorf("binding %d: %w (signature has %d)", i, ErrTooManyArguments, sig.Len())
	}
	if want := sig.Kind(i); want != arg.Kind {
		k.ResetBindingCounter()
		return fmt.Errorf("binding %d: %w: want %s, got %s", i, ErrArgumentKind, want, arg.Kind)
	}
	if arg.Kind.IsMemory() && arg.Memory == nil {
		k.ResetBindingCounter()
		return fmt.Errorf("binding %d: %w: nil memory", i, ErrUnsupportedArgument)
	}
	k.args = append(k.args, arg)
	return nil
}
