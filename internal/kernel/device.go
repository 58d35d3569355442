package kernel

// Object is a compiled, ready-to-dispatch device kernel.
type Object interface {
	Release()
}

// Compiler compiles kernel sources for one device.
type Compiler interface {
	Compile(src Source) (Object, error)
}

// Queue accepts kernel dispatches. Global and local sizes are in invocations.
type Queue interface {
	Dispatch(k *Kernel, global, local Size3) error
}
