package kernel

// Dispatch validates the bound arguments of k and submits it to queue.
// Binding and queue failures are reported as *DispatchError and leave no
// arguments bound.
func Dispatch(queue Queue, k *Kernel, global, local Size3) error {
	if err := k.Validate(); err != nil {
		k.ResetBindingCounter()
		dispatchTotal.WithLabelValues(k.EntryPoint(), "invalid").Inc()
		return &DispatchError{Op: k.EntryPoint(), Err: err}
	}
	if err := queue.Dispatch(k, global, local); err != nil {
		k.ResetBindingCounter()
		dispatchTotal.WithLabelValues(k.EntryPoint(), "failed").Inc()
		return &DispatchError{Op: k.EntryPoint(), Err: err}
	}
	dispatchTotal.WithLabelValues(k.EntryPoint(), "ok").Inc()
	return nil
}
