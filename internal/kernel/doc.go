// Package kernel provides compiled compute kernels, positional argument binding,
// a per-device compiled-kernel cache and the device interfaces operators dispatch through.
//
// A Source carries generated kernel text, the entry point, the argument
// signature (kinds in binding order) and an optional host emulation of the
// same algorithm. A Compiler turns a Source into a device Object; the Cache
// compiles every (text, entry point) pair at most once and hands out Kernel
// handles that own their own binding cursor.
package kernel
