package kernel

import (
	"crypto/sha256"
	"encoding/hex"
)

// Source is generated kernel text plus everything needed to compile and bind it.
type Source struct {
	Code       string
	EntryPoint string
	Signature  Signature
	// Emulation runs the same algorithm on host devices. Optional.
	Emulation Emulation
}

// Key identifies compiled kernels: a content hash of the code and the entry point.
type Key [sha256.Size]byte

// Key returns the cache key of the source.
func (s Source) Key() Key {
	h := sha256.New()
	h.Write([]byte(s.Code))
	h.Write([]byte{0})
	h.Write([]byte(s.EntryPoint))
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// String returns the hex form of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Size3 is a three-dimensional invocation extent.
type Size3 struct {
	X, Y, Z int
}

// Volume returns X*Y*Z.
func (s Size3) Volume() int {
	return s.X * s.Y * s.Z
}

// Groups returns the number of workgroups of size local needed to cover s.
func (s Size3) Groups(local Size3) Size3 {
	return Size3{
		X: (s.X + local.X - 1) / local.X,
		Y: (s.Y + local.Y - 1) / local.Y,
		Z: (s.Z + local.Z - 1) / local.Z,
	}
}

// Lane is one invocation inside an emulated workgroup.
type Lane interface {
	LocalID() Size3
	GroupID() Size3
	GlobalID() Size3
	// Barrier blocks until every live lane of the workgroup reached it.
	Barrier()
	// Shared returns workgroup-shared scratch memory.
	Shared() []float32
}

// Emulation is a host implementation of a kernel.
type Emulation struct {
	// SharedFloats is the workgroup-shared scratch size in float32 slots.
	SharedFloats int
	// Run executes one lane with the bound arguments.
	Run func(lane Lane, args []Arg)
}
