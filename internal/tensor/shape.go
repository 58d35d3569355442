package tensor

import "fmt"

// Shape is a BHWC tensor extent. Channels are stored in slices of four.
type Shape struct {
	Batch    int
	Height   int
	Width    int
	Channels int
}

// NewShape returns a BHWC shape.
func NewShape(batch, height, width, channels int) Shape {
	return Shape{Batch: batch, Height: height, Width: width, Channels: channels}
}

// Slices returns the number of float4 slices needed to hold Channels.
func (s Shape) Slices() int {
	return (s.Channels + 3) / 4
}

// NumElements returns the number of logical elements (without slice padding).
func (s Shape) NumElements() int {
	return s.Batch * s.Height * s.Width * s.Channels
}

// NumVectors returns the number of float4 vectors in the padded storage.
func (s Shape) NumVectors() int {
	return s.Batch * s.Height * s.Width * s.Slices()
}

// Validate checks that all dimensions are positive.
func (s Shape) Validate() error {
	dims := [...]struct {
		name string
		v    int
	}{{"batch", s.Batch}, {"height", s.Height}, {"width", s.Width}, {"channels", s.Channels}}
	for _, d := range dims {
		if d.v <= 0 {
			return fmt.Errorf("invalid %s dimension: %d (must be > 0)", d.name, d.v)
		}
	}
	return nil
}

// Is1x1 reports whether the spatial extent collapsed to a single element.
func (s Shape) Is1x1() bool {
	return s.Height == 1 && s.Width == 1
}

// Index returns the float4 offset of slice z at (x, y) in batch b.
// Layout is ((z*H + y)*W + x)*B + b.
func (s Shape) Index(x, y, z, b int) int {
	return ((z*s.Height+y)*s.Width+x)*s.Batch + b
}

// String returns a string representation of the shape.
func (s Shape) String() string {
	return fmt.Sprintf("[B=%d H=%d W=%d C=%d]", s.Batch, s.Height, s.Width, s.Channels)
}
