package tensor

import "math"

// Float4 is a four-lane float vector.
type Float4 [4]float32

// Int2 is a two-lane integer vector.
type Int2 [2]int32

// Int4 is a four-lane integer vector.
type Int4 [4]int32

// Splat returns a Float4 with all lanes set to v.
func Splat(v float32) Float4 {
	return Float4{v, v, v, v}
}

// Dot returns the dot product of f and o.
func (f Float4) Dot(o Float4) float32 {
	return f[0]*o[0] + f[1]*o[1] + f[2]*o[2] + f[3]*o[3]
}

// Exp returns the element-wise exponential.
func (f Float4) Exp() Float4 {
	var r Float4
	for i, v := range f {
		r[i] = float32(math.Exp(float64(v)))
	}
	return r
}

// Scale multiplies every lane by s.
func (f Float4) Scale(s float32) Float4 {
	return Float4{f[0] * s, f[1] * s, f[2] * s, f[3] * s}
}

// Map applies fn to every lane.
func (f Float4) Map(fn func(float32) float32) Float4 {
	return Float4{fn(f[0]), fn(f[1]), fn(f[2]), fn(f[3])}
}
