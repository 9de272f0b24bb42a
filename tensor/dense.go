// Package tensor provides the dense tensors and probability-vector primitives
// used by marginal message passing.
//
// A Dense tensor is a row-major float64 array with a fixed shape. Per-factor
// models (likelihoods, transitions) are carried as a Collection: one Dense per
// slot, each with its own extents.
package tensor

import "fmt"

// Dense is a row-major N-dimensional tensor.
type Dense struct {
	shape   []int
	strides []int
	data    []float64
}

// New wraps data in a tensor of the given shape. It panics if the shape does
// not match the data length.
func New(data []float64, shape ...int) *Dense {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("tensor: invalid extent %d in shape %v", d, shape))
		}
		n *= d
	}
	if n != len(data) {
		panic(fmt.Sprintf("tensor: shape %v needs %d elements, have %d", shape, n, len(data)))
	}
	t := &Dense{
		shape: append([]int(nil), shape...),
		data:  data,
	}
	t.strides = make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		t.strides[i] = stride
		stride *= shape[i]
	}
	return t
}

// Zeros returns a zero-filled tensor.
func Zeros(shape ...int) *Dense {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return New(make([]float64, n), shape...)
}

// Full returns a tensor with every element set to v.
func Full(v float64, shape ...int) *Dense {
	t := Zeros(shape...)
	for i := range t.data {
		t.data[i] = v
	}
	return t
}

// Shape returns a copy of the tensor's extents.
func (t *Dense) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Dim returns the extent of axis i.
func (t *Dense) Dim(i int) int {
	return t.shape[i]
}

// NDim returns the number of axes.
func (t *Dense) NDim() int {
	return len(t.shape)
}

// Len returns the number of elements.
func (t *Dense) Len() int {
	return len(t.data)
}

// Data returns the backing slice. Mutating it mutates the tensor.
func (t *Dense) Data() []float64 {
	return t.data
}

// At returns the element at the given multi-index.
func (t *Dense) At(idx ...int) float64 {
	return t.data[t.offset(idx)]
}

// Set stores v at the given multi-index.
func (t *Dense) Set(v float64, idx ...int) {
	t.data[t.offset(idx)] = v
}

func (t *Dense) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index %v has wrong rank for shape %v", idx, t.shape))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off += v * t.strides[i]
	}
	return off
}

// Clone returns a deep copy.
func (t *Dense) Clone() *Dense {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return New(data, t.shape...)
}

// Apply returns a new tensor with fn applied elementwise.
func (t *Dense) Apply(fn func(float64) float64) *Dense {
	out := t.Clone()
	for i, v := range out.data {
		out.data[i] = fn(v)
	}
	return out
}

// SameShape reports whether t has exactly the given extents.
func (t *Dense) SameShape(shape []int) bool {
	if len(shape) != len(t.shape) {
		return false
	}
	for i := range shape {
		if shape[i] != t.shape[i] {
			return false
		}
	}
	return true
}

// Collection holds one tensor per factor (or modality). Slots may differ in
// rank and extents.
type Collection []*Dense
