// Package ndarray provides a dense n-dimensional array of float64 samples.
//
// Samples are stored flat in row-major order: the last axis varies fastest.
// For a 3-D stack the axes are plane, row, column.
package ndarray

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidShape is returned when a shape, index or data length is inconsistent.
var ErrInvalidShape = errors.New("invalid shape")

// Array is a dense n-dimensional array.
type Array struct {
	shape   []int
	strides []int
	data    []float64
}

// New allocates a zero-filled array with the given shape.
// An empty shape yields a zero-dimensional array holding a single sample.
func New(shape ...int) (*Array, error) {
	size, err := sizeOf(shape)
	if err != nil {
		return nil, err
	}
	return &Array{
		shape:   slices.Clone(shape),
		strides: stridesOf(shape),
		data:    make([]float64, size),
	}, nil
}

// FromSlice wraps a copy of data in an array of the given shape.
func FromSlice(data []float64, shape ...int) (*Array, error) {
	size, err := sizeOf(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, fmt.Errorf("%w: %d samples for shape %v", ErrInvalidShape, len(data), shape)
	}
	return &Array{
		shape:   slices.Clone(shape),
		strides: stridesOf(shape),
		data:    slices.Clone(data),
	}, nil
}

// Scalar returns a zero-dimensional array holding v.
func Scalar(v float64) *Array {
	return &Array{data: []float64{v}}
}

// ZerosLike allocates a zero-filled array with the shape of a.
func ZerosLike(a *Array) *Array {
	return &Array{
		shape:   slices.Clone(a.shape),
		strides: slices.Clone(a.strides),
		data:    make([]float64, len(a.data)),
	}
}

func sizeOf(shape []int) (int, error) {
	size := 1
	for i, n := range shape {
		if n < 1 {
			return 0, fmt.Errorf("%w: axis %d has length %d", ErrInvalidShape, i, n)
		}
		size *= n
	}
	return size, nil
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	step := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = step
		step *= shape[i]
	}
	return strides
}

// NDim returns the number of axes.
func (a *Array) NDim() int { return len(a.shape) }

// Shape returns a copy of the axis lengths.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

// Len returns the length of one axis.
func (a *Array) Len(axis int) int { return a.shape[axis] }

// Stride returns the flat distance between neighbours along axis.
func (a *Array) Stride(axis int) int { return a.strides[axis] }

// Size returns the total number of samples.
func (a *Array) Size() int { return len(a.data) }

// Data returns the backing slice. Writes through it modify the array.
func (a *Array) Data() []float64 { return a.data }

// SameShape reports whether a and b have identical shapes.
func (a *Array) SameShape(b *Array) bool { return slices.Equal(a.shape, b.shape) }

// Offset converts a coordinate into a flat index.
func (a *Array) Offset(idx ...int) (int, error) {
	if len(idx) != len(a.shape) {
		return 0, fmt.Errorf("%w: %d indices for %d axes", ErrInvalidShape, len(idx), len(a.shape))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			return 0, fmt.Errorf("%w: index %d out of range on axis %d", ErrInvalidShape, v, i)
		}
		off += v * a.strides[i]
	}
	return off, nil
}

// Unravel writes the coordinate of flat index off into idx.
func (a *Array) Unravel(off int, idx []int) {
	for i, s := range a.strides {
		idx[i] = off / s
		off %= s
	}
}

// At returns the sample at idx. It panics on a bad coordinate.
func (a *Array) At(idx ...int) float64 {
	off, err := a.Offset(idx...)
	if err != nil {
		panic(err)
	}
	return a.data[off]
}

// Set stores v at idx. It panics on a bad coordinate.
func (a *Array) Set(v float64, idx ...int) {
	off, err := a.Offset(idx...)
	if err != nil {
		panic(err)
	}
	a.data[off] = v
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	return &Array{
		shape:   slices.Clone(a.shape),
		strides: slices.Clone(a.strides),
		data:    slices.Clone(a.data),
	}
}

// Equal reports whether a and b have the same shape and bit-identical samples.
func (a *Array) Equal(b *Array) bool {
	return a.SameShape(b) && slices.Equal(a.data, b.data)
}

// Min returns the smallest sample.
func (a *Array) Min() float64 { return floats.Min(a.data) }

// Max returns the largest sample.
func (a *Array) Max() float64 { return floats.Max(a.data) }

// Sum returns the sum of all samples.
func (a *Array) Sum() float64 { return floats.Sum(a.data) }

// Fill sets every sample to v.
func (a *Array) Fill(v float64) {
	for i := range a.data {
		a.data[i] = v
	}
}

// Apply replaces every sample x with fn(x) in place.
func (a *Array) Apply(fn func(float64) float64) {
	for i, v := range a.data {
		a.data[i] = fn(v)
	}
}

// Flip returns a copy of a reversed along axis.
func (a *Array) Flip(axis int) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, fmt.Errorf("%w: axis %d for %d axes", ErrInvalidShape, axis, len(a.shape))
	}
	out := ZerosLike(a)
	idx := make([]int, len(a.shape))
	n, s := a.shape[axis], a.strides[axis]
	for off := range a.data {
		a.Unravel(off, idx)
		i := idx[axis]
		out.data[off+(n-1-2*i)*s] = a.data[off]
	}
	return out, nil
}

// Plane returns a copy of the (n-1)-dimensional section at position index along axis.
// For a 3-D stack, Plane(0, z) is the 2-D image of plane z.
func (a *Array) Plane(axis, index int) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, fmt.Errorf("%w: axis %d for %d axes", ErrInvalidShape, axis, len(a.shape))
	}
	if index < 0 || index >= a.shape[axis] {
		return nil, fmt.Errorf("%w: plane %d out of range on axis %d", ErrInvalidShape, index, axis)
	}
	shape := slices.Delete(slices.Clone(a.shape), axis, axis+1)
	out, err := New(shape...)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(a.shape))
	k := 0
	for off := range a.data {
		a.Unravel(off, idx)
		if idx[axis] != index {
			continue
		}
		out.data[k] = a.data[off]
		k++
	}
	return out, nil
}

// Stack joins arrays of identical shape along a new leading axis.
func Stack(planes ...*Array) (*Array, error) {
	if len(planes) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", ErrInvalidShape)
	}
	first := planes[0]
	data := make([]float64, 0, len(planes)*first.Size())
	for i, p := range planes {
		if !p.SameShape(first) {
			return nil, fmt.Errorf("%w: plane %d has shape %v, want %v", ErrInvalidShape, i, p.shape, first.shape)
		}
		data = append(data, p.data...)
	}
	return FromSlice(data, append([]int{len(planes)}, first.shape...)...)
}

// FromDense copies a gonum matrix into a 2-D array (rows, cols).
func FromDense(m mat.Matrix) *Array {
	r, c := m.Dims()
	out := &Array{
		shape:   []int{r, c},
		strides: []int{c, 1},
		data:    make([]float64, r*c),
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.data[i*c+j] = m.At(i, j)
		}
	}
	return out
}

// Dense copies a 2-D array into a gonum matrix.
func (a *Array) Dense() (*mat.Dense, error) {
	if len(a.shape) != 2 {
		return nil, fmt.Errorf("%w: dense needs 2 axes, have %d", ErrInvalidShape, len(a.shape))
	}
	return mat.NewDense(a.shape[0], a.shape[1], slices.Clone(a.data)), nil
}

func (a *Array) String() string {
	return fmt.Sprintf("Array%v", a.shape)
}
