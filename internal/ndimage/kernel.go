package ndimage

import (
	"fmt"

	"ndedge/internal/ndarray"
)

// Kernel1D is a one-dimensional filter kernel. Its centre is at len/2.
type Kernel1D []float64

// Sobel building blocks.
var (
	Derivative = Kernel1D{1, 0, -1}
	Smoothing  = Kernel1D{1, 2, 1}
)

// Outer builds the n-d kernel whose extent along axis i is kernels[i],
// i.e. the outer product of the 1-D kernels.
func Outer(kernels ...Kernel1D) (*ndarray.Array, error) {
	if len(kernels) == 0 {
		return nil, fmt.Errorf("%w: no kernels", ErrInvalidArgument)
	}
	shape := make([]int, len(kernels))
	for i, k := range kernels {
		if len(k) == 0 {
			return nil, fmt.Errorf("%w: kernel %d is empty", ErrInvalidArgument, i)
		}
		shape[i] = len(k)
	}
	out, err := ndarray.New(shape...)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(shape))
	data := out.Data()
	for off := range data {
		out.Unravel(off, idx)
		v := 1.0
		for axis, i := range idx {
			v *= kernels[axis][i]
		}
		data[off] = v
	}
	return out, nil
}

// sobelKernels returns the 1-D kernel for every axis when differencing along axis.
func sobelKernels(ndim, axis int) []Kernel1D {
	ks := make([]Kernel1D, ndim)
	for i := range ks {
		if i == axis {
			ks[i] = Derivative
		} else {
			ks[i] = Smoothing
		}
	}
	return ks
}

// SobelKernel materialises the n-d Sobel kernel that differentiates along axis
// and smooths along every other axis. For ndim 2 and axis 1 it is the classic
//
//	1 0 -1
//	2 0 -2
//	1 0 -1
func SobelKernel(ndim, axis int) (*ndarray.Array, error) {
	if ndim < 1 {
		return nil, fmt.Errorf("%w: sobel kernel needs at least one axis", ErrInvalidArgument)
	}
	if axis < 0 || axis >= ndim {
		return nil, fmt.Errorf("%w: axis %d for %d axes", ErrInvalidArgument, axis, ndim)
	}
	return Outer(sobelKernels(ndim, axis)...)
}
