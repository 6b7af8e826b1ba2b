package ndimage

import (
	"fmt"

	"ndedge/internal/ndarray"
)

func checkImage(img *ndarray.Array) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidArgument)
	}
	if img.NDim() == 0 {
		return fmt.Errorf("%w: image has no axes", ErrInvalidArgument)
	}
	return nil
}

func checkAxis(img *ndarray.Array, axis int) error {
	if axis < 0 || axis >= img.NDim() {
		return fmt.Errorf("%w: axis %d for %d axes", ErrInvalidArgument, axis, img.NDim())
	}
	return nil
}

// Convolve1D convolves img with k along axis:
//
//	out[i] = sum_j k[j] * in[i + len(k)/2 - j]
//
// Indices outside the axis are resolved by p.Mode. img is not modified.
func Convolve1D(img *ndarray.Array, k Kernel1D, axis int, p Params) (*ndarray.Array, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	if err := checkAxis(img, axis); err != nil {
		return nil, err
	}
	if len(k) == 0 {
		return nil, fmt.Errorf("%w: empty kernel", ErrInvalidArgument)
	}
	out := ndarray.ZerosLike(img)
	convolveLines(out.Data(), img, k, axis, p)
	return out, nil
}

// convolveLines writes the 1-D convolution of every line of src along axis into dst.
func convolveLines(dst []float64, src *ndarray.Array, k Kernel1D, axis int, p Params) {
	n := src.Len(axis)
	stride := src.Stride(axis)
	in := src.Data()
	c := len(k) / 2
	idx := make([]int, src.NDim())
	line := make([]float64, n)

	for base := range in {
		src.Unravel(base, idx)
		if idx[axis] != 0 {
			continue
		}
		for i := 0; i < n; i++ {
			line[i] = in[base+i*stride]
		}
		for i := 0; i < n; i++ {
			var acc float64
			for j, w := range k {
				if w == 0 {
					continue
				}
				if s := boundaryIndex(i+c-j, n, p.Mode); s >= 0 {
					acc += w * line[s]
				} else {
					acc += w * p.Cval
				}
			}
			dst[base+i*stride] = acc
		}
	}
}

// Convolve convolves img with an n-d kernel of the same dimensionality.
// Each kernel axis is centred at len/2. This is the direct O(N*K) form;
// separable kernels are cheaper through repeated Convolve1D.
func Convolve(img, kernel *ndarray.Array, p Params) (*ndarray.Array, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	if kernel == nil || kernel.NDim() != img.NDim() {
		return nil, fmt.Errorf("%w: kernel must have %d axes", ErrInvalidArgument, img.NDim())
	}

	ndim := img.NDim()
	shape := img.Shape()
	kshape := kernel.Shape()
	in := img.Data()
	kdata := kernel.Data()

	out := ndarray.ZerosLike(img)
	dst := out.Data()
	idx := make([]int, ndim)
	kidx := make([]int, ndim)

	for off := range dst {
		img.Unravel(off, idx)
		var acc float64
	taps:
		for koff, w := range kdata {
			if w == 0 {
				continue
			}
			kernel.Unravel(koff, kidx)
			src := 0
			for axis := 0; axis < ndim; axis++ {
				s := boundaryIndex(idx[axis]+kshape[axis]/2-kidx[axis], shape[axis], p.Mode)
				if s < 0 {
					acc += w * p.Cval
					continue taps
				}
				src += s * img.Stride(axis)
			}
			acc += w * in[src]
		}
		dst[off] = acc
	}
	return out, nil
}
