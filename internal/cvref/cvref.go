// Package cvref computes the 2-D gradient magnitude with OpenCV.
// It is used to cross-check the native n-d filter and as a faster backend for
// single images.
package cvref

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"ndedge/internal/ndarray"
	"ndedge/internal/ndimage"
)

// ToMat copies a 2-D array into a single-channel CV_64F Mat. The caller closes it.
func ToMat(a *ndarray.Array) (gocv.Mat, error) {
	if a == nil || a.NDim() != 2 {
		return gocv.NewMat(), fmt.Errorf("%w: need a 2-D array", ndimage.ErrInvalidArgument)
	}
	d, err := a.Dense()
	if err != nil {
		return gocv.NewMat(), err
	}
	rows, cols := d.Dims()
	m := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.SetDoubleAt(r, c, d.At(r, c))
		}
	}
	return m, nil
}

// FromMat copies a single-channel CV_64F Mat into a 2-D array.
func FromMat(m gocv.Mat) (*ndarray.Array, error) {
	if m.Type() != gocv.MatTypeCV64F {
		return nil, fmt.Errorf("%w: mat type %v, want CV_64F", ndimage.ErrInvalidArgument, m.Type())
	}
	if m.Empty() {
		return nil, fmt.Errorf("%w: empty mat", ndimage.ErrInvalidArgument)
	}
	d := mat.NewDense(m.Rows(), m.Cols(), nil)
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			d.Set(r, c, m.GetDoubleAt(r, c))
		}
	}
	return ndarray.FromDense(d), nil
}

func kernelMat(k *ndarray.Array) gocv.Mat {
	m := gocv.NewMatWithSize(k.Len(0), k.Len(1), gocv.MatTypeCV64F)
	for r := 0; r < k.Len(0); r++ {
		for c := 0; c < k.Len(1); c++ {
			m.SetDoubleAt(r, c, k.At(r, c))
		}
	}
	return m
}

// Sobel2D returns the gradient magnitude of a 2-D array, divided by sqrt(2),
// with BorderReflect (fedcba|abcdefgh|hgfedcb) boundaries.
//
// Filter2D correlates rather than convolves; the sign flip of the derivative
// kernel disappears in the magnitude.
func Sobel2D(a *ndarray.Array) (*ndarray.Array, error) {
	src, err := ToMat(a)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var grads [2]gocv.Mat
	for axis := range grads {
		k, err := ndimage.SobelKernel(2, axis)
		if err != nil {
			return nil, err
		}
		kernel := kernelMat(k)
		grads[axis] = gocv.NewMat()
		gocv.Filter2D(src, &grads[axis], -1, kernel, image.Pt(-1, -1), 0, gocv.BorderReflect)
		kernel.Close()
	}
	defer grads[0].Close()
	defer grads[1].Close()

	mag := gocv.NewMat()
	defer mag.Close()
	gocv.Magnitude(grads[0], grads[1], &mag)

	out, err := FromMat(mag)
	if err != nil {
		return nil, err
	}
	norm := math.Sqrt2
	out.Apply(func(v float64) float64 { return v / norm })
	return out, nil
}
