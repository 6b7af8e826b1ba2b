package ndimage

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndedge/internal/ndarray"
)

func randomArray(t *testing.T, seed int64, shape ...int) *ndarray.Array {
	t.Helper()
	a, err := ndarray.New(shape...)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for i := range a.Data() {
		a.Data()[i] = rng.Float64()
	}
	return a
}

func assertAllClose(t *testing.T, want, got *ndarray.Array, tol float64) {
	t.Helper()
	require.Equal(t, want.Shape(), got.Shape())
	for i, w := range want.Data() {
		if math.Abs(w-got.Data()[i]) > tol {
			t.Fatalf("sample %d: got %v, want %v", i, got.Data()[i], w)
		}
	}
}

func TestSobelPreservesShapeAndIsNonNegative(t *testing.T) {
	shapes := [][]int{{7}, {5, 6}, {3, 4, 5}, {2, 3, 2, 3}, {1, 5}, {1, 1, 1}}
	for i, shape := range shapes {
		img := randomArray(t, int64(i), shape...)
		before := img.Clone()

		out, err := Sobel(img)
		require.NoError(t, err)
		assert.Equal(t, shape, out.Shape())
		assert.GreaterOrEqual(t, out.Min(), 0.0)
		assert.True(t, img.Equal(before), "input must not be mutated")
	}
}

func TestSobelRejectsScalar(t *testing.T) {
	_, err := Sobel(ndarray.Scalar(3))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Sobel(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSobelConstantIsZero(t *testing.T) {
	img, err := ndarray.New(6, 4)
	require.NoError(t, err)
	img.Fill(0.7)

	out, err := Sobel(img)
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.InDelta(t, 0, v, 1e-12)
	}
}

func TestSobelStepEdge(t *testing.T) {
	img, err := ndarray.New(5, 5)
	require.NoError(t, err)
	for r := 0; r < 5; r++ {
		for c := 2; c < 5; c++ {
			img.Set(1, r, c)
		}
	}

	out, err := Sobel(img)
	require.NoError(t, err)

	// Column differences of 1 smoothed by 1+2+1 along rows, over sqrt(2).
	peak := 4 / math.Sqrt2
	for r := 0; r < 5; r++ {
		assert.InDelta(t, 0, out.At(r, 0), 1e-12)
		assert.InDelta(t, peak, out.At(r, 1), 1e-12)
		assert.InDelta(t, peak, out.At(r, 2), 1e-12)
		assert.InDelta(t, 0, out.At(r, 3), 1e-12)
		assert.InDelta(t, 0, out.At(r, 4), 1e-12)
	}
}

func TestSobelOneDimensionalIsAbsoluteDifference(t *testing.T) {
	in := []float64{0, 1, 4, 9, 16, 25}
	img, err := ndarray.FromSlice(in, len(in))
	require.NoError(t, err)

	out, err := Sobel(img)
	require.NoError(t, err)

	n := len(in)
	for i := range in {
		next := in[boundaryIndex(i+1, n, ModeReflect)]
		prev := in[boundaryIndex(i-1, n, ModeReflect)]
		assert.Equal(t, math.Abs(next-prev), out.Data()[i], "sample %d", i)
	}
	assert.Equal(t, []float64{1, 4, 8, 12, 16, 9}, out.Data())
}

func TestSobelMatchesClassic2D(t *testing.T) {
	img := randomArray(t, 42, 6, 7)
	out, err := Sobel(img)
	require.NoError(t, err)

	at := func(r, c int) float64 {
		return img.At(boundaryIndex(r, 6, ModeReflect), boundaryIndex(c, 7, ModeReflect))
	}
	for r := 0; r < 6; r++ {
		for c := 0; c < 7; c++ {
			gx := (at(r-1, c-1) + 2*at(r, c-1) + at(r+1, c-1)) -
				(at(r-1, c+1) + 2*at(r, c+1) + at(r+1, c+1))
			gy := (at(r-1, c-1) + 2*at(r-1, c) + at(r-1, c+1)) -
				(at(r+1, c-1) + 2*at(r+1, c) + at(r+1, c+1))
			want := math.Hypot(gx, gy) / math.Sqrt2
			assert.InDelta(t, want, out.At(r, c), 1e-12, "(%d,%d)", r, c)
		}
	}
}

func TestSobelSeparableEqualsFullKernel(t *testing.T) {
	img := randomArray(t, 7, 4, 5, 3)
	params := []Params{DefaultParams().WithConstant(1.5), DefaultParams().WithConstant(-2)}
	for _, mode := range []Mode{ModeReflect, ModeMirror, ModeNearest, ModeWrap, ModeConstant} {
		params = append(params, DefaultParams().WithMode(mode))
	}
	for _, p := range params {
		for axis := 0; axis < img.NDim(); axis++ {
			k, err := SobelKernel(img.NDim(), axis)
			require.NoError(t, err)

			full, err := Convolve(img, k, p)
			require.NoError(t, err)
			sep, err := SobelAxis(img, axis, p)
			require.NoError(t, err)
			assertAllClose(t, full, sep, 1e-12)
		}
	}
}

func TestSobelConstantFill(t *testing.T) {
	// A uniform image padded with its own value has no edges.
	img, err := ndarray.New(4, 5)
	require.NoError(t, err)
	img.Fill(3)
	out, err := SobelWithParams(img, DefaultParams().WithConstant(3))
	require.NoError(t, err)
	assert.Zero(t, out.Max())

	out, err = SobelWithParams(img, DefaultParams().WithConstant(0))
	require.NoError(t, err)
	assert.Positive(t, out.At(0, 2))
	assert.Zero(t, out.At(1, 2))
}

func TestSobelFlipCommutes(t *testing.T) {
	img := randomArray(t, 3, 5, 4, 6)
	out, err := Sobel(img)
	require.NoError(t, err)

	for axis := 0; axis < img.NDim(); axis++ {
		flipped, err := img.Flip(axis)
		require.NoError(t, err)
		got, err := Sobel(flipped)
		require.NoError(t, err)
		want, err := out.Flip(axis)
		require.NoError(t, err)
		assertAllClose(t, want, got, 1e-12)
	}
}

func TestSobelDeterministic(t *testing.T) {
	img := randomArray(t, 11, 6, 5, 4)
	a, err := Sobel(img)
	require.NoError(t, err)
	b, err := Sobel(img)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestSobelParallelMatchesSequential(t *testing.T) {
	img := randomArray(t, 5, 3, 6, 5, 4)
	seq, err := Sobel(img)
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 2} {
		par, err := SobelWithParams(img, DefaultParams().WithParallel(workers))
		require.NoError(t, err)
		assert.True(t, seq.Equal(par), "workers=%d", workers)
	}
}

func TestSobelLengthOneAxisContributesNothing(t *testing.T) {
	row := randomArray(t, 9, 8)
	img, err := ndarray.FromSlice(row.Data(), 1, 8)
	require.NoError(t, err)

	across, err := SobelAxis(img, 0, DefaultParams())
	require.NoError(t, err)
	for _, v := range across.Data() {
		assert.Equal(t, 0.0, v)
	}

	// Only the column pass is left: smoothing a single row multiplies by 4.
	out, err := Sobel(img)
	require.NoError(t, err)
	line, err := Sobel(row)
	require.NoError(t, err)
	for i, v := range line.Data() {
		assert.InDelta(t, 4*v/math.Sqrt2, out.Data()[i], 1e-12)
	}
}

func TestSobelStepPeakAcrossDimensions(t *testing.T) {
	// A unit step along the last axis peaks at 4^(ndim-1) / sqrt(ndim):
	// the transverse smoothing gain over the normalisation.
	step := func(shape ...int) *ndarray.Array {
		a, err := ndarray.New(shape...)
		require.NoError(t, err)
		idx := make([]int, len(shape))
		for off := range a.Data() {
			a.Unravel(off, idx)
			if idx[len(idx)-1] >= shape[len(shape)-1]/2 {
				a.Data()[off] = 1
			}
		}
		return a
	}
	two, err := Sobel(step(4, 6))
	require.NoError(t, err)
	three, err := Sobel(step(4, 4, 6))
	require.NoError(t, err)

	peak2 := 4 / math.Sqrt(2)
	peak3 := 16 / math.Sqrt(3)
	assert.InDelta(t, peak2, two.Max(), 1e-12)
	assert.InDelta(t, peak3, three.Max(), 1e-12)
}

func TestSobelAxisRejectsBadAxis(t *testing.T) {
	img := randomArray(t, 1, 3, 3)
	_, err := SobelAxis(img, 2, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = SobelAxis(img, -1, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
