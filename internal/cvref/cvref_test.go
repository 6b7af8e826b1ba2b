package cvref

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"ndedge/internal/ndarray"
	"ndedge/internal/ndimage"
)

func TestMatRoundTrip(t *testing.T) {
	a, err := ndarray.FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	m, err := ToMat(a)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())

	back, err := FromMat(m)
	require.NoError(t, err)
	assert.True(t, a.Equal(back))
}

func TestToMatRejectsNon2D(t *testing.T) {
	a, err := ndarray.New(2, 2, 2)
	require.NoError(t, err)
	m, err := ToMat(a)
	defer m.Close()
	assert.ErrorIs(t, err, ndimage.ErrInvalidArgument)
}

func TestFromMatRejectsOtherTypes(t *testing.T) {
	m := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8U)
	defer m.Close()
	_, err := FromMat(m)
	assert.ErrorIs(t, err, ndimage.ErrInvalidArgument)
}

func TestSobel2DAgreesWithNative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a, err := ndarray.New(9, 13)
	require.NoError(t, err)
	for i := range a.Data() {
		a.Data()[i] = rng.Float64()
	}

	native, err := ndimage.Sobel(a)
	require.NoError(t, err)
	cv, err := Sobel2D(a)
	require.NoError(t, err)

	require.Equal(t, native.Shape(), cv.Shape())
	for i, v := range native.Data() {
		assert.InDelta(t, v, cv.Data()[i], 1e-9, "sample %d", i)
	}
}

func TestSobel2DStep(t *testing.T) {
	a, err := ndarray.New(5, 5)
	require.NoError(t, err)
	for r := 0; r < 5; r++ {
		for c := 2; c < 5; c++ {
			a.Set(1, r, c)
		}
	}
	out, err := Sobel2D(a)
	require.NoError(t, err)
	assert.InDelta(t, 0, out.At(2, 0), 1e-9)
	assert.InDelta(t, 4/1.4142135623730951, out.At(2, 1), 1e-9)
	assert.InDelta(t, 0, out.At(2, 4), 1e-9)
}
