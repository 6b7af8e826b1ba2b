package ndimage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndedge/internal/ndarray"
)

func TestBoundaryIndex(t *testing.T) {
	// Samples a b c d at 0..3; padded indices -3..6.
	tests := []struct {
		mode Mode
		want []int
	}{
		{ModeReflect, []int{2, 1, 0, 0, 1, 2, 3, 3, 2, 1}},
		{ModeMirror, []int{3, 2, 1, 0, 1, 2, 3, 2, 1, 0}},
		{ModeNearest, []int{0, 0, 0, 0, 1, 2, 3, 3, 3, 3}},
		{ModeWrap, []int{1, 2, 3, 0, 1, 2, 3, 0, 1, 2}},
		{ModeConstant, []int{-1, -1, -1, 0, 1, 2, 3, -1, -1, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got := make([]int, 0, len(tt.want))
			for i := -3; i <= 6; i++ {
				got = append(got, boundaryIndex(i, 4, tt.mode))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoundaryIndexLengthOne(t *testing.T) {
	for _, mode := range []Mode{ModeReflect, ModeMirror, ModeNearest, ModeWrap} {
		for i := -3; i <= 3; i++ {
			assert.Equal(t, 0, boundaryIndex(i, 1, mode), "%s %d", mode, i)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeReflect, ModeMirror, ModeNearest, ModeWrap, ModeConstant} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeReflect, got)

	_, err = ParseMode("periodic")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParamsModifiers(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, ModeReflect, p.Mode)
	assert.False(t, p.Parallel)

	c := p.WithConstant(2.5)
	assert.Equal(t, ModeConstant, c.Mode)
	assert.Equal(t, 2.5, c.Cval)
	assert.Equal(t, ModeReflect, p.Mode, "modifiers return copies")

	par := p.WithParallel(-3)
	assert.True(t, par.Parallel)
	assert.Equal(t, 0, par.Workers)
}

func TestSobelKernel2D(t *testing.T) {
	k, err := SobelKernel(2, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, k.Shape())
	assert.Equal(t, []float64{
		1, 0, -1,
		2, 0, -2,
		1, 0, -1,
	}, k.Data())

	k, err = SobelKernel(2, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{
		1, 2, 1,
		0, 0, 0,
		-1, -2, -1,
	}, k.Data())

	k3, err := SobelKernel(3, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 3}, k3.Shape())
	assert.Equal(t, 0.0, k3.Sum())
	assert.Equal(t, 4.0, k3.At(0, 1, 1))
	assert.Equal(t, -1.0, k3.At(2, 0, 2))

	_, err = SobelKernel(0, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = SobelKernel(2, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOuterRejectsEmpty(t *testing.T) {
	_, err := Outer()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Outer(Smoothing, Kernel1D{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConvolve1DMatchesHandComputed(t *testing.T) {
	img, err := ndarray.FromSlice([]float64{1, 2, 3, 4}, 4)
	require.NoError(t, err)

	out, err := Convolve1D(img, Smoothing, 0, DefaultParams())
	require.NoError(t, err)
	// reflect: 1 1 2 3 4 4
	assert.Equal(t, []float64{5, 8, 12, 15}, out.Data())

	out, err = Convolve1D(img, Smoothing, 0, DefaultParams().WithConstant(10))
	require.NoError(t, err)
	assert.Equal(t, []float64{14, 8, 12, 21}, out.Data())

	// Asymmetric kernels are flipped: out[i] = in[i+1] - in[i-1] for [1 0 -1].
	out, err = Convolve1D(img, Derivative, 0, DefaultParams().WithMode(ModeWrap))
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, 2, 2, -2}, out.Data())
}

func TestConvolve1DAlongEachAxis(t *testing.T) {
	img, err := ndarray.FromSlice([]float64{
		1, 2, 3,
		4, 5, 6,
	}, 2, 3)
	require.NoError(t, err)

	rows, err := Convolve1D(img, Kernel1D{0, 1, 1}, 0, DefaultParams())
	require.NoError(t, err)
	// out[i] = in[i] + in[i-1]; reflected row -1 is row 0.
	assert.Equal(t, []float64{2, 4, 6, 5, 7, 9}, rows.Data())

	cols, err := Convolve1D(img, Kernel1D{0, 1, 1}, 1, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 5, 8, 9, 11}, cols.Data())
}

func TestConvolveErrors(t *testing.T) {
	img, err := ndarray.New(3, 3)
	require.NoError(t, err)

	_, err = Convolve1D(img, Kernel1D{}, 0, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Convolve1D(img, Smoothing, 5, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Convolve1D(ndarray.Scalar(1), Smoothing, 0, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	k, err := SobelKernel(3, 0)
	require.NoError(t, err)
	_, err = Convolve(img, k, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Convolve(img, nil, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConvolveIdentityKernel(t *testing.T) {
	img := randomArray(t, 21, 3, 4)
	k, err := Outer(Kernel1D{0, 1, 0}, Kernel1D{1})
	require.NoError(t, err)

	out, err := Convolve(img, k, DefaultParams())
	require.NoError(t, err)
	assert.True(t, out.Equal(img))
}
