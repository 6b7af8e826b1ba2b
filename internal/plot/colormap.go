// Package plot renders arrays for human inspection: colormaps, layer
// compositing, a titled panel figure and an intensity histogram.
package plot

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"ndedge/internal/ndarray"
)

// Common overlay colors.
var (
	Black      = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Background = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	BarColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// Colormap maps t in [0, 1] to a color by linear interpolation between anchors.
type Colormap struct {
	Name    string
	anchors []color.RGBA
}

var (
	Gray = Colormap{Name: "gray", anchors: []color.RGBA{Black, White}}

	Magma = Colormap{Name: "magma", anchors: []color.RGBA{
		{0, 0, 4, 255},
		{59, 15, 112, 255},
		{140, 41, 129, 255},
		{222, 73, 104, 255},
		{254, 159, 109, 255},
		{252, 253, 191, 255},
	}}

	Viridis = Colormap{Name: "viridis", anchors: []color.RGBA{
		{68, 1, 84, 255},
		{59, 82, 139, 255},
		{33, 145, 140, 255},
		{94, 201, 98, 255},
		{253, 231, 37, 255},
	}}
)

var colormaps = map[string]Colormap{
	Gray.Name:    Gray,
	Magma.Name:   Magma,
	Viridis.Name: Viridis,
}

// ColormapByName looks up a colormap by name.
func ColormapByName(name string) (Colormap, error) {
	cm, ok := colormaps[strings.ToLower(name)]
	if !ok {
		return Colormap{}, fmt.Errorf("unknown colormap %q", name)
	}
	return cm, nil
}

// ColormapNames returns the registered colormap names, sorted.
func ColormapNames() []string {
	names := make([]string, 0, len(colormaps))
	for n := range colormaps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// At returns the color for t, clamped to [0, 1].
func (c Colormap) At(t float64) color.RGBA {
	t = clamp(t, 0, 1)
	segs := len(c.anchors) - 1
	pos := t * float64(segs)
	i := int(pos)
	if i >= segs {
		return c.anchors[segs]
	}
	f := pos - float64(i)
	a, b := c.anchors[i], c.anchors[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*f + 0.5)
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

// Colorize maps a 2-D array through cmap after stretching [min, max] to [0, 1].
// A constant array maps to the low end of the colormap.
func Colorize(a *ndarray.Array, cmap Colormap) (*image.RGBA, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ndarray.ErrInvalidShape)
	}
	if a.NDim() != 2 {
		return nil, fmt.Errorf("%w: colorize needs a 2-D array, have %d axes", ndarray.ErrInvalidShape, a.NDim())
	}
	h, w := a.Len(0), a.Len(1)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	lo, hi := a.Min(), a.Max()
	span := hi - lo
	data := a.Data()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var t float64
			if span > 0 {
				t = (data[y*w+x] - lo) / span
			}
			out.SetRGBA(x, y, cmap.At(t))
		}
	}
	return out, nil
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
