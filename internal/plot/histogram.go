package plot

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HistogramResult holds the bin counts and the bin edges of a histogram.
// Bin i covers [Dividers[i], Dividers[i+1]); the last bin also includes its upper edge.
type HistogramResult struct {
	Counts   []float64
	Dividers []float64
}

// HistogramOptions controls the rendered bar chart.
type HistogramOptions struct {
	Title  string
	Width  int
	Height int
}

// DefaultHistogramOptions returns a 512x256 chart without a title.
func DefaultHistogramOptions() HistogramOptions {
	return HistogramOptions{Width: 512, Height: 256}
}

// ComputeHistogram bins data into bins equal-width bins spanning [min, max].
func ComputeHistogram(data []float64, bins int) (HistogramResult, error) {
	if bins < 1 {
		return HistogramResult{}, fmt.Errorf("bins must be >= 1, got %d", bins)
	}
	if len(data) == 0 {
		return HistogramResult{}, errors.New("no samples")
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		hi = lo + 1
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram excludes the last divider; nudge it so max lands in the last bin.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	dividers[bins] = hi
	return HistogramResult{Counts: counts, Dividers: dividers}, nil
}

// Histogram bins data and renders the counts as a bar chart.
func Histogram(data []float64, bins int, opts HistogramOptions) (HistogramResult, *image.RGBA, error) {
	res, err := ComputeHistogram(data, bins)
	if err != nil {
		return HistogramResult{}, nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultHistogramOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{White}, image.Point{}, draw.Src)

	top := gutter
	if opts.Title != "" {
		top = titleHeight + gutter
		drawText(img, opts.Title, gutter, titleHeight-4, Black)
	}
	const labelHeight = 16
	area := image.Rect(gutter, top, opts.Width-gutter, opts.Height-labelHeight)
	if area.Dx() <= 0 || area.Dy() <= 0 {
		return res, img, nil
	}

	peak := floats.Max(res.Counts)
	n := len(res.Counts)
	for i, c := range res.Counts {
		if c == 0 || peak == 0 {
			continue
		}
		x0 := area.Min.X + i*area.Dx()/n
		x1 := area.Min.X + (i+1)*area.Dx()/n
		if x1-x0 > 2 {
			x1-- // gap between bars
		}
		h := int(math.Round(c / peak * float64(area.Dy())))
		bar := image.Rect(x0, area.Max.Y-h, x1, area.Max.Y)
		draw.Draw(img, bar, &image.Uniform{BarColor}, image.Point{}, draw.Src)
	}

	axis := image.Rect(area.Min.X, area.Max.Y, area.Max.X, area.Max.Y+1)
	draw.Draw(img, axis, &image.Uniform{Black}, image.Point{}, draw.Src)

	drawText(img, fmt.Sprintf("%.3g", res.Dividers[0]), area.Min.X, opts.Height-3, Black)
	hiLabel := fmt.Sprintf("%.3g", res.Dividers[len(res.Dividers)-1])
	drawText(img, hiLabel, area.Max.X-7*len(hiLabel), opts.Height-3, Black)
	return res, img, nil
}
