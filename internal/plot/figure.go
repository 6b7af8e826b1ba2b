package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"ndedge/internal/ndarray"
)

const (
	titleHeight = 20
	gutter      = 8
)

// Panel is one titled image of a figure. Exactly one of Array or Image is set.
type Panel struct {
	Title    string
	Array    *ndarray.Array // 2-D, colorized with Colormap
	Image    image.Image    // drawn as is
	Colormap Colormap       // zero value means Gray
}

// FigureOptions controls the layout of Show.
type FigureOptions struct {
	Columns   int                // panels per row; 0 puts all panels on one row
	PanelSize int                // side of the square each panel is fitted into, in pixels
	Scaler    xdraw.Interpolator // resampling used to fit panels
}

// DefaultFigureOptions returns a single row of 256 px nearest-neighbour panels.
func DefaultFigureOptions() FigureOptions {
	return FigureOptions{
		PanelSize: 256,
		Scaler:    xdraw.NearestNeighbor,
	}
}

// Show lays panels out in a grid, each fitted into a PanelSize square with its
// aspect ratio kept and its title drawn above it.
func Show(panels []Panel, opts FigureOptions) (*image.RGBA, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("no panels to show")
	}
	if opts.PanelSize <= 0 {
		opts.PanelSize = DefaultFigureOptions().PanelSize
	}
	if opts.Scaler == nil {
		opts.Scaler = xdraw.NearestNeighbor
	}
	cols := opts.Columns
	if cols <= 0 || cols > len(panels) {
		cols = len(panels)
	}
	rows := (len(panels) + cols - 1) / cols

	cellW := opts.PanelSize + gutter
	cellH := opts.PanelSize + titleHeight + gutter
	fig := image.NewRGBA(image.Rect(0, 0, cols*cellW+gutter, rows*cellH+gutter))
	draw.Draw(fig, fig.Bounds(), &image.Uniform{White}, image.Point{}, draw.Src)

	for i, p := range panels {
		src, err := panelImage(p)
		if err != nil {
			return nil, fmt.Errorf("panel %d (%s): %w", i, p.Title, err)
		}
		x0 := gutter + (i%cols)*cellW
		y0 := gutter + (i/cols)*cellH

		drawText(fig, p.Title, x0, y0+titleHeight-6, Black)

		box := fitRect(src.Bounds(), opts.PanelSize)
		box = box.Add(image.Pt(x0, y0+titleHeight))
		opts.Scaler.Scale(fig, box, src, src.Bounds(), xdraw.Over, nil)
	}
	return fig, nil
}

func panelImage(p Panel) (image.Image, error) {
	switch {
	case p.Image != nil:
		return p.Image, nil
	case p.Array != nil:
		cm := p.Colormap
		if cm.anchors == nil {
			cm = Gray
		}
		return Colorize(p.Array, cm)
	default:
		return nil, fmt.Errorf("panel has neither array nor image")
	}
}

// fitRect returns the largest rectangle with the aspect ratio of r that fits
// in a size x size square, centred in it.
func fitRect(r image.Rectangle, size int) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	if w == 0 || h == 0 {
		return image.Rect(0, 0, 0, 0)
	}
	dw, dh := size, size
	if w >= h {
		dh = max(1, h*size/w)
	} else {
		dw = max(1, w*size/h)
	}
	ox, oy := (size-dw)/2, (size-dh)/2
	return image.Rect(ox, oy, ox+dw, oy+dh)
}

func drawText(dst draw.Image, s string, x, y int, c color.Color) {
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
