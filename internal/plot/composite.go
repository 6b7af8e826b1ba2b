package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"ndedge/internal/ndarray"
)

// BlendMode specifies how layers are composited.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDifference
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// Layer is one image in a Composite.
type Layer struct {
	Image     image.Image
	BlendMode BlendMode
	Opacity   float64 // 0.0 - 1.0
	Visible   bool
}

// Composite combines layers into a single image.
type Composite struct {
	Width     int
	Height    int
	Layers    []*Layer
	BackColor color.Color
}

// NewComposite creates a Composite with the specified dimensions.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: Background,
	}
}

// AddLayer appends a visible layer.
func (c *Composite) AddLayer(img image.Image, mode BlendMode, opacity float64) *Layer {
	l := &Layer{Image: img, BlendMode: mode, Opacity: opacity, Visible: true}
	c.Layers = append(c.Layers, l)
	return l
}

// Render produces the composited image.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(result, result.Bounds(), &image.Uniform{c.BackColor}, image.Point{}, draw.Src)

	for _, l := range c.Layers {
		if l == nil || l.Image == nil || !l.Visible {
			continue
		}
		c.compositeLayer(result, l)
	}
	return result
}

func (c *Composite) compositeLayer(dst *image.RGBA, l *Layer) {
	b := l.Image.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		dy := y - b.Min.Y
		if dy >= c.Height {
			break
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			dx := x - b.Min.X
			if dx >= c.Width {
				break
			}
			dst.Set(dx, dy, blend(dst.At(dx, dy), l.Image.At(x, y), l.BlendMode, l.Opacity))
		}
	}
}

// blend combines src over dst with the given mode and opacity.
func blend(dst, src color.Color, mode BlendMode, opacity float64) color.RGBA {
	sr, sg, sb, sa := src.RGBA()
	dr, dg, db, da := dst.RGBA()

	sf := [4]float64{float64(sr) / 65535.0, float64(sg) / 65535.0, float64(sb) / 65535.0, float64(sa) / 65535.0}
	df := [4]float64{float64(dr) / 65535.0, float64(dg) / 65535.0, float64(db) / 65535.0, float64(da) / 65535.0}
	// color.Color is alpha-premultiplied.
	if sf[3] > 0 {
		for i := 0; i < 3; i++ {
			sf[i] /= sf[3]
		}
	}
	if df[3] > 0 {
		for i := 0; i < 3; i++ {
			df[i] /= df[3]
		}
	}

	var rf [3]float64
	for i := 0; i < 3; i++ {
		switch mode {
		case BlendMultiply:
			rf[i] = sf[i] * df[i]
		case BlendScreen:
			rf[i] = 1 - (1-sf[i])*(1-df[i])
		case BlendOverlay:
			if df[i] < 0.5 {
				rf[i] = 2 * sf[i] * df[i]
			} else {
				rf[i] = 1 - 2*(1-sf[i])*(1-df[i])
			}
		case BlendDifference:
			rf[i] = math.Abs(sf[i] - df[i])
		default:
			rf[i] = sf[i]
		}
	}

	alpha := sf[3] * opacity
	return color.RGBA{
		R: uint8(clamp(rf[0]*alpha+df[0]*(1-alpha), 0, 1)*255 + 0.5),
		G: uint8(clamp(rf[1]*alpha+df[1]*(1-alpha), 0, 1)*255 + 0.5),
		B: uint8(clamp(rf[2]*alpha+df[2]*(1-alpha), 0, 1)*255 + 0.5),
		A: uint8(clamp(alpha+df[3]*(1-alpha), 0, 1)*255 + 0.5),
	}
}

// Overlay draws a 2-D edge map in magma over a gray rendering of base.
// Weak edges fade out: each edge pixel's opacity is its stretched magnitude times opacity.
func Overlay(base, edges *ndarray.Array, opacity float64) (*image.RGBA, error) {
	if base == nil || edges == nil {
		return nil, fmt.Errorf("%w: nil array", ndarray.ErrInvalidShape)
	}
	if !base.SameShape(edges) {
		return nil, fmt.Errorf("%w: overlay shapes %v and %v differ", ndarray.ErrInvalidShape, base.Shape(), edges.Shape())
	}
	gray, err := Colorize(base, Gray)
	if err != nil {
		return nil, err
	}
	heat, err := Colorize(edges, Magma)
	if err != nil {
		return nil, err
	}

	lo, hi := edges.Min(), edges.Max()
	if hi > lo {
		data := edges.Data()
		w := edges.Len(1)
		for i, v := range data {
			// Premultiplied alpha from edge strength.
			a := (v - lo) / (hi - lo)
			c := heat.RGBAAt(i%w, i/w)
			heat.SetRGBA(i%w, i/w, color.RGBA{
				R: uint8(float64(c.R)*a + 0.5),
				G: uint8(float64(c.G)*a + 0.5),
				B: uint8(float64(c.B)*a + 0.5),
				A: uint8(a*255 + 0.5),
			})
		}
	} else {
		heat = image.NewRGBA(heat.Bounds())
	}

	b := gray.Bounds()
	c := NewComposite(b.Dx(), b.Dy())
	c.AddLayer(gray, BlendNormal, 1)
	c.AddLayer(heat, BlendNormal, clamp(opacity, 0, 1))
	return c.Render(), nil
}
