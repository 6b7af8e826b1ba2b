// Command ndsobel computes the n-dimensional Sobel gradient magnitude of an
// image or a stack of planes and writes the edge map, a figure and a histogram.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ndedge/internal/cvref"
	"ndedge/internal/imageio"
	"ndedge/internal/ndarray"
	"ndedge/internal/ndimage"
	"ndedge/internal/plot"
	"ndedge/internal/version"
)

type options struct {
	inputs   []string
	out      string
	fig      string
	hist     string
	bins     int
	mode     string
	parallel bool
	workers  int
	backend  string
	cmap     string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var opts options
	in := flag.String("in", "", "Input image(s), comma separated; several inputs form a 3-D stack")
	flag.StringVar(&opts.out, "out", "", "Output edge map PNG (planes of a stack get _000, _001, ... suffixes)")
	flag.StringVar(&opts.fig, "fig", "", "Optional figure PNG: input, edges and overlay side by side")
	flag.StringVar(&opts.hist, "hist", "", "Optional intensity histogram PNG")
	flag.IntVar(&opts.bins, "bins", 64, "Histogram bins")
	flag.StringVar(&opts.mode, "mode", "reflect", "Boundary mode: reflect, mirror, nearest, wrap, constant")
	flag.BoolVar(&opts.parallel, "parallel", false, "Run the per-axis passes concurrently")
	flag.IntVar(&opts.workers, "workers", 0, "Max concurrent axis passes with -parallel (0 = one per axis)")
	flag.StringVar(&opts.backend, "backend", "native", "Filter backend: native or opencv (2-D only)")
	flag.StringVar(&opts.cmap, "cmap", "magma", "Colormap for the edge panel of the figure")
	verbose := flag.Bool("v", false, "Log filter diagnostics")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("ndsobel", version.String())
		return
	}
	if *verbose {
		ndimage.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	opts.inputs = splitInputs(*in, flag.Args())
	if len(opts.inputs) == 0 || opts.out == "" {
		fmt.Println("Usage: ndsobel -in <image>[,<image>...] -out <edges.png> [-fig fig.png] [-hist hist.png] [-mode reflect] [-parallel] [-backend native|opencv]")
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "ndsobel: %v\n", err)
		os.Exit(1)
	}
}

func splitInputs(in string, rest []string) []string {
	var inputs []string
	for _, p := range strings.Split(in, ",") {
		if p = strings.TrimSpace(p); p != "" {
			inputs = append(inputs, p)
		}
	}
	return append(inputs, rest...)
}

func run(opts options) error {
	mode, err := ndimage.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	params := ndimage.DefaultParams().WithMode(mode)
	if opts.parallel {
		params = params.WithParallel(opts.workers)
	}

	img, dpi, err := imageio.LoadVolume(opts.inputs)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d file(s): shape %v, %s\n", len(opts.inputs), img.Shape(), describeDPI(dpi))

	edges, err := filter(img, params, opts.backend)
	if err != nil {
		return err
	}
	fmt.Printf("Gradient magnitude: min %.4g max %.4g (backend %s, mode %s)\n",
		edges.Min(), edges.Max(), opts.backend, mode)

	if err := writeEdges(opts.out, edges); err != nil {
		return err
	}

	if opts.fig != "" {
		if err := writeFigure(opts.fig, img, edges, opts.cmap); err != nil {
			return fmt.Errorf("figure: %w", err)
		}
		fmt.Printf("Wrote figure %s\n", opts.fig)
	}
	if opts.hist != "" {
		_, chart, err := plot.Histogram(img.Data(), opts.bins, plot.HistogramOptions{
			Title: "intensity", Width: 512, Height: 256,
		})
		if err != nil {
			return fmt.Errorf("histogram: %w", err)
		}
		if err := imageio.SavePNG(opts.hist, chart); err != nil {
			return err
		}
		fmt.Printf("Wrote histogram %s\n", opts.hist)
	}
	return nil
}

func describeDPI(dpi float64) string {
	if dpi <= 0 {
		return "resolution unknown"
	}
	return fmt.Sprintf("%.0f DPI", dpi)
}

func filter(img *ndarray.Array, params ndimage.Params, backend string) (*ndarray.Array, error) {
	switch backend {
	case "native", "":
		return ndimage.SobelWithParams(img, params)
	case "opencv":
		if params.Mode != ndimage.ModeReflect {
			return nil, errors.New("opencv backend supports reflect mode only")
		}
		return cvref.Sobel2D(img)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// planePath inserts a zero-padded plane suffix before the extension.
func planePath(path string, plane int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(path, ext), plane, ext)
}

func writeEdges(path string, edges *ndarray.Array) error {
	if edges.NDim() == 2 {
		if err := imageio.SaveArray(path, edges); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	}
	for z := 0; z < edges.Len(0); z++ {
		plane, err := edges.Plane(0, z)
		if err != nil {
			return err
		}
		p := planePath(path, z)
		if err := imageio.SaveArray(p, plane); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", p)
	}
	return nil
}

// writeFigure shows the input, its edges and the overlay; stacks show their middle plane.
func writeFigure(path string, img, edges *ndarray.Array, cmapName string) error {
	cmap, err := plot.ColormapByName(cmapName)
	if err != nil {
		return err
	}
	title := ""
	if img.NDim() == 3 {
		z := img.Len(0) / 2
		title = fmt.Sprintf(" (plane %d)", z)
		if img, err = img.Plane(0, z); err != nil {
			return err
		}
		if edges, err = edges.Plane(0, z); err != nil {
			return err
		}
	}
	overlay, err := plot.Overlay(img, edges, 0.8)
	if err != nil {
		return err
	}
	fig, err := plot.Show([]plot.Panel{
		{Title: "image" + title, Array: img},
		{Title: "edges", Array: edges, Colormap: cmap},
		{Title: "overlay", Image: overlay},
	}, plot.DefaultFigureOptions())
	if err != nil {
		return err
	}
	return imageio.SavePNG(path, fig)
}
