// Command cvcompare runs the native Sobel filter and the OpenCV reference on
// the same image and reports how far apart they are.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"ndedge/internal/cvref"
	"ndedge/internal/imageio"
	"ndedge/internal/ndimage"
)

func main() {
	imagePath := flag.String("image", "", "Path to image (TIFF, PNG, JPEG or BMP)")
	tol := flag.Float64("tol", 1e-9, "Maximum allowed absolute difference")
	diffPath := flag.String("diff", "", "Optional PNG of the absolute difference")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: cvcompare -image <path> [-tol 1e-9] [-diff diff.png]")
		os.Exit(1)
	}

	slice, err := imageio.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	img := slice.Array()
	fmt.Printf("Loaded image: shape %v, DPI %.0f (0 = unknown)\n", img.Shape(), slice.DPI)

	start := time.Now()
	native, err := ndimage.Sobel(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Native filter failed: %v\n", err)
		os.Exit(1)
	}
	nativeTime := time.Since(start)

	start = time.Now()
	ref, err := cvref.Sobel2D(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenCV filter failed: %v\n", err)
		os.Exit(1)
	}
	cvTime := time.Since(start)

	diff := native.Clone()
	floats.Sub(diff.Data(), ref.Data())
	diff.Apply(math.Abs)
	maxDiff := diff.Max()
	d, err := diff.Dense()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Diff matrix: %v\n", err)
		os.Exit(1)
	}
	rms := mat.Norm(d, 2) / math.Sqrt(float64(diff.Size()))

	fmt.Printf("Native: %v  OpenCV: %v\n", nativeTime, cvTime)
	fmt.Printf("Max |native - opencv| = %.3g, RMS %.3g (peak magnitude %.4g)\n", maxDiff, rms, native.Max())

	if *diffPath != "" {
		if err := imageio.SaveArray(*diffPath, diff); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write diff: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *diffPath)
	}

	if maxDiff > *tol {
		fmt.Printf("FAIL: difference exceeds %.3g\n", *tol)
		os.Exit(1)
	}
	fmt.Println("OK")
}
