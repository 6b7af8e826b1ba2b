// Package imageio provides image loading into arrays, plane stacks, and PNG export.
package imageio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"ndedge/internal/ndarray"
)

var (
	// ErrSizeMismatch is returned when the planes of a stack differ in size.
	ErrSizeMismatch = errors.New("plane size mismatch")
	// ErrUnsupportedFormat is returned for files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Slice is one decoded image file.
type Slice struct {
	Path  string      // Original file path
	Image image.Image // Decoded image data
	DPI   float64     // Resolution from TIFF tags, 0 if unknown
}

// Load decodes an image file.
func Load(path string) (*Slice, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	s := &Slice{Path: path, Image: img}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if _, err := file.Seek(0, io.SeekStart); err == nil {
			if dpi, err := readTIFFDPI(file); err == nil {
				s.DPI = dpi
			}
		}
	}
	return s, nil
}

// Width returns the image width in pixels.
func (s *Slice) Width() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (s *Slice) Height() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dy()
}

// Array converts the slice to a 2-D luminance array.
func (s *Slice) Array() *ndarray.Array {
	return ToArray(s.Image)
}

// ToArray converts img to a 2-D array (rows, cols) of luminance in [0, 1].
// Colour images go through the 16-bit gray model.
func ToArray(img image.Image) *ndarray.Array {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	a, err := ndarray.New(h, w)
	if err != nil {
		// Empty image: keep a single black sample rather than a degenerate array.
		a, _ = ndarray.New(1, 1)
		return a
	}
	data := a.Data()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			data[y*w+x] = float64(g.Y) / 65535.0
		}
	}
	return a
}

// LoadArray loads one file as a 2-D array.
func LoadArray(path string) (*ndarray.Array, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return s.Array(), nil
}

// LoadStack loads planes in order into a 3-D array (plane, row, col).
func LoadStack(paths []string) (*ndarray.Array, error) {
	loaded, err := loadSlices(paths)
	if err != nil {
		return nil, err
	}
	return stack(loaded)
}

// LoadVolume loads one file as a 2-D array or several as a 3-D stack, and
// returns the resolution of the first file (0 if unknown).
func LoadVolume(paths []string) (*ndarray.Array, float64, error) {
	loaded, err := loadSlices(paths)
	if err != nil {
		return nil, 0, err
	}
	if len(loaded) == 1 {
		return loaded[0].Array(), loaded[0].DPI, nil
	}
	a, err := stack(loaded)
	if err != nil {
		return nil, 0, err
	}
	return a, loaded[0].DPI, nil
}

// loadSlices decodes paths in order, requiring a common width and height.
func loadSlices(paths []string) ([]*Slice, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no planes", ndarray.ErrInvalidShape)
	}
	out := make([]*Slice, 0, len(paths))
	for i, p := range paths {
		s, err := Load(p)
		if err != nil {
			return nil, err
		}
		if i > 0 && (s.Width() != out[0].Width() || s.Height() != out[0].Height()) {
			return nil, fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrSizeMismatch, p,
				s.Width(), s.Height(), out[0].Width(), out[0].Height())
		}
		out = append(out, s)
	}
	return out, nil
}

func stack(slices []*Slice) (*ndarray.Array, error) {
	planes := make([]*ndarray.Array, len(slices))
	for i, s := range slices {
		planes[i] = s.Array()
	}
	return ndarray.Stack(planes...)
}

// FromArray renders a 2-D array as 16-bit gray, stretching [min, max] to the full range.
// A constant array renders black.
func FromArray(a *ndarray.Array) (*image.Gray16, error) {
	if a.NDim() != 2 {
		return nil, fmt.Errorf("%w: need a 2-D array, have %d axes", ndarray.ErrInvalidShape, a.NDim())
	}
	h, w := a.Len(0), a.Len(1)
	out := image.NewGray16(image.Rect(0, 0, w, h))
	lo, hi := a.Min(), a.Max()
	span := hi - lo
	data := a.Data()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float64
			if span > 0 {
				v = (data[y*w+x] - lo) / span
			}
			out.SetGray16(x, y, color.Gray16{Y: uint16(v*65535 + 0.5)})
		}
	}
	return out, nil
}

// SavePNG encodes img as PNG at path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// SaveArray writes a 2-D array as a stretched 16-bit PNG.
func SaveArray(path string, a *ndarray.Array) error {
	img, err := FromArray(a)
	if err != nil {
		return err
	}
	return SavePNG(path, img)
}

// readTIFFDPI reads the X (or Y) resolution tag of the first IFD.
func readTIFFDPI(r io.ReadSeeker) (float64, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		byteOrder = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		byteOrder = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := r.Seek(int64(ifdOffset), io.SeekStart); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(r, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // inches
	entry := make([]byte, 12)
	for i := uint16(0); i < numEntries; i++ {
		if _, err := io.ReadFull(r, entry); err != nil {
			return 0, err
		}
		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		value := entry[8:12]

		switch tag {
		case 282, 283: // XResolution, YResolution
			if fieldType != 5 { // RATIONAL
				continue
			}
			v, err := readTIFFRational(r, int64(byteOrder.Uint32(value)), byteOrder)
			if err != nil {
				return 0, err
			}
			if tag == 282 {
				xRes = v
			} else {
				yRes = v
			}
		case 296: // ResolutionUnit
			if fieldType == 3 { // SHORT, left-justified in the value field
				resUnit = byteOrder.Uint16(value[0:2])
			}
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	if resUnit == 3 { // centimetres
		dpi *= 2.54
	}
	return dpi, nil
}

func readTIFFRational(r io.ReadSeeker, offset int64, byteOrder binary.ByteOrder) (float64, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	defer r.Seek(pos, io.SeekStart)

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	var num, denom uint32
	if err := binary.Read(r, byteOrder, &num); err != nil {
		return 0, err
	}
	if err := binary.Read(r, byteOrder, &denom); err != nil {
		return 0, err
	}
	if denom == 0 {
		return 0, nil
	}
	return float64(num) / float64(denom), nil
}

// SupportedFormats returns the list of supported file extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
