// Package viewer provides an interactive window for browsing images and
// 3-D stacks next to their edge maps.
package viewer

import (
	"fmt"
	"image"
	"sync"

	"ndedge/internal/ndarray"
	"ndedge/internal/ndimage"
	"ndedge/internal/plot"
)

// Layer selects what the viewer draws.
type Layer string

const (
	LayerImage   Layer = "image"
	LayerEdges   Layer = "edges"
	LayerOverlay Layer = "overlay"
)

// Layers lists the selectable layers in display order.
func Layers() []Layer {
	return []Layer{LayerImage, LayerEdges, LayerOverlay}
}

// Scene is the viewer state independent of any widget toolkit. It is safe
// for concurrent use: reloads arrive from the file watcher while widget
// callbacks read and change the view.
type Scene struct {
	params ndimage.Params

	mu       sync.Mutex
	volume   *ndarray.Array // 2-D image or 3-D stack (plane, row, col)
	edges    *ndarray.Array // gradient magnitude of volume
	plane    int
	layer    Layer
	colormap plot.Colormap
	opacity  float64
}

// NewScene computes the edge map of vol and returns a scene showing its first plane.
func NewScene(vol *ndarray.Array, params ndimage.Params) (*Scene, error) {
	s := &Scene{
		params:   params,
		layer:    LayerImage,
		colormap: plot.Gray,
		opacity:  0.7,
	}
	if err := s.SetVolume(vol); err != nil {
		return nil, err
	}
	return s, nil
}

// SetVolume replaces the volume and recomputes its edge map. The plane is
// clamped to the new volume; on error the scene is left unchanged.
func (s *Scene) SetVolume(vol *ndarray.Array) error {
	if vol == nil || (vol.NDim() != 2 && vol.NDim() != 3) {
		return fmt.Errorf("%w: viewer shows 2-D images and 3-D stacks", ndimage.ErrInvalidArgument)
	}
	edges, err := ndimage.SobelWithParams(vol, s.params)
	if err != nil {
		return fmt.Errorf("edge map: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume, s.edges = vol, edges
	s.plane = s.clampPlane(s.plane)
	return nil
}

// Volume returns the current volume.
func (s *Scene) Volume() *ndarray.Array {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Edges returns the edge map of the current volume.
func (s *Scene) Edges() *ndarray.Array {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edges
}

// Planes returns the number of planes: 1 for a 2-D image.
func (s *Scene) Planes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planes()
}

func (s *Scene) planes() int {
	if s.volume.NDim() == 2 {
		return 1
	}
	return s.volume.Len(0)
}

func (s *Scene) clampPlane(i int) int {
	return min(max(i, 0), s.planes()-1)
}

// Plane returns the index of the shown plane.
func (s *Scene) Plane() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plane
}

// SetPlane selects plane i, clamped to the valid range.
func (s *Scene) SetPlane(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plane = s.clampPlane(i)
}

func (s *Scene) Layer() Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layer
}

func (s *Scene) SetLayer(l Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layer = l
}

func (s *Scene) Colormap() plot.Colormap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colormap
}

func (s *Scene) SetColormap(c plot.Colormap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colormap = c
}

// Opacity is the weight of the edge map in the overlay layer.
func (s *Scene) Opacity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opacity
}

func (s *Scene) SetOpacity(f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opacity = f
}

func (s *Scene) section(a *ndarray.Array) (*ndarray.Array, error) {
	if a.NDim() == 2 {
		return a, nil
	}
	return a.Plane(0, s.plane)
}

// Render draws the current plane of the current layer.
func (s *Scene) Render() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := s.section(s.volume)
	if err != nil {
		return nil, err
	}
	edges, err := s.section(s.edges)
	if err != nil {
		return nil, err
	}

	switch s.layer {
	case LayerImage:
		return plot.Colorize(img, s.colormap)
	case LayerEdges:
		return plot.Colorize(edges, s.colormap)
	case LayerOverlay:
		return plot.Overlay(img, edges, s.opacity)
	default:
		return nil, fmt.Errorf("unknown layer %q", s.layer)
	}
}

// Status describes the current view for the status bar.
func (s *Scene) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	shape := s.volume.Shape()
	if n := s.planes(); n > 1 {
		return fmt.Sprintf("plane %d/%d  shape %v  layer %s", s.plane+1, n, shape, s.layer)
	}
	return fmt.Sprintf("shape %v  layer %s", shape, s.layer)
}
