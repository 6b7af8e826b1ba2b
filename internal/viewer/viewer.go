package viewer

import (
	"log"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"ndedge/internal/ndarray"
	"ndedge/internal/plot"
	"ndedge/internal/prefs"
)

// Viewer is the main window: the rendered plane with layer, colormap,
// plane and opacity controls.
type Viewer struct {
	scene  *Scene
	prefs  *prefs.Prefs
	window fyne.Window

	image  *fynecanvas.Image
	status *widget.Label
}

// New builds the viewer window for scene. Preferences restore the colormap,
// layer, overlay opacity and window size.
func New(a fyne.App, title string, scene *Scene, p *prefs.Prefs) *Viewer {
	v := &Viewer{
		scene:  scene,
		prefs:  p,
		window: a.NewWindow(title),
	}
	v.restorePreferences()
	v.window.SetContent(v.createContent())
	v.window.Resize(fyne.NewSize(
		float32(p.FloatWithFallback(prefs.KeyWindowWidth, 900)),
		float32(p.FloatWithFallback(prefs.KeyWindowHeight, 700)),
	))
	v.window.SetCloseIntercept(func() {
		v.SavePreferences()
		v.window.Close()
	})
	v.refresh()
	return v
}

// Window returns the underlying fyne window.
func (v *Viewer) Window() fyne.Window { return v.window }

func (v *Viewer) restorePreferences() {
	if cm, err := plot.ColormapByName(v.prefs.StringWithFallback(prefs.KeyColormap, plot.Gray.Name)); err == nil {
		v.scene.SetColormap(cm)
	}
	layer := Layer(v.prefs.StringWithFallback(prefs.KeyLayer, string(LayerImage)))
	for _, l := range Layers() {
		if l == layer {
			v.scene.SetLayer(l)
		}
	}
	v.scene.SetOpacity(v.prefs.FloatWithFallback(prefs.KeyOpacity, v.scene.Opacity()))
}

// SavePreferences stores the current view settings if they changed.
func (v *Viewer) SavePreferences() {
	size := v.window.Canvas().Size()
	v.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	v.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	v.prefs.SetString(prefs.KeyColormap, v.scene.Colormap().Name)
	v.prefs.SetString(prefs.KeyLayer, string(v.scene.Layer()))
	v.prefs.SetFloat(prefs.KeyOpacity, v.scene.Opacity())
	if err := v.prefs.SaveIfChanged(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}
}

func (v *Viewer) createContent() fyne.CanvasObject {
	v.image = fynecanvas.NewImageFromImage(nil)
	v.image.FillMode = fynecanvas.ImageFillContain
	v.image.ScaleMode = fynecanvas.ImageScalePixels
	v.status = widget.NewLabel("")

	layerNames := make([]string, 0, len(Layers()))
	for _, l := range Layers() {
		layerNames = append(layerNames, string(l))
	}
	layerSelect := widget.NewSelect(layerNames, func(s string) {
		v.scene.SetLayer(Layer(s))
		v.refresh()
	})
	layerSelect.SetSelected(string(v.scene.Layer()))

	cmapSelect := widget.NewSelect(plot.ColormapNames(), func(s string) {
		cm, err := plot.ColormapByName(s)
		if err != nil {
			log.Printf("Colormap: %v", err)
			return
		}
		v.scene.SetColormap(cm)
		v.refresh()
	})
	cmapSelect.SetSelected(v.scene.Colormap().Name)

	opacity := widget.NewSlider(0, 1)
	opacity.Step = 0.05
	opacity.SetValue(v.scene.Opacity())
	opacity.OnChanged = func(f float64) {
		v.scene.SetOpacity(f)
		if v.scene.Layer() == LayerOverlay {
			v.refresh()
		}
	}

	form := widget.NewForm(
		widget.NewFormItem("Layer", layerSelect),
		widget.NewFormItem("Colormap", cmapSelect),
		widget.NewFormItem("Overlay opacity", opacity),
	)

	if n := v.scene.Planes(); n > 1 {
		plane := widget.NewSlider(0, float64(n-1))
		plane.Step = 1
		plane.OnChanged = func(f float64) {
			v.scene.SetPlane(int(f))
			v.refresh()
		}
		form.Append("Plane", plane)
	}

	controls := container.NewVBox(form, v.status)
	return container.NewBorder(nil, nil, nil, controls, v.image)
}

// SetVolume swaps in a reloaded volume and redraws.
func (v *Viewer) SetVolume(vol *ndarray.Array) error {
	if err := v.scene.SetVolume(vol); err != nil {
		return err
	}
	v.refresh()
	return nil
}

func (v *Viewer) refresh() {
	img, err := v.scene.Render()
	if err != nil {
		log.Printf("Render failed: %v", err)
		return
	}
	v.image.Image = img
	v.image.Refresh()
	v.status.SetText(v.scene.Status())
}
