// Package main provides the entry point for the ndedge viewer.
package main

import (
	"log"
	"os"
	"time"

	"fyne.io/fyne/v2/app"

	"ndedge/internal/imageio"
	"ndedge/internal/ndimage"
	"ndedge/internal/prefs"
	"ndedge/internal/version"
	"ndedge/internal/viewer"
)

const appTitle = "ndedge"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s %s", appTitle, version.String())

	paths := os.Args[1:]
	if len(paths) == 0 {
		log.Fatalf("Usage: %s <image> [<image>...]  (several images form a 3-D stack)", os.Args[0])
	}

	vol, dpi, err := imageio.LoadVolume(paths)
	if err != nil {
		log.Fatalf("Failed to load %v: %v", paths, err)
	}
	log.Printf("Loaded shape %v (%.0f DPI, 0 = unknown)", vol.Shape(), dpi)

	appPrefs := prefs.Load()
	params := ndimage.DefaultParams()
	if mode, err := ndimage.ParseMode(appPrefs.StringWithFallback(prefs.KeyMode, "reflect")); err == nil {
		params = params.WithMode(mode)
	} else {
		log.Printf("Preferences: %v", err)
	}
	if appPrefs.Bool(prefs.KeyParallel, true) {
		params = params.WithParallel(0)
	}

	scene, err := viewer.NewScene(vol, params)
	if err != nil {
		log.Fatalf("Edge map: %v", err)
	}

	a := app.New()
	a.Settings().SetTheme(&viewer.Theme{})
	win := viewer.New(a, appTitle, scene, appPrefs)

	setupReload(win, paths)

	win.Window().ShowAndRun()
}

// setupReload recomputes the edge map whenever an input file is rewritten.
func setupReload(win *viewer.Viewer, paths []string) {
	w, err := viewer.NewWatcher(2*time.Second, paths...)
	if err != nil {
		log.Printf("Reload: %v", err)
		return
	}
	w.OnChange(func(changed []string) {
		log.Printf("Reload: %v changed", changed)
		vol, _, err := imageio.LoadVolume(paths)
		if err != nil {
			log.Printf("Reload failed: %v", err)
			return
		}
		if err := win.SetVolume(vol); err != nil {
			log.Printf("Reload failed: %v", err)
		}
	})
	w.Start()
}
