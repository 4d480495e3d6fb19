package mapview

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/michalswi/jogjamap/tiles"
)

// Theme is the site color theme supplied by the host page.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// TileStyleFor picks the base layer. Satellite imagery ignores the theme.
func TileStyleFor(theme Theme, satellite bool) tiles.Style {
	if satellite {
		return tiles.Satellite
	}
	if theme == ThemeDark {
		return tiles.Dark
	}
	return tiles.Light
}

// TileLayer is the base map.
type TileLayer struct {
	Style       tiles.Style
	URL         string
	Attribution string
}

func newTileLayer(style tiles.Style, url func(tiles.Style) string) *TileLayer {
	return &TileLayer{Style: style, URL: url(style), Attribution: style.Attribution()}
}

func (l *TileLayer) ID() string      { return "tile:" + l.Style.String() }
func (l *TileLayer) Kind() LayerKind { return KindTile }

func (l *TileLayer) View(int) any {
	return struct {
		Style         string `json:"style"`
		URL           string `json:"url"`
		Attribution   string `json:"attribution"`
		MaxNativeZoom int    `json:"maxNativeZoom"`
	}{l.Style.String(), l.URL, l.Attribution, tiles.MaxZoom}
}

// applyBaseLayer makes the attached base layer match theme and satellite mode.
func (v *Viewer) applyBaseLayer() {
	style := TileStyleFor(v.theme, v.satellite)
	if v.base != nil && v.base.Style == style {
		return
	}
	next := newTileLayer(style, v.tileURL)
	if v.base == nil {
		v.canvas.AddLayer(next)
	} else {
		v.canvas.ReplaceLayer(v.base.ID(), next)
	}
	v.base = next
}

// BaseLayer returns the attached base layer's style.
func (v *Viewer) BaseLayer() tiles.Style {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.base == nil {
		return 0
	}
	return v.base.Style
}

// SetTheme switches between the light and dark basemaps.
func (v *Viewer) SetTheme(theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	return v.locked(func() error {
		v.theme = theme
		v.applyBaseLayer()
		return nil
	})
}

// SetSatellite turns satellite imagery on or off.
func (v *Viewer) SetSatellite(on bool) error {
	return v.locked(func() error {
		v.satellite = on
		v.applyBaseLayer()
		return nil
	})
}

// ToggleSatellite flips satellite imagery.
func (v *Viewer) ToggleSatellite() error {
	return v.locked(func() error {
		v.satellite = !v.satellite
		v.applyBaseLayer()
		return nil
	})
}

// ToggleFullscreen asks the browser to enter or leave fullscreen on the map
// container. The flag itself only changes in HandleFullscreenChange.
func (v *Viewer) ToggleFullscreen() error {
	return v.locked(func() error {
		if v.fullscreen {
			v.emit.Emit(Command{Type: CmdFullscreenExit})
		} else {
			v.emit.Emit(Command{Type: CmdFullscreenRequest})
		}
		return nil
	})
}

// HandleFullscreenResult reports how the browser settled a fullscreen
// request or exit. A failure is surfaced to the user and nothing else changes.
func (v *Viewer) HandleFullscreenResult(failure string) error {
	return v.locked(func() error {
		if failure == "" {
			return nil
		}
		v.logger.Warn("fullscreen request rejected", zap.String("reason", failure))
		v.notify("error", "fullscreen", msgFullscreenFailed)
		return nil
	})
}

// HandleFullscreenChange applies the browser's fullscreenchange notification,
// whether it came from ToggleFullscreen or from the user pressing escape.
// The engine's size cache is refreshed once the transition has settled.
func (v *Viewer) HandleFullscreenChange(active bool, container Size) error {
	return v.locked(func() error {
		v.fullscreen = active
		v.canvas.SetContainerSize(container)
		v.scheduleInvalidate()
		return nil
	})
}

// HandleResize records a container resize that is not a fullscreen change.
// A size the engine already has is ignored.
func (v *Viewer) HandleResize(container Size) error {
	return v.locked(func() error {
		if v.resizeTimer == nil && container == v.canvas.Size() {
			return nil
		}
		v.canvas.SetContainerSize(container)
		v.scheduleInvalidate()
		return nil
	})
}

func (v *Viewer) scheduleInvalidate() {
	if v.resizeTimer != nil {
		v.resizeTimer.Stop()
	}
	v.resizeTimer = v.clock.AfterFunc(SizeInvalidateDelay, func() {
		_ = v.locked(func() error {
			v.resizeTimer = nil
			v.canvas.InvalidateSize()
			return nil
		})
	})
}

// ZoomIn zooms one level in; at the maximum zoom it does nothing.
func (v *Viewer) ZoomIn() error {
	return v.locked(func() error {
		if v.canvas.SetZoom(v.canvas.Zoom() + 1) {
			v.renderClusters()
		}
		return nil
	})
}

// ZoomOut zooms one level out; at the minimum zoom it does nothing.
func (v *Viewer) ZoomOut() error {
	return v.locked(func() error {
		if v.canvas.SetZoom(v.canvas.Zoom() - 1) {
			v.renderClusters()
		}
		return nil
	})
}

// HandleViewChange records where the user dragged or zoomed the map.
func (v *Viewer) HandleViewChange(center LatLng, zoom int) error {
	return v.locked(func() error {
		before := v.canvas.Zoom()
		v.canvas.SetView(center, zoom)
		if v.canvas.Zoom() != before {
			v.renderClusters()
		}
		return nil
	})
}

// Fullscreen reports the last confirmed fullscreen state.
func (v *Viewer) Fullscreen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fullscreen
}

// Camera returns the current center and target zoom.
func (v *Viewer) Camera() (LatLng, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canvas.Center(), v.canvas.Zoom()
}

// ViewportSize returns the engine's cached viewport size.
func (v *Viewer) ViewportSize() Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canvas.Size()
}

// Layers returns the canvas layers in attach order.
func (v *Viewer) Layers() []Layer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canvas.Layers()
}

const (
	// SizeInvalidateDelay lets a fullscreen transition finish before the
	// engine re-reads the container size.
	SizeInvalidateDelay = 200 * time.Millisecond
	FlyDuration         = 1500 * time.Millisecond
	PanDuration         = 250 * time.Millisecond
)
