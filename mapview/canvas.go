package mapview

import (
	"slices"
	"time"

	"github.com/michalswi/jogjamap/dataset"
)

// LayerKind tells the renderer how to draw a layer.
type LayerKind string

const (
	KindTile           LayerKind = "tile"
	KindCluster        LayerKind = "cluster"
	KindUserMarker     LayerKind = "user-marker"
	KindAccuracyCircle LayerKind = "accuracy-circle"
)

// Layer is anything attached to the canvas.
type Layer interface {
	ID() string
	Kind() LayerKind
	// View is the renderer payload for the layer at the given zoom.
	View(zoom int) any
}

type layerView struct {
	Kind LayerKind `json:"kind"`
	View any       `json:"view"`
}

// MapOptions is sent once when the canvas is created.
type MapOptions struct {
	Center             LatLng         `json:"center"`
	Zoom               int            `json:"zoom"`
	MinZoom            int            `json:"minZoom"`
	MaxZoom            int            `json:"maxZoom"`
	MaxBounds          dataset.Bounds `json:"maxBounds"`
	MaxBoundsViscosity float64        `json:"maxBoundsViscosity"`
	ZoomControl        bool           `json:"zoomControl"`
}

// defaultViewport stands in for the viewport until the renderer reports one.
var defaultViewport = Size{Width: 1024, Height: 768}

// camera is the current view plus an optional in-flight animation from
// "from" to "to". Zoom is the target zoom.
type camera struct {
	from, to LatLng
	zoom     int
	start    time.Time
	duration time.Duration
}

func (c camera) center(now time.Time) LatLng {
	if c.duration <= 0 {
		return c.to
	}
	elapsed := now.Sub(c.start)
	if elapsed >= c.duration {
		return c.to
	}
	if elapsed <= 0 {
		return c.from
	}
	t := easeInOut(float64(elapsed) / float64(c.duration))
	return LatLng{
		Lat: lerp(c.from.Lat, c.to.Lat, t),
		Lng: lerp(c.from.Lng, c.to.Lng, t),
	}
}

func (c camera) moving(now time.Time) bool {
	return c.duration > 0 && now.Sub(c.start) < c.duration
}

func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	f := 2*t - 2
	return 1 + f*f*f/2
}

// Canvas is the map engine instance: attached layers, camera and the engine's
// cached viewport size. It is not safe for concurrent use; Viewer serialises
// access to it.
type Canvas struct {
	clock     Clock
	emit      Emitter
	opts      MapOptions
	layers    []Layer
	cam       camera
	size      Size
	container Size
	destroyed bool
}

func newCanvas(opts MapOptions, container Size, clock Clock, emit Emitter) *Canvas {
	c := &Canvas{
		clock:     clock,
		emit:      emit,
		opts:      opts,
		cam:       camera{from: opts.Center, to: opts.Center, zoom: opts.Zoom},
		size:      container,
		container: container,
	}
	emit.Emit(Command{Type: CmdMapInit, Data: opts})
	return c
}

// Layers returns the attached layers in attach order.
func (c *Canvas) Layers() []Layer {
	return slices.Clone(c.layers)
}

// LayersOf returns the attached layers of one kind.
func (c *Canvas) LayersOf(kind LayerKind) []Layer {
	var out []Layer
	for _, l := range c.layers {
		if l.Kind() == kind {
			out = append(out, l)
		}
	}
	return out
}

// HasLayer reports whether a layer with id is attached.
func (c *Canvas) HasLayer(id string) bool {
	return c.indexOf(id) >= 0
}

func (c *Canvas) indexOf(id string) int {
	return slices.IndexFunc(c.layers, func(l Layer) bool { return l.ID() == id })
}

// AddLayer attaches l unless it is already attached.
func (c *Canvas) AddLayer(l Layer) {
	if c.destroyed || c.HasLayer(l.ID()) {
		return
	}
	c.layers = append(c.layers, l)
	c.emit.Emit(Command{
		Type:  CmdLayerAdd,
		Layer: l.ID(),
		Data:  layerView{Kind: l.Kind(), View: l.View(c.cam.zoom)},
	})
}

// RemoveLayer detaches the layer with id, if attached.
func (c *Canvas) RemoveLayer(id string) {
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	c.layers = slices.Delete(c.layers, i, i+1)
	c.emit.Emit(Command{Type: CmdLayerRemove, Layer: id})
}

// ReplaceLayer detaches oldID and attaches next as one renderer step, so the
// two are never attached together.
func (c *Canvas) ReplaceLayer(oldID string, next Layer) {
	if c.destroyed {
		return
	}
	i := c.indexOf(oldID)
	if i < 0 {
		c.AddLayer(next)
		return
	}
	c.layers = slices.Delete(c.layers, i, i+1)
	c.layers = append(c.layers, next)
	c.emit.Emit(Command{
		Type:     CmdLayerReplace,
		Layer:    next.ID(),
		Replaces: oldID,
		Data:     layerView{Kind: next.Kind(), View: next.View(c.cam.zoom)},
	})
}

// Zoom returns the camera's target zoom.
func (c *Canvas) Zoom() int {
	return c.cam.zoom
}

// Center returns the camera center, mid-flight positions included.
func (c *Canvas) Center() LatLng {
	return c.cam.center(c.clock.Now())
}

// Moving reports whether a camera animation is in progress.
func (c *Canvas) Moving() bool {
	return c.cam.moving(c.clock.Now())
}

// Target returns where the camera is heading.
func (c *Canvas) Target() LatLng {
	return c.cam.to
}

func (c *Canvas) clampZoom(z int) int {
	return max(c.opts.MinZoom, min(c.opts.MaxZoom, z))
}

// FlyTo starts an animated flight to p at zoom. A flight already under way is
// abandoned and the new one starts from wherever the camera is now.
func (c *Canvas) FlyTo(p LatLng, zoom int, d time.Duration) {
	c.move(CmdCameraFly, p, c.clampZoom(zoom), d)
}

// PanTo moves the center to p keeping the zoom.
func (c *Canvas) PanTo(p LatLng, d time.Duration) {
	c.move(CmdCameraPan, p, c.cam.zoom, d)
}

func (c *Canvas) move(kind CommandType, p LatLng, zoom int, d time.Duration) {
	if c.destroyed {
		return
	}
	now := c.clock.Now()
	c.cam = camera{
		from:     c.cam.center(now),
		to:       p,
		zoom:     zoom,
		start:    now,
		duration: d,
	}
	c.emit.Emit(Command{Type: kind, Data: cameraMove{Center: p, Zoom: zoom, Duration: d.Seconds()}})
}

// SetZoom changes the zoom around the current center. It reports whether the
// zoom changed; requests beyond the zoom limits are no-ops.
func (c *Canvas) SetZoom(z int) bool {
	if c.destroyed || z < c.opts.MinZoom || z > c.opts.MaxZoom || z == c.cam.zoom {
		return false
	}
	now := c.clock.Now()
	center := c.cam.center(now)
	c.cam = camera{from: center, to: center, zoom: z}
	c.emit.Emit(Command{Type: CmdCameraZoom, Data: cameraMove{Center: center, Zoom: z}})
	return true
}

// FitBounds moves the camera to the deepest zoom showing all of b.
func (c *Canvas) FitBounds(b dataset.Bounds, padding int, d time.Duration) int {
	zoom := c.fitZoom(b, padding)
	c.move(CmdCameraFit, b.Center(), zoom, d)
	return zoom
}

func (c *Canvas) fitZoom(b dataset.Bounds, padding int) int {
	vp := c.Viewport()
	w := float64(vp.Width - 2*padding)
	h := float64(vp.Height - 2*padding)
	sw, ne := project(b.SouthWest), project(b.NorthEast)
	dx, dy := ne.x-sw.x, sw.y-ne.y
	for z := c.opts.MaxZoom; z > c.opts.MinZoom; z-- {
		scale := worldPixels(float64(z))
		if dx*scale <= w && dy*scale <= h {
			return z
		}
	}
	return c.opts.MinZoom
}

// SetView records a camera position the renderer arrived at on its own, such
// as a user drag or wheel zoom. Nothing is emitted.
func (c *Canvas) SetView(center LatLng, zoom int) {
	c.cam = camera{from: center, to: center, zoom: c.clampZoom(zoom)}
}

// SetContainerSize records the container's current pixel size. The engine
// keeps using its cached size until InvalidateSize.
func (c *Canvas) SetContainerSize(s Size) {
	if !s.Empty() {
		c.container = s
	}
}

// ContainerSize returns the last reported container size.
func (c *Canvas) ContainerSize() Size {
	return c.container
}

// InvalidateSize refreshes the engine's size cache from the container.
func (c *Canvas) InvalidateSize() {
	if c.destroyed {
		return
	}
	c.size = c.container
	c.emit.Emit(Command{Type: CmdInvalidateSize, Data: c.size})
}

// Size returns the engine's cached viewport size.
func (c *Canvas) Size() Size {
	return c.size
}

// Viewport is Size with a fallback for a renderer that has not reported yet.
func (c *Canvas) Viewport() Size {
	if c.size.Empty() {
		return defaultViewport
	}
	return c.size
}

// Destroy detaches every layer and tells the renderer to drop the map.
func (c *Canvas) Destroy() {
	if c.destroyed {
		return
	}
	for i := len(c.layers) - 1; i >= 0; i-- {
		c.emit.Emit(Command{Type: CmdLayerRemove, Layer: c.layers[i].ID()})
	}
	c.layers = nil
	c.destroyed = true
	c.emit.Emit(Command{Type: CmdMapDestroy})
}
