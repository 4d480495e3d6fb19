package mapview

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// GeolocationTimeout bounds the single position request.
const GeolocationTimeout = 10 * time.Second

// Position is a reported user position; Accuracy is a radius in meters.
type Position struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
}

func (p Position) valid() bool {
	finite := func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
	return finite(p.Lat) && finite(p.Lng) && finite(p.Accuracy) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 && p.Accuracy >= 0
}

// GeoErrorClass groups geolocation failures for the user message.
type GeoErrorClass string

const (
	GeoPermissionDenied    GeoErrorClass = "permission-denied"
	GeoPositionUnavailable GeoErrorClass = "position-unavailable"
	GeoTimeout             GeoErrorClass = "timeout"
	GeoUnsupported         GeoErrorClass = "unsupported"
	GeoUnknown             GeoErrorClass = "unknown"
)

// Browser GeolocationPositionError codes, plus 0 for a missing API.
const (
	GeoCodeUnsupported         = 0
	GeoCodePermissionDenied    = 1
	GeoCodePositionUnavailable = 2
	GeoCodeTimeout             = 3
)

// ClassifyGeoError maps a browser error code to its class.
func ClassifyGeoError(code int) GeoErrorClass {
	switch code {
	case GeoCodeUnsupported:
		return GeoUnsupported
	case GeoCodePermissionDenied:
		return GeoPermissionDenied
	case GeoCodePositionUnavailable:
		return GeoPositionUnavailable
	case GeoCodeTimeout:
		return GeoTimeout
	}
	return GeoUnknown
}

func (c GeoErrorClass) message() message {
	switch c {
	case GeoPermissionDenied:
		return msgGeoPermissionDenied
	case GeoPositionUnavailable:
		return msgGeoUnavailable
	case GeoTimeout:
		return msgGeoTimeout
	case GeoUnsupported:
		return msgGeoUnsupported
	}
	return msgGeoUnknown
}

// UserMarker marks the user's position.
type UserMarker struct {
	id       string
	Position LatLng
}

func (m *UserMarker) ID() string      { return m.id }
func (m *UserMarker) Kind() LayerKind { return KindUserMarker }
func (m *UserMarker) View(int) any {
	return struct {
		Position LatLng `json:"position"`
	}{m.Position}
}

// AccuracyCircle is the translucent disc around the user marker.
type AccuracyCircle struct {
	id     string
	Center LatLng
	Radius float64
}

func (c *AccuracyCircle) ID() string      { return c.id }
func (c *AccuracyCircle) Kind() LayerKind { return KindAccuracyCircle }
func (c *AccuracyCircle) View(int) any {
	return struct {
		Center      LatLng  `json:"center"`
		Radius      float64 `json:"radius"`
		Color       string  `json:"color"`
		FillOpacity float64 `json:"fillOpacity"`
	}{c.Center, c.Radius, "#3B82F6", 0.15}
}

type userLocation struct {
	position *Position
	marker   *UserMarker
	circle   *AccuracyCircle
	seq      int
}

// Locate asks the browser for one fresh, high-accuracy position.
func (v *Viewer) Locate() error {
	return v.locked(func() error {
		v.emit.Emit(Command{Type: CmdGeolocate, Data: struct {
			EnableHighAccuracy bool  `json:"enableHighAccuracy"`
			Timeout            int64 `json:"timeout"`
			MaximumAge         int64 `json:"maximumAge"`
		}{true, GeolocationTimeout.Milliseconds(), 0}})
		return nil
	})
}

// HandlePosition pans to a successful position fix and redraws the user
// marker and accuracy circle, replacing any earlier pair.
func (v *Viewer) HandlePosition(p Position) error {
	if !p.valid() {
		return fmt.Errorf("invalid position %+v", p)
	}
	return v.locked(func() error {
		at := LatLng{Lat: p.Lat, Lng: p.Lng}
		v.canvas.PanTo(at, PanDuration)

		if v.user.marker != nil {
			v.canvas.RemoveLayer(v.user.marker.ID())
		}
		if v.user.circle != nil {
			v.canvas.RemoveLayer(v.user.circle.ID())
		}
		v.user.seq++
		v.user.marker = &UserMarker{id: fmt.Sprintf("user:marker:%d", v.user.seq), Position: at}
		v.user.circle = &AccuracyCircle{id: fmt.Sprintf("user:accuracy:%d", v.user.seq), Center: at, Radius: p.Accuracy}
		v.canvas.AddLayer(v.user.marker)
		v.canvas.AddLayer(v.user.circle)

		pos := p
		v.user.position = &pos
		return nil
	})
}

// HandlePositionError reports a failed position request to the user. The
// map is left exactly as it was.
func (v *Viewer) HandlePositionError(code int, detail string) (GeoErrorClass, error) {
	class := ClassifyGeoError(code)
	err := v.locked(func() error {
		v.logger.Info("geolocation failed",
			zap.String("class", string(class)),
			zap.Int("code", code),
			zap.String("detail", detail),
		)
		v.notify("error", "geolocation."+string(class), class.message())
		return nil
	})
	return class, err
}

// UserPosition returns the last successful position fix.
func (v *Viewer) UserPosition() (Position, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.user.position == nil {
		return Position{}, false
	}
	return *v.user.position, true
}
