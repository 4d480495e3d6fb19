package mapview

import (
	"math"

	"github.com/michalswi/jogjamap/dataset"
)

// LatLng is a map position.
type LatLng = dataset.Coordinates

// Size is a pixel extent of the map container or of the engine's viewport.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether s has no area.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

const tileSize = 256

// maxLatitude is where Web Mercator is cut off.
const maxLatitude = 85.0511287798

// point is a position in normalised Web Mercator space, both axes in [0, 1].
type point struct {
	x, y float64
}

func project(p LatLng) point {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, p.Lat))
	sin := math.Sin(lat * math.Pi / 180)
	return point{
		x: p.Lng/360 + 0.5,
		y: 0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi),
	}
}

func unproject(pt point) LatLng {
	n := math.Pi - 2*math.Pi*pt.y
	return LatLng{
		Lat: 180 / math.Pi * math.Atan(math.Sinh(n)),
		Lng: (pt.x - 0.5) * 360,
	}
}

// worldPixels is the width of the whole world in pixels at zoom.
func worldPixels(zoom float64) float64 {
	return tileSize * math.Exp2(zoom)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// boundsOf returns the smallest box holding every position.
func boundsOf(ps []LatLng) dataset.Bounds {
	if len(ps) == 0 {
		return dataset.Bounds{}
	}
	b := dataset.Bounds{SouthWest: ps[0], NorthEast: ps[0]}
	for _, p := range ps[1:] {
		b.SouthWest.Lat = math.Min(b.SouthWest.Lat, p.Lat)
		b.SouthWest.Lng = math.Min(b.SouthWest.Lng, p.Lng)
		b.NorthEast.Lat = math.Max(b.NorthEast.Lat, p.Lat)
		b.NorthEast.Lng = math.Max(b.NorthEast.Lng, p.Lng)
	}
	return b
}

// DistanceMeters returns the great-circle distance between a and b in meters.
func DistanceMeters(a, b LatLng) float64 {
	const earthRadius = 6371000.0
	rad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(h))
}
