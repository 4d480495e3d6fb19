// Package tiles knows the base map styles and proxies their tiles through the
// configured upstream client.
package tiles

import (
	"fmt"
	"strconv"
	"strings"
)

// Style is one of the base map renderings.
type Style uint8

const (
	Light Style = iota + 1
	Dark
	Satellite
)

// MaxZoom is the deepest zoom any upstream serves.
const MaxZoom = 19

// Styles lists every style.
func Styles() []Style {
	return []Style{Light, Dark, Satellite}
}

func (s Style) String() string {
	switch s {
	case Light:
		return "light"
	case Dark:
		return "dark"
	case Satellite:
		return "satellite"
	}
	return "style(" + strconv.Itoa(int(s)) + ")"
}

// ParseStyle resolves a style name as used in proxy paths.
func ParseStyle(name string) (Style, error) {
	for _, s := range Styles() {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown tile style %q", name)
}

// URLTemplate is the upstream Leaflet-style URL template.
func (s Style) URLTemplate() string {
	switch s {
	case Light:
		return "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	case Dark:
		return "https://basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png"
	case Satellite:
		return "https://mt1.google.com/vt/lyrs=s&x={x}&y={y}&z={z}"
	}
	return ""
}

// Attribution is the credit line shown on the map.
func (s Style) Attribution() string {
	switch s {
	case Light:
		return "© OpenStreetMap contributors"
	case Dark:
		return "© OpenStreetMap contributors © CARTO"
	case Satellite:
		return "© Google Maps"
	}
	return ""
}

// ProxyTemplate is the local path template served by Proxy.
func (s Style) ProxyTemplate() string {
	return "/tiles/" + s.String() + "/{z}/{x}/{y}"
}

// Upstream fills the style's template for one tile.
func (s Style) Upstream(z, x, y int) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	)
	return r.Replace(s.URLTemplate())
}
