// Package mapview holds the state of one interactive map of Yogyakarta: base
// layer, marker clusters, category filter, selection, sidebars and the user's
// position. A browser renderer draws it by executing the Commands a Viewer
// emits and reports back through the Handle methods.
package mapview

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/michalswi/jogjamap/dataset"
	"github.com/michalswi/jogjamap/tiles"
)

const (
	MinZoom     = 10
	MaxZoom     = 18
	DefaultZoom = 13
	// FocusZoom is where a selected location is shown. Markers are never
	// clustered at this zoom unless they sit on top of each other.
	FocusZoom = 17

	maxBoundsViscosity = 0.8
)

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownCluster  = errors.New("unknown cluster")
	ErrClosed          = errors.New("viewer closed")
)

// Options configure a Viewer. The zero value is usable.
type Options struct {
	Locale    dataset.Locale
	Theme     Theme
	Satellite bool
	// TileURL maps a base style to the URL template the renderer loads tiles
	// from. Defaults to the upstream templates.
	TileURL func(tiles.Style) string
	// Container is the initial size of the map container, if known.
	Container Size
	Clock     Clock
	Logger    *zap.Logger
	// OnSelectionChange is called after every selection change with a copy of
	// the new selection, nil when cleared. It runs without the viewer lock.
	OnSelectionChange func(*dataset.Location)
}

// Viewer is one mounted map. All methods are safe for concurrent use.
type Viewer struct {
	mu     sync.Mutex
	ds     *dataset.Dataset
	emit   Emitter
	clock  Clock
	logger *zap.Logger
	canvas *Canvas

	onSelect func(*dataset.Location)
	tileURL  func(tiles.Style) string

	locale      dataset.Locale
	theme       Theme
	satellite   bool
	fullscreen  bool
	base        *TileLayer
	resizeTimer Timer

	filter   CategorySet
	clusters clusterEngine
	selected *dataset.Location
	detail   detailState
	search   searchState
	user     userLocation

	// after holds callbacks queued under the lock, run once it is released.
	after  []func()
	closed bool
}

// New mounts a map over ds. The canvas is created bounded to Yogyakarta with
// every category visible and nothing selected.
func New(ds *dataset.Dataset, emit Emitter, opts Options) (*Viewer, error) {
	if ds == nil {
		return nil, errors.New("mapview: nil dataset")
	}
	if emit == nil {
		return nil, errors.New("mapview: nil emitter")
	}
	if opts.Locale == "" {
		opts.Locale = dataset.DefaultLocale
	}
	if _, err := dataset.ParseLocale(string(opts.Locale)); err != nil {
		return nil, err
	}
	if opts.Theme == "" {
		opts.Theme = ThemeLight
	}
	if _, err := ParseTheme(string(opts.Theme)); err != nil {
		return nil, err
	}
	if opts.TileURL == nil {
		opts.TileURL = tiles.Style.URLTemplate
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	v := &Viewer{
		ds:        ds,
		emit:      emit,
		clock:     opts.Clock,
		logger:    opts.Logger,
		onSelect:  opts.OnSelectionChange,
		tileURL:   opts.TileURL,
		locale:    opts.Locale,
		theme:     opts.Theme,
		satellite: opts.Satellite,
		filter:    AllCategories(),
		detail:    detailState{tab: TabInfo},
	}
	v.canvas = newCanvas(MapOptions{
		Center:             dataset.CityCenter,
		Zoom:               DefaultZoom,
		MinZoom:            MinZoom,
		MaxZoom:            MaxZoom,
		MaxBounds:          dataset.OperationalBounds,
		MaxBoundsViscosity: maxBoundsViscosity,
	}, opts.Container, v.clock, emit)
	v.applyBaseLayer()
	v.rebuildClusters()
	v.renderClusters()

	v.logger.Info("viewer created",
		zap.Int("locations", ds.Len()),
		zap.String("locale", string(v.locale)),
		zap.String("theme", string(v.theme)),
	)
	return v, nil
}

// locked runs fn under the viewer lock and then the callbacks it queued.
func (v *Viewer) locked(fn func() error) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	err := fn()
	after := v.after
	v.after = nil
	v.mu.Unlock()

	for _, f := range after {
		f()
	}
	return err
}

// Close unmounts the map: the pending size refresh is cancelled and every
// layer, the user marker included, is removed. Later calls return ErrClosed.
func (v *Viewer) Close() error {
	return v.locked(func() error {
		if v.resizeTimer != nil {
			v.resizeTimer.Stop()
			v.resizeTimer = nil
		}
		v.canvas.Destroy()
		v.base = nil
		v.clusters.layer = nil
		v.user = userLocation{}
		v.selected = nil
		v.onSelect = nil
		v.closed = true
		v.logger.Info("viewer closed")
		return nil
	})
}

// SetLocale switches the display language. Search results are recomputed
// because matching only looks at the current language.
func (v *Viewer) SetLocale(locale dataset.Locale) error {
	if _, err := dataset.ParseLocale(string(locale)); err != nil {
		return err
	}
	return v.locked(func() error {
		if v.locale == locale {
			return nil
		}
		v.locale = locale
		if v.search.query != "" {
			v.search.results = Search(v.ds, v.search.query, locale)
		}
		return nil
	})
}

// Locale returns the display language.
func (v *Viewer) Locale() dataset.Locale {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locale
}

// SearchResult is a search hit as listed in the sidebar.
type SearchResult struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Address  string           `json:"address"`
	Category dataset.Category `json:"category"`
	Color    string           `json:"color"`
	Icon     string           `json:"icon"`
}

// NewSearchResult lists loc the way the search sidebar shows it.
func NewSearchResult(loc dataset.Location, locale dataset.Locale) SearchResult {
	meta := loc.Category.Meta()
	return SearchResult{
		ID:       loc.ID,
		Name:     loc.Name.Display(locale),
		Address:  loc.Address.Display(locale),
		Category: loc.Category,
		Color:    meta.Color,
		Icon:     meta.Icon,
	}
}

// State is the viewer snapshot the host page renders its controls from.
type State struct {
	Locale           dataset.Locale     `json:"locale"`
	Theme            Theme              `json:"theme"`
	Satellite        bool               `json:"satellite"`
	BaseLayer        string             `json:"baseLayer"`
	Fullscreen       bool               `json:"fullscreen"`
	Center           LatLng             `json:"center"`
	Zoom             int                `json:"zoom"`
	ActiveCategories []dataset.Category `json:"activeCategories"`
	Selected         *string            `json:"selected"`
	Detail           *DetailView        `json:"detail,omitempty"`
	SearchOpen       bool               `json:"searchOpen"`
	SearchCollapsed  bool               `json:"searchCollapsed"`
	Query            string             `json:"query"`
	Results          []SearchResult     `json:"results"`
	UserPosition     *Position          `json:"userPosition,omitempty"`
	// DistanceMeters is from the user's position to the selected location.
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
}

// State returns a snapshot of the viewer.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := State{
		Locale:           v.locale,
		Theme:            v.theme,
		Satellite:        v.satellite,
		Fullscreen:       v.fullscreen,
		Center:           v.canvas.Center(),
		Zoom:             v.canvas.Zoom(),
		ActiveCategories: v.filter.List(),
		SearchOpen:       v.search.open,
		SearchCollapsed:  v.search.collapsed,
		Query:            v.search.query,
		Results:          make([]SearchResult, 0, len(v.search.results)),
	}
	if v.base != nil {
		s.BaseLayer = v.base.Style.String()
	}
	for _, r := range v.search.results {
		s.Results = append(s.Results, NewSearchResult(r, v.locale))
	}
	if v.selected != nil {
		id := v.selected.ID
		detail := v.detailView(*v.selected)
		s.Selected = &id
		s.Detail = &detail
	}
	if v.user.position != nil {
		pos := *v.user.position
		s.UserPosition = &pos
		if v.selected != nil {
			d := DistanceMeters(LatLng{Lat: pos.Lat, Lng: pos.Lng}, v.selected.Coordinates)
			s.DistanceMeters = &d
		}
	}
	return s
}
