package main

import (
	_ "embed"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/michalswi/jogjamap/config"
	"github.com/michalswi/jogjamap/dataset"
	"github.com/michalswi/jogjamap/mapview"
	"github.com/michalswi/jogjamap/observability"
	"github.com/michalswi/jogjamap/session"
	"github.com/michalswi/jogjamap/tiles"
)

//go:embed robots.txt
var robotsTxt []byte

type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  *locationStore
	hub    *session.Hub
	// tiles is nil unless the tile proxy is on.
	tiles *tiles.Proxy
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(a.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", a.oms)
	r.Get("/hz", hz)
	r.Get("/robots.txt", robots)
	r.Handle("/ws", a.hub)
	if a.tiles != nil {
		a.tiles.Routes(r)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: a.cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			MaxAge:         300,
		}).Handler)
		r.Get("/locations", a.listLocations)
		r.Get("/locations/{id}", a.getLocation)
		r.Get("/categories", a.listCategories)
		r.Get("/search", a.search)
	})
	return r
}

func hz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(robotsTxt)
}

// oms renders the map page. The page opens a session on /ws with the same
// lang and theme query parameters it was requested with.
func (a *app) oms(w http.ResponseWriter, r *http.Request) {
	locale := session.RequestLocale(r, a.cfg.Map.Locale)
	theme := session.RequestTheme(r, a.cfg.Map.Theme)
	data := pageData{
		Lang:  locale,
		Theme: theme,
		Text:  pageTextFor(locale),
		Boot: bootConfig{
			Locale:     locale,
			Theme:      theme,
			Socket:     "/ws",
			Categories: categoryViews(a.store.get(), locale),
			Text:       pageTextFor(locale),
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		a.logger.Error("render page", zap.Error(err))
	}
}

// locationStore hands out the dataset, re-reading the dataset file once its
// cached copy is older than ttl. The embedded dataset is never reloaded.
type locationStore struct {
	path   string
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
	group  singleflight.Group

	mu    sync.RWMutex
	ds    *dataset.Dataset
	stamp time.Time
}

func newLocationStore(path string, ttl time.Duration, logger *zap.Logger) (*locationStore, error) {
	s := &locationStore{
		path:   path,
		ttl:    ttl,
		logger: observability.OrNop(logger),
		now:    time.Now,
	}
	ds, err := s.load()
	if err != nil {
		return nil, err
	}
	s.ds = ds
	s.stamp = s.now()
	return s, nil
}

func (s *locationStore) load() (*dataset.Dataset, error) {
	if s.path == "" {
		return dataset.Default()
	}
	ds, err := dataset.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	return ds, nil
}

// get returns the cached dataset if the TTL has not expired, otherwise reloads
// it. A failed reload keeps serving the previous dataset until the next TTL.
func (s *locationStore) get() *dataset.Dataset {
	s.mu.RLock()
	ds := s.ds
	fresh := s.path == "" || s.ttl == 0 || s.now().Sub(s.stamp) < s.ttl
	s.mu.RUnlock()
	if fresh {
		return ds
	}

	v, _, _ := s.group.Do("reload", func() (any, error) {
		next, err := s.load()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.stamp = s.now()
		if err != nil {
			s.logger.Warn("dataset reload failed, keeping previous", zap.Error(err))
			return s.ds, nil
		}
		s.logger.Info("dataset reloaded", zap.String("path", s.path), zap.Int("locations", next.Len()))
		s.ds = next
		return next, nil
	})
	return v.(*dataset.Dataset)
}

type pageData struct {
	Lang  dataset.Locale
	Theme mapview.Theme
	Text  pageText
	Boot  bootConfig
}

// bootConfig is handed to the page script as JSON.
type bootConfig struct {
	Locale     dataset.Locale `json:"locale"`
	Theme      mapview.Theme  `json:"theme"`
	Socket     string         `json:"socket"`
	Categories []categoryView `json:"categories"`
	Text       pageText       `json:"text"`
}

type pageText struct {
	Title       string `json:"title"`
	Search      string `json:"search"`
	SearchHint  string `json:"searchHint"`
	NoResults   string `json:"noResults"`
	Categories  string `json:"categories"`
	Locate      string `json:"locate"`
	Satellite   string `json:"satellite"`
	Fullscreen  string `json:"fullscreen"`
	DarkMode    string `json:"darkMode"`
	LightMode   string `json:"lightMode"`
	Language    string `json:"language"`
	Info        string `json:"info"`
	Media       string `json:"media"`
	Related     string `json:"related"`
	Close       string `json:"close"`
	Collapse    string `json:"collapse"`
	Expand      string `json:"expand"`
	Distance    string `json:"distance"`
	Reconnect   string `json:"reconnect"`
	ZoomIn      string `json:"zoomIn"`
	ZoomOut     string `json:"zoomOut"`
	Locations   string `json:"locations"`
	NoneRelated string `json:"noneRelated"`
}

func pageTextFor(locale dataset.Locale) pageText {
	if locale == dataset.English {
		return pageText{
			Title:       "Yogyakarta Tourism Map",
			Search:      "Search",
			SearchHint:  "Search places, streets, descriptions…",
			NoResults:   "No places found.",
			Categories:  "Categories",
			Locate:      "My location",
			Satellite:   "Satellite",
			Fullscreen:  "Fullscreen",
			DarkMode:    "🌙 Dark Mode",
			LightMode:   "☀️ Light Mode",
			Language:    "Bahasa Indonesia",
			Info:        "Info",
			Media:       "Photos",
			Related:     "Related",
			Close:       "Close",
			Collapse:    "Collapse",
			Expand:      "Expand",
			Distance:    "Distance from you",
			Reconnect:   "Connection lost. Reconnecting…",
			ZoomIn:      "Zoom in",
			ZoomOut:     "Zoom out",
			Locations:   "places",
			NoneRelated: "No other places in this category.",
		}
	}
	return pageText{
		Title:       "Peta Wisata Yogyakarta",
		Search:      "Cari",
		SearchHint:  "Cari tempat, jalan, deskripsi…",
		NoResults:   "Tidak ada tempat yang cocok.",
		Categories:  "Kategori",
		Locate:      "Lokasi saya",
		Satellite:   "Satelit",
		Fullscreen:  "Layar penuh",
		DarkMode:    "🌙 Mode Gelap",
		LightMode:   "☀️ Mode Terang",
		Language:    "English",
		Info:        "Info",
		Media:       "Foto",
		Related:     "Terkait",
		Close:       "Tutup",
		Collapse:    "Ciutkan",
		Expand:      "Buka",
		Distance:    "Jarak dari Anda",
		Reconnect:   "Koneksi terputus. Menyambung ulang…",
		ZoomIn:      "Perbesar",
		ZoomOut:     "Perkecil",
		Locations:   "tempat",
		NoneRelated: "Tidak ada tempat lain dalam kategori ini.",
	}
}
