// Package session serves live map sessions over websockets: every connected
// browser tab gets its own mapview.Viewer.
package session

import (
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/michalswi/jogjamap/dataset"
	"github.com/michalswi/jogjamap/mapview"
	"github.com/michalswi/jogjamap/observability"
	"github.com/michalswi/jogjamap/tiles"
)

// Config configures a Hub.
type Config struct {
	// Dataset returns the locations a new session starts with.
	Dataset func() *dataset.Dataset
	Logger  *zap.Logger
	// Locale and Theme apply when the connecting page does not ask for one.
	Locale dataset.Locale
	Theme  mapview.Theme
	// TileURL is handed to every viewer; see mapview.Options.
	TileURL func(tiles.Style) string
	// AllowedOrigins limits websocket origins. Empty or "*" allows any.
	AllowedOrigins []string
}

// Hub accepts websocket connections and tracks the live sessions.
type Hub struct {
	cfg      Config
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewHub validates cfg and returns a Hub ready to serve.
func NewHub(cfg Config) (*Hub, error) {
	if cfg.Dataset == nil {
		return nil, errors.New("session: dataset required")
	}
	if cfg.Locale == "" {
		cfg.Locale = dataset.DefaultLocale
	}
	if cfg.Theme == "" {
		cfg.Theme = mapview.ThemeLight
	}
	h := &Hub{
		cfg:      cfg,
		logger:   observability.OrNop(cfg.Logger),
		sessions: map[string]*Session{},
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
	}
	return h, nil
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// RequestLocale picks the locale for r: the lang query parameter, then the
// Accept-Language header, then fallback.
func RequestLocale(r *http.Request, fallback dataset.Locale) dataset.Locale {
	if l, err := dataset.ParseLocale(r.URL.Query().Get("lang")); err == nil {
		return l
	}
	if r.Header.Get("Accept-Language") != "" {
		return dataset.MatchLocale(r.Header.Get("Accept-Language"))
	}
	return fallback
}

// RequestTheme picks the theme from the theme query parameter.
func RequestTheme(r *http.Request, fallback mapview.Theme) mapview.Theme {
	if t, err := mapview.ParseTheme(r.URL.Query().Get("theme")); err == nil {
		return t
	}
	return fallback
}

// ServeHTTP upgrades the request and runs a session until the browser leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		observability.WriteError(w, r, http.StatusServiceUnavailable, "shutting_down", "server is shutting down")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	logger := h.logger.With(zap.String("session", id))
	s := newSession(id, conn, h, logger)
	s.Emit(mapview.Command{Type: CmdHello, Data: struct {
		Session string `json:"session"`
	}{id}})

	v, err := mapview.New(h.cfg.Dataset(), s, mapview.Options{
		Locale:  RequestLocale(r, h.cfg.Locale),
		Theme:   RequestTheme(r, h.cfg.Theme),
		TileURL: h.cfg.TileURL,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("create viewer", zap.Error(err))
		_ = conn.Close()
		return
	}
	if !s.attach(v) {
		_ = v.Close()
		_ = conn.Close()
		return
	}

	if !h.add(s) {
		_ = v.Close()
		_ = conn.Close()
		return
	}
	logger.Info("session opened", zap.String("remote_addr", r.RemoteAddr))

	go s.writePump()
	s.pushState()
	go s.readLoop()
}

func (h *Hub) add(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s.id] = s
	return true
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close ends every session and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.shutdown("server shutdown")
	}
	h.logger.Info("session hub closed", zap.Int("sessions", len(sessions)))
}
