package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/michalswi/jogjamap/config"
	"github.com/michalswi/jogjamap/observability"
	"github.com/michalswi/jogjamap/server"
	"github.com/michalswi/jogjamap/session"
	"github.com/michalswi/jogjamap/tiles"
)

// This is a web server for an interactive tourism map of Yogyakarta. Every
// browser tab opens a websocket session; the map state lives here and the page
// only draws what it is told to with Leaflet.js and OpenStreetMap tiles.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("init app", zap.Error(err))
	}

	srv := server.NewServer(a.routes(), cfg.Server)

	go func() {
		logger.Info("jogjamap started",
			zap.String("port", cfg.Server.Port),
			zap.Bool("tile_proxy", cfg.Tiles.Proxy),
			zap.Int("locations", a.store.get().Len()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	gracefulShutdown(srv, a.hub, logger)
}

// newApp builds the dataset store, the tile client and the session hub.
func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := newLocationStore(cfg.Map.DatasetPath, cfg.Map.DatasetReload, logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: store}

	tileURL := tiles.Style.URLTemplate
	if cfg.Tiles.Proxy {
		client, err := tiles.NewClient(cfg.Tiles.ProxyAddr)
		if err != nil {
			return nil, fmt.Errorf("tile client: %w", err)
		}
		if cfg.Tiles.ProxyAddr == "" {
			logger.Info("tile proxy enabled with a direct connection")
		} else {
			logger.Info("tile proxy enabled", zap.String("proxy_addr", redactProxy(cfg.Tiles.ProxyAddr)))
		}
		a.tiles = tiles.NewProxy(client, logger.Named("tiles"))
		tileURL = tiles.Style.ProxyTemplate
	}

	a.hub, err = session.NewHub(session.Config{
		Dataset:        store.get,
		Logger:         logger.Named("session"),
		Locale:         cfg.Map.Locale,
		Theme:          cfg.Map.Theme,
		TileURL:        tileURL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func gracefulShutdown(srv *http.Server, hub *session.Hub, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	// Hijacked websocket connections are not tracked by Shutdown.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("could not gracefully shutdown the server", zap.Error(err))
	}
	logger.Info("server stopped")
}

// redactProxy drops credentials from a proxy address before it is logged.
func redactProxy(addr string) string {
	scheme, rest, ok := strings.Cut(addr, "://")
	if !ok {
		return addr
	}
	if _, host, ok := strings.Cut(rest, "@"); ok {
		return scheme + "://***@" + host
	}
	return addr
}

// parseLocationString splits a "latitude,longitude" string into floats
func parseLocationString(locStr string) (lat, lon float64, err error) {
	parts := strings.Split(locStr, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid location format: %s", locStr)
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %s", parts[0])
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude out of range: %f", lat)
	}

	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %s", parts[1])
	}
	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("longitude out of range: %f", lon)
	}

	return lat, lon, nil
}
