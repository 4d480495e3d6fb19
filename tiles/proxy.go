package tiles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/michalswi/jogjamap/observability"
)

const userAgent = "jogjamap/1.0 (+https://github.com/michalswi/jogjamap)"

// maxTileBytes bounds a single upstream response.
const maxTileBytes = 4 << 20

type tile struct {
	body         []byte
	contentType  string
	cacheControl string
}

// Proxy serves /tiles/{style}/{z}/{x}/{y} from the upstream providers.
// Concurrent requests for the same tile share one upstream fetch.
type Proxy struct {
	client   *http.Client
	logger   *zap.Logger
	upstream func(s Style, z, x, y int) string
	group    singleflight.Group
}

// Option customises a Proxy.
type Option func(*Proxy)

// WithUpstream overrides how upstream tile URLs are built.
func WithUpstream(fn func(s Style, z, x, y int) string) Option {
	return func(p *Proxy) { p.upstream = fn }
}

// NewProxy returns a tile proxy fetching through client.
func NewProxy(client *http.Client, logger *zap.Logger, opts ...Option) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	p := &Proxy{
		client: client,
		logger: observability.OrNop(logger),
		upstream: func(s Style, z, x, y int) string {
			return s.Upstream(z, x, y)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Routes mounts the proxy on a chi router.
func (p *Proxy) Routes(r chi.Router) {
	r.Get("/tiles/{style}/{z}/{x}/{y}", p.ServeHTTP)
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	style, err := ParseStyle(chi.URLParam(r, "style"))
	if err != nil {
		observability.WriteError(w, r, http.StatusNotFound, "unknown_style", err.Error())
		return
	}
	z, x, y, err := parseTile(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		observability.WriteError(w, r, http.StatusBadRequest, "invalid_tile", err.Error())
		return
	}

	target := p.upstream(style, z, x, y)
	v, err, shared := p.group.Do(target, func() (any, error) {
		return p.fetch(context.WithoutCancel(r.Context()), target)
	})
	if err != nil {
		p.logger.Warn("tile fetch failed",
			zap.String("style", style.String()),
			zap.Int("z", z), zap.Int("x", x), zap.Int("y", y),
			zap.Error(err),
		)
		observability.WriteError(w, r, http.StatusBadGateway, "upstream_failed", "tile provider unavailable")
		return
	}
	t := v.(*tile)
	p.logger.Debug("tile served", zap.String("style", style.String()), zap.Bool("shared", shared))

	if t.contentType != "" {
		w.Header().Set("Content-Type", t.contentType)
	}
	if t.cacheControl != "" {
		w.Header().Set("Cache-Control", t.cacheControl)
	} else {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(t.body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(t.body)
}

func (p *Proxy) fetch(ctx context.Context, target string) (*tile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return nil, fmt.Errorf("read tile: %w", err)
	}
	return &tile{
		body:         body,
		contentType:  resp.Header.Get("Content-Type"),
		cacheControl: resp.Header.Get("Cache-Control"),
	}, nil
}

func parseTile(zs, xs, ys string) (z, x, y int, err error) {
	if z, err = strconv.Atoi(zs); err != nil || z < 0 || z > MaxZoom {
		return 0, 0, 0, fmt.Errorf("invalid zoom %q", zs)
	}
	limit := 1 << z
	if x, err = strconv.Atoi(xs); err != nil || x < 0 || x >= limit {
		return 0, 0, 0, fmt.Errorf("invalid x %q", xs)
	}
	if y, err = strconv.Atoi(ys); err != nil || y < 0 || y >= limit {
		return 0, 0, 0, fmt.Errorf("invalid y %q", ys)
	}
	return z, x, y, nil
}
