package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/michalswi/jogjamap/config"
)

func TestNewServer(t *testing.T) {
	t.Parallel()
	h := http.NotFoundHandler()
	srv := NewServer(h, config.ServerConfig{
		Port:         "5050",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  2 * time.Minute,
	})

	require.Equal(t, "0.0.0.0:5050", srv.Addr)
	require.NotNil(t, srv.Handler)
	require.Equal(t, 5*time.Second, srv.ReadTimeout)
	require.Equal(t, 10*time.Second, srv.WriteTimeout)
	require.Equal(t, 2*time.Minute, srv.IdleTimeout)
}
