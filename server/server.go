package server

import (
	"net/http"

	"github.com/michalswi/jogjamap/config"
)

func NewServer(handler http.Handler, cfg config.ServerConfig) *http.Server {
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return srv
}
