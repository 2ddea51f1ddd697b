package httpserver

import (
	"net/http"

	"verigate/internal/platform/config"
)

// New builds the http.Server with sane timeouts. Handler wiring lives in the
// transport layer; lifecycle management lives in main.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
