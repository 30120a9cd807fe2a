package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. The read-header timeout bounds slow clients;
// per-request deadlines come from the router's timeout middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
