package httpserver

import (
	"net/http"

	"chargeroute/backend/services/optimizer-service/internal/http/handlers"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	OptimizeHandler *handlers.OptimizeHandler
	HealthHandler   http.HandlerFunc
	HelloHandler    http.HandlerFunc
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter wires HTTP routes.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))
	mux.Handle("/api/hello", method(http.MethodGet, deps.HelloHandler))

	optimize := http.HandlerFunc(deps.OptimizeHandler.Optimize)
	mux.Handle("/api/postocompleto", method(http.MethodPost, optimize))
	mux.Handle("/api/stations/optimized", method(http.MethodPost, optimize))

	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.MetricsHandler))
	}

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
