// Package httpapi exposes the rank, auth, and temp cache operations as a JSON
// HTTP surface.
package httpapi

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kevinchn/rankboard/internal/services/auth"
	"github.com/kevinchn/rankboard/internal/services/rank/cache"
	"github.com/kevinchn/rankboard/internal/services/rank/service"
)

// DefaultTempPrefix namespaces operator temp entries in the key-value cache.
const DefaultTempPrefix = "temp:"

// Server holds the handler dependencies for the JSON API.
type Server struct {
	rank       *service.Service
	sessions   *auth.Service
	kv         cache.KV
	tempPrefix string
}

// Option adjusts Server construction.
type Option func(*Server)

// WithTempPrefix overrides the temp entry key prefix.
func WithTempPrefix(prefix string) Option {
	return func(s *Server) {
		if prefix != "" {
			s.tempPrefix = prefix
		}
	}
}

// New builds an API server over the rank service, session service, and
// key-value cache.
func New(rank *service.Service, sessions *auth.Service, kv cache.KV, opts ...Option) *Server {
	s := &Server{
		rank:       rank,
		sessions:   sessions,
		kv:         kv,
		tempPrefix: DefaultTempPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler with tracing instrumentation.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /rank/add", s.handleRankAdd)
	mux.HandleFunc("GET /rank/top10", s.handleRankTop10)
	mux.HandleFunc("GET /rank/diff", s.handleRankDiff)

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /me", s.handleMe)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("POST /temp/put", s.handleTempPut)
	mux.HandleFunc("GET /temp/get/{key}", s.handleTempGet)
	mux.HandleFunc("DELETE /temp/delete/{key}", s.handleTempDelete)

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return otelhttp.NewHandler(mux, "rankboard-http")
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
