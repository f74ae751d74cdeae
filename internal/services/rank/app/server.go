// Package server wires the rank service stack: the durable sqlite store, the
// redis cache, the score and session services, and the HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kevinchn/rankboard/internal/services/auth"
	httpapi "github.com/kevinchn/rankboard/internal/services/rank/api/http"
	"github.com/kevinchn/rankboard/internal/services/rank/cache"
	memorycache "github.com/kevinchn/rankboard/internal/services/rank/cache/memory"
	rediscache "github.com/kevinchn/rankboard/internal/services/rank/cache/redis"
	"github.com/kevinchn/rankboard/internal/services/rank/service"
	"github.com/kevinchn/rankboard/internal/services/rank/storage"
	storagesqlite "github.com/kevinchn/rankboard/internal/services/rank/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Config holds the runtime wiring parameters for the rank server.
type Config struct {
	Port        int
	DBPath      string
	RedisAddr   string
	RankKey     string
	SessionTTL  time.Duration
	TempPrefix  string
	SeedEnabled bool
}

// Server hosts the rank HTTP service.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      storage.Store
	cache      cache.Cache
}

// New creates a configured rank server listening on the configured port.
func New(ctx context.Context, cfg Config) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}
	store, err := openStore(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	cacheImpl, err := openCache(ctx, cfg.RedisAddr)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	var rankOpts []service.Option
	if cfg.RankKey != "" {
		rankOpts = append(rankOpts, service.WithRankKey(cfg.RankKey))
	}
	rankService := service.New(store, cacheImpl, rankOpts...)

	var authOpts []auth.Option
	if cfg.SessionTTL > 0 {
		authOpts = append(authOpts, auth.WithSessionTTL(cfg.SessionTTL))
	}
	sessionService := auth.New(store, cacheImpl, authOpts...)

	if cfg.SeedEnabled {
		if err := seedUsers(ctx, store, rankService); err != nil {
			_ = listener.Close()
			_ = store.Close()
			_ = cacheImpl.Close()
			return nil, err
		}
	}

	var apiOpts []httpapi.Option
	if cfg.TempPrefix != "" {
		apiOpts = append(apiOpts, httpapi.WithTempPrefix(cfg.TempPrefix))
	}
	api := httpapi.New(rankService, sessionService, cacheImpl, apiOpts...)

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: api.Handler()},
		store:      store,
		cache:      cacheImpl,
	}, nil
}

// Addr returns the listener address for the rank server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a rank server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve starts the rank server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeBackends()

	log.Printf("rank server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: err=%v", err)
		}
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func openStore(path string) (storage.Store, error) {
	if path == "" {
		path = filepath.Join("data", "rank.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := storagesqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

// openCache connects to redis when an address is configured and falls back to
// the in-process cache otherwise, which keeps local development redis-free.
func openCache(ctx context.Context, addr string) (cache.Cache, error) {
	if addr == "" {
		log.Printf("rank cache: no redis address configured, using in-process cache")
		return memorycache.New(), nil
	}
	c, err := rediscache.Open(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("open redis cache: %w", err)
	}
	return c, nil
}

func (s *Server) closeBackends() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close store: err=%v", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			log.Printf("close cache: err=%v", err)
		}
	}
}
