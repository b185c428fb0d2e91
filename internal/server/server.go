// Package server exposes an ipc.Dispatcher over HTTP (gin) and over the framed
// TCP transport.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/ipcwire/internal/auth"
	"github.com/danmuck/ipcwire/internal/ipc"
	"github.com/danmuck/ipcwire/internal/observability"
	"github.com/danmuck/ipcwire/internal/protocol/frame"
	"github.com/danmuck/ipcwire/internal/protocol/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Name            string
	CorsOrigins     []string
	Session         session.Config
	Limits          frame.Limits
	ShutdownTimeout time.Duration

	// HTTPAddr serves /ipc, /health and /metrics. Empty disables HTTP.
	HTTPAddr string

	// FrameAddr serves the framed transport. Empty disables it.
	FrameAddr string

	// Auth checks the credential on every call. Nil accepts all.
	Auth auth.Validator
}

func DefaultConfig() Config {
	return Config{
		Name:            "ipcd",
		HTTPAddr:        "127.0.0.1:7420",
		FrameAddr:       "127.0.0.1:7421",
		Session:         session.DefaultConfig(),
		Limits:          frame.DefaultLimits(),
		ShutdownTimeout: 5 * time.Second,
	}
}

// ErrInvalidOrigin is returned by New for a CORS origin the middleware cannot
// serve. Only "*" and http(s) origins are accepted.
var ErrInvalidOrigin = errors.New("server: invalid cors origin")

type Server struct {
	cfg        Config
	dispatcher *ipc.Dispatcher
	router     *gin.Engine
	appeared   time.Time
	logger     zerolog.Logger

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

func New(cfg Config, backend ipc.Backend) (*Server, error) {
	origins, err := normalizeOrigins(cfg.CorsOrigins)
	if err != nil {
		return nil, err
	}
	cfg.Session = cfg.Session.WithDefaults()
	cfg.Limits = cfg.Limits.WithDefaults()
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = DefaultConfig().Name
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}
	if cfg.Auth == nil {
		cfg.Auth = auth.AllowAll{}
	}

	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", observability.CallIDHeader},
		ExposeHeaders: []string{observability.CallIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		cfg:        cfg,
		dispatcher: ipc.NewDispatcher(backend),
		router:     r,
		appeared:   time.Now(),
		logger:     log.With().Str("server", cfg.Name).Logger(),
		conns:      make(map[net.Conn]struct{}),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves every enabled listener until ctx is done or one of them fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.cfg.Session.ValidateServerTransport(); err != nil {
		return err
	}
	var tlsCfg *tls.Config
	if s.cfg.Session.TLS.Enabled {
		var err error
		if tlsCfg, err = s.cfg.Session.ServerTLSConfig(); err != nil {
			return err
		}
	}

	// Bind every listener before any goroutine starts.
	// A failed bind must leave nothing bound.
	var httpLn, frameLn net.Listener
	if addr := strings.TrimSpace(s.cfg.HTTPAddr); addr != "" {
		ln, err := listen(addr, tlsCfg)
		if err != nil {
			return err
		}
		httpLn = ln
	}
	if addr := strings.TrimSpace(s.cfg.FrameAddr); addr != "" {
		ln, err := listen(addr, tlsCfg)
		if err != nil {
			if httpLn != nil {
				_ = httpLn.Close()
			}
			return err
		}
		frameLn = ln
	}

	g, ctx := errgroup.WithContext(ctx)
	if httpLn != nil {
		httpSrv := &http.Server{
			Handler:           s.router,
			ReadHeaderTimeout: s.cfg.Session.ReadTimeout,
		}
		s.logger.Info().Str("addr", httpLn.Addr().String()).Bool("tls", tlsCfg != nil).Msg("http listening")
		g.Go(func() error {
			if err := httpSrv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}
	if frameLn != nil {
		s.logger.Info().Str("addr", frameLn.Addr().String()).Bool("tls", tlsCfg != nil).Msg("frame listening")
		g.Go(func() error {
			return s.Serve(ctx, frameLn)
		})
	}
	return g.Wait()
}

func listen(addr string, tlsCfg *tls.Config) (net.Listener, error) {
	if tlsCfg == nil {
		return net.Listen("tcp", addr)
	}
	return tls.Listen("tcp", addr, tlsCfg)
}

// ValidateOrigins reports the first origin New would reject.
func ValidateOrigins(origins []string) error {
	_, err := normalizeOrigins(origins)
	return err
}

// normalizeOrigins trims and drops empty entries, falling back to the local
// dev origin when nothing is left.
func normalizeOrigins(origins []string) ([]string, error) {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		v := strings.TrimSpace(o)
		if v == "" {
			continue
		}
		if v != "*" && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}, nil
	}
	return out, nil
}
