package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
	"codeberg.org/mutker/framescore/internal/overlay"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Config holds server configuration.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Server exposes the Prometheus registry and the live HUD stream.
type Server struct {
	cfg      Config
	registry *prometheus.Registry
	overlay  *overlay.Broadcast
	logger   logger.Logger
	upgrader websocket.Upgrader
}

func New(cfg Config, reg *prometheus.Registry, hud *overlay.Broadcast, log logger.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "framescore",
		Name:      "overlay_connections",
		Help:      "Number of attached overlay subscribers",
	}, func() float64 {
		return float64(hud.Clients())
	})

	return &Server{
		cfg:      cfg,
		registry: reg,
		overlay:  hud,
		logger:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The overlay stream is read-only and served on a local address.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	mux.HandleFunc("GET /overlay", s.overlayHandler)
	mux.HandleFunc("GET /healthz", s.healthHandler)
}

// Run serves until ctx is cancelled, then shuts down gracefully and
// disconnects overlay subscribers.
func (s *Server) Run(ctx context.Context) error {
	errFactory := errors.New()

	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errFactory.Wrap(errors.ErrServeHTTP, err)
	}

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Serving /metrics and /overlay")

	select {
	case err := <-serveErr:
		return errFactory.Wrap(errors.ErrServeHTTP, err)
	case <-ctx.Done():
	}

	s.overlay.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errFactory.Wrap(errors.ErrShutdownFailed, err)
	}
	s.logger.Debug().Msg("HTTP server stopped")

	return nil
}

func (s *Server) overlayHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to upgrade overlay connection")
		return
	}

	s.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("Overlay subscriber attached")
	s.overlay.Attach(conn)
	s.logger.Debug().
		Str("remote_addr", r.RemoteAddr).
		Int("remaining", s.overlay.Clients()).
		Msg("Overlay subscriber detached")
}

func (*Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
