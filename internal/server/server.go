package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"solendir/internal/model"
	"solendir/internal/relay"
)

// NotionTokenHeader lets a caller supply its own workspace token for a single
// request instead of the stored one.
const NotionTokenHeader = "X-Notion-Token"

const shutdownGrace = 5 * time.Second

// Options for running the backend.
type Options struct {
	// AllowedOrigins of "*" (or empty) accepts every origin and echoes it back
	// so credentialed requests keep working.
	AllowedOrigins []string
	// WriteTimeout must exceed the inference timeout, or slow answers are cut off.
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

type Server struct {
	relay  *relay.Service
	tokens model.TokenStore
	opts   Options
	logger *zap.Logger
	router chi.Router
}

func New(svc *relay.Service, tokens model.TokenStore, opts Options) *Server {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 90 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		relay:  svc,
		tokens: tokens,
		opts:   opts,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(s.opts.AllowedOrigins)))

	r.Get("/", s.handleRoot)
	r.Post("/chat", s.handleChat)
	r.Route("/notion", func(r chi.Router) {
		r.Post("/token", s.handleSetToken)
		r.Delete("/token", s.handleClearToken)
		r.Get("/pages", s.handlePages)
	})
	return r
}

func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if allowsAnyOrigin(origins) {
		opts.AllowOriginFunc = func(_ *http.Request, _ string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	return opts
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Handler returns the routed handler, for mounting or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve blocks while handling HTTP on listener. Cancel ctx to initiate
// graceful shutdown; in-flight requests are allowed to drain.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()

	s.logger.Info("backend listening", zap.String("addr", listener.Addr().String()))
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		<-errCh
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
