package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aleksaelezovic/rdfpreview/internal/cache"
	"github.com/aleksaelezovic/rdfpreview/internal/config"
	"github.com/aleksaelezovic/rdfpreview/internal/fetch"
	"github.com/aleksaelezovic/rdfpreview/pkg/render"
)

// Server is the HTTP preview service
type Server struct {
	cfg      *config.Config
	fetcher  *fetch.Fetcher
	cache    *cache.Cache // nil disables caching
	renderer *render.Renderer
	metrics  *metrics
	logger   *logrus.Entry
}

type Option func(*Server)

func WithLogger(logger *logrus.Entry) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache stores rendered pages in c
func WithCache(c *cache.Cache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

func WithFetcher(f *fetch.Fetcher) Option {
	return func(s *Server) {
		s.fetcher = f
	}
}

// NewServer creates a preview server from cfg
func NewServer(cfg *config.Config, opts ...Option) *Server {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Server{
		cfg:     cfg,
		metrics: newMetrics(),
		logger:  logrus.NewEntry(discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = fetch.New(cfg.Fetch,
			fetch.WithLogger(s.logger.WithField("component", "fetch")),
			fetch.WithDefaultTTL(cfg.Cache.TTL))
	}
	s.renderer = render.New(render.WithLogger(s.logger.WithField("component", "render")))
	return s
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/preview", s.handlePreview)
	mux.HandleFunc("/render", s.handleRender)
	mux.HandleFunc("/formats", s.handleFormats)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", s.metrics.handler())
	mux.HandleFunc("/", s.handleRoot)
	return s.withRequestID(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting preview server at http://%s/", s.cfg.Server.Addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down preview server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	}
}
