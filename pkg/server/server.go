// Package server exposes a tree engine over HTTP.
//
// The server owns one [tree.Engine] and lets clients read its layout,
// re-root it, toggle stoppers and forward box clicks:
//
//	GET  /healthz                   build info
//	GET  /layout                    layout document (JSON)
//	GET  /layout.svg                rendered layout
//	GET  /links/at?x=..&y=..        hit test in screen coordinates
//	PUT  /root/{id}                 make an entity the root
//	POST /collapse/{id}             toggle the stopper of an entity
//	POST /links/{index}/click       select, or activate a marker
//	POST /links/{index}/dclick      re-root on a box, or activate a marker
//
// Errors are JSON objects with the coded error's code and message.
//
// [tree.Engine]: github.com/matzehuels/kintree/pkg/tree#Engine
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/prefs"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/tree"
)

// Server serves one engine. It is safe for concurrent use; the genealogy
// must not be modified while the server runs.
type Server struct {
	gedcom *gedcom.Gedcom
	engine *tree.Engine
	labels render.LabelFunc
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router

	store prefs.Store
	view  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunner sets the runner used to render SVG. Its cache serves repeated
// renders of an unchanged layout.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Server) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithStore persists the engine state under view after every change.
func WithStore(store prefs.Store, view string) Option {
	return func(s *Server) {
		s.store = store
		s.view = view
	}
}

// New creates a server for engine, which must lay out g.
func New(g *gedcom.Gedcom, engine *tree.Engine, opts ...Option) *Server {
	s := &Server{
		gedcom: g,
		engine: engine,
		labels: render.Labels(g),
		logger: log.Default(),
		view:   prefs.DefaultViewName,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/layout", s.handleLayout)
	r.Get("/layout.svg", s.handleSVG)
	r.Get("/links/at", s.handleLinkAt)
	r.Put("/root/{id}", s.handleSetRoot)
	r.Post("/collapse/{id}", s.handleCollapse)
	r.Post("/links/{index}/click", s.handleClick(false))
	r.Post("/links/{index}/dclick", s.handleClick(true))
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// persist saves the engine state when a store is configured.
func (s *Server) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	v := prefs.FromState(s.view, s.engine.State())
	if err := s.store.Save(ctx, v); err != nil {
		s.logger.Warn("save view", "view", s.view, "err", err)
	}
}
