// Package server serves the RallyKat site: HTML pages, the JSON API, GPX
// files and the live countdown stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"

	"github.com/rallykat/rallykat/internal/service"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	maxUploadBytes    = 20 << 20
)

type Options struct {
	MapboxToken    string
	MapboxStyle    string
	AllowedOrigins []string
	Clock          clockwork.Clock
	// TickInterval paces the countdown stream.
	TickInterval time.Duration
}

type Server struct {
	events  *service.EventService
	players *service.PlayerService
	tracks  *service.TrackService
	pages   map[string]*template.Template
	opts    Options
}

func New(events *service.EventService, players *service.PlayerService, tracks *service.TrackService, opts Options) (*Server, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Server{
		events:  events,
		players: players,
		tracks:  tracks,
		pages:   pages,
		opts:    opts,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleEventsPage)
	r.Get("/event/{slug}", s.handleEventPage)
	r.Get("/leaderboard", s.handleLeaderboardPage)
	r.Get("/map", s.handleMapPage)
	r.Get("/about", s.handleAboutPage)
	r.Get("/healthz", s.handleHealth)
	r.Get("/gpx/{file}", s.handleGPXFile)

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleEvents)
		r.Get("/events/{slug}/bracket", s.handleBracket)
		r.Get("/series", s.handleSeries)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/players/search", s.handlePlayerSearch)
		r.Get("/countdown/stream", s.handleCountdownStream)
		r.Get("/gpx-files", s.handleGPXFiles)
		r.Get("/tracks", s.handleTracks)
		r.Get("/tracks/{name}", s.handleTrack)
		r.Post("/tracks", s.handleTrackUpload)
	})

	r.NotFound(s.handleNotFound)
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
