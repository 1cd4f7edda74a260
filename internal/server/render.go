package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rallykat/rallykat/internal/api/content"
	"github.com/rallykat/rallykat/internal/gpx"
	"github.com/rallykat/rallykat/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"events", "event", "leaderboard", "map", "about", "notfound"}

var funcMap = template.FuncMap{
	"num": func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	},
	"rfc3339": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	},
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

type nav struct {
	Href  string
	Label string
}

var navLinks = []nav{
	{"/", "Events"},
	{"/leaderboard", "Leaderboard"},
	{"/map", "Map"},
	{"/about", "About"},
}

// page carries what the layout needs on every page.
type page struct {
	Title  string
	Active string
	Error  string
	Nav    []nav
}

func newPage(title, active string) page {
	return page{Title: title, Active: active, Nav: navLinks}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	t, ok := s.pages[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("Error rendering page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// pathParam returns a decoded route segment. chi matches against RawPath when
// the request carries one, leaving escapes like %2B in the value.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, content.ErrEventNotFound),
		errors.Is(err, gpx.ErrFileNotFound),
		errors.Is(err, service.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, gpx.ErrNoTrackPoints):
		return http.StatusUnprocessableEntity
	case errors.As(err, new(*gpx.StatusError)):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage keeps sentinel and GPX retrieval text user-facing.
func errorMessage(err error) string {
	var statusErr *gpx.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	switch statusFor(err) {
	case http.StatusUnprocessableEntity:
		return gpx.ErrNoTrackPoints.Error()
	case http.StatusNotFound:
		return "Not found"
	}
	return err.Error()
}
