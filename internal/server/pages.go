package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rallykat/rallykat/internal/api/content"
	"github.com/rallykat/rallykat/internal/bracket"
	"github.com/rallykat/rallykat/internal/gpx"
	"github.com/rallykat/rallykat/internal/models"
	"github.com/rallykat/rallykat/internal/service"
)

type eventsPage struct {
	page
	Groups []models.EventGroup
}

type eventPage struct {
	page
	Event   *models.EventWithHeats
	Bracket bracket.View
}

type leaderboardPage struct {
	page
	Players []models.RankedPlayer
}

type mapPage struct {
	page
	Catalog     service.TrackCatalog
	MapboxToken string
	MapboxStyle string
	StartColor  string
	EndColor    string
}

func (s *Server) handleEventsPage(w http.ResponseWriter, r *http.Request) {
	data := eventsPage{page: newPage("RallyKat", "/")}
	groups, err := s.events.EventGroups(r.Context())
	if err != nil {
		slog.Error("Error loading events", "error", err)
		data.Error = "Could not load events."
	}
	data.Groups = groups
	s.render(w, http.StatusOK, "events", data)
}

func (s *Server) handleEventPage(w http.ResponseWriter, r *http.Request) {
	slug := pathParam(r, "slug")
	event, view, err := s.events.Bracket(r.Context(), slug)
	if err != nil {
		if !errors.Is(err, content.ErrEventNotFound) {
			slog.Error("Error loading event", "slug", slug, "error", err)
		}
		data := newPage("Event not found", "/")
		data.Error = "Event not found"
		s.render(w, http.StatusNotFound, "notfound", data)
		return
	}

	s.render(w, http.StatusOK, "event", eventPage{
		page:    newPage(event.Name, "/"),
		Event:   event,
		Bracket: view,
	})
}

func (s *Server) handleLeaderboardPage(w http.ResponseWriter, r *http.Request) {
	data := leaderboardPage{page: newPage("Leaderboard", "/leaderboard")}
	players, err := s.players.Leaderboard(r.Context())
	if err != nil {
		slog.Error("Error loading leaderboard", "error", err)
		data.Error = "Could not load the leaderboard."
	}
	data.Players = players
	s.render(w, http.StatusOK, "leaderboard", data)
}

func (s *Server) handleMapPage(w http.ResponseWriter, r *http.Request) {
	data := mapPage{
		page:        newPage("Map", "/map"),
		MapboxToken: s.opts.MapboxToken,
		MapboxStyle: s.opts.MapboxStyle,
		StartColor:  gpx.DefaultStartColor,
		EndColor:    gpx.DefaultEndColor,
	}
	catalog, err := s.tracks.Catalog(r.Context())
	if err != nil {
		slog.Error("Error loading track catalog", "error", err)
		data.Error = "Error loading track: " + err.Error()
	}
	data.Catalog = catalog
	s.render(w, http.StatusOK, "map", data)
}

func (s *Server) handleAboutPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "about", newPage("About", "/about"))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	data := newPage("Not found", "")
	data.Error = "Page not found"
	s.render(w, http.StatusNotFound, "notfound", data)
}
