package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rallykat/rallykat/internal/bracket"
	"github.com/rallykat/rallykat/internal/countdown"
	"github.com/rallykat/rallykat/internal/gpx"
	"github.com/rallykat/rallykat/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	groups, err := s.events.EventGroups(r.Context())
	if err != nil {
		slog.Error("Error loading events", "error", err)
		writeError(w, http.StatusBadGateway, "Could not load events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.events.Series(r.Context())
	if err != nil {
		slog.Error("Error loading series", "error", err)
		writeError(w, http.StatusBadGateway, "Could not load series")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": series})
}

type bracketRow struct {
	Name    string `json:"name,omitempty"`
	Emoji   string `json:"emoji,omitempty"`
	TBD     bool   `json:"tbd"`
	Winner  bool   `json:"winner"`
	Rank    int    `json:"rank,omitempty"`
	Mark    string `json:"mark,omitempty"`
	Classes string `json:"classes"`
}

type bracketCard struct {
	Key        string       `json:"key"`
	Label      string       `json:"label"`
	Redemption bool         `json:"redemption"`
	Final      bool         `json:"final"`
	X          float64      `json:"x"`
	Y          float64      `json:"y"`
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Rows       []bracketRow `json:"rows"`
}

type bracketColumn struct {
	Level  int           `json:"level"`
	Header string        `json:"header"`
	Cards  []bracketCard `json:"cards"`
}

type bracketConnector struct {
	From string `json:"from"`
	To   string `json:"to"`
	D    string `json:"d"`
}

type bracketResponse struct {
	Event      models.Event       `json:"event"`
	Columns    []bracketColumn    `json:"columns"`
	Connectors []bracketConnector `json:"connectors"`
	Width      float64            `json:"width"`
	Height     float64            `json:"height"`
}

func newBracketResponse(event models.Event, view bracket.View) bracketResponse {
	resp := bracketResponse{
		Event:      event,
		Columns:    make([]bracketColumn, 0, len(view.Columns)),
		Connectors: make([]bracketConnector, 0, len(view.Connectors)),
		Width:      view.Width,
		Height:     view.Height,
	}
	for _, col := range view.Columns {
		bc := bracketColumn{Level: col.Level, Header: col.Header}
		for _, c := range col.Cards {
			card := bracketCard{
				Key:        c.Key.String(),
				Label:      c.Label,
				Redemption: c.Redemption,
				Final:      c.Final,
				X:          c.Rect.X,
				Y:          c.Rect.Y,
				Width:      c.Rect.Width,
				Height:     c.Rect.Height,
			}
			for _, row := range c.Rows {
				br := bracketRow{TBD: row.TBD, Winner: row.Winner, Rank: row.Rank, Mark: row.Mark, Classes: row.Classes()}
				if row.Player != nil {
					br.Name = row.Player.DisplayName()
					br.Emoji = row.Player.Emoji
				}
				card.Rows = append(card.Rows, br)
			}
			bc.Cards = append(bc.Cards, card)
		}
		resp.Columns = append(resp.Columns, bc)
	}
	for _, c := range view.Connectors {
		resp.Connectors = append(resp.Connectors, bracketConnector{From: c.From.String(), To: c.To.String(), D: c.D()})
	}
	return resp
}

func (s *Server) handleBracket(w http.ResponseWriter, r *http.Request) {
	slug := pathParam(r, "slug")
	event, view, err := s.events.Bracket(r.Context(), slug)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			writeError(w, status, "Event not found")
			return
		}
		slog.Error("Error loading bracket", "slug", slug, "error", err)
		writeError(w, http.StatusBadGateway, "Could not load event")
		return
	}
	writeJSON(w, http.StatusOK, newBracketResponse(event.Event, view))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	players, err := s.players.Leaderboard(r.Context())
	if err != nil {
		slog.Error("Error loading leaderboard", "error", err)
		writeError(w, http.StatusBadGateway, "Could not load the leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

func (s *Server) handlePlayerSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "Missing 'q' parameter")
		return
	}
	if len(q) > 100 {
		writeError(w, http.StatusBadRequest, "Query too long (max 100 characters)")
		return
	}

	results, err := s.players.Search(r.Context(), q)
	if err != nil {
		slog.Error("Error searching players", "query", q, "error", err)
		writeError(w, http.StatusBadGateway, "Could not load players")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"found":   len(results) > 0,
		"results": results,
	})
}

type countdownEntry struct {
	ID       string `json:"id"`
	TimeLeft string `json:"time_left"`
}

type countdownFrame struct {
	Now    time.Time        `json:"now"`
	Events []countdownEntry `json:"events"`
}

// handleCountdownStream pushes fresh TimeLeft values once per tick until the
// client disconnects.
func (s *Server) handleCountdownStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	events, err := s.events.Events(r.Context())
	if err != nil {
		slog.Error("Error loading events for countdown", "error", err)
		writeError(w, http.StatusBadGateway, "Could not load events")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err = countdown.Stream(r.Context(), s.opts.Clock, s.opts.TickInterval, func(now time.Time) error {
		frame := countdownFrame{Now: now, Events: make([]countdownEntry, len(events))}
		for i, e := range events {
			frame.Events[i] = countdownEntry{ID: e.ID, TimeLeft: countdown.TimeLeft(e.Date, now)}
		}
		data, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: countdown\ndata: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		slog.Debug("Countdown stream ended", "error", err)
	}
}

func (s *Server) handleGPXFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.tracks.Files(r.Context())
	if err != nil {
		slog.Error("Error listing GPX files", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleGPXFile(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "file")
	rc, err := s.tracks.Open(r.Context(), name)
	if err != nil {
		status := statusFor(err)
		if status != http.StatusNotFound {
			slog.Error("Error opening GPX file", "file", name, "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/gpx+xml")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("Error streaming GPX file", "file", name, "error", err)
	}
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.tracks.Catalog(r.Context())
	if err != nil {
		slog.Error("Error loading track catalog", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	q := r.URL.Query()
	view, err := s.tracks.MapView(r.Context(), name, q.Get("start"), q.Get("end"))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Error loading track", "name", name, "error", err)
		}
		writeError(w, status, errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleTrackUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("gpx")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'gpx' file")
		return
	}
	defer file.Close()

	item, err := s.tracks.Upload(header.Filename, file)
	if err != nil {
		if !errors.Is(err, gpx.ErrNoTrackPoints) {
			slog.Error("Error reading uploaded GPX", "file", header.Filename, "error", err)
		}
		writeError(w, statusFor(err), errorMessage(err))
		return
	}
	slog.Info("GPX uploaded", "file", header.Filename, "key", item.FileName)
	writeJSON(w, http.StatusCreated, item)
}
