package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rallykat/rallykat/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

// Documents is the raw document source, implemented by sanity.API.
type Documents interface {
	GetEvents(ctx context.Context) ([]models.EventDocument, error)
	GetEventBySlugWithHeats(ctx context.Context, slug string) (*models.EventWithHeatsDocument, error)
	GetPlayers(ctx context.Context) ([]models.PlayerDocument, error)
	GetSeries(ctx context.Context) ([]models.SeriesDocument, error)
}

// API shapes CMS documents into typed records. Event days are anchored to the
// configured start time in loc.
type API struct {
	docs        Documents
	loc         *time.Location
	startHour   int
	startMinute int
}

func NewAPI(docs Documents, loc *time.Location, startHour, startMinute int) *API {
	if loc == nil {
		loc = time.UTC
	}
	return &API{docs: docs, loc: loc, startHour: startHour, startMinute: startMinute}
}

func (a *API) GetEvents(ctx context.Context) ([]models.Event, error) {
	docs, err := a.docs.GetEvents(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, a.toEvent(doc))
	}
	return events, nil
}

func (a *API) GetEventWithHeats(ctx context.Context, slug string) (*models.EventWithHeats, error) {
	doc, err := a.docs.GetEventBySlugWithHeats(ctx, slug)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, slug)
	}

	event := &models.EventWithHeats{
		Event: a.toEvent(doc.EventDocument),
		Heats: make([]models.Heat, 0, len(doc.Heats)),
	}
	for _, h := range doc.Heats {
		event.Heats = append(event.Heats, toHeat(h))
	}
	return event, nil
}

func (a *API) GetPlayers(ctx context.Context) ([]models.Player, error) {
	docs, err := a.docs.GetPlayers(ctx)
	if err != nil {
		return nil, err
	}

	players := make([]models.Player, len(docs))
	for i, doc := range docs {
		players[i] = toPlayer(doc)
	}
	return players, nil
}

func (a *API) GetSeries(ctx context.Context) ([]models.Series, error) {
	docs, err := a.docs.GetSeries(ctx)
	if err != nil {
		return nil, err
	}

	series := make([]models.Series, 0, len(docs))
	for _, doc := range docs {
		s := models.Series{
			SeriesInfo: models.SeriesInfo{
				ID:        doc.ID,
				Name:      doc.Name,
				StartDate: a.parseDay(doc.StartDate),
				EndDate:   a.parseDay(doc.EndDate),
			},
			Slug:   doc.Slug.Current,
			Events: make([]models.Event, 0, len(doc.Events)),
		}
		for _, e := range doc.Events {
			s.Events = append(s.Events, a.toEvent(e))
		}
		series = append(series, s)
	}
	return series, nil
}

func (a *API) toEvent(doc models.EventDocument) models.Event {
	event := models.Event{
		ID:    doc.ID,
		Name:  doc.Name,
		Day:   doc.Date,
		Date:  a.startOf(doc.Date),
		Emoji: doc.Emoji,
		Slug:  doc.Slug.Current,
	}
	if doc.Series != nil {
		event.Series = &models.SeriesInfo{
			ID:        doc.Series.ID,
			Name:      doc.Series.Name,
			StartDate: a.parseDay(doc.Series.StartDate),
			EndDate:   a.parseDay(doc.Series.EndDate),
		}
	}
	return event
}

// startOf returns the race start instant for a YYYY-MM-DD day. Full
// timestamps are accepted as-is.
func (a *API) startOf(day string) time.Time {
	if day == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, day); err == nil {
		return t
	}
	d, err := time.ParseInLocation("2006-01-02", day, a.loc)
	if err != nil {
		slog.Warn("Unparsable event date", "date", day, "error", err)
		return time.Time{}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), a.startHour, a.startMinute, 0, 0, a.loc)
}

func (a *API) parseDay(day string) time.Time {
	if day == "" {
		return time.Time{}
	}
	d, err := time.ParseInLocation("2006-01-02", day, a.loc)
	if err != nil {
		return time.Time{}
	}
	return d
}

func toHeat(doc models.HeatDocument) models.Heat {
	heat := models.Heat{
		Key:        doc.Key,
		Redemption: doc.Redemption,
		Players:    make([]*models.Player, len(doc.Players)),
	}
	if level, ok := doc.Level.Int(); ok {
		heat.Level = &level
	}
	if round, ok := doc.Round.Int(); ok {
		heat.Round = &round
	}
	for i, p := range doc.Players {
		if p == nil {
			continue
		}
		player := toPlayer(*p)
		heat.Players[i] = &player
	}
	if doc.Winner != nil {
		winner := toPlayer(*doc.Winner)
		heat.Winner = &winner
	}
	return heat
}

func toPlayer(doc models.PlayerDocument) models.Player {
	return models.Player{
		ID:     doc.ID,
		Name:   doc.Name,
		Emoji:  doc.Emoji,
		Handle: doc.Handle,
		Score:  doc.Score,
	}
}
