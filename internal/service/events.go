package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rallykat/rallykat/internal/api/content"
	"github.com/rallykat/rallykat/internal/bracket"
	"github.com/rallykat/rallykat/internal/countdown"
	"github.com/rallykat/rallykat/internal/models"
)

const OtherEventsGroup = "Other Events"

const (
	eventsKey = "events"
	seriesKey = "series"
)

func eventKey(slug string) string { return "event:" + slug }

// ContentSource is the typed read side of the content store.
type ContentSource interface {
	GetEvents(ctx context.Context) ([]models.Event, error)
	GetEventWithHeats(ctx context.Context, slug string) (*models.EventWithHeats, error)
	GetPlayers(ctx context.Context) ([]models.Player, error)
	GetSeries(ctx context.Context) ([]models.Series, error)
}

func isNotFound(err error) bool {
	return errors.Is(err, content.ErrEventNotFound)
}

type EventService struct {
	content  ContentSource
	cache    *Cache
	clock    clockwork.Clock
	geometry bracket.Geometry
}

func NewEventService(src ContentSource, cache *Cache, clock clockwork.Clock) *EventService {
	return &EventService{
		content:  src,
		cache:    cache,
		clock:    clock,
		geometry: bracket.DefaultGeometry,
	}
}

func (s *EventService) Events(ctx context.Context) ([]models.Event, error) {
	events, err := cached(ctx, s.cache, eventsKey, s.content.GetEvents)
	if err != nil {
		return nil, fmt.Errorf("error fetching events: %w", err)
	}
	return events, nil
}

func (s *EventService) Series(ctx context.Context) ([]models.Series, error) {
	series, err := cached(ctx, s.cache, seriesKey, s.content.GetSeries)
	if err != nil {
		return nil, fmt.Errorf("error fetching series: %w", err)
	}
	return series, nil
}

func (s *EventService) EventWithHeats(ctx context.Context, slug string) (*models.EventWithHeats, error) {
	event, err := cached(ctx, s.cache, eventKey(slug), func(ctx context.Context) (*models.EventWithHeats, error) {
		return s.content.GetEventWithHeats(ctx, slug)
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching event %q: %w", slug, err)
	}
	return event, nil
}

// Bracket returns the event together with its laid out bracket.
func (s *EventService) Bracket(ctx context.Context, slug string) (*models.EventWithHeats, bracket.View, error) {
	event, err := s.EventWithHeats(ctx, slug)
	if err != nil {
		return nil, bracket.View{}, err
	}
	return event, bracket.Build(event.Heats, s.geometry), nil
}

func (s *EventService) Card(e models.Event) models.EventCard {
	now := s.clock.Now()
	masked := countdown.Masked(e.Date, now)
	return models.EventCard{
		ID:          e.ID,
		Name:        countdown.MaskName(e.Name, e.Date, now),
		Emoji:       e.Emoji,
		Slug:        e.Slug,
		Date:        e.Date,
		DateLabel:   countdown.FormatDate(e.Date),
		TimeLeft:    countdown.TimeLeft(e.Date, now),
		Masked:      masked,
		ShowBracket: !masked && e.Slug != "",
	}
}

// EventGroups groups events by series, newest series first and the
// catch-all group last. Events keep their date order inside a group.
func (s *EventService) EventGroups(ctx context.Context) ([]models.EventGroup, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return GroupEvents(events, s.Card), nil
}

func GroupEvents(events []models.Event, card func(models.Event) models.EventCard) []models.EventGroup {
	var groups []*models.EventGroup
	byName := make(map[string]*models.EventGroup)

	for _, e := range events {
		name, start, other := OtherEventsGroup, time.Time{}, true
		if e.Series != nil && strings.TrimSpace(e.Series.Name) != "" {
			name, start, other = e.Series.Name, e.Series.StartDate, false
		}

		g, ok := byName[name]
		if !ok {
			g = &models.EventGroup{Name: name, StartDate: start, Other: other}
			byName[name] = g
			groups = append(groups, g)
		}
		g.Events = append(g.Events, card(e))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Other != groups[j].Other {
			return !groups[i].Other
		}
		return groups[i].StartDate.After(groups[j].StartDate)
	})

	out := make([]models.EventGroup, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return out
}

// NextEvent returns the first event that has not started yet, or nil.
func (s *EventService) NextEvent(ctx context.Context) (*models.Event, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	var next *models.Event
	for i := range events {
		e := events[i]
		if e.Date.IsZero() || !e.Date.After(now) {
			continue
		}
		if next == nil || e.Date.Before(next.Date) {
			next = &e
		}
	}
	return next, nil
}

// EventsToday lists events whose start falls on the current calendar day
// in the event time zone.
func (s *EventService) EventsToday(ctx context.Context) ([]models.Event, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	var today []models.Event
	for _, e := range events {
		if e.Date.IsZero() {
			continue
		}
		local := now.In(e.Date.Location())
		y1, m1, d1 := e.Date.Date()
		y2, m2, d2 := local.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			today = append(today, e)
		}
	}
	return today, nil
}

// Refresh re-fetches the event and series lists regardless of TTL.
func (s *EventService) Refresh(ctx context.Context) error {
	if err := refresh(ctx, s.cache, eventsKey, s.content.GetEvents); err != nil {
		return fmt.Errorf("error refreshing events: %w", err)
	}
	if err := refresh(ctx, s.cache, seriesKey, s.content.GetSeries); err != nil {
		return fmt.Errorf("error refreshing series: %w", err)
	}
	return nil
}
