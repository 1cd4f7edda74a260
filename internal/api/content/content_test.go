package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rallykat/rallykat/internal/models"
)

type fakeDocuments struct {
	events []models.EventDocument
	event  *models.EventWithHeatsDocument
	err    error
}

func (f *fakeDocuments) GetEvents(ctx context.Context) ([]models.EventDocument, error) {
	return f.events, f.err
}

func (f *fakeDocuments) GetEventBySlugWithHeats(ctx context.Context, slug string) (*models.EventWithHeatsDocument, error) {
	return f.event, f.err
}

func (f *fakeDocuments) GetPlayers(ctx context.Context) ([]models.PlayerDocument, error) {
	return nil, f.err
}

func (f *fakeDocuments) GetSeries(ctx context.Context) ([]models.SeriesDocument, error) {
	return nil, f.err
}

func TestGetEventsAnchorsStartTime(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	docs := &fakeDocuments{events: []models.EventDocument{
		{ID: "e1", Name: "//SNAKE", Date: "2025-05-12", Slug: models.Slug{Current: "snake"},
			Series: &models.SeriesRef{ID: "s1", Name: "Spring", StartDate: "2025-04-01"}},
	}}

	events, err := NewAPI(docs, loc, 20, 0).GetEvents(context.Background())
	if err != nil {
		t.Fatalf("GetEvents() error: %v", err)
	}
	want := time.Date(2025, 5, 12, 20, 0, 0, 0, loc)
	if !events[0].Date.Equal(want) {
		t.Errorf("Date = %v, want %v", events[0].Date, want)
	}
	if events[0].Series == nil || events[0].Series.Name != "Spring" {
		t.Errorf("series not mapped: %+v", events[0].Series)
	}
}

func TestGetEventWithHeatsMapsLevels(t *testing.T) {
	docs := &fakeDocuments{event: &models.EventWithHeatsDocument{
		EventDocument: models.EventDocument{ID: "e1", Name: "//CIRCLE", Date: "2025-05-07"},
		Heats: []models.HeatDocument{
			{Key: "a", Level: models.Number{Value: 1, Valid: true}, Round: models.Number{Value: 2, Valid: true},
				Players: []*models.PlayerDocument{{ID: "p1"}, nil}, Winner: &models.PlayerDocument{ID: "p1"}},
			{Key: "b"},
			{Key: "c", Level: models.Number{Value: 1.5, Valid: true}, Round: models.Number{Value: 0.5, Valid: true}},
		},
	}}

	event, err := NewAPI(docs, time.UTC, 20, 0).GetEventWithHeats(context.Background(), "circle")
	if err != nil {
		t.Fatalf("GetEventWithHeats() error: %v", err)
	}
	if len(event.Heats) != 3 {
		t.Fatalf("expected 3 heats, got %d", len(event.Heats))
	}
	first := event.Heats[0]
	if first.Level == nil || *first.Level != 1 || first.Round == nil || *first.Round != 2 {
		t.Errorf("level/round not mapped: %+v", first)
	}
	if first.Players[0] == nil || first.Players[1] != nil {
		t.Errorf("players not mapped: %+v", first.Players)
	}
	if event.Heats[1].Level != nil {
		t.Errorf("expected missing level to stay nil")
	}
	if event.Heats[2].Level != nil || event.Heats[2].Round != nil {
		t.Errorf("expected fractional level and round to be dropped: %+v", event.Heats[2])
	}
}

func TestGetEventWithHeatsNotFound(t *testing.T) {
	_, err := NewAPI(&fakeDocuments{}, time.UTC, 20, 0).GetEventWithHeats(context.Background(), "missing")
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestGetEventsPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewAPI(&fakeDocuments{err: boom}, time.UTC, 20, 0).GetEvents(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
