package sanity

import (
	"context"
	"fmt"

	"github.com/rallykat/rallykat/internal/models"
)

const seriesProjection = `"series": *[_type == "series" && references(^._id)][0] {
      _id,
      name,
      startDate,
      endDate
    }`

const playerProjection = `{
        _id,
        name,
        emoji,
        handle,
        score
      }`

var (
	eventsQuery = `*[_type == "event"] | order(date asc) {
    _id,
    name,
    date,
    emoji,
    slug,
    ` + seriesProjection + `
  }`

	eventBySlugQuery = `*[_type == "event" && slug.current == $slug][0] {
    _id,
    name,
    date,
    emoji,
    slug,
    ` + seriesProjection + `,
    heats[] {
      _key,
      level,
      round,
      redemption,
      players[]->` + playerProjection + `,
      winner->` + playerProjection + `
    }
  }`

	playersQuery = `*[_type == "player"] | order(score desc) {
    _id,
    name,
    emoji,
    handle,
    score
  }`

	seriesQuery = `*[_type == "series"] | order(startDate desc) {
    _id,
    name,
    slug,
    startDate,
    endDate,
    events[]-> {
      _id,
      name,
      date,
      emoji,
      slug
    }
  }`
)

type API struct {
	client *Client
}

func NewAPI(client *Client) *API {
	return &API{client: client}
}

func (a *API) GetEvents(ctx context.Context) ([]models.EventDocument, error) {
	var events []models.EventDocument
	if err := a.client.Query(ctx, eventsQuery, nil, &events); err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	return events, nil
}

// GetEventBySlugWithHeats returns nil without error when no event has the slug.
func (a *API) GetEventBySlugWithHeats(ctx context.Context, slug string) (*models.EventWithHeatsDocument, error) {
	var event *models.EventWithHeatsDocument
	params := map[string]interface{}{
		"slug": slug,
	}

	if err := a.client.Query(ctx, eventBySlugQuery, params, &event); err != nil {
		return nil, fmt.Errorf("fetching event %s: %w", slug, err)
	}
	return event, nil
}

func (a *API) GetPlayers(ctx context.Context) ([]models.PlayerDocument, error) {
	var players []models.PlayerDocument
	if err := a.client.Query(ctx, playersQuery, nil, &players); err != nil {
		return nil, fmt.Errorf("fetching players: %w", err)
	}
	return players, nil
}

func (a *API) GetSeries(ctx context.Context) ([]models.SeriesDocument, error) {
	var series []models.SeriesDocument
	if err := a.client.Query(ctx, seriesQuery, nil, &series); err != nil {
		return nil, fmt.Errorf("fetching series: %w", err)
	}
	return series, nil
}
