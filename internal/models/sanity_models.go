package models

import (
	"encoding/json"
	"math"
	"strconv"
)

type QueryResponse struct {
	Ms     int             `json:"ms"`
	Query  string          `json:"query"`
	Result json.RawMessage `json:"result"`
}

type QueryError struct {
	Error struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
}

type Slug struct {
	Current string `json:"current"`
}

type PlayerDocument struct {
	ID     string  `json:"_id"`
	Name   string  `json:"name"`
	Emoji  string  `json:"emoji"`
	Handle string  `json:"handle"`
	Score  float64 `json:"score"`
}

type SeriesRef struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type EventDocument struct {
	ID     string     `json:"_id"`
	Name   string     `json:"name"`
	Date   string     `json:"date"`
	Emoji  string     `json:"emoji"`
	Slug   Slug       `json:"slug"`
	Series *SeriesRef `json:"series"`
}

type HeatDocument struct {
	Key        string            `json:"_key"`
	Level      Number            `json:"level"`
	Round      Number            `json:"round"`
	Players    []*PlayerDocument `json:"players"`
	Winner     *PlayerDocument   `json:"winner"`
	Redemption bool              `json:"redemption"`
}

type EventWithHeatsDocument struct {
	EventDocument
	Heats []HeatDocument `json:"heats"`
}

type SeriesDocument struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	Slug      Slug            `json:"slug"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Events    []EventDocument `json:"events"`
}

// Number is a CMS numeric field that tolerates non-numeric content. Anything
// other than a JSON number (null, strings, objects) decodes as invalid.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = Number{}
		return nil
	}
	*n = Number{Value: f, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Int reports the value as an int. Fractional or out of range values are
// treated like malformed content.
func (n Number) Int() (int, bool) {
	if !n.Valid || n.Value != math.Trunc(n.Value) || math.Abs(n.Value) > math.MaxInt32 {
		return 0, false
	}
	return int(n.Value), true
}
