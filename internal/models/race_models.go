package models

import "time"

type Player struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Emoji  string  `json:"emoji"`
	Handle string  `json:"handle"`
	Score  float64 `json:"score"`
}

// DisplayName prefers the short handle over the full name.
func (p Player) DisplayName() string {
	if p.Handle != "" {
		return p.Handle
	}
	return p.Name
}

type Heat struct {
	Key        string    `json:"key"`
	Level      *int      `json:"level"`
	Round      *int      `json:"round"`
	Players    []*Player `json:"players"`
	Winner     *Player   `json:"winner"`
	Redemption bool      `json:"redemption"`
}

// RoundOrZero is the in-level sort key; heats without a round sort first.
func (h Heat) RoundOrZero() int {
	if h.Round == nil {
		return 0
	}
	return *h.Round
}

type SeriesInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type Event struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Day    string      `json:"day"`
	Date   time.Time   `json:"date"`
	Emoji  string      `json:"emoji"`
	Slug   string      `json:"slug"`
	Series *SeriesInfo `json:"series,omitempty"`
}

type EventWithHeats struct {
	Event
	Heats []Heat `json:"heats"`
}

type Series struct {
	SeriesInfo
	Slug   string  `json:"slug"`
	Events []Event `json:"events"`
}

type RankedPlayer struct {
	Player
	Rank   int    `json:"rank"`
	Suffix string `json:"suffix"`
}

type EventCard struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Emoji       string    `json:"emoji"`
	Slug        string    `json:"slug"`
	Date        time.Time `json:"date"`
	DateLabel   string    `json:"date_label"`
	TimeLeft    string    `json:"time_left"`
	Masked      bool      `json:"masked"`
	ShowBracket bool      `json:"show_bracket"`
}

type EventGroup struct {
	Name      string      `json:"name"`
	StartDate time.Time   `json:"start_date"`
	Other     bool        `json:"other"`
	Events    []EventCard `json:"events"`
}
