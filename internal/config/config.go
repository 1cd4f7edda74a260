package config

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server      Server
	Sanity      Sanity
	Cache       Cache
	Schedule    Schedule
	Events      Events
	Mapbox      Mapbox
	TelegramBot TelegramBot
}

type Server struct {
	Addr           string   `envconfig:"HTTP_ADDR" default:":8080"`
	GPXDir         string   `envconfig:"GPX_DIR" default:"public/gpx"`
	GPXRemoteURL   string   `envconfig:"GPX_REMOTE_URL"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

type Sanity struct {
	ProjectID   string `envconfig:"SANITY_PROJECT_ID" required:"true"`
	Dataset     string `envconfig:"SANITY_DATASET" required:"true"`
	APIVersion  string `envconfig:"SANITY_API_VERSION" default:"2023-05-03"`
	UseCDN      bool   `envconfig:"SANITY_USE_CDN" default:"true"`
	Token       string `envconfig:"SANITY_TOKEN"`
	Perspective string `envconfig:"SANITY_PERSPECTIVE" default:"published"`
	// APIHost overrides the project host, e.g. for a proxy.
	APIHost string `envconfig:"SANITY_API_HOST"`
}

type Cache struct {
	Driver string        `envconfig:"CACHE_DRIVER" default:"memory"`
	Path   string        `envconfig:"CACHE_PATH" default:"rallykat.db"`
	TTL    time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

type Schedule struct {
	RefreshCron  string `envconfig:"REFRESH_CRON" default:"*/10 * * * *"`
	ReminderTime string `envconfig:"REMINDER_TIME" default:"09:00"`
}

type Events struct {
	Timezone  string `envconfig:"EVENT_TIMEZONE" default:"America/New_York"`
	StartTime string `envconfig:"EVENT_START_TIME" default:"20:00"`
}

type Mapbox struct {
	Token string `envconfig:"MAPBOX_TOKEN"`
	Style string `envconfig:"MAPBOX_STYLE" default:"mapbox://styles/jfree64/cm9j35wvk009401s5a8oqb3dt"`
}

// TelegramBot is optional; the bot and reminders are disabled without a token.
type TelegramBot struct {
	Token  string `envconfig:"TELEGRAM_TOKEN"`
	ChatID int64  `envconfig:"CHAT_ID"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if c.Cache.Driver != "memory" && c.Cache.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported cache driver %q", c.Cache.Driver)
	}
	if _, err := time.LoadLocation(c.Events.Timezone); err != nil {
		return nil, fmt.Errorf("EVENT_TIMEZONE: %w", err)
	}
	if _, _, err := ParseClock(c.Events.StartTime); err != nil {
		return nil, fmt.Errorf("EVENT_START_TIME: %w", err)
	}
	if _, _, err := ParseClock(c.Schedule.ReminderTime); err != nil {
		return nil, fmt.Errorf("REMINDER_TIME: %w", err)
	}
	return &c, nil
}

// Location loads the event time zone, falling back to UTC.
func (e Events) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		slog.Warn("Unknown event time zone, using UTC", "timezone", e.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

// ParseClock parses an HH:MM wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
