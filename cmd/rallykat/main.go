package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/rallykat/rallykat/internal/api/content"
	"github.com/rallykat/rallykat/internal/api/sanity"
	"github.com/rallykat/rallykat/internal/bot"
	"github.com/rallykat/rallykat/internal/config"
	"github.com/rallykat/rallykat/internal/gpx"
	"github.com/rallykat/rallykat/internal/repository"
	"github.com/rallykat/rallykat/internal/repository/memory"
	"github.com/rallykat/rallykat/internal/repository/sqlite"
	"github.com/rallykat/rallykat/internal/scheduler"
	"github.com/rallykat/rallykat/internal/server"
	"github.com/rallykat/rallykat/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Error loading .env file", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	loc := cfg.Events.Location()
	hour, minute, err := config.ParseClock(cfg.Events.StartTime)
	if err != nil {
		return err
	}

	sanityClient := sanity.NewClient(cfg.Sanity)
	sanityAPI := sanity.NewAPI(sanityClient)
	contentAPI := content.NewAPI(sanityAPI, loc, hour, minute)

	store, closeStore, err := newStore(cfg.Cache)
	if err != nil {
		return err
	}
	defer closeStore()

	clock := clockwork.NewRealClock()
	cache := service.NewCache(store, cfg.Cache.TTL, clock)
	eventService := service.NewEventService(contentAPI, cache, clock)
	playerService := service.NewPlayerService(contentAPI, cache)
	trackService := service.NewTrackService(newTrackSource(cfg.Server), gpx.NewUploads())

	srv, err := server.New(eventService, playerService, trackService, server.Options{
		MapboxToken:    cfg.Mapbox.Token,
		MapboxStyle:    cfg.Mapbox.Style,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Clock:          clock,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sendMessage func(string) error
	if cfg.TelegramBot.Token != "" {
		handler := bot.NewHandler(eventService, playerService, trackService)
		telegramBot, err := bot.NewTelegramBot(cfg.TelegramBot.Token, cfg.TelegramBot.ChatID, handler)
		if err != nil {
			return err
		}
		sendMessage = telegramBot.SendMessage

		go func() {
			if err := telegramBot.Start(ctx); err != nil {
				slog.Error("Error running telegram bot", "error", err)
			}
		}()
	} else {
		slog.Info("TELEGRAM_TOKEN not set, bot and reminders disabled")
	}

	sched, err := scheduler.NewScheduler(eventService, playerService, cfg.Schedule, loc, sendMessage)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer func() {
		err := sched.Stop()
		if err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		return err
	}

	slog.Info("Shutting down gracefully...")
	return nil
}

func newStore(cfg config.Cache) (repository.Store, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		repo, err := sqlite.NewRepository(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				slog.Error("Error closing cache database", "error", err)
			}
		}, nil
	case "memory":
		return memory.NewRepository(), func() {}, nil
	}
	return nil, nil, errors.New("unsupported cache driver " + cfg.Driver)
}

func newTrackSource(cfg config.Server) gpx.Source {
	if cfg.GPXRemoteURL != "" {
		slog.Info("Loading GPX files from remote", "url", cfg.GPXRemoteURL)
		return gpx.NewHTTPSource(cfg.GPXRemoteURL)
	}
	return gpx.NewDirSource(cfg.GPXDir)
}
